// FilePath: internal/repository/postgres/postgres.export_files.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ardiwira/greenhouse-hub/internal/database"
	"github.com/ardiwira/greenhouse-hub/internal/errors"
	"github.com/ardiwira/greenhouse-hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// ExportFileRepo persists the registry of generated export files.
type ExportFileRepo struct {
	db database.DB
}

func NewExportFileRepository(db database.DB) (*ExportFileRepo, error) {
	repo := &ExportFileRepo{db: db}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ExportFileRepo) initializeSchema() error {
	// The (sensor_name, date) key makes archive re-runs converge on the
	// same row instead of duplicating it.
	queries := []string{
		`CREATE TABLE IF NOT EXISTS export_files (
			id BIGSERIAL PRIMARY KEY,
			sensor_name TEXT NOT NULL,
			file_path TEXT NOT NULL,
			date TEXT NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			download_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (sensor_name, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_export_files_created
			ON export_files (created_at DESC)`,
	}
	for _, query := range queries {
		if _, err := r.db.GetDB().Exec(query); err != nil {
			return errors.NewDatabaseError("failed to initialize export_files schema", err)
		}
	}
	return nil
}

// Upsert inserts or refreshes the row keyed by (sensor_name, date). An
// existing row keeps its download count; path and size are replaced to match
// the freshly written file.
func (r *ExportFileRepo) Upsert(ctx context.Context, record *models.ExportFileRecord) error {
	query := `
		INSERT INTO export_files (sensor_name, file_path, date, file_size, download_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (sensor_name, date) DO UPDATE SET
			file_path = EXCLUDED.file_path,
			file_size = EXCLUDED.file_size
		RETURNING id, download_count, created_at`

	err := r.db.GetDB().QueryRowxContext(ctx, query,
		record.SensorName, record.FilePath, record.Date, record.FileSize, record.DownloadCount,
	).Scan(&record.ID, &record.DownloadCount, &record.CreatedAt)
	if err != nil {
		return errors.NewDatabaseError("failed to upsert export file record", err)
	}
	return nil
}

func (r *ExportFileRepo) Get(ctx context.Context, id int64) (*models.ExportFileRecord, error) {
	record := &models.ExportFileRecord{}
	query := `SELECT id, sensor_name, file_path, date, file_size, download_count, created_at
		FROM export_files WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, record, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("export file not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get export file record", err)
	}
	return record, nil
}

func (r *ExportFileRepo) List(ctx context.Context, nameFilter, date string, page, perPage int) (int64, []*models.ExportFileRecord, error) {
	page, perPage = models.NormalizePage(page, perPage)

	where := ""
	args := []interface{}{}
	and := func() string {
		if where == "" {
			return " WHERE "
		}
		return " AND "
	}
	if nameFilter != "" {
		args = append(args, "%"+nameFilter+"%")
		where += and() + fmt.Sprintf("sensor_name ILIKE $%d", len(args))
	}
	if date != "" {
		args = append(args, date)
		where += and() + fmt.Sprintf("date = $%d", len(args))
	}

	var total int64
	if err := r.db.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM export_files`+where, args...); err != nil {
		return 0, nil, errors.NewDatabaseError("failed to count export files", err)
	}

	query := `SELECT id, sensor_name, file_path, date, file_size, download_count, created_at
		FROM export_files` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	records := []*models.ExportFileRecord{}
	if err := r.db.GetDB().SelectContext(ctx, &records, query, args...); err != nil {
		return 0, nil, errors.NewDatabaseError("failed to list export files", err)
	}
	return total, records, nil
}

// IncrementDownloadCount bumps the counter by exactly one. The update is a
// single atomic statement, so concurrent downloads cannot corrupt the row.
func (r *ExportFileRepo) IncrementDownloadCount(ctx context.Context, id int64) error {
	query := `UPDATE export_files SET download_count = download_count + 1 WHERE id = $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return errors.NewDatabaseError("failed to increment download count", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("export file not found", nil)
	}
	return nil
}

func (r *ExportFileRepo) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM export_files WHERE id = $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete export file record", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("export file not found", nil)
	}

	nuts.L.Infof("[ExportFileRepo] Deleted registry row %d", id)
	return nil
}
