// FilePath: internal/repository/postgres/postgres.readings.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ardiwira/greenhouse-hub/internal/database"
	"github.com/ardiwira/greenhouse-hub/internal/errors"
	"github.com/ardiwira/greenhouse-hub/internal/models"
)

// ReadingRepo serves the four per-kind reading tables. Table names come from
// the closed SensorKind enum, never from request input.
type ReadingRepo struct {
	db database.DB
}

func NewReadingRepository(db database.DB) (*ReadingRepo, error) {
	repo := &ReadingRepo{db: db}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ReadingRepo) initializeSchema() error {
	for _, kind := range models.SensorKinds() {
		table := kind.Table()
		queries := []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				value NUMERIC(10,2) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_name_created
				ON %s (name, created_at DESC)`, table, table),
		}
		for _, query := range queries {
			if _, err := r.db.GetDB().Exec(query); err != nil {
				return errors.NewDatabaseError("failed to initialize readings schema", err)
			}
		}
	}
	return nil
}

func (r *ReadingRepo) Insert(ctx context.Context, kind models.SensorKind, name string, value float64, at time.Time) error {
	if !kind.Valid() {
		return errors.NewValidationError("unknown sensor kind", nil)
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (name, value, created_at) VALUES ($1, $2, $3)`, kind.Table())

	_, err := r.db.GetDB().ExecContext(ctx, query, name, value, at)
	if err != nil {
		return errors.NewDatabaseError("failed to insert sensor reading", err)
	}
	return nil
}

// ListForExport returns all readings inside the range ordered by name
// ascending then created_at descending, the fixed layout of export sheets.
func (r *ReadingRepo) ListForExport(ctx context.Context, kind models.SensorKind, dateRange models.DateRange) ([]models.SensorReading, error) {
	if !kind.Valid() {
		return nil, errors.NewValidationError("unknown sensor kind", nil)
	}

	query := fmt.Sprintf(`SELECT id, name, value, created_at FROM %s`, kind.Table())
	where, args := rangeClauses(dateRange, "", nil)
	query += where + ` ORDER BY name ASC, created_at DESC`

	readings := []models.SensorReading{}
	if err := r.db.GetDB().SelectContext(ctx, &readings, query, args...); err != nil {
		return nil, errors.NewDatabaseError("failed to list readings for export", err)
	}
	return readings, nil
}

func (r *ReadingRepo) Page(ctx context.Context, kind models.SensorKind, dateRange models.DateRange, nameFilter string, page, perPage int) (int64, []models.SensorReading, error) {
	if !kind.Valid() {
		return 0, nil, errors.NewValidationError("unknown sensor kind", nil)
	}
	page, perPage = models.NormalizePage(page, perPage)

	where, args := rangeClauses(dateRange, nameFilter, nil)

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, kind.Table()) + where
	if err := r.db.GetDB().GetContext(ctx, &total, countQuery, args...); err != nil {
		return 0, nil, errors.NewDatabaseError("failed to count readings", err)
	}

	query := fmt.Sprintf(`SELECT id, name, value, created_at FROM %s`, kind.Table()) +
		where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	readings := []models.SensorReading{}
	if err := r.db.GetDB().SelectContext(ctx, &readings, query, args...); err != nil {
		return 0, nil, errors.NewDatabaseError("failed to page readings", err)
	}
	return total, readings, nil
}

func (r *ReadingRepo) Stats(ctx context.Context, kind models.SensorKind) (models.KindStats, error) {
	if !kind.Valid() {
		return models.KindStats{}, errors.NewValidationError("unknown sensor kind", nil)
	}
	table := kind.Table()
	stats := models.KindStats{SensorNames: []string{}}

	row := struct {
		Count  int64        `db:"count"`
		Latest sql.NullTime `db:"latest"`
	}{}
	query := fmt.Sprintf(`SELECT COUNT(*) AS count, MAX(created_at) AS latest FROM %s`, table)
	if err := r.db.GetDB().GetContext(ctx, &row, query); err != nil {
		return stats, errors.NewDatabaseError("failed to read kind stats", err)
	}
	stats.Count = row.Count
	if row.Latest.Valid {
		latest := row.Latest.Time
		stats.LatestDate = &latest
	}

	namesQuery := fmt.Sprintf(`SELECT DISTINCT name FROM %s ORDER BY name ASC`, table)
	if err := r.db.GetDB().SelectContext(ctx, &stats.SensorNames, namesQuery); err != nil {
		return stats, errors.NewDatabaseError("failed to read sensor names", err)
	}
	return stats, nil
}

// rangeClauses builds the shared WHERE fragment for the day-granular range
// and the optional substring name filter. A start after the end simply
// matches nothing; that is the documented behavior, not an error.
func rangeClauses(dateRange models.DateRange, nameFilter string, args []interface{}) (string, []interface{}) {
	clauses := ""
	and := func() string {
		if clauses == "" {
			return " WHERE "
		}
		return " AND "
	}

	if dateRange.Start != nil {
		args = append(args, *dateRange.Start)
		clauses += and() + fmt.Sprintf("created_at >= $%d", len(args))
	}
	if dateRange.End != nil {
		args = append(args, *dateRange.End)
		clauses += and() + fmt.Sprintf("created_at <= $%d", len(args))
	}
	if nameFilter != "" {
		args = append(args, "%"+nameFilter+"%")
		clauses += and() + fmt.Sprintf("name ILIKE $%d", len(args))
	}
	return clauses, args
}
