// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"io"
	"time"

	"github.com/ardiwira/greenhouse-hub/internal/models"
)

// ReadingRepository defines access to the per-kind sensor reading tables.
// Readings are append-only: Insert exists for ingestion/seeding, everything
// else is read-only.
type ReadingRepository interface {
	Insert(ctx context.Context, kind models.SensorKind, name string, value float64, at time.Time) error
	// ListForExport returns every reading inside the range ordered by
	// name ascending, then created_at descending.
	ListForExport(ctx context.Context, kind models.SensorKind, dateRange models.DateRange) ([]models.SensorReading, error)
	// Page returns one page of readings ordered newest first, with the
	// total row count for the filter.
	Page(ctx context.Context, kind models.SensorKind, dateRange models.DateRange, nameFilter string, page, perPage int) (int64, []models.SensorReading, error)
	// Stats summarizes one kind's table: row count, newest created_at and
	// the distinct sensor names present.
	Stats(ctx context.Context, kind models.SensorKind) (models.KindStats, error)
}

// ExportFileRepository catalogs generated export files.
type ExportFileRepository interface {
	// Upsert inserts a registry row, or refreshes file_path and file_size
	// of an existing (sensor_name, date) row so a re-run of the archive
	// converges instead of duplicating. The download count survives.
	Upsert(ctx context.Context, record *models.ExportFileRecord) error
	Get(ctx context.Context, id int64) (*models.ExportFileRecord, error)
	List(ctx context.Context, nameFilter, date string, page, perPage int) (int64, []*models.ExportFileRecord, error)
	IncrementDownloadCount(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// FileStore abstracts the durable storage holding export artifacts. Paths
// are relative to the store root.
type FileStore interface {
	Save(ctx context.Context, relPath string, r io.Reader) (int64, error)
	Open(ctx context.Context, relPath string) (io.ReadCloser, int64, error)
	Remove(ctx context.Context, relPath string) error
	Exists(relPath string) bool
}
