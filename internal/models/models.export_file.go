// FilePath: internal/models/models.export_file.go
package models

import (
	"path"
	"time"
)

// ExportFileRecord catalogs one generated spreadsheet on storage. Rows are
// created by the monthly archive, mutated only by the download counter, and
// removed together with their backing file.
type ExportFileRecord struct {
	ID            int64     `json:"id" db:"id"`
	SensorName    string    `json:"sensor_name" db:"sensor_name"`
	FilePath      string    `json:"file_path" db:"file_path"`
	Date          string    `json:"date" db:"date"` // archive period, YYYY-MM
	FileSize      int64     `json:"file_size" db:"file_size"`
	DownloadCount int       `json:"download_count" db:"download_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// FileName returns the bare file name for Content-Disposition headers.
func (r *ExportFileRecord) FileName() string {
	return path.Base(r.FilePath)
}
