// FilePath: internal/exporter/engine.go
package exporter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/ardiwira/greenhouse-hub/internal/errors"
	"github.com/ardiwira/greenhouse-hub/internal/models"
	"github.com/ardiwira/greenhouse-hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

const exportTimestampFormat = "2006-01-02_15-04-05"

// Engine orchestrates spreadsheet generation: on-demand exports that stream
// straight to the caller, and the monthly archive that writes files to
// storage and registers them. It also mediates the registry's download and
// delete lifecycle so the counter, the row and the backing file stay in step.
type Engine struct {
	readings   repository.ReadingRepository
	registry   repository.ExportFileRepository
	store      repository.FileStore
	monthlyDir string
	events     *nuts.EventEmitter
}

// NewEngine creates an Engine writing archives under monthlyDir inside the
// file store.
func NewEngine(readings repository.ReadingRepository, registry repository.ExportFileRepository, store repository.FileStore, monthlyDir string) *Engine {
	return &Engine{
		readings:   readings,
		registry:   registry,
		store:      store,
		monthlyDir: monthlyDir,
		events:     nuts.NewEventEmitter(),
	}
}

// Export builds one spreadsheet bounded by dateRange: a single sheet for a
// physical kind, or one workbook with all four sheets for KindAll. It reads
// only; nothing is written to storage or the registry. The filename embeds
// the generation timestamp so every request gets a distinct name.
func (e *Engine) Export(ctx context.Context, kind models.SensorKind, dateRange models.DateRange) (*bytes.Buffer, string, error) {
	sheets, err := e.collectSheets(ctx, kind, dateRange)
	if err != nil {
		return nil, "", err
	}

	workbook, err := buildWorkbook(sheets)
	if err != nil {
		return nil, "", err
	}
	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, "", errors.NewInternalError("failed to serialize workbook", err)
	}

	ts := time.Now().Format(exportTimestampFormat)
	var filename string
	if kind == models.KindAll {
		filename = fmt.Sprintf("all_sensors_data_%s.xlsx", ts)
	} else {
		filename = fmt.Sprintf("%s_sensors_%s.xlsx", kind.FileStem(), ts)
	}
	return buf, filename, nil
}

// MonthlyArchive exports the combined workbook and each physical kind for
// the given period, writes the files under the month-scoped directory and
// upserts one registry row per file (five in total). Steps run sequentially;
// the first failure aborts the run and files already written stay behind.
func (e *Engine) MonthlyArchive(ctx context.Context, period models.Period) ([]*models.ExportFileRecord, error) {
	nuts.L.Infof("[Exporter] Starting monthly archive for %s", period)
	dateRange := period.Range()

	targets := append([]models.SensorKind{models.KindAll}, models.SensorKinds()...)
	records := make([]*models.ExportFileRecord, 0, len(targets))

	for _, kind := range targets {
		record, err := e.archiveKind(ctx, kind, period, dateRange)
		if err != nil {
			return nil, fmt.Errorf("archive %s for %s: %w", kind.DisplayName(), period, err)
		}
		records = append(records, record)
		e.events.Emit("file.archived", fmt.Sprintf("%d", record.ID))
	}

	nuts.L.Infof("[Exporter] Monthly archive for %s complete: %d files", period, len(records))
	return records, nil
}

func (e *Engine) archiveKind(ctx context.Context, kind models.SensorKind, period models.Period, dateRange models.DateRange) (*models.ExportFileRecord, error) {
	sheets, err := e.collectSheets(ctx, kind, dateRange)
	if err != nil {
		return nil, err
	}
	workbook, err := buildWorkbook(sheets)
	if err != nil {
		return nil, err
	}
	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, errors.NewInternalError("failed to serialize workbook", err)
	}

	relPath := path.Join(e.monthlyDir, fmt.Sprintf("%s_%s.xlsx", kind.FileStem(), period))
	size, err := e.store.Save(ctx, relPath, buf)
	if err != nil {
		return nil, err
	}

	record := &models.ExportFileRecord{
		SensorName: kind.DisplayName(),
		FilePath:   relPath,
		Date:       period.String(),
		FileSize:   size,
	}
	if err := e.registry.Upsert(ctx, record); err != nil {
		return nil, err
	}

	nuts.L.Infof("[Exporter] Archived %s -> %s (%d bytes)", kind.DisplayName(), relPath, size)
	return record, nil
}

func (e *Engine) collectSheets(ctx context.Context, kind models.SensorKind, dateRange models.DateRange) ([]sheetData, error) {
	kinds := []models.SensorKind{kind}
	if kind == models.KindAll {
		kinds = models.SensorKinds()
	} else if !kind.Valid() {
		return nil, errors.NewValidationError("unknown sensor kind", nil)
	}

	sheets := make([]sheetData, 0, len(kinds))
	for _, k := range kinds {
		rows, err := e.readings.ListForExport(ctx, k, dateRange)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheetData{kind: k, rows: rows})
	}
	return sheets, nil
}

// Stats summarizes all four reading tables for the export page.
func (e *Engine) Stats(ctx context.Context) (models.ExportStats, error) {
	stats := models.ExportStats{}
	for _, kind := range models.SensorKinds() {
		kindStats, err := e.readings.Stats(ctx, kind)
		if err != nil {
			return nil, err
		}
		stats[kind.Table()] = kindStats
	}
	return stats, nil
}

// ReadingsPage returns one page of raw readings for the UI tables.
func (e *Engine) ReadingsPage(ctx context.Context, kind models.SensorKind, dateRange models.DateRange, nameFilter string, page, perPage int) (int64, []models.SensorReading, error) {
	return e.readings.Page(ctx, kind, dateRange, nameFilter, page, perPage)
}

// ListFiles returns one page of registry rows, newest first.
func (e *Engine) ListFiles(ctx context.Context, nameFilter, date string, page, perPage int) (int64, []*models.ExportFileRecord, error) {
	return e.registry.List(ctx, nameFilter, date, page, perPage)
}

// OpenFile resolves a registry row to its stored object for download. The
// download counter is incremented before the stream starts; a client that
// disconnects mid-stream keeps the increment.
func (e *Engine) OpenFile(ctx context.Context, id int64) (*models.ExportFileRecord, io.ReadCloser, error) {
	record, err := e.registry.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !e.store.Exists(record.FilePath) {
		return nil, nil, errors.NewFileMissingError("export file is missing from storage", nil)
	}

	if err := e.registry.IncrementDownloadCount(ctx, id); err != nil {
		return nil, nil, err
	}
	record.DownloadCount++

	reader, _, err := e.store.Open(ctx, record.FilePath)
	if err != nil {
		return nil, nil, err
	}

	e.events.Emit("file.downloaded", fmt.Sprintf("%d", id))
	return record, reader, nil
}

// DeleteFile removes the backing object (a missing file is fine) and then
// the registry row. Terminal: nothing references the id afterwards.
func (e *Engine) DeleteFile(ctx context.Context, id int64) error {
	record, err := e.registry.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := e.store.Remove(ctx, record.FilePath); err != nil {
		return err
	}
	if err := e.registry.Delete(ctx, id); err != nil {
		return err
	}

	e.events.Emit("file.deleted", fmt.Sprintf("%d", id))
	return nil
}

// OnEvent registers a callback for registry lifecycle events
// (file.archived, file.downloaded, file.deleted).
func (e *Engine) OnEvent(event string, handler func(id string)) {
	e.events.On(event, "export_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}
