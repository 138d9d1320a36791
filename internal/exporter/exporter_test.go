// FilePath: internal/exporter/exporter_test.go
package exporter

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/ardiwira/greenhouse-hub/internal/errors"
	"github.com/ardiwira/greenhouse-hub/internal/models"
	"github.com/ardiwira/greenhouse-hub/internal/repository/files"
	"github.com/xuri/excelize/v2"
)

// fakeReadings serves canned rows per kind, pre-sorted the way the real
// repository returns them.
type fakeReadings struct {
	rows map[models.SensorKind][]models.SensorReading
	// failOn makes ListForExport fail for one kind, after letting the
	// first failSkip matching calls through.
	failOn   models.SensorKind
	failSkip int
	lastQry  models.DateRange
}

func (f *fakeReadings) Insert(ctx context.Context, kind models.SensorKind, name string, value float64, at time.Time) error {
	f.rows[kind] = append(f.rows[kind], models.SensorReading{Name: name, Value: value, CreatedAt: at})
	return nil
}

func (f *fakeReadings) ListForExport(ctx context.Context, kind models.SensorKind, dateRange models.DateRange) ([]models.SensorReading, error) {
	if kind == f.failOn {
		if f.failSkip == 0 {
			return nil, errors.NewDatabaseError("query failed", nil)
		}
		f.failSkip--
	}
	f.lastQry = dateRange

	var out []models.SensorReading
	for _, r := range f.rows[kind] {
		if dateRange.Start != nil && r.CreatedAt.Before(*dateRange.Start) {
			continue
		}
		if dateRange.End != nil && r.CreatedAt.After(*dateRange.End) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeReadings) Page(ctx context.Context, kind models.SensorKind, dateRange models.DateRange, nameFilter string, page, perPage int) (int64, []models.SensorReading, error) {
	rows, err := f.ListForExport(ctx, kind, dateRange)
	if err != nil {
		return 0, nil, err
	}
	return int64(len(rows)), rows, nil
}

func (f *fakeReadings) Stats(ctx context.Context, kind models.SensorKind) (models.KindStats, error) {
	return models.KindStats{Count: int64(len(f.rows[kind]))}, nil
}

// fakeRegistry mirrors the postgres upsert semantics in memory.
type fakeRegistry struct {
	nextID  int64
	records map[int64]*models.ExportFileRecord
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{nextID: 1, records: make(map[int64]*models.ExportFileRecord)}
}

func (f *fakeRegistry) Upsert(ctx context.Context, record *models.ExportFileRecord) error {
	for _, existing := range f.records {
		if existing.SensorName == record.SensorName && existing.Date == record.Date {
			existing.FilePath = record.FilePath
			existing.FileSize = record.FileSize
			*record = *existing
			return nil
		}
	}
	record.ID = f.nextID
	record.CreatedAt = time.Now()
	f.nextID++
	stored := *record
	f.records[record.ID] = &stored
	return nil
}

func (f *fakeRegistry) Get(ctx context.Context, id int64) (*models.ExportFileRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, errors.NewNotFoundError("export file not found", nil)
	}
	copied := *record
	return &copied, nil
}

func (f *fakeRegistry) List(ctx context.Context, nameFilter, date string, page, perPage int) (int64, []*models.ExportFileRecord, error) {
	var out []*models.ExportFileRecord
	for _, record := range f.records {
		if nameFilter != "" && !strings.Contains(strings.ToLower(record.SensorName), strings.ToLower(nameFilter)) {
			continue
		}
		if date != "" && record.Date != date {
			continue
		}
		copied := *record
		out = append(out, &copied)
	}
	return int64(len(out)), out, nil
}

func (f *fakeRegistry) IncrementDownloadCount(ctx context.Context, id int64) error {
	record, ok := f.records[id]
	if !ok {
		return errors.NewNotFoundError("export file not found", nil)
	}
	record.DownloadCount++
	return nil
}

func (f *fakeRegistry) Delete(ctx context.Context, id int64) error {
	if _, ok := f.records[id]; !ok {
		return errors.NewNotFoundError("export file not found", nil)
	}
	delete(f.records, id)
	return nil
}

func setupEngine(t *testing.T) (*Engine, *fakeReadings, *fakeRegistry, *files.Store) {
	t.Helper()

	readings := &fakeReadings{rows: make(map[models.SensorKind][]models.SensorReading)}
	registry := newFakeRegistry()
	store, err := files.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return NewEngine(readings, registry, store, "exports/monthly"), readings, registry, store
}

func seedReading(f *fakeReadings, kind models.SensorKind, name string, value float64, at time.Time) {
	f.rows[kind] = append(f.rows[kind], models.SensorReading{Name: name, Value: value, CreatedAt: at})
}

func openWorkbook(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	t.Cleanup(func() { wb.Close() })
	return wb
}

func TestExportFilename(t *testing.T) {
	engine, _, _, _ := setupEngine(t)

	_, filename, err := engine.Export(context.Background(), models.KindTemperature, models.DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(filename, "temperature_sensors_") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("unexpected filename %q", filename)
	}

	_, filename, err = engine.Export(context.Background(), models.KindAll, models.DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(filename, "all_sensors_data_") {
		t.Errorf("unexpected combined filename %q", filename)
	}
}

func TestExportSheetContents(t *testing.T) {
	engine, readings, _, _ := setupEngine(t)

	early := time.Date(2025, 7, 10, 8, 0, 0, 0, time.Local)
	late := time.Date(2025, 7, 10, 9, 0, 0, 0, time.Local)
	seedReading(readings, models.KindTemperature, "Sensor Suhu 1", 25.504, early)
	seedReading(readings, models.KindTemperature, "Sensor Suhu 1", 30.1, late)

	buf, _, err := engine.Export(context.Background(), models.KindTemperature, models.DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wb := openWorkbook(t, buf)

	sheet := "Temperature Sensors"
	rows, err := wb.GetRows(sheet)
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}

	header := rows[0]
	wantHeader := []string{"Sensor Name", "Temperature (°C)", "Timestamp", "Date", "Time"}
	for i, want := range wantHeader {
		if header[i] != want {
			t.Errorf("header column %d: expected %q, got %q", i, want, header[i])
		}
	}

	// Newest reading comes first within a sensor.
	if rows[1][1] != "30.1" {
		t.Errorf("expected newest value 30.1 first, got %q", rows[1][1])
	}
	if rows[2][1] != "25.5" {
		t.Errorf("expected value rounded to 25.5, got %q", rows[2][1])
	}
	if rows[1][2] != "2025-07-10 09:00:00" {
		t.Errorf("unexpected timestamp cell %q", rows[1][2])
	}
	if rows[1][3] != "2025-07-10" || rows[1][4] != "09:00:00" {
		t.Errorf("unexpected date/time cells %q %q", rows[1][3], rows[1][4])
	}
}

func TestExportOrdersByNameThenNewest(t *testing.T) {
	engine, readings, _, _ := setupEngine(t)

	base := time.Date(2025, 7, 1, 12, 0, 0, 0, time.Local)
	seedReading(readings, models.KindLight, "Sensor B", 10, base)
	seedReading(readings, models.KindLight, "Sensor A", 20, base.Add(-time.Hour))
	seedReading(readings, models.KindLight, "Sensor A", 30, base.Add(time.Hour))

	buf, _, err := engine.Export(context.Background(), models.KindLight, models.DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wb := openWorkbook(t, buf)

	rows, err := wb.GetRows("Light Sensors")
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	gotNames := []string{rows[1][0], rows[2][0], rows[3][0]}
	gotValues := []string{rows[1][1], rows[2][1], rows[3][1]}
	wantNames := []string{"Sensor A", "Sensor A", "Sensor B"}
	wantValues := []string{"30", "20", "10"}
	for i := range wantNames {
		if gotNames[i] != wantNames[i] || gotValues[i] != wantValues[i] {
			t.Errorf("row %d: expected %s=%s, got %s=%s", i, wantNames[i], wantValues[i], gotNames[i], gotValues[i])
		}
	}
}

func TestExportAllKindsSheets(t *testing.T) {
	engine, _, _, _ := setupEngine(t)

	buf, _, err := engine.Export(context.Background(), models.KindAll, models.DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wb := openWorkbook(t, buf)

	want := []string{"Temperature Sensors", "Soil Moisture Sensors", "Light Sensors", "Turbidity Sensors"}
	got := wb.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("expected %d sheets, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestExportEmptyStillHasHeader(t *testing.T) {
	engine, _, _, _ := setupEngine(t)

	buf, _, err := engine.Export(context.Background(), models.KindTurbidity, models.DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wb := openWorkbook(t, buf)

	rows, err := wb.GetRows("Turbidity Sensors")
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a lone header row, got %d rows", len(rows))
	}
	if rows[0][1] != "Turbidity (NTU)" {
		t.Errorf("unexpected value heading %q", rows[0][1])
	}
}

func TestExportUnknownKind(t *testing.T) {
	engine, _, _, _ := setupEngine(t)

	_, _, err := engine.Export(context.Background(), models.SensorKind("humidity"), models.DateRange{})
	if err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
	if !errors.IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestMonthlyArchive(t *testing.T) {
	engine, readings, registry, store := setupEngine(t)

	july := time.Date(2025, 7, 15, 10, 0, 0, 0, time.Local)
	august := time.Date(2025, 8, 2, 10, 0, 0, 0, time.Local)
	seedReading(readings, models.KindTemperature, "Sensor Suhu 1", 27.3, july)
	seedReading(readings, models.KindTemperature, "Sensor Suhu 1", 29.9, august)

	records, err := engine.MonthlyArchive(context.Background(), models.Period{Year: 2025, Month: time.July})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}

	wantNames := []string{"All Sensors", "Temperature", "Soil Moisture", "Light", "Turbidity"}
	wantPaths := []string{
		"exports/monthly/all_sensors_2025-07.xlsx",
		"exports/monthly/temperature_2025-07.xlsx",
		"exports/monthly/soil_moisture_2025-07.xlsx",
		"exports/monthly/light_2025-07.xlsx",
		"exports/monthly/turbidity_2025-07.xlsx",
	}
	for i, record := range records {
		if record.SensorName != wantNames[i] {
			t.Errorf("record %d: expected name %q, got %q", i, wantNames[i], record.SensorName)
		}
		if record.FilePath != wantPaths[i] {
			t.Errorf("record %d: expected path %q, got %q", i, wantPaths[i], record.FilePath)
		}
		if record.Date != "2025-07" {
			t.Errorf("record %d: expected date 2025-07, got %q", i, record.Date)
		}
		if record.ID == 0 {
			t.Errorf("record %d: expected an assigned id", i)
		}
		if record.FileSize <= 0 {
			t.Errorf("record %d: expected a positive file size", i)
		}
		if !store.Exists(record.FilePath) {
			t.Errorf("record %d: expected %s in storage", i, record.FilePath)
		}
	}
	if len(registry.records) != 5 {
		t.Errorf("expected 5 registry rows, got %d", len(registry.records))
	}

	// The archived temperature sheet only holds July readings.
	reader, _, err := store.Open(context.Background(), "exports/monthly/temperature_2025-07.xlsx")
	if err != nil {
		t.Fatalf("failed to open archived file: %v", err)
	}
	defer reader.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		t.Fatalf("failed to read archived file: %v", err)
	}
	wb := openWorkbook(t, &buf)
	rows, err := wb.GetRows("Temperature Sensors")
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus the single July row, got %d rows", len(rows))
	}
}

func TestMonthlyArchiveRerunConverges(t *testing.T) {
	engine, _, registry, _ := setupEngine(t)
	period := models.Period{Year: 2025, Month: time.July}

	first, err := engine.MonthlyArchive(context.Background(), period)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	if err := registry.IncrementDownloadCount(context.Background(), first[0].ID); err != nil {
		t.Fatalf("failed to bump download count: %v", err)
	}

	second, err := engine.MonthlyArchive(context.Background(), period)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(registry.records) != 5 {
		t.Fatalf("expected the rerun to keep 5 registry rows, got %d", len(registry.records))
	}
	if second[0].ID != first[0].ID {
		t.Errorf("expected the rerun to reuse row id %d, got %d", first[0].ID, second[0].ID)
	}
	if second[0].DownloadCount != 1 {
		t.Errorf("expected the download count to survive the rerun, got %d", second[0].DownloadCount)
	}
}

func TestMonthlyArchiveAbortsOnFailure(t *testing.T) {
	// The combined workbook reads every table, so a failing light table
	// kills the run before any file is written.
	engine, readings, registry, _ := setupEngine(t)
	readings.failOn = models.KindLight

	_, err := engine.MonthlyArchive(context.Background(), models.Period{Year: 2025, Month: time.July})
	if err == nil {
		t.Fatal("expected the run to fail")
	}
	if len(registry.records) != 0 {
		t.Errorf("expected no registry rows, got %d", len(registry.records))
	}
}

func TestMonthlyArchiveKeepsEarlierFilesOnFailure(t *testing.T) {
	// Turbidity is archived last. The combined workbook reads its table
	// once (let through), so four files land before the failure.
	engine, readings, registry, store := setupEngine(t)
	readings.failOn = models.KindTurbidity
	readings.failSkip = 1

	_, err := engine.MonthlyArchive(context.Background(), models.Period{Year: 2025, Month: time.July})
	if err == nil {
		t.Fatal("expected the run to fail")
	}
	if !store.Exists("exports/monthly/temperature_2025-07.xlsx") {
		t.Error("expected the temperature archive to remain")
	}
	if store.Exists("exports/monthly/turbidity_2025-07.xlsx") {
		t.Error("expected no turbidity archive")
	}
	if len(registry.records) != 4 {
		t.Errorf("expected 4 registry rows before the failure, got %d", len(registry.records))
	}
}

func TestOpenFileIncrementsDownloadCount(t *testing.T) {
	engine, _, registry, _ := setupEngine(t)

	records, err := engine.MonthlyArchive(context.Background(), models.Period{Year: 2025, Month: time.July})
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	id := records[0].ID

	record, reader, err := engine.OpenFile(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reader.Close()

	if record.DownloadCount != 1 {
		t.Errorf("expected download count 1 in the returned record, got %d", record.DownloadCount)
	}
	stored, _ := registry.Get(context.Background(), id)
	if stored.DownloadCount != 1 {
		t.Errorf("expected stored download count 1, got %d", stored.DownloadCount)
	}
}

func TestOpenFileUnknownID(t *testing.T) {
	engine, _, registry, _ := setupEngine(t)

	_, _, err := engine.OpenFile(context.Background(), 42)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
	if len(registry.records) != 0 {
		t.Error("a failed download must not create registry rows")
	}
}

func TestOpenFileMissingFromStorage(t *testing.T) {
	engine, _, registry, store := setupEngine(t)

	records, err := engine.MonthlyArchive(context.Background(), models.Period{Year: 2025, Month: time.July})
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	id := records[0].ID
	if err := store.Remove(context.Background(), records[0].FilePath); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}

	_, _, err = engine.OpenFile(context.Background(), id)
	if !errors.IsFileMissing(err) {
		t.Fatalf("expected a file-missing error, got %v", err)
	}
	stored, _ := registry.Get(context.Background(), id)
	if stored.DownloadCount != 0 {
		t.Errorf("a failed download must not increment the counter, got %d", stored.DownloadCount)
	}
}

func TestDeleteFile(t *testing.T) {
	engine, _, _, store := setupEngine(t)

	records, err := engine.MonthlyArchive(context.Background(), models.Period{Year: 2025, Month: time.July})
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	target := records[2]

	if err := engine.DeleteFile(context.Background(), target.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Exists(target.FilePath) {
		t.Error("expected the stored file to be gone")
	}
	if _, _, err := engine.OpenFile(context.Background(), target.ID); !errors.IsNotFound(err) {
		t.Errorf("expected not-found after delete, got %v", err)
	}
}

func TestDeleteFileWithMissingObject(t *testing.T) {
	engine, _, registry, store := setupEngine(t)

	records, err := engine.MonthlyArchive(context.Background(), models.Period{Year: 2025, Month: time.July})
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	target := records[0]
	if err := store.Remove(context.Background(), target.FilePath); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}

	if err := engine.DeleteFile(context.Background(), target.ID); err != nil {
		t.Fatalf("delete must succeed for an orphaned row: %v", err)
	}
	if _, err := registry.Get(context.Background(), target.ID); !errors.IsNotFound(err) {
		t.Errorf("expected the registry row to be gone, got %v", err)
	}
}

func TestDeleteFileUnknownID(t *testing.T) {
	engine, _, _, _ := setupEngine(t)

	if err := engine.DeleteFile(context.Background(), 99); !errors.IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestStatsKeys(t *testing.T) {
	engine, readings, _, _ := setupEngine(t)
	seedReading(readings, models.KindTemperature, "Sensor Suhu 1", 27.3, time.Now())

	stats, err := engine.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range []string{"temperature_sensors", "soil_moisture_sensors", "light_sensors", "turbidity_sensors"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("expected stats key %q", key)
		}
	}
	if stats["temperature_sensors"].Count != 1 {
		t.Errorf("expected 1 temperature reading, got %d", stats["temperature_sensors"].Count)
	}
}

func TestOnEvent(t *testing.T) {
	engine, _, _, _ := setupEngine(t)

	archived := make(chan string, 8)
	engine.OnEvent("file.archived", func(id string) { archived <- id })

	records, err := engine.MonthlyArchive(context.Background(), models.Period{Year: 2025, Month: time.July})
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	for range records {
		select {
		case id := <-archived:
			if id == "" {
				t.Error("expected a non-empty id")
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for archive events")
		}
	}
}
