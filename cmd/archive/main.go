// FilePath: cmd/archive/main.go
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/ardiwira/greenhouse-hub/internal/config"
	"github.com/ardiwira/greenhouse-hub/internal/database"
	"github.com/ardiwira/greenhouse-hub/internal/exporter"
	"github.com/ardiwira/greenhouse-hub/internal/models"
	"github.com/ardiwira/greenhouse-hub/internal/repository/files"
	"github.com/ardiwira/greenhouse-hub/internal/repository/postgres"
	nuts "github.com/vaudience/go-nuts"
)

// One-shot monthly archive run. Useful for backfilling a month or for
// re-running a failed scheduled job; the upsert keyed on (sensor_name, date)
// makes repeated runs converge on one registry row per file.
func main() {
	month := flag.String("month", "", "archive period as YYYY-MM (default: previous month)")
	flag.Parse()

	nuts.InitVersion()

	period := models.PreviousMonth(time.Now())
	if *month != "" {
		parsed, err := models.ParsePeriod(*month)
		if err != nil {
			log.Fatalf("Invalid -month value %q: %v", *month, err)
		}
		period = parsed
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	readings, err := postgres.NewReadingRepository(db)
	if err != nil {
		log.Fatalf("Failed to initialize readings repository: %v", err)
	}
	registry, err := postgres.NewExportFileRepository(db)
	if err != nil {
		log.Fatalf("Failed to initialize export file repository: %v", err)
	}
	store, err := files.NewStore(cfg.Storage.BasePath)
	if err != nil {
		log.Fatalf("Failed to initialize file store: %v", err)
	}

	engine := exporter.NewEngine(readings, registry, store, cfg.Export.MonthlyDir)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	records, err := engine.MonthlyArchive(ctx, period)
	if err != nil {
		log.Fatalf("Monthly archive for %s failed: %v", period, err)
	}

	for _, record := range records {
		nuts.L.Infof("[Archive] %s -> %s (%d bytes)", record.SensorName, record.FilePath, record.FileSize)
	}
	nuts.L.Infof("[Archive] Done: %d files for %s", len(records), period)
}
