// FilePath: cmd/seed/main.go
package main

import (
	"context"
	"flag"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/ardiwira/greenhouse-hub/internal/config"
	"github.com/ardiwira/greenhouse-hub/internal/database"
	"github.com/ardiwira/greenhouse-hub/internal/models"
	"github.com/ardiwira/greenhouse-hub/internal/repository/postgres"
	nuts "github.com/vaudience/go-nuts"
)

// Seeds the reading tables with a month of plausible greenhouse data so the
// export endpoints and the monthly archive have something to chew on.
func main() {
	days := flag.Int("days", 31, "number of days to backfill")
	interval := flag.Duration("interval", time.Hour, "spacing between readings")
	flag.Parse()

	nuts.InitVersion()

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

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	start := time.Now().AddDate(0, 0, -*days)

	total := 0
	for _, kind := range models.SensorKinds() {
		names := sensorNames(kind)
		for at := start; at.Before(time.Now()); at = at.Add(*interval) {
			for _, name := range names {
				if err := readings.Insert(ctx, kind, name, simulate(kind, at, rng), at); err != nil {
					log.Fatalf("Failed to insert %s reading: %v", kind, err)
				}
				total++
			}
		}
		nuts.L.Infof("[Seed] Seeded %s readings", kind.DisplayName())
	}

	nuts.L.Infof("[Seed] Done: %d readings across %d days", total, *days)
}

func sensorNames(kind models.SensorKind) []string {
	switch kind {
	case models.KindTemperature:
		return []string{"Sensor Suhu 1", "Sensor Suhu 2"}
	case models.KindSoilMoisture:
		return []string{"Sensor Kelembaban 1", "Sensor Kelembaban 2"}
	case models.KindLight:
		return []string{"Sensor Cahaya 1"}
	case models.KindTurbidity:
		return []string{"Sensor Kekeruhan 1"}
	}
	return nil
}

// simulate produces a diurnal curve per kind with a little jitter.
func simulate(kind models.SensorKind, at time.Time, rng *rand.Rand) float64 {
	hour := float64(at.Hour()) + float64(at.Minute())/60
	day := math.Sin((hour - 6) / 24 * 2 * math.Pi)
	jitter := rng.Float64()*2 - 1

	switch kind {
	case models.KindTemperature:
		return 26 + 5*day + jitter
	case models.KindSoilMoisture:
		return 55 - 10*day + 3*jitter
	case models.KindLight:
		if day < 0 {
			return math.Max(0, 5+jitter)
		}
		return 800*day + 50*jitter
	case models.KindTurbidity:
		return 12 + 2*jitter
	}
	return 0
}
