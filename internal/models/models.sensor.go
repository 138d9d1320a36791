// FilePath: internal/models/models.sensor.go
package models

import "time"

// SensorKind identifies one of the four measurement categories tracked by
// the greenhouse, or the synthetic "all" aggregate used for combined exports.
type SensorKind string

const (
	KindTemperature  SensorKind = "temperature"
	KindSoilMoisture SensorKind = "soil_moisture"
	KindLight        SensorKind = "light"
	KindTurbidity    SensorKind = "turbidity"
	KindAll          SensorKind = "all"
)

// SensorKinds returns the physical kinds in their canonical export order.
func SensorKinds() []SensorKind {
	return []SensorKind{KindTemperature, KindSoilMoisture, KindLight, KindTurbidity}
}

// Valid reports whether k is a known physical kind.
func (k SensorKind) Valid() bool {
	switch k {
	case KindTemperature, KindSoilMoisture, KindLight, KindTurbidity:
		return true
	}
	return false
}

// DisplayName returns the human-readable name used in registry rows and
// sheet titles.
func (k SensorKind) DisplayName() string {
	switch k {
	case KindTemperature:
		return "Temperature"
	case KindSoilMoisture:
		return "Soil Moisture"
	case KindLight:
		return "Light"
	case KindTurbidity:
		return "Turbidity"
	case KindAll:
		return "All Sensors"
	}
	return string(k)
}

// Table returns the readings table for a physical kind. The same value keys
// the per-kind entries of the export stats payload.
func (k SensorKind) Table() string {
	return string(k) + "_sensors"
}

// Unit returns the measurement unit shown in the value column heading.
func (k SensorKind) Unit() string {
	switch k {
	case KindTemperature:
		return "°C"
	case KindSoilMoisture:
		return "%"
	case KindLight:
		return "lux"
	case KindTurbidity:
		return "NTU"
	}
	return ""
}

// SheetName returns the worksheet title for a physical kind.
func (k SensorKind) SheetName() string {
	return k.DisplayName() + " Sensors"
}

// FileStem returns the lowercase, underscored stem used in archive file
// names, e.g. "soil_moisture" or "all_sensors".
func (k SensorKind) FileStem() string {
	if k == KindAll {
		return "all_sensors"
	}
	return string(k)
}

// RouteSlug returns the hyphenated kind segment used in export URLs.
func (k SensorKind) RouteSlug() string {
	switch k {
	case KindSoilMoisture:
		return "soil-moisture"
	default:
		return string(k)
	}
}

// KindFromSlug resolves a hyphenated URL segment back to a physical kind.
func KindFromSlug(slug string) (SensorKind, bool) {
	switch slug {
	case "temperature":
		return KindTemperature, true
	case "soil-moisture":
		return KindSoilMoisture, true
	case "light":
		return KindLight, true
	case "turbidity":
		return KindTurbidity, true
	}
	return "", false
}

// SensorReading is a single measurement row. Readings are append-only;
// nothing in this service updates or deletes them.
type SensorReading struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Value     float64   `json:"value" db:"value"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// KindStats summarizes one readings table for the export page.
type KindStats struct {
	Count       int64      `json:"count"`
	LatestDate  *time.Time `json:"latest_date"`
	SensorNames []string   `json:"sensor_names"`
}

// ExportStats maps a kind's table name to its summary.
type ExportStats map[string]KindStats
