// FilePath: internal/exporter/spreadsheet.go
package exporter

import (
	"math"

	"github.com/ardiwira/greenhouse-hub/internal/errors"
	"github.com/ardiwira/greenhouse-hub/internal/models"
	"github.com/xuri/excelize/v2"
)

const timestampFormat = "2006-01-02 15:04:05"

// sheetData pairs one worksheet with the readings it renders.
type sheetData struct {
	kind models.SensorKind
	rows []models.SensorReading
}

// headerFill returns the header background colour per kind.
func headerFill(kind models.SensorKind) string {
	switch kind {
	case models.KindTemperature:
		return "E3F2FD"
	case models.KindSoilMoisture:
		return "E8F5E8"
	case models.KindLight:
		return "FFF8E1"
	case models.KindTurbidity:
		return "E0F7FA"
	}
	return "EEEEEE"
}

// buildWorkbook renders one worksheet per sheetData entry. Rows arrive
// already ordered (name ascending, created_at descending); an empty slice
// still produces the header row.
func buildWorkbook(sheets []sheetData) (*excelize.File, error) {
	f := excelize.NewFile()

	for i, sheet := range sheets {
		name := sheet.kind.SheetName()
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, errors.NewInternalError("failed to name worksheet", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, errors.NewInternalError("failed to add worksheet", err)
			}
		}
		if err := writeSheet(f, name, sheet); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, name string, sheet sheetData) error {
	headings := []interface{}{
		"Sensor Name",
		sheet.kind.DisplayName() + " (" + sheet.kind.Unit() + ")",
		"Timestamp",
		"Date",
		"Time",
	}
	if err := f.SetSheetRow(name, "A1", &headings); err != nil {
		return errors.NewInternalError("failed to write sheet header", err)
	}

	styleID, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill(sheet.kind)}},
	})
	if err != nil {
		return errors.NewInternalError("failed to create header style", err)
	}
	if err := f.SetCellStyle(name, "A1", "E1", styleID); err != nil {
		return errors.NewInternalError("failed to style sheet header", err)
	}

	for i, reading := range sheet.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.NewInternalError("failed to address sheet row", err)
		}
		row := []interface{}{
			reading.Name,
			math.Round(reading.Value*100) / 100,
			reading.CreatedAt.Format(timestampFormat),
			reading.CreatedAt.Format("2006-01-02"),
			reading.CreatedAt.Format("15:04:05"),
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return errors.NewInternalError("failed to write sheet row", err)
		}
	}

	// Wide enough for the timestamp column; excelize has no autosize.
	if err := f.SetColWidth(name, "A", "E", 22); err != nil {
		return errors.NewInternalError("failed to size sheet columns", err)
	}
	return nil
}
