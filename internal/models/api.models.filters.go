// FilePath: internal/models/api.models.filters.go
package models

import (
	"fmt"
	"math"
	"time"
)

const dayFormat = "2006-01-02"

// DateRange bounds a readings query at calendar-day granularity. Either end
// may be nil, meaning unbounded on that side. A start after the end is not an
// error; the query simply matches nothing.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// NewDateRange parses optional YYYY-MM-DD bounds. The start bound expands to
// 00:00:00 of that day, the end bound to 23:59:59.
func NewDateRange(startDate, endDate string) (DateRange, error) {
	var r DateRange
	if startDate != "" {
		t, err := time.ParseInLocation(dayFormat, startDate, time.Local)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid start_date %q: %w", startDate, err)
		}
		r.Start = &t
	}
	if endDate != "" {
		t, err := time.ParseInLocation(dayFormat, endDate, time.Local)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid end_date %q: %w", endDate, err)
		}
		t = t.Add(24*time.Hour - time.Second)
		r.End = &t
	}
	return r, nil
}

// IsZero reports whether the range is unbounded on both sides.
func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// ReadingQuery carries the query-string filters of the paginated
// sensor-data endpoints.
type ReadingQuery struct {
	StartDate  string `schema:"start_date"`
	EndDate    string `schema:"end_date"`
	SensorName string `schema:"sensor_name"`
	Page       int    `schema:"page"`
	PerPage    int    `schema:"per_page"`
}

// ExportFileQuery carries the query-string filters of the exported-files
// listing endpoint. SensorName is a substring match, Date an exact YYYY-MM.
type ExportFileQuery struct {
	SensorName string `schema:"sensor_name"`
	Date       string `schema:"date"`
	Page       int    `schema:"page"`
	PerPage    int    `schema:"per_page"`
}

// Paginated is the envelope returned by the listing endpoints.
type Paginated struct {
	Items      any   `json:"items"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated assembles the envelope around one page of items.
func NewPaginated(items any, page, perPage int, total int64) Paginated {
	pages := 0
	if perPage > 0 {
		pages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	return Paginated{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
	}
}

// NormalizePage clamps pagination parameters to sane values.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 15
	}
	return page, perPage
}
