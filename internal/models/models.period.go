// FilePath: internal/models/models.period.go
package models

import (
	"fmt"
	"time"
)

// Period identifies one calendar month. The monthly archive takes the target
// period as an explicit argument so the pure archival logic stays independent
// of the wall clock; the scheduler supplies "previous month" at trigger time.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// PreviousMonth returns the period of the calendar month preceding now.
func PreviousMonth(now time.Time) Period {
	return PeriodOf(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0))
}

// ParsePeriod parses the fixed YYYY-MM form used in registry rows.
func ParsePeriod(s string) (Period, error) {
	t, err := time.ParseInLocation("2006-01", s, time.Local)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return PeriodOf(t), nil
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Bounds returns the inclusive instant range covering the whole month:
// first day 00:00:00 through last day 23:59:59.
func (p Period) Bounds() (start, end time.Time) {
	start = time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.Local)
	end = start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}

// Range returns the period bounds as a DateRange for readings queries.
func (p Period) Range() DateRange {
	start, end := p.Bounds()
	return DateRange{Start: &start, End: &end}
}
