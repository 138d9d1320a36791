// FilePath: internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ardiwira/greenhouse-hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// archiveTimeout bounds one whole monthly run.
const archiveTimeout = 30 * time.Minute

// MonthlyArchiver is the engine operation the scheduler triggers.
type MonthlyArchiver interface {
	MonthlyArchive(ctx context.Context, period models.Period) ([]*models.ExportFileRecord, error)
}

// Scheduler fires the monthly archive once per calendar month at a fixed
// local time. The target period is derived from the wall clock at trigger
// time and passed explicitly, so firing slightly early or late still
// archives the intended month. A failed run is logged and waits for the
// next natural trigger; there is no automatic retry.
type Scheduler struct {
	archiver MonthlyArchiver
	day      int // day of month, 1..28
	hour     int // local hour, 0..23

	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New creates a scheduler firing on the given day of month at the given hour.
func New(archiver MonthlyArchiver, day, hour int) *Scheduler {
	return &Scheduler{
		archiver: archiver,
		day:      day,
		hour:     hour,
		stopChan: make(chan struct{}),
	}
}

// Start begins the trigger loop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()

	nuts.L.Infof("[Scheduler] Monthly export scheduled for day %d at %02d:00", s.day, s.hour)
}

// Stop halts the trigger loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	nuts.L.Infof("[Scheduler] Stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	for {
		next := nextRun(time.Now(), s.day, s.hour)
		timer := time.NewTimer(time.Until(next))
		nuts.L.Infof("[Scheduler] Next monthly export at %s", next.Format(time.RFC3339))

		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case now := <-timer.C:
			s.runOnce(now)
		}
	}
}

// runOnce archives the month preceding now.
func (s *Scheduler) runOnce(now time.Time) {
	period := models.PreviousMonth(now)

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	records, err := s.archiver.MonthlyArchive(ctx, period)
	if err != nil {
		nuts.L.Errorf("[Scheduler] Monthly export for %s failed: %v", period, err)
		return
	}
	nuts.L.Infof("[Scheduler] Monthly export for %s produced %d files", period, len(records))
}

// nextRun returns the first day/hour trigger instant strictly after the
// given time, rolling into the next month when this month's slot passed.
func nextRun(after time.Time, day, hour int) time.Time {
	candidate := time.Date(after.Year(), after.Month(), day, hour, 0, 0, 0, after.Location())
	if !candidate.After(after) {
		candidate = candidate.AddDate(0, 1, 0)
	}
	return candidate
}
