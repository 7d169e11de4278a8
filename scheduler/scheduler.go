// Package scheduler reloads the pharmacy reference tables on a daily schedule
// and warns when the served data goes stale.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/go-co-op/gocron"
)

// StaleAfter is how old the data may get before the monitor complains
const StaleAfter = 25 * time.Hour

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles data reloads and staleness monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	loader    interfaces.Loader
	validator interfaces.DataValidator
	schedule  string
	scheduler *gocron.Scheduler

	monitorInterval time.Duration
	now             func() time.Time
	stop            chan struct{}
	stopOnce        sync.Once
}

// NewScheduler creates a scheduler. schedule is a gocron At expression such as "06:00;18:00".
func NewScheduler(dataStore interfaces.DataStore, loader interfaces.Loader, validator interfaces.DataValidator, schedule string) *Scheduler {
	return &Scheduler{
		dataStore:       dataStore,
		loader:          loader,
		validator:       validator,
		schedule:        schedule,
		scheduler:       gocron.NewScheduler(time.Local),
		monitorInterval: time.Hour,
		now:             time.Now,
		stop:            make(chan struct{}),
	}
}

// Start performs the initial load, then schedules reloads and health monitoring
func (s *Scheduler) Start() error {
	if err := s.Reload(); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.schedule).Do(func() {
		if err := s.Reload(); err != nil {
			logging.Error("Failed to reload reference data", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule reloads", "schedule", s.schedule, "error", err)
		return fmt.Errorf("failed to schedule reloads: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Reload scheduler started", "schedule", s.schedule)

	go s.monitor()

	return nil
}

// Stop stops the cron jobs and the monitor. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.scheduler.Stop()
	})
}

func (s *Scheduler) monitor() {
	ticker := time.NewTicker(s.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.checkStaleness()
		}
	}
}

// checkStaleness logs a warning and reports true when the data is older than StaleAfter
func (s *Scheduler) checkStaleness() bool {
	age := s.now().Sub(s.dataStore.GetLastUpdated())
	if age <= StaleAfter {
		return false
	}
	logging.Warn("Reference data hasn't been updated in over 25 hours", "age", age.Round(time.Minute).String())
	return true
}
