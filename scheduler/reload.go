package scheduler

import (
	"fmt"
	"time"

	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/metrics"
)

// Reload reads the tables, validates them and swaps them into the store.
// The served tables are left untouched when loading or validation fails.
func (s *Scheduler) Reload() error {
	// Prevent concurrent updates
	if !s.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info("Starting reference data reload", "at", s.now().Format(time.RFC3339))
	start := time.Now()

	snapshot, err := s.loader.Load()
	if err != nil {
		metrics.ObserveReload(false)
		return fmt.Errorf("failed to load reference data: %w", err)
	}

	if err := s.validator.ValidateSnapshot(snapshot); err != nil {
		metrics.ObserveReload(false)
		return fmt.Errorf("reference data rejected: %w", err)
	}

	report := s.validator.ReportDataQuality(snapshot)

	if len(report.DuplicateMedications) > 0 {
		logging.Warn("Duplicate medications detected",
			"total", len(report.DuplicateMedications),
			"medications", report.DuplicateMedications,
		)
	}

	if len(report.StatusMismatches) > 0 {
		logging.Warn("Stored stock status disagrees with quantity",
			"count", len(report.StatusMismatches),
			"medications", report.StatusMismatches,
		)
	}

	if len(report.UnstockedRecommendations) > 0 {
		logging.Info("Recommended medications not carried in inventory",
			"count", len(report.UnstockedRecommendations),
			"medications", report.UnstockedRecommendations,
		)
	}

	s.dataStore.UpdateData(snapshot, report)

	metrics.SetReferenceCounts(len(snapshot.Inventory), len(snapshot.Fulfillment), len(snapshot.Diagnoses), len(snapshot.Aliases))
	metrics.ObserveReload(true)

	logging.Info("Reference data reload completed",
		"duration", time.Since(start).String(),
		"inventory", len(snapshot.Inventory),
		"diagnoses", len(snapshot.Diagnoses),
		"needs_restock", report.MedicationsNeedingRestock,
	)

	return nil
}
