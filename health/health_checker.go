// Package health reports whether the pharmacy API is serving usable reference data.
package health

import (
	"cmp"
	"math"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/giygas/pharmacy-api/config"
	"github.com/giygas/pharmacy-api/interfaces"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	// A reload is expected at least twice a day
	DegradedAge  = 24 * time.Hour
	UnhealthyAge = 48 * time.Hour
	// An update running this long on stale data is stuck
	StuckUpdateAge = 6 * time.Hour
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore   interfaces.DataStore
	reloadTimes []clock
	now         func() time.Time
}

type clock struct{ hour, minute int }

// NewHealthChecker creates a health checker. reloadTimes are HH:MM entries; invalid entries are skipped
// and the default schedule applies when none are left.
func NewHealthChecker(dataStore interfaces.DataStore, reloadTimes []string) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore:   dataStore,
		reloadTimes: parseClocks(reloadTimes),
		now:         time.Now,
	}
}

func parseClocks(entries []string) []clock {
	var clocks []clock
	for _, e := range entries {
		t, err := time.Parse("15:04", e)
		if err != nil {
			continue
		}
		clocks = append(clocks, clock{t.Hour(), t.Minute()})
	}
	if len(clocks) == 0 {
		return parseClocks(strings.Split(config.DefaultReloadTimes, ";"))
	}
	slices.SortFunc(clocks, func(a, b clock) int {
		return cmp.Or(cmp.Compare(a.hour, b.hour), cmp.Compare(a.minute, b.minute))
	})
	return clocks
}

// HealthCheck returns the status, the data-related details and the HTTP code for /health
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	snapshot := h.dataStore.GetSnapshot()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := h.now().Sub(lastUpdate)

	switch {
	case len(snapshot.Inventory) == 0 || len(snapshot.Diagnoses) == 0:
		status, httpStatus = StatusUnhealthy, http.StatusServiceUnavailable
	case dataAge > UnhealthyAge:
		status, httpStatus = StatusUnhealthy, http.StatusServiceUnavailable
	case dataAge > DegradedAge:
		status, httpStatus = StatusDegraded, http.StatusServiceUnavailable
	case isUpdating && dataAge > StuckUpdateAge:
		status, httpStatus = StatusDegraded, http.StatusServiceUnavailable
	default:
		status, httpStatus = StatusHealthy, http.StatusOK
	}

	data = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"inventory":      len(snapshot.Inventory),
		"fulfillment":    len(snapshot.Fulfillment),
		"diagnoses":      len(snapshot.Diagnoses),
		"aliases":        len(snapshot.Aliases),
		"is_updating":    isUpdating,
	}

	if report := h.dataStore.GetDataQualityReport(); report != nil {
		data["needs_restock"] = report.MedicationsNeedingRestock
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the first scheduled reload after now
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := h.now()
	for _, c := range h.reloadTimes {
		next := time.Date(now.Year(), now.Month(), now.Day(), c.hour, c.minute, 0, 0, now.Location())
		if now.Before(next) {
			return next
		}
	}

	first := h.reloadTimes[0]
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), first.hour, first.minute, 0, 0, now.Location())
}
