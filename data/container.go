// Package data provides thread-safe storage for the pharmacy reference tables.
// A whole snapshot is swapped atomically so readers never observe a partially
// reloaded set of tables.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/referencedata/entities"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds the current snapshot with atomic pointers for zero-downtime updates
type DataContainer struct {
	snapshot        atomic.Pointer[entities.Snapshot]
	report          atomic.Pointer[interfaces.DataQualityReport]
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty tables
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.snapshot.Store(emptySnapshot())
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

func emptySnapshot() *entities.Snapshot {
	return &entities.Snapshot{
		Inventory:   entities.InventoryTable{},
		Fulfillment: []entities.FulfillmentRecord{},
		Diagnoses:   entities.DiagnosisTable{},
		Aliases:     []entities.Alias{},
	}
}

// GetSnapshot returns the current generation of tables. Callers must treat it as read-only.
func (dc *DataContainer) GetSnapshot() *entities.Snapshot {
	if s := dc.snapshot.Load(); s != nil {
		return s
	}

	logging.Warn("Snapshot is empty or invalid")
	return emptySnapshot()
}

func (dc *DataContainer) GetInventory() entities.InventoryTable {
	return dc.GetSnapshot().Inventory
}

func (dc *DataContainer) GetFulfillment() []entities.FulfillmentRecord {
	return dc.GetSnapshot().Fulfillment
}

func (dc *DataContainer) GetDiagnoses() entities.DiagnosisTable {
	return dc.GetSnapshot().Diagnoses
}

func (dc *DataContainer) GetAliases() []entities.Alias {
	return dc.GetSnapshot().Aliases
}

// GetDataQualityReport returns the report computed for the current snapshot, or nil before the first load
func (dc *DataContainer) GetDataQualityReport() *interfaces.DataQualityReport {
	return dc.report.Load()
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically replaces the snapshot. A nil snapshot is ignored.
func (dc *DataContainer) UpdateData(snapshot *entities.Snapshot, report *interfaces.DataQualityReport) {
	if snapshot == nil {
		logging.Warn("Refusing to store a nil snapshot")
		return
	}

	dc.snapshot.Store(snapshot)
	dc.report.Store(report)
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
