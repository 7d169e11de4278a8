package data

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/pharmacy-api/referencedata/entities"
)

func TestDataContainer_EdgeCases(t *testing.T) {
	container := NewDataContainer()

	if container.GetInventory() == nil {
		t.Error("Inventory should not be nil")
	}
	if container.GetFulfillment() == nil {
		t.Error("Fulfillment should not be nil")
	}
	if container.GetDiagnoses() == nil {
		t.Error("Diagnoses should not be nil")
	}
	if container.GetAliases() == nil {
		t.Error("Aliases should not be nil")
	}
}

func TestDataContainer_GetServerStartTime(t *testing.T) {
	container := NewDataContainer()

	if !container.GetServerStartTime().IsZero() {
		t.Error("Server start time should initially be zero")
	}

	now := time.Now()
	container.SetServerStartTime(now)

	if got := container.GetServerStartTime(); !got.Equal(now) {
		t.Errorf("Expected start time %v, got %v", now, got)
	}
}

func TestDataContainer_UpdateDataWithNil(t *testing.T) {
	container := NewDataContainer()
	original := testSnapshot("Lisinopril")
	container.UpdateData(original, nil)
	updated := container.GetLastUpdated()

	container.UpdateData(nil, nil)

	if container.GetSnapshot() != original {
		t.Error("A nil snapshot should not replace the current one")
	}
	if !container.GetLastUpdated().Equal(updated) {
		t.Error("A nil snapshot should not touch lastUpdated")
	}
}

func TestDataContainer_UpdateDataWithEmptyTables(t *testing.T) {
	container := NewDataContainer()
	container.UpdateData(testSnapshot("Lisinopril"), nil)

	container.UpdateData(&entities.Snapshot{}, nil)

	if len(container.GetInventory()) != 0 {
		t.Errorf("Expected empty inventory, got %d records", len(container.GetInventory()))
	}
	if container.GetLastUpdated().IsZero() {
		t.Error("lastUpdated should be set")
	}
}

func TestDataContainer_ThreadSafety(t *testing.T) {
	container := NewDataContainer()
	var wg sync.WaitGroup
	var reads atomic.Int64

	for i := range 10 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range 50 {
				if j%10 == 0 && container.BeginUpdate() {
					container.UpdateData(testSnapshot("Lisinopril"), nil)
					container.EndUpdate()
				}
				_ = container.GetInventory()
				_ = container.GetDataQualityReport()
				_ = container.IsUpdating()
				_ = container.GetLastUpdated()
				reads.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if reads.Load() != 500 {
		t.Errorf("Expected 500 reads, got %d", reads.Load())
	}
	if container.IsUpdating() {
		t.Error("No update should be left in progress")
	}
}
