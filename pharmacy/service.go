// Package pharmacy answers stock, recommendation, extraction and fulfillment
// queries against the live reference snapshot.
package pharmacy

import (
	"cmp"
	"slices"
	"strings"

	"github.com/giygas/pharmacy-api/extractor"
	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/matcher"
	"github.com/giygas/pharmacy-api/metrics"
	"github.com/giygas/pharmacy-api/referencedata/entities"
)

// Compile-time check to ensure Service implements PharmacyService
var _ interfaces.PharmacyService = (*Service)(nil)

// Service reads the current snapshot on every call, so a reload is visible to
// the next request without coordination.
type Service struct {
	store     interfaces.DataStore
	extractor *extractor.Extractor
}

// NewService creates a service. A nil extractor uses the default allow-lists.
func NewService(store interfaces.DataStore, ext *extractor.Extractor) *Service {
	if ext == nil {
		ext = extractor.New()
	}
	return &Service{store: store, extractor: ext}
}

// CheckStock resolves a medication query against the inventory table
func (s *Service) CheckStock(query string) entities.LookupResult {
	result := matcher.MatchMedication(query, s.store.GetInventory())
	metrics.ObserveLookup(metrics.KindMedication, string(result.Tier))
	logging.Debug("Stock lookup", "query", query, "found", result.Found, "tier", result.Tier)
	return result
}

// AllInventory lists every record, out of stock first, then low stock, then by name
func (s *Service) AllInventory() []entities.InventoryListing {
	return listings(s.store.GetInventory(), func(entities.InventoryRecord) bool { return true })
}

// SearchInventory lists records whose name contains term, ignoring case. A blank term lists everything.
func (s *Service) SearchInventory(term string) []entities.InventoryListing {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return s.AllInventory()
	}
	return listings(s.store.GetInventory(), func(rec entities.InventoryRecord) bool {
		return strings.Contains(strings.ToLower(rec.Name), needle)
	})
}

// RecommendMedications returns the medications for a diagnosis, never an empty list
func (s *Service) RecommendMedications(diagnosis string) []entities.MedicationRecord {
	snapshot := s.store.GetSnapshot()
	meds, tier := matcher.ResolveDiagnosis(diagnosis, snapshot.Diagnoses, snapshot.Aliases)
	metrics.ObserveLookup(metrics.KindDiagnosis, string(tier))
	logging.Debug("Diagnosis lookup", "diagnosis", diagnosis, "tier", tier, "count", len(meds))
	return meds
}

// ExtractPrescription pulls medication records out of prescription text
func (s *Service) ExtractPrescription(text string) []entities.MedicationRecord {
	meds := s.extractor.Extract(text)
	metrics.ObserveExtraction(len(meds))
	return meds
}

// InStockMedications lists in-stock records in listing order
func (s *Service) InStockMedications() []entities.InventoryListing {
	return listings(s.store.GetInventory(), func(rec entities.InventoryRecord) bool {
		return rec.Status == entities.StatusInStock
	})
}

func listings(table entities.InventoryTable, keep func(entities.InventoryRecord) bool) []entities.InventoryListing {
	out := make([]entities.InventoryListing, 0, len(table))
	for _, rec := range table {
		if keep(rec) {
			out = append(out, entities.InventoryListing{InventoryRecord: rec, Found: true})
		}
	}

	slices.SortStableFunc(out, func(a, b entities.InventoryListing) int {
		return cmp.Or(
			cmp.Compare(a.Status.Priority(), b.Status.Priority()),
			strings.Compare(a.Name, b.Name),
		)
	})
	return out
}
