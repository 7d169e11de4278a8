package pharmacy

import (
	"cmp"
	"slices"
	"strings"

	"github.com/giygas/pharmacy-api/referencedata/entities"
)

// FilterAll disables fulfillment filtering, as does an empty filter
const FilterAll = "all"

// NoOrderNotes is reported for restock candidates without a stored order
const NoOrderNotes = "No order placed yet"

// FulfillmentStatus lists every low or out of stock medication with its order state.
// Medications without a stored order get a not_ordered placeholder.
func (s *Service) FulfillmentStatus() []entities.FulfillmentItem {
	snapshot := s.store.GetSnapshot()

	items := make([]entities.FulfillmentItem, 0)
	for _, rec := range snapshot.Inventory {
		if rec.Status != entities.StatusOutOfStock && rec.Status != entities.StatusLowStock {
			continue
		}

		order, ok := snapshot.FulfillmentFor(rec.Name)
		if !ok {
			order = entities.FulfillmentRecord{
				MedicationName:    rec.Name,
				CurrentStatus:     rec.Status,
				FulfillmentStatus: entities.FulfillmentNotOrdered,
				Notes:             NoOrderNotes,
			}
		}

		items = append(items, entities.FulfillmentItem{
			InventoryListing:  entities.InventoryListing{InventoryRecord: rec, Found: true},
			FulfillmentRecord: order,
			NeedsFulfillment:  true,
		})
	}

	slices.SortStableFunc(items, func(a, b entities.FulfillmentItem) int {
		return cmp.Or(
			cmp.Compare(a.Status.Priority(), b.Status.Priority()),
			cmp.Compare(a.FulfillmentStatus.Priority(), b.FulfillmentStatus.Priority()),
			strings.Compare(a.MedicationName, b.MedicationName),
		)
	})
	return items
}

// FulfillmentByStatus filters FulfillmentStatus by exact fulfillment status.
// "" and "all" return everything; an unknown status matches nothing.
func (s *Service) FulfillmentByStatus(status string) []entities.FulfillmentItem {
	items := s.FulfillmentStatus()
	if status == "" || status == FilterAll {
		return items
	}

	filtered := make([]entities.FulfillmentItem, 0, len(items))
	for _, item := range items {
		if string(item.FulfillmentStatus) == status {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
