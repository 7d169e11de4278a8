package entities

import "time"

// TimestampLayout is the layout of InventoryRecord.LastUpdated.
const TimestampLayout = "2006-01-02T15:04:05"

type StockStatus string

const (
	StatusInStock    StockStatus = "in_stock"
	StatusLowStock   StockStatus = "low_stock"
	StatusOutOfStock StockStatus = "out_of_stock"
)

// Valid reports whether s is one of the known stock statuses.
func (s StockStatus) Valid() bool {
	switch s {
	case StatusInStock, StatusLowStock, StatusOutOfStock:
		return true
	}
	return false
}

// Priority orders statuses for listings: out of stock first.
func (s StockStatus) Priority() int {
	switch s {
	case StatusOutOfStock:
		return 0
	case StatusLowStock:
		return 1
	default:
		return 2
	}
}

// InventoryRecord is the stock state of one medication. Status is stored as
// supplied and never recomputed from StockQuantity.
type InventoryRecord struct {
	Name          string      `json:"name"`
	Dosage        string      `json:"dosage"`
	StockQuantity int         `json:"stock_quantity"`
	Unit          string      `json:"unit"`
	Status        StockStatus `json:"status"`
	ReorderLevel  int         `json:"reorder_level"`
	LastUpdated   string      `json:"last_updated"`
}

// LastUpdatedTime parses LastUpdated using TimestampLayout.
func (r InventoryRecord) LastUpdatedTime() (time.Time, error) {
	return time.Parse(TimestampLayout, r.LastUpdated)
}

// InventoryTable is keyed by InventoryRecord.Name and ordered; the order is
// authoritative for matching and suggestions.
type InventoryTable []InventoryRecord

// Names returns the table keys in table order.
func (t InventoryTable) Names() []string {
	names := make([]string, len(t))
	for i, rec := range t {
		names[i] = rec.Name
	}
	return names
}

// Get returns the record with the exact key name.
func (t InventoryTable) Get(name string) (InventoryRecord, bool) {
	for _, rec := range t {
		if rec.Name == name {
			return rec, true
		}
	}
	return InventoryRecord{}, false
}

// InventoryListing is an inventory record as returned by listing endpoints.
type InventoryListing struct {
	InventoryRecord
	Found bool `json:"found"`
}
