package entities

type FulfillmentStatus string

const (
	FulfillmentNotOrdered FulfillmentStatus = "not_ordered"
	FulfillmentPending    FulfillmentStatus = "pending"
	FulfillmentOrdered    FulfillmentStatus = "ordered"
	FulfillmentInTransit  FulfillmentStatus = "in_transit"
	FulfillmentDelivered  FulfillmentStatus = "delivered"
)

// Valid reports whether s is one of the known fulfillment statuses.
func (s FulfillmentStatus) Valid() bool {
	return s.Priority() < 5
}

// Priority orders fulfillment statuses from least to most advanced.
func (s FulfillmentStatus) Priority() int {
	switch s {
	case FulfillmentNotOrdered:
		return 0
	case FulfillmentPending:
		return 1
	case FulfillmentOrdered:
		return 2
	case FulfillmentInTransit:
		return 3
	case FulfillmentDelivered:
		return 4
	default:
		return 5
	}
}

// FulfillmentRecord tracks a restock order. Order details are nil until an
// order has been placed.
type FulfillmentRecord struct {
	MedicationName    string            `json:"medication_name"`
	CurrentStatus     StockStatus       `json:"current_status"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status"`
	OrderDate         *string           `json:"order_date"`
	ExpectedDelivery  *string           `json:"expected_delivery"`
	DeliveryDate      *string           `json:"delivery_date,omitempty"`
	QuantityOrdered   int               `json:"quantity_ordered"`
	QuantityReceived  *int              `json:"quantity_received,omitempty"`
	Supplier          *string           `json:"supplier"`
	OrderNumber       *string           `json:"order_number"`
	Notes             string            `json:"notes"`
}

// FulfillmentItem is an inventory record merged with its fulfillment state.
type FulfillmentItem struct {
	InventoryListing
	FulfillmentRecord
	NeedsFulfillment bool `json:"needs_fulfillment"`
}
