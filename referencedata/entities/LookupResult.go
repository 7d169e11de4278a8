package entities

import "encoding/json"

// MatchTier names the precedence level that resolved a lookup.
type MatchTier string

const (
	TierNone             MatchTier = "none"
	TierExact            MatchTier = "exact"
	TierForwardSubstring MatchTier = "forward_substring"
	TierReverseSubstring MatchTier = "reverse_substring"
	TierSubstring        MatchTier = "substring"
	TierAlias            MatchTier = "alias"
)

// StatusNotFound is the status reported by a lookup that matched nothing.
const StatusNotFound = "not_found"

// LookupResult is the outcome of a stock lookup. When Found is true Record
// holds the matched entry; otherwise Message explains the miss and, unless the
// query was blank, Suggestions lists table keys.
type LookupResult struct {
	Record         InventoryRecord
	Found          bool
	SearchTerm     string
	Message        string
	Suggestions    []string
	TotalAvailable int
	Tier           MatchTier
}

type foundPayload struct {
	Name          string      `json:"name"`
	Dosage        string      `json:"dosage"`
	StockQuantity int         `json:"stock_quantity"`
	Unit          string      `json:"unit"`
	Status        StockStatus `json:"status"`
	ReorderLevel  int         `json:"reorder_level"`
	LastUpdated   string      `json:"last_updated"`
	Found         bool        `json:"found"`
	SearchTerm    string      `json:"search_term"`
}

type notFoundPayload struct {
	Name           string    `json:"name"`
	Found          bool      `json:"found"`
	Status         string    `json:"status"`
	Message        string    `json:"message"`
	SearchTerm     string    `json:"search_term"`
	Suggestions    *[]string `json:"suggestions,omitempty"`
	TotalAvailable *int      `json:"total_available,omitempty"`
}

// MarshalJSON flattens the result into the found or not-found wire shape.
func (r LookupResult) MarshalJSON() ([]byte, error) {
	if r.Found {
		return json.Marshal(foundPayload{
			Name:          r.Record.Name,
			Dosage:        r.Record.Dosage,
			StockQuantity: r.Record.StockQuantity,
			Unit:          r.Record.Unit,
			Status:        r.Record.Status,
			ReorderLevel:  r.Record.ReorderLevel,
			LastUpdated:   r.Record.LastUpdated,
			Found:         true,
			SearchTerm:    r.SearchTerm,
		})
	}

	payload := notFoundPayload{
		Name:       r.SearchTerm,
		Status:     StatusNotFound,
		Message:    r.Message,
		SearchTerm: r.SearchTerm,
	}
	if r.Suggestions != nil {
		payload.Suggestions = &r.Suggestions
		payload.TotalAvailable = &r.TotalAvailable
	}
	return json.Marshal(payload)
}
