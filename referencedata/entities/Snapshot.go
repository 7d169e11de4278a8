package entities

// Snapshot is one consistent, read-only generation of the reference tables.
type Snapshot struct {
	Inventory   InventoryTable      `json:"inventory"`
	Fulfillment []FulfillmentRecord `json:"fulfillment"`
	Diagnoses   DiagnosisTable      `json:"diagnoses"`
	Aliases     []Alias             `json:"aliases"`
}

// FulfillmentFor returns the stored fulfillment record for a medication name.
func (s *Snapshot) FulfillmentFor(name string) (FulfillmentRecord, bool) {
	for _, rec := range s.Fulfillment {
		if rec.MedicationName == name {
			return rec, true
		}
	}
	return FulfillmentRecord{}, false
}
