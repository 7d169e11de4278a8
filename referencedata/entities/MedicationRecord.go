package entities

// MedicationRecord is a single prescribed or recommended medication line.
// Fields left unknown by the producer stay empty.
type MedicationRecord struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions"`
	Quantity     string `json:"quantity"`
	Category     string `json:"category,omitempty"`
}

// DiagnosisEntry maps a canonical, lowercase diagnosis key to its recommended medications.
type DiagnosisEntry struct {
	Diagnosis   string             `json:"diagnosis"`
	Medications []MedicationRecord `json:"medications"`
}

// DiagnosisTable is ordered; lookups walk it front to back.
type DiagnosisTable []DiagnosisEntry

// Alias redirects a synonym phrase to a canonical diagnosis key.
type Alias struct {
	Phrase    string `json:"phrase"`
	Canonical string `json:"canonical"`
}

// Get returns the medications stored under key, if any.
func (t DiagnosisTable) Get(key string) ([]MedicationRecord, bool) {
	for _, entry := range t {
		if entry.Diagnosis == key {
			return entry.Medications, true
		}
	}
	return nil, false
}
