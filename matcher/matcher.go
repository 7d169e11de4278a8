// Package matcher resolves free-text medication and diagnosis queries against
// ordered reference tables.
//
// Matching is tiered: an exact, case-insensitive hit beats any substring hit,
// and within a tier the first entry in table order wins. There is no scoring.
package matcher

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/giygas/pharmacy-api/referencedata/entities"
)

const (
	// MessageEmptyQuery is returned for blank medication queries.
	MessageEmptyQuery = "Please enter a medication name"

	// MaxSuggestions caps the table keys offered on a miss.
	MaxSuggestions = 8

	// MinReverseMatchLength is the shortest key allowed to match by being
	// contained in the query.
	MinReverseMatchLength = 4

	// ConsultDoctorName names the placeholder record returned for an
	// unrecognised or blank diagnosis.
	ConsultDoctorName = "Consult with Doctor"

	// ConsultDoctorCategory is the category of that placeholder record.
	ConsultDoctorCategory = "General"
)

// MatchMedication looks query up in table: exact name, then query inside a
// name, then a name of at least MinReverseMatchLength characters inside the
// query. A miss returns suggestions taken from the head of the table.
func MatchMedication(query string, table entities.InventoryTable) entities.LookupResult {
	needle := normalize(query)
	if needle == "" {
		return entities.LookupResult{
			SearchTerm: query,
			Message:    MessageEmptyQuery,
			Tier:       entities.TierNone,
		}
	}

	if rec, tier, ok := findMedication(needle, table); ok {
		return entities.LookupResult{
			Record:     rec,
			Found:      true,
			SearchTerm: query,
			Tier:       tier,
		}
	}

	names := table.Names()
	suggestions := names[:min(len(names), MaxSuggestions)]

	return entities.LookupResult{
		SearchTerm:     query,
		Message:        fmt.Sprintf("Medication '%s' not found in inventory.", query),
		Suggestions:    append(make([]string, 0, len(suggestions)), suggestions...),
		TotalAvailable: len(names),
		Tier:           entities.TierNone,
	}
}

func findMedication(needle string, table entities.InventoryTable) (entities.InventoryRecord, entities.MatchTier, bool) {
	for _, rec := range table {
		if strings.ToLower(rec.Name) == needle {
			return rec, entities.TierExact, true
		}
	}

	for _, rec := range table {
		if strings.Contains(strings.ToLower(rec.Name), needle) {
			return rec, entities.TierForwardSubstring, true
		}
	}

	for _, rec := range table {
		key := strings.ToLower(rec.Name)
		if utf8.RuneCountInString(key) >= MinReverseMatchLength && strings.Contains(needle, key) {
			return rec, entities.TierReverseSubstring, true
		}
	}

	return entities.InventoryRecord{}, entities.TierNone, false
}

// MatchDiagnosis returns the medications recommended for diagnosis. It never
// returns an empty slice: an unrecognised diagnosis yields a single
// consult-a-doctor record.
func MatchDiagnosis(diagnosis string, table entities.DiagnosisTable, aliases []entities.Alias) []entities.MedicationRecord {
	meds, _ := ResolveDiagnosis(diagnosis, table, aliases)
	return meds
}

// ResolveDiagnosis is MatchDiagnosis that also reports the tier that matched.
// Tiers: exact key, key and query contained in one another, alias phrase
// contained in the query. A blank diagnosis returns the consult-doctor record
// rather than the first table entry.
func ResolveDiagnosis(diagnosis string, table entities.DiagnosisTable, aliases []entities.Alias) ([]entities.MedicationRecord, entities.MatchTier) {
	needle := normalize(diagnosis)
	if needle == "" {
		return consultDoctor(diagnosis), entities.TierNone
	}

	if meds, ok := table.Get(needle); ok {
		return clone(meds), entities.TierExact
	}

	for _, entry := range table {
		if strings.Contains(needle, entry.Diagnosis) || strings.Contains(entry.Diagnosis, needle) {
			return clone(entry.Medications), entities.TierSubstring
		}
	}

	for _, alias := range aliases {
		if !strings.Contains(needle, alias.Phrase) {
			continue
		}
		if meds, ok := table.Get(alias.Canonical); ok && len(meds) > 0 {
			return clone(meds), entities.TierAlias
		}
		break
	}

	return consultDoctor(diagnosis), entities.TierNone
}

func consultDoctor(diagnosis string) []entities.MedicationRecord {
	return []entities.MedicationRecord{
		{
			Name:      ConsultDoctorName,
			Dosage:    "N/A",
			Frequency: "N/A",
			Duration:  "N/A",
			Instructions: fmt.Sprintf("Please consult with a healthcare provider for diagnosis: %s. "+
				"This system cannot provide medication recommendations for this condition.", diagnosis),
			Quantity: "N/A",
			Category: ConsultDoctorCategory,
		},
	}
}

// clone keeps callers from writing into the shared table.
func clone(meds []entities.MedicationRecord) []entities.MedicationRecord {
	return append(make([]entities.MedicationRecord, 0, len(meds)), meds...)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
