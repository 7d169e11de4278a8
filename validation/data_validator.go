// Package validation checks user input and reference tables before they reach the matcher.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/referencedata/entities"
)

const (
	MinQueryLength = 2 // "bp" is a known alias
	MaxQueryLength = 100
	MaxQueryWords  = 8

	MaxPrescriptionTextLength = 20000
)

var (
	// Letters, digits and the punctuation found in drug names and dosages (10mg/5ml, co-amoxiclav, St. John's)
	inputRegex = regexp.MustCompile(`^[\p{L}0-9\s\-\.\+'/,()%]+$`)

	dangerousPatterns = []string{
		// Markup and script injection
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "eval(", "expression(", "url(", "@import",
		// SQL injection
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(", "execute(",
		// Command injection
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection
		"{$ne:", "{$gt:", "{$where:", "{$regex:",
	}

	// Prescription text is free-form, only markup and control characters are refused
	textDangerousPatterns = []string{"<script", "</script>", "javascript:", "vbscript:"}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateInput validates a medication, diagnosis or search query
func (v *DataValidatorImpl) ValidateInput(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if utf8.RuneCountInString(trimmed) < MinQueryLength {
		return fmt.Errorf("input too short: minimum %d characters", MinQueryLength)
	}

	if utf8.RuneCountInString(trimmed) > MaxQueryLength {
		return fmt.Errorf("input too long: maximum %d characters", MaxQueryLength)
	}

	if len(strings.Fields(trimmed)) > MaxQueryWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", MaxQueryWords)
	}

	lower := strings.ToLower(trimmed)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(trimmed) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and - . + ' / , ( ) %% are allowed")
	}

	if hasExcessiveRepetition(trimmed) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidatePrescriptionText validates free text submitted for medication extraction
func (v *DataValidatorImpl) ValidatePrescriptionText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("prescription text cannot be empty")
	}

	if len(text) > MaxPrescriptionTextLength {
		return fmt.Errorf("prescription text too long: maximum %d bytes", MaxPrescriptionTextLength)
	}

	if !utf8.ValidString(text) {
		return fmt.Errorf("prescription text is not valid UTF-8")
	}

	for _, r := range text {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			return fmt.Errorf("prescription text contains control characters")
		}
	}

	lower := strings.ToLower(text)
	for _, pattern := range textDangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("prescription text contains potentially dangerous content")
		}
	}

	return nil
}

// ValidateSnapshot rejects tables that would break lookups. The first problem found is returned.
func (v *DataValidatorImpl) ValidateSnapshot(s *entities.Snapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}

	if err := validateInventory(s.Inventory); err != nil {
		return fmt.Errorf("inventory: %w", err)
	}

	if err := validateFulfillment(s.Fulfillment); err != nil {
		return fmt.Errorf("fulfillment: %w", err)
	}

	if err := validateDiagnoses(s.Diagnoses); err != nil {
		return fmt.Errorf("diagnoses: %w", err)
	}

	if err := validateAliases(s.Aliases); err != nil {
		return fmt.Errorf("aliases: %w", err)
	}

	return nil
}

func validateInventory(table entities.InventoryTable) error {
	if len(table) == 0 {
		return fmt.Errorf("no inventory records found")
	}

	seen := make(map[string]bool, len(table))
	for i, rec := range table {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			return fmt.Errorf("record %d has an empty name", i)
		}
		if name != rec.Name {
			return fmt.Errorf("record %q has surrounding whitespace", rec.Name)
		}

		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("duplicate medication name: %s", name)
		}
		seen[key] = true

		if rec.StockQuantity < 0 {
			return fmt.Errorf("negative stock for %s: %d", name, rec.StockQuantity)
		}
		if rec.ReorderLevel < 0 {
			return fmt.Errorf("negative reorder level for %s: %d", name, rec.ReorderLevel)
		}
		if !rec.Status.Valid() {
			return fmt.Errorf("unknown stock status for %s: %q", name, rec.Status)
		}
		if rec.LastUpdated != "" {
			if _, err := rec.LastUpdatedTime(); err != nil {
				return fmt.Errorf("invalid last_updated for %s: %w", name, err)
			}
		}
	}

	return nil
}

func validateFulfillment(records []entities.FulfillmentRecord) error {
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		name := strings.TrimSpace(rec.MedicationName)
		if name == "" {
			return fmt.Errorf("record %d has an empty medication name", i)
		}
		if seen[name] {
			return fmt.Errorf("duplicate fulfillment record: %s", name)
		}
		seen[name] = true

		if !rec.CurrentStatus.Valid() {
			return fmt.Errorf("unknown current status for %s: %q", name, rec.CurrentStatus)
		}
		if !rec.FulfillmentStatus.Valid() {
			return fmt.Errorf("unknown fulfillment status for %s: %q", name, rec.FulfillmentStatus)
		}
		if rec.QuantityOrdered < 0 {
			return fmt.Errorf("negative quantity ordered for %s: %d", name, rec.QuantityOrdered)
		}
		if rec.QuantityReceived != nil && *rec.QuantityReceived < 0 {
			return fmt.Errorf("negative quantity received for %s: %d", name, *rec.QuantityReceived)
		}
	}

	return nil
}

func validateDiagnoses(table entities.DiagnosisTable) error {
	if len(table) == 0 {
		return fmt.Errorf("no diagnoses found")
	}

	seen := make(map[string]bool, len(table))
	for i, entry := range table {
		key := entry.Diagnosis
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("entry %d has an empty diagnosis", i)
		}
		// The matcher compares against lowercased, trimmed queries
		if key != strings.ToLower(strings.TrimSpace(key)) {
			return fmt.Errorf("diagnosis key %q must be lowercase and trimmed", key)
		}
		if seen[key] {
			return fmt.Errorf("duplicate diagnosis: %s", key)
		}
		seen[key] = true

		if len(entry.Medications) == 0 {
			return fmt.Errorf("diagnosis %s has no medications", key)
		}
		for _, med := range entry.Medications {
			if strings.TrimSpace(med.Name) == "" {
				return fmt.Errorf("diagnosis %s has a medication without a name", key)
			}
		}
	}

	return nil
}

func validateAliases(aliases []entities.Alias) error {
	for i, alias := range aliases {
		if strings.TrimSpace(alias.Phrase) == "" || strings.TrimSpace(alias.Canonical) == "" {
			return fmt.Errorf("alias %d is incomplete", i)
		}
		if alias.Phrase != strings.ToLower(strings.TrimSpace(alias.Phrase)) {
			return fmt.Errorf("alias phrase %q must be lowercase and trimmed", alias.Phrase)
		}
	}

	return nil
}

// ReportDataQuality lists problems that do not stop the tables from being served
func (v *DataValidatorImpl) ReportDataQuality(s *entities.Snapshot) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateMedications:     []string{},
		DuplicateDiagnoses:       []string{},
		StatusMismatches:         []string{},
		OrphanFulfillment:        []string{},
		DanglingAliases:          []string{},
		UnstockedRecommendations: []string{},
	}
	if s == nil {
		return report
	}

	stocked := make(map[string]bool, len(s.Inventory))
	for _, rec := range s.Inventory {
		key := strings.ToLower(rec.Name)
		if stocked[key] {
			report.DuplicateMedications = append(report.DuplicateMedications, rec.Name)
		}
		stocked[key] = true

		if expected := ExpectedStatus(rec); expected != rec.Status {
			report.StatusMismatches = append(report.StatusMismatches, rec.Name)
		}
		if rec.Status == entities.StatusLowStock || rec.Status == entities.StatusOutOfStock {
			report.MedicationsNeedingRestock++
		}
	}

	for _, rec := range s.Fulfillment {
		if !stocked[strings.ToLower(rec.MedicationName)] {
			report.OrphanFulfillment = append(report.OrphanFulfillment, rec.MedicationName)
		}
	}

	seenDiagnoses := make(map[string]bool, len(s.Diagnoses))
	reported := make(map[string]bool)
	for _, entry := range s.Diagnoses {
		if seenDiagnoses[entry.Diagnosis] {
			report.DuplicateDiagnoses = append(report.DuplicateDiagnoses, entry.Diagnosis)
		}
		seenDiagnoses[entry.Diagnosis] = true

		for _, med := range entry.Medications {
			key := strings.ToLower(med.Name)
			if !stocked[key] && !reported[key] {
				reported[key] = true
				report.UnstockedRecommendations = append(report.UnstockedRecommendations, med.Name)
			}
		}
	}

	for _, alias := range s.Aliases {
		if !seenDiagnoses[alias.Canonical] {
			report.DanglingAliases = append(report.DanglingAliases, alias.Phrase)
		}
	}

	if len(report.OrphanFulfillment) > 0 {
		logging.Warn("Fulfillment records without inventory entry", "medications", report.OrphanFulfillment)
	}
	if len(report.DanglingAliases) > 0 {
		logging.Warn("Aliases point to missing diagnoses", "phrases", report.DanglingAliases)
	}

	return report
}

// ExpectedStatus derives the stock status from quantity and reorder level.
// Stored statuses are served as-is; this is only used for reporting.
func ExpectedStatus(rec entities.InventoryRecord) entities.StockStatus {
	switch {
	case rec.StockQuantity == 0:
		return entities.StatusOutOfStock
	case rec.StockQuantity <= rec.ReorderLevel:
		return entities.StatusLowStock
	default:
		return entities.StatusInStock
	}
}

// hasExcessiveRepetition reports runs of more than 10 identical characters
func hasExcessiveRepetition(input string) bool {
	run := 0
	var prev rune = -1
	for _, r := range input {
		if r == prev {
			run++
			if run > 10 {
				return true
			}
		} else {
			prev, run = r, 1
		}
	}
	return false
}
