// Package extractor turns free-form prescription text, typically OCR output,
// into structured medication records using ordered regular-expression scans.
//
// Parsing is best effort: unrecognised text yields an empty or partial result
// and never an error.
package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/giygas/pharmacy-api/referencedata/entities"
)

// Pattern lists are evaluated in slice order and the first match wins, so the
// order of every list below is part of the extractor's behaviour.
var (
	// MedicationPatterns capture a medication name (group 1) and its dosage (group 2).
	MedicationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(\d+(?:\.\d+)?\s*(?:mg|g|ml|tablet|tab|capsule|cap))`),
		regexp.MustCompile(`(?i)([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(\d+(?:\.\d+)?)\s*(?:mg|g|ml)`),
		regexp.MustCompile(`(?i)([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:take|use|apply)\s+(\d+)`),
	}

	FrequencyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:take|use|apply)\s+(?:once|twice|three times|four times)\s+(?:daily|a day|per day)`),
		regexp.MustCompile(`(?i)(\d+)\s*(?:times|X)\s*(?:daily|a day|per day)`),
		regexp.MustCompile(`(?i)(?:every|q)\s*(\d+)\s*(?:hours|hrs|h)`),
		regexp.MustCompile(`(?i)(?:before|after)\s+(?:meals|breakfast|lunch|dinner)`),
	}

	DurationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:for|continue)\s+(\d+)\s*(?:days|weeks|months)`),
		regexp.MustCompile(`(?i)(\d+)\s*(?:days|weeks|months)`),
	}

	// InstructionKeywords mark a line as an administration instruction.
	InstructionKeywords = []string{
		"with food", "without food", "before meal", "after meal", "at bedtime",
	}

	// CommonMedications is the allow-list used to accept long candidate names.
	CommonMedications = []string{
		"aspirin", "ibuprofen", "acetaminophen", "amoxicillin", "penicillin",
		"metformin", "lisinopril", "atorvastatin", "levothyroxine", "amlodipine",
		"metoprolol", "omeprazole", "losartan", "albuterol", "gabapentin",
		"sertraline", "simvastatin", "montelukast", "tramadol", "trazodone",
	}

	// FallbackDictionary is scanned only when no line produced a record.
	FallbackDictionary = []FallbackEntry{
		{Key: "aspirin", Name: "Aspirin"},
		{Key: "ibuprofen", Name: "Ibuprofen"},
		{Key: "acetaminophen", Name: "Acetaminophen"},
		{Key: "amoxicillin", Name: "Amoxicillin"},
		{Key: "penicillin", Name: "Penicillin"},
		{Key: "metformin", Name: "Metformin"},
		{Key: "lisinopril", Name: "Lisinopril"},
		{Key: "atorvastatin", Name: "Atorvastatin"},
	}
)

// maxNameWords is the longest candidate name accepted without an allow-list hit.
const maxNameWords = 3

// FallbackEntry pairs a lowercase search key with its canonical spelling.
type FallbackEntry struct {
	Key  string
	Name string
}

// fieldRule fills one field of the current record from the first matching pattern.
type fieldRule struct {
	patterns []*regexp.Regexp
	field    func(*entities.MedicationRecord) *string
}

// Extractor holds the pattern tables used for a scan. The zero value is not
// usable; construct one with New.
type Extractor struct {
	medicationPatterns  []*regexp.Regexp
	fieldRules          []fieldRule
	instructionKeywords []string
	commonMedications   []string
	fallback            []FallbackEntry
}

// Option customises an Extractor.
type Option func(*Extractor)

// WithCommonMedications replaces the allow-list of known medication names.
func WithCommonMedications(names ...string) Option {
	return func(e *Extractor) {
		e.commonMedications = lowerAll(names)
	}
}

// WithFallbackDictionary replaces the dictionary scanned when no line matched.
func WithFallbackDictionary(entries []FallbackEntry) Option {
	return func(e *Extractor) {
		e.fallback = make([]FallbackEntry, len(entries))
		for i, entry := range entries {
			e.fallback[i] = FallbackEntry{Key: strings.ToLower(entry.Key), Name: entry.Name}
		}
	}
}

// WithInstructionKeywords replaces the phrases that mark an instruction line.
func WithInstructionKeywords(keywords ...string) Option {
	return func(e *Extractor) {
		e.instructionKeywords = lowerAll(keywords)
	}
}

// New creates an Extractor with the default tables, then applies opts.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		medicationPatterns: MedicationPatterns,
		fieldRules: []fieldRule{
			{
				patterns: FrequencyPatterns,
				field:    func(m *entities.MedicationRecord) *string { return &m.Frequency },
			},
			{
				patterns: DurationPatterns,
				field:    func(m *entities.MedicationRecord) *string { return &m.Duration },
			},
		},
		instructionKeywords: InstructionKeywords,
		commonMedications:   CommonMedications,
		fallback:            FallbackDictionary,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

var defaultExtractor = New()

// Extract runs the default Extractor over text.
func Extract(text string) []entities.MedicationRecord {
	return defaultExtractor.Extract(text)
}

// Extract scans text line by line. A line naming a medication opens a new
// record, which is appended at once and stays current until the next one;
// later lines only fill its empty frequency, duration and instructions.
func (e *Extractor) Extract(text string) []entities.MedicationRecord {
	medications := make([]entities.MedicationRecord, 0)
	current := -1

	for _, raw := range strings.Split(text, "\n") {
		line := normalizeSpaces(strings.TrimSpace(raw))
		if line == "" {
			continue
		}

		if name, dosage, ok := e.detectMedication(line); ok {
			medications = append(medications, entities.MedicationRecord{
				Name:   name,
				Dosage: dosage,
			})
			current = len(medications) - 1
		}

		if current >= 0 {
			e.fillDetails(&medications[current], line)
		}
	}

	if len(medications) == 0 {
		medications = e.scanFallback(text, medications)
	}

	return medications
}

// detectMedication tries each medication pattern in order and returns the
// first candidate that passes the name heuristic.
func (e *Extractor) detectMedication(line string) (name, dosage string, ok bool) {
	for _, pattern := range e.medicationPatterns {
		match := pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		name = strings.TrimSpace(match[1])
		if len(match) > 2 {
			dosage = strings.TrimSpace(match[2])
		}

		if e.isMedicationName(name) {
			return name, dosage, true
		}
	}
	return "", "", false
}

func (e *Extractor) isMedicationName(name string) bool {
	lower := strings.ToLower(name)
	for _, med := range e.commonMedications {
		if strings.Contains(lower, med) {
			return true
		}
	}
	return len(strings.Fields(name)) <= maxNameWords
}

// fillDetails never overwrites a populated field.
func (e *Extractor) fillDetails(med *entities.MedicationRecord, line string) {
	for _, rule := range e.fieldRules {
		field := rule.field(med)
		if *field != "" {
			continue
		}
		for _, pattern := range rule.patterns {
			if match := pattern.FindString(line); match != "" {
				*field = strings.TrimSpace(match)
				break
			}
		}
	}

	if med.Instructions == "" && e.hasInstructionKeyword(line) {
		med.Instructions = line
	}
}

func (e *Extractor) hasInstructionKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, keyword := range e.instructionKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// scanFallback appends one bare record per dictionary key found in text.
func (e *Extractor) scanFallback(text string, medications []entities.MedicationRecord) []entities.MedicationRecord {
	lower := strings.ToLower(text)
	for _, entry := range e.fallback {
		if strings.Contains(lower, entry.Key) {
			medications = append(medications, entities.MedicationRecord{Name: entry.Name})
		}
	}
	return medications
}

// normalizeSpaces rewrites Unicode white space such as U+00A0 and U+2009 to
// ASCII spaces, since the patterns' \s only matches ASCII.
func normalizeSpaces(line string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII && unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, line)
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
