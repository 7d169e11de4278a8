package referencedata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEmbedded(t *testing.T) {
	snapshot, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Expected embedded tables to load, got %v", err)
	}

	tests := []struct {
		table    string
		got      int
		expected int
	}{
		{"inventory", len(snapshot.Inventory), 18},
		{"fulfillment", len(snapshot.Fulfillment), 5},
		{"diagnoses", len(snapshot.Diagnoses), 10},
		{"aliases", len(snapshot.Aliases), 23},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("Expected %d %s records, got %d", tt.expected, tt.table, tt.got)
		}
	}

	if snapshot.Inventory[0].Name != "Lisinopril" {
		t.Errorf("Expected table order to be kept with Lisinopril first, got %s", snapshot.Inventory[0].Name)
	}
	if snapshot.Diagnoses[0].Diagnosis != "hypertension" {
		t.Errorf("Expected hypertension first, got %s", snapshot.Diagnoses[0].Diagnosis)
	}
}

func TestLoadDataDirOverridesSingleTable(t *testing.T) {
	dir := t.TempDir()
	aliases := `[{"phrase":"sugar","canonical":"diabetes"}]`
	if err := os.WriteFile(filepath.Join(dir, AliasesFile), []byte(aliases), 0o600); err != nil {
		t.Fatal(err)
	}

	snapshot, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Expected load to succeed, got %v", err)
	}

	if len(snapshot.Aliases) != 1 || snapshot.Aliases[0].Phrase != "sugar" {
		t.Errorf("Expected aliases from the data directory, got %+v", snapshot.Aliases)
	}
	if len(snapshot.Inventory) != 18 {
		t.Errorf("Expected embedded inventory when no override exists, got %d records", len(snapshot.Inventory))
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, InventoryFile), []byte(`{"name":`), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader(dir).Load()
	if err == nil {
		t.Fatal("Expected error for malformed inventory file")
	}
	if !strings.Contains(err.Error(), "failed to parse") || !strings.Contains(err.Error(), InventoryFile) {
		t.Errorf("Expected parse error naming the file, got %v", err)
	}
}

func TestLoadLatin1Table(t *testing.T) {
	dir := t.TempDir()
	// "Paracétamol" in ISO-8859-1
	inventory := []byte(`[{"name":"Parac` + "\xe9" + `tamol","dosage":"500mg","stock_quantity":10,"unit":"tablets","status":"low_stock","reorder_level":20,"last_updated":"2025-10-01T09:00:00"}]`)
	if err := os.WriteFile(filepath.Join(dir, InventoryFile), inventory, 0o600); err != nil {
		t.Fatal(err)
	}

	snapshot, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Expected latin-1 table to load, got %v", err)
	}
	if snapshot.Inventory[0].Name != "Paracétamol" {
		t.Errorf("Expected Paracétamol, got %q", snapshot.Inventory[0].Name)
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"utf-8 passthrough", []byte("Ibuprofène 400mg"), "Ibuprofène 400mg"},
		{"byte order mark stripped", []byte("\xef\xbb\xbfLisinopril"), "Lisinopril"},
		{"latin-1 decoded", []byte("Ibuprof\xe8ne"), "Ibuprofène"},
		{"empty", []byte{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
