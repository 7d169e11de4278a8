package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))

	err := cmd.Execute()
	return out.String(), err
}

func TestStockCommand(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantFound  bool
		wantName   string
		wantStatus string
	}{
		{"exact match", []string{"stock", "Lisinopril"}, true, "Lisinopril", "in_stock"},
		{"case insensitive", []string{"stock", "ibuprofen"}, true, "Ibuprofen", "out_of_stock"},
		{"unknown medication", []string{"stock", "Warfarin"}, false, "Warfarin", "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, "", tt.args...)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			var result map[string]any
			if err := json.Unmarshal([]byte(out), &result); err != nil {
				t.Fatalf("Expected JSON output, got %q: %v", out, err)
			}
			if result["found"] != tt.wantFound {
				t.Errorf("Expected found=%v, got %v", tt.wantFound, result["found"])
			}
			if result["name"] != tt.wantName {
				t.Errorf("Expected name %s, got %v", tt.wantName, result["name"])
			}
			if result["status"] != tt.wantStatus {
				t.Errorf("Expected status %s, got %v", tt.wantStatus, result["status"])
			}
		})
	}
}

func TestStockCommandRejectsInvalidInput(t *testing.T) {
	if _, err := runCommand(t, "", "stock", "x"); err == nil {
		t.Error("Expected error for a one-character query")
	}
	if _, err := runCommand(t, "", "stock"); err == nil {
		t.Error("Expected error when no medication is given")
	}
}

func TestRecommendCommand(t *testing.T) {
	out, err := runCommand(t, "", "recommend", "high", "blood", "pressure")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var result struct {
		Diagnosis   string `json:"diagnosis"`
		Medications []struct {
			Name string `json:"name"`
		} `json:"medications"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", out, err)
	}

	if result.Diagnosis != "high blood pressure" {
		t.Errorf("Expected diagnosis to be echoed, got %q", result.Diagnosis)
	}
	if len(result.Medications) != 2 || result.Medications[0].Name != "Lisinopril" {
		t.Errorf("Expected Lisinopril and Amlodipine, got %+v", result.Medications)
	}
}

func TestExtractCommand(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		out, err := runCommand(t, "Lisinopril 10mg\nTake once daily", "extract")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !strings.Contains(out, `"name": "Lisinopril"`) {
			t.Errorf("Expected Lisinopril in output, got %s", out)
		}
		if !strings.Contains(out, `"count": 1`) {
			t.Errorf("Expected count 1, got %s", out)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prescription.txt")
		if err := os.WriteFile(path, []byte("Lisinopril 10mg"), 0o600); err != nil {
			t.Fatal(err)
		}

		out, err := runCommand(t, "", "extract", path)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !strings.Contains(out, "Lisinopril") {
			t.Errorf("Expected Lisinopril in output, got %s", out)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, err := runCommand(t, "   ", "extract"); err == nil {
			t.Error("Expected error for blank prescription text")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := runCommand(t, "", "extract", filepath.Join(t.TempDir(), "missing.txt")); err == nil {
			t.Error("Expected error for a missing file")
		}
	})
}

func TestDataDirOverride(t *testing.T) {
	dir := t.TempDir()
	inventory := `[{"name":"Warfarin","dosage":"5mg","stock_quantity":40,"unit":"tablets","status":"in_stock","reorder_level":10,"last_updated":"2025-10-01T09:00:00"}]`
	if err := os.WriteFile(filepath.Join(dir, "inventory.json"), []byte(inventory), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "", "--data-dir", dir, "stock", "Warfarin")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out, `"found": true`) {
		t.Errorf("Expected Warfarin from the data directory, got %s", out)
	}
}
