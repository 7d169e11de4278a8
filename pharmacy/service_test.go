package pharmacy

import (
	"testing"

	"github.com/giygas/pharmacy-api/data"
	"github.com/giygas/pharmacy-api/extractor"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/referencedata"
	"github.com/giygas/pharmacy-api/referencedata/entities"
)

func newEmbeddedService(t *testing.T) *Service {
	t.Helper()
	logging.InitLogger("")

	snapshot, err := referencedata.NewLoader("").Load()
	if err != nil {
		t.Fatalf("Failed to load embedded tables: %v", err)
	}

	store := data.NewDataContainer()
	store.UpdateData(snapshot, nil)
	return NewService(store, nil)
}

func newServiceWith(snapshot *entities.Snapshot) *Service {
	store := data.NewDataContainer()
	store.UpdateData(snapshot, nil)
	return NewService(store, nil)
}

func names(listings []entities.InventoryListing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.Name
	}
	return out
}

func assertNames(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}
}

func TestAllInventoryOrder(t *testing.T) {
	svc := newEmbeddedService(t)

	got := svc.AllInventory()
	assertNames(t, names(got), []string{
		"Ibuprofen", "Sertraline",
		"Albuterol", "Amoxicillin", "Fluoxetine",
		"Acetaminophen", "Amlodipine", "Atorvastatin", "Azithromycin", "Cetirizine", "Glipizide",
		"Lisinopril", "Loratadine", "Metformin", "Montelukast", "Omeprazole", "Pantoprazole", "Simvastatin",
	})

	for _, l := range got {
		if !l.Found {
			t.Errorf("Expected found=true for %s", l.Name)
		}
	}
}

func TestAllInventoryDoesNotReorderTable(t *testing.T) {
	svc := newEmbeddedService(t)
	_ = svc.AllInventory()

	if first := svc.store.GetInventory()[0].Name; first != "Lisinopril" {
		t.Errorf("Expected stored table to keep Lisinopril first, got %s", first)
	}
}

func TestSearchInventory(t *testing.T) {
	svc := newEmbeddedService(t)

	tests := []struct {
		term     string
		expected []string
	}{
		{"statin", []string{"Atorvastatin", "Simvastatin"}},
		{"PRAZOLE", []string{"Omeprazole", "Pantoprazole"}},
		{"  fluox ", []string{"Fluoxetine"}},
		{"ine", []string{"Sertraline", "Fluoxetine", "Amlodipine", "Cetirizine", "Loratadine"}},
		{"warfarin", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assertNames(t, names(svc.SearchInventory(tt.term)), tt.expected)
		})
	}
}

func TestSearchInventoryBlankListsEverything(t *testing.T) {
	svc := newEmbeddedService(t)

	for _, term := range []string{"", "   "} {
		if got := len(svc.SearchInventory(term)); got != 18 {
			t.Errorf("SearchInventory(%q): expected 18 records, got %d", term, got)
		}
	}
}

func TestInStockMedications(t *testing.T) {
	svc := newEmbeddedService(t)

	got := svc.InStockMedications()
	if len(got) != 13 {
		t.Fatalf("Expected 13 in-stock medications, got %d", len(got))
	}
	for _, l := range got {
		if l.Status != entities.StatusInStock {
			t.Errorf("Expected only in_stock records, got %s with %s", l.Name, l.Status)
		}
	}
	if got[0].Name != "Acetaminophen" || got[12].Name != "Simvastatin" {
		t.Errorf("Expected name order, got %v", names(got))
	}
}

func TestCheckStock(t *testing.T) {
	svc := newEmbeddedService(t)

	tests := []struct {
		query    string
		found    bool
		expected string
		tier     entities.MatchTier
	}{
		{"ibuprofen", true, "Ibuprofen", entities.TierExact},
		{"amox", true, "Amoxicillin", entities.TierForwardSubstring},
		{"Metformin 500mg tablets", true, "Metformin", entities.TierReverseSubstring},
		{"warfarin", false, "", entities.TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			result := svc.CheckStock(tt.query)
			if result.Found != tt.found {
				t.Fatalf("Expected found=%v, got %v", tt.found, result.Found)
			}
			if result.Tier != tt.tier {
				t.Errorf("Expected tier %s, got %s", tt.tier, result.Tier)
			}
			if tt.found && result.Record.Name != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result.Record.Name)
			}
			if !tt.found && result.TotalAvailable != 18 {
				t.Errorf("Expected total_available 18, got %d", result.TotalAvailable)
			}
		})
	}
}

func TestRecommendMedications(t *testing.T) {
	svc := newEmbeddedService(t)

	tests := []struct {
		diagnosis string
		expected  []string
	}{
		{"Hypertension", []string{"Lisinopril", "Amlodipine"}},
		{"high blood pressure", []string{"Lisinopril", "Amlodipine"}},
		{"chronic back pain", []string{"Ibuprofen", "Acetaminophen"}},
		{"GERD", []string{"Omeprazole", "Pantoprazole"}},
		{"rare tropical fever", []string{"Consult with Doctor"}},
	}

	for _, tt := range tests {
		t.Run(tt.diagnosis, func(t *testing.T) {
			meds := svc.RecommendMedications(tt.diagnosis)
			got := make([]string, len(meds))
			for i, m := range meds {
				got[i] = m.Name
			}
			assertNames(t, got, tt.expected)
		})
	}
}

func TestExtractPrescriptionUsesInjectedExtractor(t *testing.T) {
	snapshot, err := referencedata.NewLoader("").Load()
	if err != nil {
		t.Fatal(err)
	}
	store := data.NewDataContainer()
	store.UpdateData(snapshot, nil)

	svc := NewService(store, extractor.New(extractor.WithFallbackDictionary([]extractor.FallbackEntry{
		{Key: "warfarin", Name: "Warfarin"},
	})))

	meds := svc.ExtractPrescription("patient to continue warfarin as before")
	if len(meds) != 1 || meds[0].Name != "Warfarin" {
		t.Errorf("Expected injected fallback dictionary to yield Warfarin, got %+v", meds)
	}
}

func TestExtractPrescription(t *testing.T) {
	svc := newEmbeddedService(t)

	meds := svc.ExtractPrescription("Amoxicillin 500mg\nTake twice daily for 7 days\nTake with food")
	if len(meds) != 1 {
		t.Fatalf("Expected 1 medication, got %d", len(meds))
	}
	if meds[0].Name != "Amoxicillin" || meds[0].Dosage != "500mg" {
		t.Errorf("Unexpected record %+v", meds[0])
	}
	if meds[0].Instructions != "Take with food" {
		t.Errorf("Expected instructions from the keyword line, got %q", meds[0].Instructions)
	}
}

func TestServiceSeesReloadedSnapshot(t *testing.T) {
	store := data.NewDataContainer()
	svc := NewService(store, nil)

	if got := len(svc.AllInventory()); got != 0 {
		t.Fatalf("Expected empty inventory before load, got %d", got)
	}

	store.UpdateData(&entities.Snapshot{
		Inventory: entities.InventoryTable{{Name: "Aspirin", Status: entities.StatusInStock, StockQuantity: 10}},
	}, nil)

	if result := svc.CheckStock("aspirin"); !result.Found {
		t.Error("Expected lookup to see the reloaded snapshot")
	}
}
