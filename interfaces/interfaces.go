// Package interfaces defines core abstractions for the pharmacy API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/pharmacy-api/referencedata/entities"
)

// DataQualityReport provides a summary of reference data issues that do not
// prevent the tables from being served.
type DataQualityReport struct {
	DuplicateMedications      []string `json:"duplicate_medications"`
	DuplicateDiagnoses        []string `json:"duplicate_diagnoses"`
	StatusMismatches          []string `json:"status_mismatches"`           // stored status disagrees with stock vs reorder level
	OrphanFulfillment         []string `json:"orphan_fulfillment"`          // fulfillment records without an inventory entry
	DanglingAliases           []string `json:"dangling_aliases"`            // aliases whose canonical key is missing
	UnstockedRecommendations  []string `json:"unstocked_recommendations"`   // recommended medications absent from inventory
	MedicationsNeedingRestock int      `json:"medications_needing_restock"` // low or out of stock
}

// DataStore defines the contract for reference data storage.
// Reads are lock-free; a whole snapshot is swapped atomically on update.
type DataStore interface {
	// Data retrieval methods
	GetSnapshot() *entities.Snapshot
	GetInventory() entities.InventoryTable
	GetFulfillment() []entities.FulfillmentRecord
	GetDiagnoses() entities.DiagnosisTable
	GetAliases() []entities.Alias
	GetDataQualityReport() *DataQualityReport
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Data update methods
	UpdateData(snapshot *entities.Snapshot, report *DataQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// Loader defines the contract for reading the reference tables.
type Loader interface {
	Load() (*entities.Snapshot, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// PharmacyService defines the lookups served to the HTTP layer.
type PharmacyService interface {
	CheckStock(query string) entities.LookupResult
	AllInventory() []entities.InventoryListing
	SearchInventory(term string) []entities.InventoryListing
	RecommendMedications(diagnosis string) []entities.MedicationRecord
	ExtractPrescription(text string) []entities.MedicationRecord
	FulfillmentStatus() []entities.FulfillmentItem
	FulfillmentByStatus(status string) []entities.FulfillmentItem
	InStockMedications() []entities.InventoryListing
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	// ServeHTTP implements the http.Handler interface
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	// Pharmacy endpoints
	TestEndpoint(w http.ResponseWriter, r *http.Request)
	RecommendMedications(w http.ResponseWriter, r *http.Request)
	RecommendMedicationsQuery(w http.ResponseWriter, r *http.Request)
	ScanPrescription(w http.ResponseWriter, r *http.Request)
	ExtractText(w http.ResponseWriter, r *http.Request)
	CheckInventory(w http.ResponseWriter, r *http.Request)
	GetInventory(w http.ResponseWriter, r *http.Request)
	GetFulfillment(w http.ResponseWriter, r *http.Request)
	GetInStockMedications(w http.ResponseWriter, r *http.Request)

	// This will stay in all versions
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled reload time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for data validation operations.
type DataValidator interface {
	// ValidateSnapshot rejects tables that cannot be served
	ValidateSnapshot(snapshot *entities.Snapshot) error

	// ReportDataQuality generates a report of non-fatal issues
	ReportDataQuality(snapshot *entities.Snapshot) *DataQualityReport

	// ValidateInput validates user search strings
	ValidateInput(input string) error

	// ValidatePrescriptionText validates free text submitted for extraction
	ValidatePrescriptionText(text string) error
}
