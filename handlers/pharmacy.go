package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/referencedata/entities"
)

// DiagnosisRequest is the body of POST /pharmacy/recommend-medications
type DiagnosisRequest struct {
	Diagnosis string `json:"diagnosis"`
	PatientID string `json:"patient_id,omitempty"`
}

// RecommendationResponse lists the medications recommended for a diagnosis
type RecommendationResponse struct {
	Status      string                      `json:"status"`
	Diagnosis   string                      `json:"diagnosis"`
	Medications []entities.MedicationRecord `json:"medications"`
	Count       int                         `json:"count"`
	Message     string                      `json:"message"`
}

const statusSuccess = "success"

// TestEndpoint verifies the pharmacy routes are mounted
func (h *HTTPHandlerImpl) TestEndpoint(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Pharmacy endpoint is working",
	})
}

// RecommendMedications handles the JSON body variant
func (h *HTTPHandlerImpl) RecommendMedications(w http.ResponseWriter, r *http.Request) {
	var req DiagnosisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.Warn("Invalid recommendation body", "error", err)
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Diagnosis) == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Diagnosis is required")
		return
	}

	h.recommend(w, req.Diagnosis, req.PatientID)
}

// RecommendMedicationsQuery handles GET ?diagnosis=
func (h *HTTPHandlerImpl) RecommendMedicationsQuery(w http.ResponseWriter, r *http.Request) {
	diagnosis := r.URL.Query().Get("diagnosis")
	if strings.TrimSpace(diagnosis) == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Diagnosis parameter is required")
		return
	}

	h.recommend(w, diagnosis, r.URL.Query().Get("patient_id"))
}

func (h *HTTPHandlerImpl) recommend(w http.ResponseWriter, diagnosis, patientID string) {
	if err := h.validator.ValidateInput(diagnosis); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	medications := h.service.RecommendMedications(diagnosis)
	if patientID != "" {
		logging.Debug("Recommendation requested for patient", "patient_id", patientID, "count", len(medications))
	}

	h.RespondWithJSON(w, http.StatusOK, RecommendationResponse{
		Status:      statusSuccess,
		Diagnosis:   diagnosis,
		Medications: medications,
		Count:       len(medications),
		Message:     fmt.Sprintf("Found %d medication recommendation(s) for %s", len(medications), diagnosis),
	})
}

// CheckInventory looks up the stock of one medication
func (h *HTTPHandlerImpl) CheckInventory(w http.ResponseWriter, r *http.Request) {
	medication := r.URL.Query().Get("medication")
	if strings.TrimSpace(medication) == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Medication name is required")
		return
	}

	if err := h.validator.ValidateInput(medication); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"status":     statusSuccess,
		"medication": h.service.CheckStock(medication),
	})
}

// GetInventory returns the whole inventory, or the records matching ?search=
func (h *HTTPHandlerImpl) GetInventory(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	var inventory []entities.InventoryListing
	if strings.TrimSpace(search) == "" {
		inventory = h.service.AllInventory()
	} else {
		if err := h.validator.ValidateInput(search); err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		inventory = h.service.SearchInventory(search)
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"status":    statusSuccess,
		"inventory": inventory,
		"count":     len(inventory),
	})
}

// GetFulfillment returns restock orders, optionally filtered by ?status=
func (h *HTTPHandlerImpl) GetFulfillment(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != "all" && !entities.FulfillmentStatus(status).Valid() {
		logging.Warn("Unusual user input", "status", status)
	}

	fulfillment := h.service.FulfillmentByStatus(status)
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"status":      statusSuccess,
		"fulfillment": fulfillment,
		"count":       len(fulfillment),
	})
}

// GetInStockMedications returns the medications currently in stock
func (h *HTTPHandlerImpl) GetInStockMedications(w http.ResponseWriter, r *http.Request) {
	inStock := h.service.InStockMedications()
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"status":      statusSuccess,
		"medications": inStock,
		"count":       len(inStock),
	})
}
