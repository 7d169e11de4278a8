package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/referencedata"
	"github.com/giygas/pharmacy-api/referencedata/entities"
	"github.com/giygas/pharmacy-api/validation"
)

const (
	sourceImage = "image"
	sourceText  = "text"

	multipartMemory = 1 << 20
	placeholderName = "Extracted from prescription"
)

// sampleMedications is returned for image uploads until OCR is wired in
var sampleMedications = []entities.MedicationRecord{
	{Name: "Amoxicillin", Dosage: "500mg", Frequency: "Twice daily", Duration: "7 days", Instructions: "Take with food", Quantity: "14 tablets"},
	{Name: "Ibuprofen", Dosage: "200mg", Frequency: "Every 6 hours as needed", Duration: "As needed", Instructions: "Take with food or milk", Quantity: "30 tablets"},
	{Name: "Metformin", Dosage: "500mg", Frequency: "Once daily", Duration: "Ongoing", Instructions: "Take with meals", Quantity: "30 tablets"},
}

// PrescriptionData holds the header fields of a scanned prescription
type PrescriptionData struct {
	PatientName string `json:"patientName"`
	DoctorName  string `json:"doctorName"`
}

// ScanResponse is returned by POST /pharmacy/scan-prescription
type ScanResponse struct {
	Status           string                      `json:"status"`
	ScanID           string                      `json:"scan_id"`
	Source           string                      `json:"source"`
	Medications      []entities.MedicationRecord `json:"medications"`
	PrescriptionData PrescriptionData            `json:"prescription_data"`
	Message          string                      `json:"message"`
}

// ExtractRequest is the body of POST /pharmacy/extract
type ExtractRequest struct {
	Text string `json:"text"`
}

// ScanPrescription accepts a multipart upload in the "file" field, or raw
// prescription text in the "text" field. Text is run through the extractor;
// images get the sample medication set.
func (h *HTTPHandlerImpl) ScanPrescription(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.RespondWithError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		h.RespondWithError(w, http.StatusBadRequest, "Expected a multipart form upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	if text := r.FormValue("text"); text != "" {
		h.scanText(w, text)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	mediaType := header.Header.Get("Content-Type")
	if mediaType != "" {
		if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
			mediaType = parsed
		}
	}

	switch {
	case mediaType == "" || strings.HasPrefix(mediaType, "image/"):
		logging.Info("Prescription image received", "filename", header.Filename, "size", header.Size)
		h.respondScan(w, sourceImage, sampleMedications)
	case strings.HasPrefix(mediaType, "text/"):
		raw, err := io.ReadAll(io.LimitReader(file, validation.MaxPrescriptionTextLength+1))
		if err != nil {
			logging.Error("Failed to read prescription upload", "error", err)
			h.RespondWithError(w, http.StatusInternalServerError, "Error processing prescription")
			return
		}
		text, err := referencedata.DecodeText(raw)
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.scanText(w, text)
	default:
		logging.Warn("Unsupported prescription upload", "content_type", mediaType)
		h.RespondWithError(w, http.StatusBadRequest, "File must be an image or a text file")
	}
}

func (h *HTTPHandlerImpl) scanText(w http.ResponseWriter, text string) {
	if err := h.validator.ValidatePrescriptionText(text); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondScan(w, sourceText, h.service.ExtractPrescription(text))
}

func (h *HTTPHandlerImpl) respondScan(w http.ResponseWriter, source string, medications []entities.MedicationRecord) {
	if medications == nil {
		medications = []entities.MedicationRecord{}
	}

	h.RespondWithJSON(w, http.StatusOK, ScanResponse{
		Status:      statusSuccess,
		ScanID:      uuid.NewString(),
		Source:      source,
		Medications: medications,
		PrescriptionData: PrescriptionData{
			PatientName: placeholderName,
			DoctorName:  placeholderName,
		},
		Message: fmt.Sprintf("Successfully processed prescription %s. Found %d medication(s).", source, len(medications)),
	})
}

// ExtractText runs the extractor on a JSON {"text": ...} body
func (h *HTTPHandlerImpl) ExtractText(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.validator.ValidatePrescriptionText(req.Text); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	medications := h.service.ExtractPrescription(req.Text)
	if medications == nil {
		medications = []entities.MedicationRecord{}
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"status":      statusSuccess,
		"medications": medications,
		"count":       len(medications),
	})
}
