package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/giygas/pharmacy-api/data"
	"github.com/giygas/pharmacy-api/health"
	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/pharmacy"
	"github.com/giygas/pharmacy-api/referencedata"
	"github.com/giygas/pharmacy-api/validation"
)

// ============================================================================
// TEST FIXTURES
// ============================================================================

// newTestHandler wires a handler over the embedded reference tables
func newTestHandler(t testing.TB) *HTTPHandlerImpl {
	t.Helper()
	logging.InitLogger("")

	snapshot, err := referencedata.NewLoader("").Load()
	if err != nil {
		t.Fatalf("Failed to load embedded tables: %v", err)
	}

	store := data.NewDataContainer()
	store.SetServerStartTime(time.Now().Add(-90 * time.Second))
	validator := validation.NewDataValidator()
	store.UpdateData(snapshot, validator.ReportDataQuality(snapshot))

	return NewHTTPHandler(
		store,
		pharmacy.NewService(store, nil),
		validator,
		health.NewHealthChecker(store, nil),
	).(*HTTPHandlerImpl)
}

// MockHealthChecker returns a fixed health verdict
type MockHealthChecker struct {
	status     string
	details    map[string]any
	httpStatus int
	next       time.Time
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.details, m.httpStatus
}

func (m *MockHealthChecker) CalculateNextUpdate() time.Time {
	return m.next
}

var _ interfaces.HealthChecker = (*MockHealthChecker)(nil)

// ============================================================================
// REQUEST HELPERS
// ============================================================================

func jsonRequest(t testing.TB, method, target string, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds an upload with an optional file part and form fields
func multipartRequest(t testing.TB, contentType string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
	}

	if content != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="prescription"`)
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		part, err := writer.CreatePart(h)
		if err != nil {
			t.Fatalf("Failed to create part: %v", err)
		}
		part.Write(content)
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/pharmacy/scan-prescription", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t testing.TB, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, code int, message string) {
	t.Helper()
	if rr.Code != code {
		t.Fatalf("Expected status %d, got %d: %s", code, rr.Code, rr.Body.String())
	}
	var resp ErrorResponse
	decodeBody(t, rr, &resp)
	if resp.Code != code {
		t.Errorf("Expected code %d in body, got %d", code, resp.Code)
	}
	if resp.Error != http.StatusText(code) {
		t.Errorf("Expected error %q, got %q", http.StatusText(code), resp.Error)
	}
	if message != "" && resp.Message != message {
		t.Errorf("Expected message %q, got %q", message, resp.Message)
	}
}
