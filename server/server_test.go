package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/pharmacy-api/config"
	"github.com/giygas/pharmacy-api/data"
	"github.com/giygas/pharmacy-api/handlers"
	"github.com/giygas/pharmacy-api/health"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/pharmacy"
	"github.com/giygas/pharmacy-api/referencedata"
	"github.com/giygas/pharmacy-api/validation"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8080",
		Address:        "localhost",
		Env:            config.EnvTest,
		LogLevel:       "info",
		MaxRequestBody: 1048576,
		MaxHeaderSize:  1048576,
		AllowedOrigins: []string{"*"},
	}
}

// newTestServer builds a server over the embedded reference tables
func newTestServer(t testing.TB, cfg *config.Config) *Server {
	t.Helper()
	logging.InitLogger("")

	snapshot, err := referencedata.NewLoader("").Load()
	if err != nil {
		t.Fatalf("Failed to load embedded tables: %v", err)
	}

	store := data.NewDataContainer()
	validator := validation.NewDataValidator()
	store.UpdateData(snapshot, validator.ReportDataQuality(snapshot))

	handler := handlers.NewHTTPHandler(store, pharmacy.NewService(store, nil), validator, health.NewHealthChecker(store, nil))
	s := NewServer(cfg, handler)
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t, testConfig())

	if s.server.Addr != "localhost:8080" {
		t.Errorf("Expected addr localhost:8080, got %s", s.server.Addr)
	}
	if s.server.WriteTimeout != 30*time.Second {
		t.Errorf("Expected 30s write timeout, got %v", s.server.WriteTimeout)
	}
	if s.Router() == nil {
		t.Error("Router should be configured")
	}
}

func TestSetupRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		method       string
		target       string
		body         string
		expectedCode int
	}{
		{"GET", "/pharmacy/test", "", http.StatusOK},
		{"GET", "/pharmacy/recommend-medications?diagnosis=asthma", "", http.StatusOK},
		{"POST", "/pharmacy/recommend-medications", `{"diagnosis":"asthma"}`, http.StatusOK},
		{"POST", "/pharmacy/extract", `{"text":"Metformin 500mg"}`, http.StatusOK},
		{"GET", "/pharmacy/inventory", "", http.StatusOK},
		{"GET", "/pharmacy/inventory/check?medication=metformin", "", http.StatusOK},
		{"GET", "/pharmacy/inventory/check", "", http.StatusBadRequest},
		{"GET", "/pharmacy/fulfillment", "", http.StatusOK},
		{"GET", "/pharmacy/fulfillment/in-stock", "", http.StatusOK},
		{"GET", "/health", "", http.StatusOK},
		{"GET", "/metrics", "", http.StatusOK},
		{"GET", "/pharmacy/unknown", "", http.StatusNotFound},
		{"DELETE", "/pharmacy/inventory", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.target, body)
			req.RemoteAddr = "127.0.0.1:1234"
			rr := httptest.NewRecorder()

			s.Router().ServeHTTP(rr, req)

			if rr.Code != tt.expectedCode {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedCode, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestNotFoundUsesErrorEnvelope(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest("GET", "/nope", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if resp["code"] != float64(http.StatusNotFound) || resp["error"] != "Not Found" {
		t.Errorf("Unexpected envelope %v", resp)
	}
}

func TestSetupMiddleware(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest("GET", "/pharmacy/test", nil)
	req.Header.Set("Origin", "https://dashboard.example.org")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Expected CORS header, got %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
	if rr.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("Expected rate limit headers")
	}
}

func TestScanThroughRouter(t *testing.T) {
	s := newTestServer(t, testConfig())

	var body bytes.Buffer
	body.WriteString("--b\r\nContent-Disposition: form-data; name=\"text\"\r\n\r\nLisinopril 10mg\r\n--b--\r\n")
	req := httptest.NewRequest("POST", "/pharmacy/scan-prescription", &body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	rr := httptest.NewRecorder()

	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"name":"Lisinopril"`) {
		t.Errorf("Expected Lisinopril in %s", rr.Body.String())
	}
}

func TestBodyLimitThroughRouter(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestBody = 64
	s := newTestServer(t, cfg)

	req := httptest.NewRequest("POST", "/pharmacy/extract", strings.NewReader(`{"text":"`+strings.Repeat("a", 128)+`"}`))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", rr.Code)
	}
}

func TestDirectAccessBlockedInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.Env = config.EnvProduction
	s := newTestServer(t, cfg)

	req := httptest.NewRequest("GET", "/pharmacy/test", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rr.Code)
	}

	proxied := httptest.NewRequest("GET", "/pharmacy/test", nil)
	proxied.RemoteAddr = "10.0.0.2:5555"
	proxied.Header.Set("X-Forwarded-For", "203.0.113.9")
	rr = httptest.NewRecorder()
	s.Router().ServeHTTP(rr, proxied)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 through proxy, got %d", rr.Code)
	}
}

func TestServerLifecycle(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve a port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	cfg := testConfig()
	cfg.Address = "127.0.0.1"
	cfg.Port = strings.TrimPrefix(ln.Addr().String(), "127.0.0.1:")
	s := newTestServer(t, cfg)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start()
	}()

	var resp *http.Response
	for range 50 {
		resp, err = http.Get("http://" + net.JoinHostPort("127.0.0.1", cfg.Port) + "/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("Server did not come up on port %d: %v", port, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected health 200, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Server shutdown should not error: %v", err)
	}

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Expected http.ErrServerClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Server should have shutdown within 1 second")
	}
}

func TestStartFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve a port: %v", err)
	}
	defer ln.Close()

	cfg := testConfig()
	cfg.Address = "127.0.0.1"
	cfg.Port = strings.TrimPrefix(ln.Addr().String(), "127.0.0.1:")
	s := newTestServer(t, cfg)

	if err := s.Start(); err == nil {
		t.Error("Expected listen error on a busy port")
	}
}
