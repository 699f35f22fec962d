package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/user/listing-ingest/internal/monitoring"
)

// One registry-backed metrics instance per test binary; promauto registers
// globally and a second NewMetrics call would panic.
var testMetrics = monitoring.NewMetrics()

func testServer() *Server {
	return &Server{
		metrics: testMetrics,
		logger:  zap.NewNop(),
	}
}

func TestHandleImportRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed json",
			body:       `{"url": `,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body",
		},
		{
			name:       "missing url",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid URL",
		},
		{
			name:       "unsupported marketplace",
			body:       `{"url": "https://www.ebay.com/itm/123"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "unsupported domain",
		},
	}
	s := testServer()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			s.handleImport(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var payload map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("response not JSON: %v", err)
			}
			if !strings.Contains(payload["error"], tc.wantError) {
				t.Errorf("error = %q, want it to contain %q", payload["error"], tc.wantError)
			}
		})
	}
}

func TestHandleImageProxyValidation(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "missing url", query: "", wantStatus: http.StatusBadRequest},
		{name: "relative url", query: "url=/image/1/a", wantStatus: http.StatusBadRequest},
		{name: "non-http scheme", query: "url=ftp%3A%2F%2Fimg.avito.st%2Fa", wantStatus: http.StatusBadRequest},
		{name: "disallowed host", query: "url=https%3A%2F%2Fevil.example%2Fx.jpg", wantStatus: http.StatusForbidden},
	}
	s := testServer()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/proxy?"+tc.query, nil)
			rec := httptest.NewRecorder()
			s.handleImageProxy(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestHandleImportStatusRequiresURL(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/api/import/status", nil)
	rec := httptest.NewRecorder()
	s.handleImportStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRespondWithJSON(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.respondWithJSON(rec, http.StatusTeapot, map[string]int{"n": 1})

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"n":1}` {
		t.Errorf("body = %q", body)
	}
}
