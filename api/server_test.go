package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zombar/prodscan"
	"github.com/zombar/prodscan/models"
)

// testServer builds a Server around an extractor only. Handlers that touch
// the database need a PostgreSQL instance and are covered by the db package
// tests; these tests exercise routing, validation and summary generation.
func testServer(ollamaURL string) *Server {
	config := prodscan.DefaultConfig()
	if ollamaURL != "" {
		config.OllamaBaseURL = ollamaURL
	}
	s := &Server{
		extractor:   prodscan.New(config),
		mux:         http.NewServeMux(),
		corsEnabled: true,
	}
	s.registerRoutes()
	return s
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/api/extract", "/api/extract"},
		{"/api/extractions", "/api/extractions"},
		{"/api/extractions/abc-123", "/api/extractions/{id}"},
		{"/api/extractions/abc-123/report", "/api/extractions/{id}/report"},
		{"/api/users/u1/preferences", "/api/users/{id}/preferences"},
	}

	for _, tt := range tests {
		if got := routeLabel(tt.path); got != tt.want {
			t.Errorf("routeLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestParseListParams(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 20, 0},
		{"explicit values", "limit=50&offset=10", 50, 10},
		{"limit capped", "limit=500", 100, 0},
		{"zero limit resets to default", "limit=0", 20, 0},
		{"negative limit resets to default", "limit=-5", 20, 0},
		{"negative offset clamped", "offset=-3", 20, 0},
		{"garbage ignored", "limit=abc&offset=xyz", 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/extractions?"+tt.query, nil)
			limit, offset := parseListParams(req)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("parseListParams = (%d, %d), want (%d, %d)", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestMiddlewareCORS(t *testing.T) {
	s := testServer("")
	handler := s.middleware(s.mux)

	req := httptest.NewRequest(http.MethodOptions, "/api/extract", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("OPTIONS status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PUT") {
		t.Errorf("Allow-Methods = %q, want PUT included", got)
	}
}

func TestHandleExtractValidation(t *testing.T) {
	s := testServer("")

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantError  string
	}{
		{"rejects GET", http.MethodGet, "", http.StatusMethodNotAllowed, "method not allowed"},
		{"rejects malformed body", http.MethodPost, "{not json", http.StatusBadRequest, "invalid request body"},
		{"requires url", http.MethodPost, `{"force": true}`, http.StatusBadRequest, "url is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/extract", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			s.handleExtract(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp map[string]string
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp["error"] != tt.wantError {
				t.Errorf("Error = %q, want %q", resp["error"], tt.wantError)
			}
		})
	}
}

func TestHandleExtractionPathValidation(t *testing.T) {
	s := testServer("")

	req := httptest.NewRequest(http.MethodGet, "/api/extractions/", nil)
	w := httptest.NewRecorder()
	s.handleExtraction(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Empty id status = %d, want 400", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/extractions/abc/report", nil)
	w = httptest.NewRecorder()
	s.handleExtraction(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE on report status = %d, want 405", w.Code)
	}
}

func TestHandleUserPathValidation(t *testing.T) {
	s := testServer("")

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1/settings", nil)
	w := httptest.NewRecorder()
	s.handleUser(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Unknown subresource status = %d, want 404", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users//preferences", nil)
	w = httptest.NewRecorder()
	s.handleUser(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Empty user id status = %d, want 400", w.Code)
	}
}

func TestHandleSummaryValidation(t *testing.T) {
	s := testServer("")

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantError  string
	}{
		{"rejects GET", http.MethodGet, "", http.StatusMethodNotAllowed, "method not allowed"},
		{"rejects malformed body", http.MethodPost, "{", http.StatusBadRequest, "invalid request body"},
		{"requires criteria", http.MethodPost, `{"criteria": []}`, http.StatusBadRequest, "criteria array is required and must not be empty"},
		{"requires criterion name", http.MethodPost, `{"criteria": [{"rating": 5}]}`, http.StatusBadRequest, "criterion name is required"},
		{"rejects rating above range", http.MethodPost, `{"criteria": [{"name": "battery", "rating": 11}]}`, http.StatusBadRequest, "criterion rating must be between 0 and 10"},
		{"rejects negative rating", http.MethodPost, `{"criteria": [{"name": "battery", "rating": -1}]}`, http.StatusBadRequest, "criterion rating must be between 0 and 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/summary", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			s.handleSummary(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp map[string]string
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp["error"] != tt.wantError {
				t.Errorf("Error = %q, want %q", resp["error"], tt.wantError)
			}
		})
	}
}

func TestHandleSummaryFallback(t *testing.T) {
	ollamaServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer ollamaServer.Close()

	s := testServer(ollamaServer.URL)

	body := `{"criteria": [{"name": "battery", "rating": 8}, {"name": "weight", "rating": 4}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/summary", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handleSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	var resp SummaryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Fallback {
		t.Error("Expected fallback summary when generation is unavailable")
	}
	if !strings.Contains(resp.Summary, "## Overall Rating") {
		t.Errorf("Expected structured fallback summary:\n%s", resp.Summary)
	}
	if !strings.Contains(resp.Summary, "6.0/10") {
		t.Errorf("Expected mean rating 6.0/10:\n%s", resp.Summary)
	}
}

func TestHandleSummaryModelResponse(t *testing.T) {
	modelOutput := "## Overview\n\nSolid.\n\n## Key Strengths\n\n- a\n- b\n- c\n\n## Areas for Improvement\n\n- d\n- e\n\n## Recommendation\n\nBuy.\n\n## Overall Rating\n\n8.0/10\n"
	ollamaServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.OllamaResponse{Response: modelOutput, Done: true})
	}))
	defer ollamaServer.Close()

	s := testServer(ollamaServer.URL)

	body := `{"criteria": [{"name": "battery", "rating": 8}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/summary", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handleSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	var resp SummaryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Fallback {
		t.Error("Expected model summary, got fallback")
	}
	if resp.Summary != modelOutput {
		t.Errorf("Summary = %q, want model output", resp.Summary)
	}
}
