package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zombar/prodscan/models"
)

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("", "")

	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultBaseURL)
	}
	if client.model != DefaultModel {
		t.Errorf("model = %q, want %q", client.model, DefaultModel)
	}
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		var req models.OllamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("Model = %q, want test-model", req.Model)
		}
		if req.Prompt != "write a summary" {
			t.Errorf("Prompt = %q", req.Prompt)
		}
		if req.Stream {
			t.Error("Expected streaming to be disabled")
		}

		json.NewEncoder(w).Encode(models.OllamaResponse{Response: "generated text", Done: true})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model")

	got, err := client.Generate(context.Background(), "write a summary")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "generated text" {
		t.Errorf("Generate = %q, want %q", got, "generated text")
	}
}

func TestGenerateErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "missing-model")

	_, err := client.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "status 404") {
		t.Errorf("Unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Errorf("Expected response body in error: %v", err)
	}
}
