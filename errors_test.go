package prodscan

import (
	"errors"
	"fmt"
	"testing"

	"github.com/zombar/prodscan/language"
)

func TestNetworkErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &NetworkError{Err: cause}

	if !errors.Is(err, cause) {
		t.Error("Expected NetworkError to unwrap to its cause")
	}
}

func TestStage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"network error", &NetworkError{Err: errors.New("refused")}, "fetch"},
		{"http error", &FetchError{StatusCode: 404, Status: "404 Not Found"}, "fetch"},
		{"readability error", &ExtractionError{Reason: "empty body"}, "extract"},
		{"missing credential", &language.ConfigError{Missing: "language API key"}, "annotate"},
		{"annotation service error", &language.ServiceError{Endpoint: "analyzeEntities", StatusCode: 500}, "annotate"},
		{"wrapped error keeps its stage", fmt.Errorf("failed to fetch page: %w", &FetchError{StatusCode: 500}), "fetch"},
		{"unknown error", errors.New("something else"), "pipeline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stage(tt.err); got != tt.want {
				t.Errorf("Stage = %q, want %q", got, tt.want)
			}
		})
	}
}
