package prodscan

import (
	"errors"
	"fmt"

	"github.com/zombar/prodscan/language"
)

// NetworkError wraps a transport-level failure from the document fetch.
// Retryable in principle; the pipeline does not retry.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FetchError is a non-2xx HTTP response from the document fetch.
type FetchError struct {
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("HTTP error: %s", e.Status)
}

// ExtractionError means the readability stage found no usable content.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no readable content: %s", e.Reason)
}

// Stage identifies which pipeline stage produced err, for metrics and
// diagnostics. Unrecognized errors map to "pipeline".
func Stage(err error) string {
	var netErr *NetworkError
	var fetchErr *FetchError
	var extErr *ExtractionError
	var cfgErr *language.ConfigError
	var svcErr *language.ServiceError

	switch {
	case errors.As(err, &netErr), errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &extErr):
		return "extract"
	case errors.As(err, &cfgErr), errors.As(err, &svcErr):
		return "annotate"
	default:
		return "pipeline"
	}
}
