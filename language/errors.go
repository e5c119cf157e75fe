package language

import "fmt"

// ConfigError means a required credential is absent. Not retryable.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Missing)
}

// ServiceError is a non-2xx response from an annotation endpoint. It carries
// the response body because the API returns structured error details there.
type ServiceError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}
