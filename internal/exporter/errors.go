package exporter

import "fmt"

// ExportError is a structured error returned from export operations. It
// carries the classified error type and, for HTTP, the status code and
// response detail, so wrappers can make retry decisions without string
// matching.
type ExportError struct {
	// Err is the underlying error.
	Err error
	// Type is the classified error type.
	Type ErrorType
	// StatusCode is the HTTP status code (0 for gRPC or network errors).
	StatusCode int
	// Message is the response body or error detail from the backend.
	Message string
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("export error: type=%s status=%d", e.Type, e.StatusCode)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExportError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the same request
// may succeed on retry (server errors, network issues, timeouts, rate limits).
func (e *ExportError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit:
		return true
	default:
		return false
	}
}
