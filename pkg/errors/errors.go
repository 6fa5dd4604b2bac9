package errors

import "fmt"

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypePrecondition ErrorType = "precondition"
	ErrorTypeNavigation   ErrorType = "navigation"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeExtraction   ErrorType = "extraction"
	ErrorTypeDownload     ErrorType = "download"
	ErrorTypeNetwork      ErrorType = "network"
	ErrorTypeParsing      ErrorType = "parsing"
	ErrorTypeServerError  ErrorType = "server_error"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// Error represents a scraper error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates a typed error without an HTTP status code
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Newf creates a typed error with a formatted message
func Newf(errorType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errorType, Message: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether an error type aborts the whole run. Per-item
// extraction and download failures are absorbed into a degraded result.
func IsFatal(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypePrecondition, ErrorTypeNavigation, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeServerError:
		return true
	case ErrorTypePrecondition, ErrorTypeNavigation, ErrorTypeTimeout, ErrorTypeExtraction, ErrorTypeParsing, ErrorTypeDownload:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
