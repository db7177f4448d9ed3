package errors

import "fmt"

// ErrorType classifies the faults the engine can report
type ErrorType string

const (
	// ErrorTypeExtraction covers network, timeout and parse faults during
	// metadata extraction. Always triggers the next extraction tier.
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeDownload is a per-item download fault; it never stops the queue.
	ErrorTypeDownload ErrorType = "download"
	// ErrorTypeConversion is a post-download transcode fault; the original
	// file is retained untouched.
	ErrorTypeConversion ErrorType = "conversion"
	// ErrorTypeBrowserLaunch aborts only the current scrape or resolve call.
	ErrorTypeBrowserLaunch ErrorType = "browser_launch"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeAuth          ErrorType = "auth"
	ErrorTypeParsing       ErrorType = "parsing"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error carries a fault classification alongside the message.
//
// "No handler found" and "empty result" are deliberately absent from the
// taxonomy: both are valid outcomes, not faults, and are represented by a nil
// handler and an empty item list respectively.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a typed error.
func New(t ErrorType, msg string) *Error {
	return &Error{Type: t, Message: msg}
}

// Wrap creates a typed error wrapping a cause.
func Wrap(t ErrorType, msg string, cause error) *Error {
	return &Error{Type: t, Message: msg, Cause: cause}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeDownload, ErrorTypeExtraction:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing, ErrorTypeConversion, ErrorTypeBrowserLaunch:
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
	case 500, 502, 503, 504:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}
