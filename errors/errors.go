// Package errors provides the single tagged error type used across the SDK.
// Every failure surfaced to callers is an *AppError carrying a machine-readable
// kind, the transport status when one exists, opaque details and the original
// cause.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified SDK error type.
type AppError struct {
	// Code is the machine-readable error kind.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// StatusCode is the transport status that produced the error, 0 when none.
	StatusCode int `json:"statusCode,omitempty"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the lower-level error that was wrapped.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// HTTPStatus returns the status a gateway should answer with for this error.
func (e *AppError) HTTPStatus() int { return HTTPStatusFor(e.Code) }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithStatus sets the transport status code and returns the receiver.
func (e *AppError) WithStatus(status int) *AppError {
	e.StatusCode = status
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap returns cause unchanged when it already carries a kind, otherwise a new
// AppError of the given code with cause retained.
func Wrap(code ErrorCode, message string, cause error) error {
	if _, ok := AsAppError(cause); ok {
		return cause
	}
	return &AppError{Code: code, Message: message, Cause: cause}
}

// --- Constructors ---

// InvalidAPIKey creates an error for a missing or rejected API key.
func InvalidAPIKey(message string) *AppError {
	if message == "" {
		message = "Invalid API key"
	}
	return &AppError{Code: ErrCodeInvalidAPIKey, Message: message}
}

// InvalidProvider creates an error for an unsupported provider name.
func InvalidProvider(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidProvider, Message: message}
}

// CompressionFailed creates an error for a non-2xx compression response.
func CompressionFailed(message string, status int) *AppError {
	return &AppError{Code: ErrCodeCompressionFailed, Message: message, StatusCode: status}
}

// LLMAPIError wraps a vendor SDK failure. The vendor name is embedded in the
// message and cause is retained both as Cause and in Details.
func LLMAPIError(vendor string, cause error) *AppError {
	msg := "Unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return &AppError{
		Code:    ErrCodeLLMAPI,
		Message: fmt.Sprintf("%s API error: %s", vendor, msg),
		Details: map[string]any{"provider": vendor},
		Cause:   cause,
	}
}

// NoResponse creates an error for a vendor reply with nothing to return.
func NoResponse(vendor string) *AppError {
	return &AppError{
		Code:    ErrCodeLLMAPI,
		Message: fmt.Sprintf("No response from %s", vendor),
		Details: map[string]any{"provider": vendor},
	}
}

// Timeout creates an error for a request that did not complete in time.
func Timeout(message string) *AppError {
	return &AppError{Code: ErrCodeTimeout, Message: message}
}

// NetworkError creates an error for a transport failure.
func NetworkError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeNetwork, Message: message, Cause: cause}
}

// RateLimit creates an error the retry policy treats as retryable.
func RateLimit(message string) *AppError {
	return &AppError{Code: ErrCodeRateLimit, Message: message, StatusCode: http.StatusTooManyRequests}
}

// Validation creates an error for invalid caller input.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Internal wraps an error without a kind for rendering to gateway clients.
// The cause is kept but its message is not exposed.
func Internal(cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: "Internal server error", Cause: cause}
}
