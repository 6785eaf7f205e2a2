package errors

import "net/http"

// ErrorCode represents a machine-readable error kind.
type ErrorCode string

// Credential and provider selection errors
const (
	// ErrCodeInvalidAPIKey indicates a missing or rejected LessTokens API key.
	ErrCodeInvalidAPIKey ErrorCode = "INVALID_API_KEY"
	// ErrCodeInvalidProvider indicates an unknown or empty provider name.
	ErrCodeInvalidProvider ErrorCode = "INVALID_PROVIDER"
)

// Remote call errors
const (
	// ErrCodeCompressionFailed indicates the compression service answered with a non-2xx status.
	ErrCodeCompressionFailed ErrorCode = "COMPRESSION_FAILED"
	// ErrCodeLLMAPI indicates the vendor SDK call failed or returned no usable response.
	ErrCodeLLMAPI ErrorCode = "LLM_API_ERROR"
)

// Transport errors (retryable)
const (
	// ErrCodeTimeout indicates the request did not complete in time.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeNetwork indicates a transport failure other than a timeout.
	ErrCodeNetwork ErrorCode = "NETWORK_ERROR"
	// ErrCodeRateLimit is only recognized by the retry policy; nothing in this
	// module raises it.
	ErrCodeRateLimit ErrorCode = "RATE_LIMIT"
)

// Input errors
const (
	// ErrCodeValidation indicates caller input failed validation.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
)

// ErrCodeInternal marks an unexpected failure that carried no kind. Only the
// gateway produces it, when rendering a foreign error.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:   true,
	ErrCodeNetwork:   true,
	ErrCodeRateLimit: true,
}

// IsRetryableCode reports whether code belongs to the default retryable set.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// RetryableCodes returns the default retryable set.
func RetryableCodes() []ErrorCode {
	return []ErrorCode{ErrCodeTimeout, ErrCodeNetwork, ErrCodeRateLimit}
}

var httpStatuses = map[ErrorCode]int{
	ErrCodeInvalidAPIKey:     http.StatusUnauthorized,
	ErrCodeInvalidProvider:   http.StatusBadRequest,
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeRateLimit:         http.StatusTooManyRequests,
	ErrCodeTimeout:           http.StatusGatewayTimeout,
	ErrCodeNetwork:           http.StatusBadGateway,
	ErrCodeCompressionFailed: http.StatusBadGateway,
	ErrCodeLLMAPI:            http.StatusBadGateway,
}

// HTTPStatusFor maps an error code to the status a gateway should answer with.
func HTTPStatusFor(code ErrorCode) int {
	if s, ok := httpStatuses[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}
