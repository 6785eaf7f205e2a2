package logger

import (
	apperrors "github.com/kbukum/lesstokens/errors"
)

// Field keys shared by every component.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldErrorCode = "error_code"
	FieldAttempt   = "attempt"
)

// Domain keys for compression and chat calls.
const (
	FieldProvider    = "provider"
	FieldModel       = "model"
	FieldPromptChars = "prompt_chars"
	FieldTokens      = "tokens"
	FieldSavings     = "savings"
)

// Fields builds a field map from alternating key-value pairs. Non-string
// keys and a trailing key without a value are dropped.
//
//	log.Info("compressed", logger.Fields(logger.FieldTokens, 80, logger.FieldSavings, 33.3))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields describes a failed operation. The error kind is included when
// err carries one.
func ErrorFields(op string, err error) map[string]interface{} {
	m := map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
	if code := apperrors.CodeOf(err); code != "" {
		m[FieldErrorCode] = string(code)
	}
	return m
}
