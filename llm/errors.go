package llm

import "github.com/kbukum/lesstokens/errors"

// WrapError returns err unchanged when it already carries a kind, otherwise
// an LLM_API_ERROR naming vendor. status is the vendor HTTP status, 0 when
// the SDK error exposed none.
func WrapError(vendor string, err error, status int) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	appErr := errors.LLMAPIError(vendor, err)
	if status > 0 {
		appErr.StatusCode = status
	}
	return appErr
}
