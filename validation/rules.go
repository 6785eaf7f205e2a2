package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kbukum/lesstokens/errors"
)

// Prompt size limits, in characters.
const (
	MinPromptSize = 1
	MaxPromptSize = 1_000_000
)

// SDKConfig checks the SDK constructor arguments. Failures keep their own
// kinds: a missing key is INVALID_API_KEY, a missing or unknown provider is
// INVALID_PROVIDER, a non-positive timeout is VALIDATION_ERROR.
func SDKConfig(apiKey, provider string, timeout time.Duration, supported []string) error {
	if strings.TrimSpace(apiKey) == "" {
		return errors.InvalidAPIKey("LessTokens API key is required and must be a non-empty string")
	}
	if strings.TrimSpace(provider) == "" {
		return errors.InvalidProvider("Provider is required and must be a non-empty string")
	}
	if New().OneOf("provider", strings.TrimSpace(provider), supported).HasErrors() {
		return errors.InvalidProvider(fmt.Sprintf(
			"Provider '%s' is not supported. Supported providers: %s",
			provider, strings.Join(supported, ", ")))
	}
	if timeout < 0 {
		return errors.Validation("Timeout must be a positive number")
	}
	return nil
}

// Prompt checks prompt length bounds.
func Prompt(prompt string) error {
	n := utf8.RuneCountInString(prompt)
	if n < MinPromptSize {
		return errors.Validation(fmt.Sprintf("Prompt must be at least %d character long", MinPromptSize))
	}
	if n > MaxPromptSize {
		return errors.Validation(fmt.Sprintf("Prompt must not exceed %d characters", MaxPromptSize))
	}
	return nil
}

// LLMConfig checks the fields every adapter call needs.
func LLMConfig(apiKey, model string) error {
	if strings.TrimSpace(apiKey) == "" {
		return errors.Validation("LLM API key is required and must be a non-empty string")
	}
	if strings.TrimSpace(model) == "" {
		return errors.Validation("Model is required and must be a non-empty string")
	}
	return nil
}

// TargetRatio checks an optional compression target ratio.
func TargetRatio(ratio *float64) error {
	if New().FloatRange("targetRatio", ratio, 0, 1).HasErrors() {
		return errors.Validation("targetRatio must be a number between 0.0 and 1.0")
	}
	return nil
}
