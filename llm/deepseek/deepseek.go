// Package deepseek registers DeepSeek as an OpenAI-compatible provider.
package deepseek

import (
	"github.com/openai/openai-go/option"

	"github.com/kbukum/lesstokens/llm"
	"github.com/kbukum/lesstokens/llm/openai"
)

const (
	// Name is the registry name of this adapter.
	Name = "deepseek"
	// DefaultBaseURL is DeepSeek's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.deepseek.com"
)

func init() {
	llm.Register(Name, func(apiKey, baseURL string) (llm.Provider, error) {
		return New(apiKey, baseURL), nil
	})
}

// New creates a DeepSeek adapter. An empty baseURL uses DefaultBaseURL.
func New(apiKey, baseURL string, opts ...option.RequestOption) *openai.Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return openai.NewCompatible(Name, "DeepSeek", apiKey, baseURL, opts...)
}
