package llm

import (
	"encoding/json"
	"time"
)

// Message roles understood by every adapter. Adapters remap roles their
// vendor has no turn for.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleDeveloper = "developer"
)

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Config is the per-call vendor configuration. APIKey and Model are required.
type Config struct {
	APIKey           string   `json:"apiKey" yaml:"api_key"`
	Model            string   `json:"model" yaml:"model"`
	BaseURL          string   `json:"baseURL,omitempty" yaml:"base_url"`
	Temperature      *float64 `json:"temperature,omitempty" yaml:"temperature"`
	MaxTokens        *int     `json:"maxTokens,omitempty" yaml:"max_tokens"`
	TopP             *float64 `json:"topP,omitempty" yaml:"top_p"`
	TopK             *int     `json:"topK,omitempty" yaml:"top_k"`
	FrequencyPenalty *float64 `json:"frequencyPenalty,omitempty" yaml:"frequency_penalty"`
	PresencePenalty  *float64 `json:"presencePenalty,omitempty" yaml:"presence_penalty"`
	Stop             []string `json:"stop,omitempty" yaml:"stop"`

	// Extra holds vendor-specific request fields sent verbatim. A key that
	// names a core field is ignored.
	Extra map[string]any `json:"-" yaml:"extra"`
}

// coreKeys are the JSON names of Config's typed fields.
var coreKeys = map[string]bool{
	"apiKey": true, "model": true, "baseURL": true, "temperature": true,
	"maxTokens": true, "topP": true, "topK": true, "frequencyPenalty": true,
	"presencePenalty": true, "stop": true,
}

// UnmarshalJSON decodes the typed fields and collects every other key into
// Extra, so a flat JSON config can carry vendor-specific fields.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k, v := range all {
		if coreKeys[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}
	*c = Config(p)
	return nil
}

// ExtraFields returns Extra without the keys in reserved. Adapters pass the
// vendor wire names of the fields they set from typed config.
func (c Config) ExtraFields(reserved ...string) map[string]any {
	if len(c.Extra) == 0 {
		return nil
	}
	skip := make(map[string]bool, len(reserved))
	for _, k := range reserved {
		skip[k] = true
	}
	out := make(map[string]any, len(c.Extra))
	for k, v := range c.Extra {
		if coreKeys[k] || skip[k] {
			continue
		}
		out[k] = v
	}
	return out
}

// Usage reports token consumption. CompressedTokens and Savings are only set
// once compression results are merged in.
type Usage struct {
	PromptTokens     int      `json:"promptTokens"`
	CompletionTokens int      `json:"completionTokens"`
	TotalTokens      int      `json:"totalTokens"`
	CompressedTokens *int     `json:"compressedTokens,omitempty"`
	Savings          *float64 `json:"savings,omitempty"`
}

// NewUsage builds a Usage whose total is the sum of its parts.
func NewUsage(prompt, completion int) Usage {
	return Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// Metadata describes where a response came from.
type Metadata struct {
	Model            string   `json:"model,omitempty"`
	Provider         string   `json:"provider,omitempty"`
	Timestamp        string   `json:"timestamp,omitempty"`
	CompressionRatio *float64 `json:"compressionRatio,omitempty"`
}

// NewMetadata stamps provider and model with the current UTC time.
func NewMetadata(provider, model string) *Metadata {
	return &Metadata{
		Model:     model,
		Provider:  provider,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Response is a complete chat response.
type Response struct {
	Content  string    `json:"content"`
	Usage    Usage     `json:"usage"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// StreamChunk is a single piece of a streamed response. Usage is only set on
// the Done chunk.
type StreamChunk struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
	Usage   *Usage `json:"usage,omitempty"`
}
