// Package anthropic adapts the official Anthropic Go SDK to llm.Provider.
package anthropic

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/kbukum/lesstokens/llm"
)

const (
	// Name is the registry name of this adapter.
	Name = "anthropic"
	// DefaultMaxTokens is sent when the config sets no limit; the API
	// requires one.
	DefaultMaxTokens = 1024

	vendor = "Anthropic"
)

var reservedKeys = []string{
	"model", "messages", "max_tokens", "temperature", "top_p", "top_k",
	"stop_sequences", "stream",
}

func init() {
	llm.Register(Name, func(apiKey, baseURL string) (llm.Provider, error) {
		return New(apiKey, baseURL), nil
	})
}

// Provider talks to the Anthropic Messages API.
type Provider struct {
	client sdk.Client
}

// New creates an Anthropic adapter. An empty baseURL uses the SDK default.
func New(apiKey, baseURL string, opts ...option.RequestOption) *Provider {
	base := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		base = append(base, option.WithBaseURL(baseURL))
	}
	return &Provider{client: sdk.NewClient(append(base, opts...)...)}
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return Name }

// Chat implements llm.Provider. The first text block is the content; a
// reply without a text block, or with no blocks at all, yields "".
func (p *Provider) Chat(ctx context.Context, messages []llm.Message, cfg llm.Config) (*llm.Response, error) {
	params, opts := buildParams(messages, cfg)

	msg, err := p.client.Messages.New(ctx, params, opts...)
	if err != nil {
		return nil, wrap(err)
	}

	return &llm.Response{
		Content:  firstText(msg.Content),
		Usage:    toUsage(msg.Usage),
		Metadata: llm.NewMetadata(Name, string(msg.Model)),
	}, nil
}

// ChatStream implements llm.Provider. Every event is folded into an
// accumulated message whose usage becomes the terminal usage once
// message_stop arrives.
func (p *Provider) ChatStream(ctx context.Context, messages []llm.Message, cfg llm.Config) (llm.Stream, error) {
	params, opts := buildParams(messages, cfg)

	stream := p.client.Messages.NewStreaming(ctx, params, opts...)
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, wrap(err)
	}

	s := &eventStream{stream: stream}
	return llm.NewDeltaStream(s.next, func() *llm.Usage { return s.usage }, stream.Close), nil
}

type eventStream struct {
	stream *ssestream.Stream[sdk.MessageStreamEventUnion]
	acc    sdk.Message
	usage  *llm.Usage
}

func (s *eventStream) next(ctx context.Context) (string, bool, error) {
	if !s.stream.Next() {
		if err := s.stream.Err(); err != nil {
			return "", false, wrap(err)
		}
		return "", false, nil
	}

	event := s.stream.Current()
	if err := s.acc.Accumulate(event); err != nil {
		return "", false, wrap(err)
	}

	switch event.Type {
	case "content_block_delta":
		if event.Delta.Type == "text_delta" {
			return event.Delta.Text, true, nil
		}
	case "message_stop":
		u := toUsage(s.acc.Usage)
		s.usage = &u
	}
	return "", true, nil
}

func buildParams(messages []llm.Message, cfg llm.Config) (sdk.MessageNewParams, []option.RequestOption) {
	maxTokens := int64(DefaultMaxTokens)
	if cfg.MaxTokens != nil && *cfg.MaxTokens > 0 {
		maxTokens = int64(*cfg.MaxTokens)
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(cfg.Model),
		MaxTokens: maxTokens,
		Messages:  toMessages(messages),
	}
	if cfg.Temperature != nil {
		params.Temperature = sdk.Float(*cfg.Temperature)
	}
	if cfg.TopP != nil {
		params.TopP = sdk.Float(*cfg.TopP)
	}
	if cfg.TopK != nil {
		params.TopK = sdk.Int(int64(*cfg.TopK))
	}
	if len(cfg.Stop) > 0 {
		params.StopSequences = cfg.Stop
	}

	var opts []option.RequestOption
	for k, v := range cfg.ExtraFields(reservedKeys...) {
		opts = append(opts, option.WithJSONSet(k, v))
	}
	return params, opts
}

// toMessages demotes system turns to user turns; the simple Messages mode
// used here has no system role.
func toMessages(messages []llm.Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := sdk.NewTextBlock(m.Content)
		if m.Role == llm.RoleAssistant {
			out = append(out, sdk.NewAssistantMessage(block))
		} else {
			out = append(out, sdk.NewUserMessage(block))
		}
	}
	return out
}

func firstText(blocks []sdk.ContentBlockUnion) string {
	for _, b := range blocks {
		if b.Type == "text" {
			return b.Text
		}
	}
	return ""
}

func toUsage(u sdk.Usage) llm.Usage {
	return llm.NewUsage(int(u.InputTokens), int(u.OutputTokens))
}

func wrap(err error) error {
	status := 0
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return llm.WrapError(vendor, err, status)
}
