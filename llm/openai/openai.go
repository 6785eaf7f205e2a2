// Package openai adapts the official OpenAI Go SDK to llm.Provider. The same
// adapter serves any OpenAI-compatible endpoint through a base URL override.
package openai

import (
	"context"
	"errors"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	apperrors "github.com/kbukum/lesstokens/errors"
	"github.com/kbukum/lesstokens/llm"
)

// Name is the registry name of this adapter.
const Name = "openai"

// Wire names of the request fields set from typed config. Extra keys with
// these names are dropped.
var reservedKeys = []string{
	"model", "messages", "temperature", "max_tokens", "top_p",
	"frequency_penalty", "presence_penalty", "stop", "stream", "stream_options",
}

func init() {
	llm.Register(Name, func(apiKey, baseURL string) (llm.Provider, error) {
		return New(apiKey, baseURL), nil
	})
}

// Provider talks to the OpenAI chat completions API.
type Provider struct {
	name   string
	vendor string
	client oai.Client
}

// New creates an OpenAI adapter. An empty baseURL uses the SDK default.
func New(apiKey, baseURL string, opts ...option.RequestOption) *Provider {
	return NewCompatible(Name, "OpenAI", apiKey, baseURL, opts...)
}

// NewCompatible creates an adapter for an OpenAI-compatible vendor. name is
// reported in response metadata and vendor in error messages.
func NewCompatible(name, vendor, apiKey, baseURL string, opts ...option.RequestOption) *Provider {
	base := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		base = append(base, option.WithBaseURL(baseURL))
	}
	return &Provider{
		name:   name,
		vendor: vendor,
		client: oai.NewClient(append(base, opts...)...),
	}
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return p.name }

// Chat implements llm.Provider.
func (p *Provider) Chat(ctx context.Context, messages []llm.Message, cfg llm.Config) (*llm.Response, error) {
	params, opts := buildParams(messages, cfg)

	completion, err := p.client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return nil, p.wrap(err)
	}
	if len(completion.Choices) == 0 || !completion.Choices[0].JSON.Message.Valid() {
		return nil, p.noResponse()
	}

	return &llm.Response{
		Content:  completion.Choices[0].Message.Content,
		Usage:    toUsage(completion.Usage),
		Metadata: llm.NewMetadata(p.name, completion.Model),
	}, nil
}

// ChatStream implements llm.Provider. Usage is requested through
// stream_options and surfaces on the terminal chunk only.
func (p *Provider) ChatStream(ctx context.Context, messages []llm.Message, cfg llm.Config) (llm.Stream, error) {
	params, opts := buildParams(messages, cfg)
	params.StreamOptions = oai.ChatCompletionStreamOptionsParam{IncludeUsage: oai.Bool(true)}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params, opts...)
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, p.wrap(err)
	}

	return newChunkStream(p, stream), nil
}

type chunkStream struct {
	p      *Provider
	stream *ssestream.Stream[oai.ChatCompletionChunk]
	usage  *llm.Usage
}

func newChunkStream(p *Provider, stream *ssestream.Stream[oai.ChatCompletionChunk]) llm.Stream {
	s := &chunkStream{p: p, stream: stream}
	return llm.NewDeltaStream(s.next, func() *llm.Usage { return s.usage }, stream.Close)
}

func (s *chunkStream) next(ctx context.Context) (string, bool, error) {
	if !s.stream.Next() {
		if err := s.stream.Err(); err != nil {
			return "", false, s.p.wrap(err)
		}
		return "", false, nil
	}

	chunk := s.stream.Current()
	if chunk.JSON.Usage.Valid() {
		u := toUsage(chunk.Usage)
		s.usage = &u
	}
	if len(chunk.Choices) == 0 {
		return "", true, nil
	}
	return chunk.Choices[0].Delta.Content, true, nil
}

func buildParams(messages []llm.Message, cfg llm.Config) (oai.ChatCompletionNewParams, []option.RequestOption) {
	params := oai.ChatCompletionNewParams{
		Model:    cfg.Model,
		Messages: toMessages(messages),
	}
	if cfg.Temperature != nil {
		params.Temperature = oai.Float(*cfg.Temperature)
	}
	if cfg.MaxTokens != nil {
		params.MaxTokens = oai.Int(int64(*cfg.MaxTokens))
	}
	if cfg.TopP != nil {
		params.TopP = oai.Float(*cfg.TopP)
	}
	if cfg.FrequencyPenalty != nil {
		params.FrequencyPenalty = oai.Float(*cfg.FrequencyPenalty)
	}
	if cfg.PresencePenalty != nil {
		params.PresencePenalty = oai.Float(*cfg.PresencePenalty)
	}
	if len(cfg.Stop) > 0 {
		params.Stop = oai.ChatCompletionNewParamsStopUnion{OfStringArray: cfg.Stop}
	}

	var opts []option.RequestOption
	for k, v := range cfg.ExtraFields(reservedKeys...) {
		opts = append(opts, option.WithJSONSet(k, v))
	}
	return params, opts
}

func toMessages(messages []llm.Message) []oai.ChatCompletionMessageParamUnion {
	out := make([]oai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			out = append(out, oai.SystemMessage(m.Content))
		case llm.RoleAssistant:
			out = append(out, oai.AssistantMessage(m.Content))
		case llm.RoleDeveloper:
			out = append(out, oai.DeveloperMessage(m.Content))
		default:
			out = append(out, oai.UserMessage(m.Content))
		}
	}
	return out
}

func toUsage(u oai.CompletionUsage) llm.Usage {
	return llm.Usage{
		PromptTokens:     int(u.PromptTokens),
		CompletionTokens: int(u.CompletionTokens),
		TotalTokens:      int(u.TotalTokens),
	}
}

func (p *Provider) wrap(err error) error {
	status := 0
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return llm.WrapError(p.vendor, err, status)
}

func (p *Provider) noResponse() error {
	return apperrors.NoResponse(p.vendor)
}
