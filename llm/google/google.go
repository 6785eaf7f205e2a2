// Package google adapts the Google Gen AI SDK (Gemini API backend) to
// llm.Provider.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"strings"

	"google.golang.org/genai"

	apperrors "github.com/kbukum/lesstokens/errors"
	"github.com/kbukum/lesstokens/llm"
)

const (
	// Name is the registry name of this adapter.
	Name = "google"

	vendor = "Google"
)

var reservedKeys = []string{
	"model", "contents", "temperature", "topP", "topK", "maxOutputTokens",
	"stopSequences", "presencePenalty", "frequencyPenalty",
}

func init() {
	llm.Register(Name, func(apiKey, baseURL string) (llm.Provider, error) {
		p, err := New(context.Background(), apiKey, baseURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

// Provider talks to the Gemini generateContent API.
type Provider struct {
	client *genai.Client
}

// New creates a Google adapter. The backend is pinned to the Gemini API so
// Vertex environment variables are ignored. An empty baseURL uses the SDK
// default.
func New(ctx context.Context, apiKey, baseURL string) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, llm.WrapError(vendor, err, 0)
	}
	return &Provider{client: client}, nil
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return Name }

// Chat implements llm.Provider. Text parts of the first candidate are
// concatenated.
func (p *Provider) Chat(ctx context.Context, messages []llm.Message, cfg llm.Config) (*llm.Response, error) {
	gcfg, err := buildConfig(cfg)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Models.GenerateContent(ctx, cfg.Model, toContents(messages), gcfg)
	if err != nil {
		return nil, wrap(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, apperrors.NoResponse(vendor)
	}

	return &llm.Response{
		Content:  candidateText(resp),
		Usage:    toUsage(resp.UsageMetadata),
		Metadata: llm.NewMetadata(Name, cfg.Model),
	}, nil
}

// ChatStream implements llm.Provider. The first response is pulled eagerly
// so request failures surface here rather than on the first Next.
func (p *Provider) ChatStream(ctx context.Context, messages []llm.Message, cfg llm.Config) (llm.Stream, error) {
	gcfg, err := buildConfig(cfg)
	if err != nil {
		return nil, err
	}

	next, stop := iter.Pull2(p.client.Models.GenerateContentStream(ctx, cfg.Model, toContents(messages), gcfg))
	first, err, ok := next()
	if ok && err != nil {
		stop()
		return nil, wrap(err)
	}

	s := &responseStream{next: next, pending: first, hasPending: ok}
	closeFn := func() error {
		stop()
		return nil
	}
	return llm.NewDeltaStream(s.pull, s.finalUsage, closeFn), nil
}

type responseStream struct {
	next       func() (*genai.GenerateContentResponse, error, bool)
	pending    *genai.GenerateContentResponse
	hasPending bool
	usage      *genai.GenerateContentResponseUsageMetadata
}

func (s *responseStream) pull(context.Context) (string, bool, error) {
	var (
		resp *genai.GenerateContentResponse
		err  error
		ok   bool
	)
	if s.hasPending {
		resp, ok = s.pending, true
		s.pending, s.hasPending = nil, false
	} else {
		resp, err, ok = s.next()
	}
	if !ok {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap(err)
	}
	if resp == nil {
		return "", true, nil
	}
	if resp.UsageMetadata != nil {
		s.usage = resp.UsageMetadata
	}
	return candidateText(resp), true, nil
}

func (s *responseStream) finalUsage() *llm.Usage {
	if s.usage == nil {
		return nil
	}
	u := toUsage(s.usage)
	return &u
}

// buildConfig decodes pass-through keys into the SDK config first, then
// applies the core generation fields on top.
func buildConfig(cfg llm.Config) (*genai.GenerateContentConfig, error) {
	gcfg := &genai.GenerateContentConfig{}
	if extra := cfg.ExtraFields(reservedKeys...); len(extra) > 0 {
		raw, err := json.Marshal(extra)
		if err != nil {
			return nil, apperrors.Validation("invalid google options: " + err.Error())
		}
		if err := json.Unmarshal(raw, gcfg); err != nil {
			return nil, apperrors.Validation("invalid google options: " + err.Error())
		}
	}

	if cfg.Temperature != nil {
		gcfg.Temperature = genai.Ptr(float32(*cfg.Temperature))
	}
	if cfg.TopP != nil {
		gcfg.TopP = genai.Ptr(float32(*cfg.TopP))
	}
	if cfg.TopK != nil {
		gcfg.TopK = genai.Ptr(float32(*cfg.TopK))
	}
	if cfg.MaxTokens != nil && *cfg.MaxTokens > 0 {
		gcfg.MaxOutputTokens = int32(*cfg.MaxTokens)
	}
	if cfg.PresencePenalty != nil {
		gcfg.PresencePenalty = genai.Ptr(float32(*cfg.PresencePenalty))
	}
	if cfg.FrequencyPenalty != nil {
		gcfg.FrequencyPenalty = genai.Ptr(float32(*cfg.FrequencyPenalty))
	}
	if len(cfg.Stop) > 0 {
		gcfg.StopSequences = cfg.Stop
	}
	return gcfg, nil
}

// toContents maps assistant turns to the model role; every other role is
// sent as user.
func toContents(messages []llm.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func toUsage(m *genai.GenerateContentResponseUsageMetadata) llm.Usage {
	if m == nil {
		return llm.NewUsage(0, 0)
	}
	return llm.NewUsage(int(m.PromptTokenCount), int(m.CandidatesTokenCount))
}

func wrap(err error) error {
	status := 0
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.Code
	}
	return llm.WrapError(vendor, err, status)
}
