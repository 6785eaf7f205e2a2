// Package sdk is the entry point of the LessTokens client: it compresses a
// prompt through the compression service, sends the result to the
// configured LLM vendor and merges the compression metrics into the
// vendor's usage report.
//
// Basic usage:
//
//	client, err := sdk.New(sdk.Config{APIKey: key, Provider: "openai"})
//	if err != nil {
//		return err
//	}
//	resp, err := client.ProcessPrompt(ctx, sdk.ProcessOptions{
//		Prompt:    prompt,
//		LLMConfig: llm.Config{APIKey: openaiKey, Model: "gpt-4o-mini"},
//	})
//
// An SDK is safe for concurrent use. Vendor adapters are built per call
// from LLMConfig.APIKey and LLMConfig.BaseURL.
package sdk

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/lesstokens/compression"
	"github.com/kbukum/lesstokens/llm"
	"github.com/kbukum/lesstokens/logger"
	"github.com/kbukum/lesstokens/observability"
	"github.com/kbukum/lesstokens/resilience"
	"github.com/kbukum/lesstokens/security"
	"github.com/kbukum/lesstokens/util"
	"github.com/kbukum/lesstokens/validation"

	// Vendor adapters register themselves with the llm registry.
	_ "github.com/kbukum/lesstokens/llm/anthropic"
	_ "github.com/kbukum/lesstokens/llm/deepseek"
	_ "github.com/kbukum/lesstokens/llm/google"
	_ "github.com/kbukum/lesstokens/llm/openai"
)

// Config configures an SDK instance.
type Config struct {
	// APIKey authenticates against the compression service. Required.
	APIKey string
	// Provider names the LLM vendor (case-insensitive). Required.
	Provider string
	// BaseURL overrides the compression service URL.
	BaseURL string
	// Timeout bounds each compression attempt; zero uses the default.
	Timeout time.Duration
	// Retry replaces the compression retry policy.
	Retry *resilience.RetryConfig
	// Logger receives SDK logs; nil disables logging.
	Logger *logger.Logger
	// TLS configures the compression transport.
	TLS *security.TLSConfig
	// HTTPClient replaces the compression transport, TLS included.
	HTTPClient *http.Client
}

// SDK sequences compression and chat calls.
type SDK struct {
	provider   string
	compressor *compression.Client
	log        *logger.Logger
	metrics    *observability.Metrics
}

// New validates cfg and returns a ready SDK. Vendor credentials are not
// checked until a call is made.
func New(cfg Config) (*SDK, error) {
	if err := validation.SDKConfig(cfg.APIKey, cfg.Provider, cfg.Timeout, llm.Supported()); err != nil {
		return nil, err
	}

	log := logger.OrNop(cfg.Logger)
	opts := []compression.Option{
		compression.WithBaseURL(cfg.BaseURL),
		compression.WithTimeout(cfg.Timeout),
		compression.WithLogger(log),
		compression.WithTLS(cfg.TLS),
		compression.WithHTTPClient(cfg.HTTPClient),
	}
	if cfg.Retry != nil {
		opts = append(opts, compression.WithRetry(*cfg.Retry))
	}
	compressor, err := compression.New(cfg.APIKey, opts...)
	if err != nil {
		return nil, err
	}

	return &SDK{
		provider:   strings.ToLower(strings.TrimSpace(cfg.Provider)),
		compressor: compressor,
		log:        log.WithComponent("sdk"),
		metrics:    observability.DefaultMetrics(),
	}, nil
}

// Provider returns the normalized vendor name.
func (s *SDK) Provider() string { return s.provider }

// CompressPrompt compresses prompt without calling a model.
func (s *SDK) CompressPrompt(ctx context.Context, prompt string, opts *compression.Options) (*compression.Result, error) {
	if err := validatePrompt(prompt, opts); err != nil {
		return nil, err
	}

	log := s.log.WithContext(ctx)
	log.Debug("compress prompt", logger.Fields(logger.FieldPromptChars, len(prompt)))
	res, err := s.compressor.Compress(ctx, prompt, opts)
	if err != nil {
		log.Error("compress prompt failed", logger.ErrorFields("compress_prompt", err))
		return nil, err
	}
	log.Debug("prompt compressed", logger.Fields(logger.FieldTokens, res.CompressedTokens))
	return res, nil
}

// ProcessPrompt compresses opts.Prompt, sends it to the model and returns
// the response with compressedTokens, savings and compressionRatio set.
func (s *SDK) ProcessPrompt(ctx context.Context, opts ProcessOptions) (*llm.Response, error) {
	if err := validateProcess(opts); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanProcessPrompt)
	observability.SetSpanAttribute(ctx, observability.AttrProvider, s.provider)
	observability.SetSpanAttribute(ctx, observability.AttrModel, opts.LLMConfig.Model)
	start := time.Now()
	log := s.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldProvider, s.provider,
		logger.FieldModel, opts.LLMConfig.Model,
	))
	log.Debug("process prompt", logger.Fields(logger.FieldPromptChars, len(opts.Prompt)))

	resp, compressed, err := s.processPrompt(ctx, opts)
	s.metrics.RecordOperation(ctx, "process_prompt", s.provider, err, time.Since(start))
	if err != nil {
		observability.EndSpan(span, err, codeOf(err))
		log.Error("process prompt failed", logger.ErrorFields("process_prompt", err))
		return nil, err
	}

	s.metrics.RecordTokensSaved(ctx, s.provider, compressed.OriginalTokens-compressed.CompressedTokens)
	observability.SetSpanAttribute(ctx, observability.AttrPromptTokens, resp.Usage.PromptTokens)
	observability.SetSpanAttribute(ctx, observability.AttrCompletionTokens, resp.Usage.CompletionTokens)
	observability.EndSpan(span, nil, "")
	log.Debug("prompt processed", logger.Fields(
		logger.FieldTokens, resp.Usage.TotalTokens,
		logger.FieldSavings, util.Deref(resp.Usage.Savings),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return resp, nil
}

func (s *SDK) processPrompt(ctx context.Context, opts ProcessOptions) (*llm.Response, *compression.Result, error) {
	compressed, err := s.compressor.Compress(ctx, opts.Prompt, opts.Compression)
	if err != nil {
		return nil, nil, err
	}

	provider, err := llm.New(s.provider, opts.LLMConfig.APIKey, opts.LLMConfig.BaseURL)
	if err != nil {
		return nil, nil, err
	}

	chatCtx, span := observability.StartSpan(ctx, observability.SpanChat)
	resp, err := provider.Chat(chatCtx, buildMessages(opts, compressed), opts.LLMConfig)
	observability.EndSpan(span, err, codeOf(err))
	if err != nil {
		return nil, nil, err
	}

	return mergeResponse(resp, compressed), compressed, nil
}

// ProcessPromptStream compresses opts.Prompt and streams the model's reply.
// Content chunks pass through as they arrive; the terminal chunk carries
// usage merged with the compression metrics. Callers must Close the stream.
func (s *SDK) ProcessPromptStream(ctx context.Context, opts ProcessOptions) (llm.Stream, error) {
	if err := validateProcess(opts); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanStream)
	observability.SetSpanAttribute(ctx, observability.AttrProvider, s.provider)
	observability.SetSpanAttribute(ctx, observability.AttrModel, opts.LLMConfig.Model)
	start := time.Now()
	log := s.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldProvider, s.provider,
		logger.FieldModel, opts.LLMConfig.Model,
	))
	log.Debug("process prompt stream", logger.Fields(logger.FieldPromptChars, len(opts.Prompt)))

	fail := func(err error) (llm.Stream, error) {
		observability.EndSpan(span, err, codeOf(err))
		s.metrics.RecordOperation(ctx, "process_prompt_stream", s.provider, err, time.Since(start))
		log.Error("process prompt stream failed", logger.ErrorFields("process_prompt_stream", err))
		return nil, err
	}

	compressed, err := s.compressor.Compress(ctx, opts.Prompt, opts.Compression)
	if err != nil {
		return fail(err)
	}
	provider, err := llm.New(s.provider, opts.LLMConfig.APIKey, opts.LLMConfig.BaseURL)
	if err != nil {
		return fail(err)
	}
	inner, err := provider.ChatStream(ctx, buildMessages(opts, compressed), opts.LLMConfig)
	if err != nil {
		return fail(err)
	}

	log.Debug("stream opened", logger.Fields(logger.FieldTokens, compressed.CompressedTokens))
	return newMergeStream(inner, compressed, func(err error) {
		s.metrics.RecordOperation(ctx, "process_prompt_stream", s.provider, err, time.Since(start))
		if err == nil {
			s.metrics.RecordTokensSaved(ctx, s.provider, compressed.OriginalTokens-compressed.CompressedTokens)
		}
		observability.EndSpan(span, err, codeOf(err))
	}), nil
}

// Savings is the percentage of tokens removed by compression, rounded to
// two decimals; 0 when original is 0.
func Savings(original, compressed int) float64 {
	if original <= 0 {
		return 0
	}
	return util.Round2(float64(original-compressed) / float64(original) * 100)
}

// mergeResponse returns a copy of resp with the compression metrics set.
func mergeResponse(resp *llm.Response, res *compression.Result) *llm.Response {
	out := *resp
	out.Usage = mergeUsage(&resp.Usage, res)

	md := llm.Metadata{}
	if resp.Metadata != nil {
		md = *resp.Metadata
	}
	md.CompressionRatio = util.Ptr(res.Ratio)
	out.Metadata = &md
	return &out
}

// mergeUsage copies u and adds compressedTokens and savings. A nil u is
// synthesized from the original token count.
func mergeUsage(u *llm.Usage, res *compression.Result) llm.Usage {
	var out llm.Usage
	if u != nil {
		out = *u
	} else {
		out = llm.NewUsage(res.OriginalTokens, 0)
	}
	out.CompressedTokens = util.Ptr(res.CompressedTokens)
	out.Savings = util.Ptr(Savings(res.OriginalTokens, res.CompressedTokens))
	return out
}

func validatePrompt(prompt string, opts *compression.Options) error {
	if err := validation.Prompt(prompt); err != nil {
		return err
	}
	if opts != nil {
		return validation.TargetRatio(opts.TargetRatio)
	}
	return nil
}

func validateProcess(opts ProcessOptions) error {
	if err := validation.Prompt(opts.Prompt); err != nil {
		return err
	}
	if err := validation.LLMConfig(opts.LLMConfig.APIKey, opts.LLMConfig.Model); err != nil {
		return err
	}
	if opts.Compression != nil {
		return validation.TargetRatio(opts.Compression.TargetRatio)
	}
	return nil
}
