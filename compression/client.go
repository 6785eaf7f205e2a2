package compression

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/lesstokens/errors"
	"github.com/kbukum/lesstokens/httpclient"
	"github.com/kbukum/lesstokens/logger"
	"github.com/kbukum/lesstokens/observability"
	"github.com/kbukum/lesstokens/resilience"
	"github.com/kbukum/lesstokens/security"
	"github.com/kbukum/lesstokens/version"
)

const (
	// DefaultBaseURL is the hosted compression service.
	DefaultBaseURL = "https://lesstokens.hive-hub.ai"
	// DefaultTimeout bounds a single compression attempt.
	DefaultTimeout = 30 * time.Second

	compressPath    = "/api/compress"
	requestIDHeader = "X-Request-ID"
)

// Client calls the compression service. It is safe for concurrent use.
type Client struct {
	http    *httpclient.Client
	retry   resilience.RetryConfig
	log     *logger.Logger
	metrics *observability.Metrics
	baseURL string
}

type options struct {
	baseURL    string
	timeout    time.Duration
	retry      *resilience.RetryConfig
	log        *logger.Logger
	httpClient *http.Client
	tls        *security.TLSConfig
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL overrides the service URL. A trailing slash is dropped.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRetry replaces the default retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(o *options) { o.retry = &cfg }
}

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTLS configures the default transport. It has no effect together with
// WithHTTPClient.
func WithTLS(cfg *security.TLSConfig) Option {
	return func(o *options) { o.tls = cfg }
}

// New creates a compression client authenticated with apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.InvalidAPIKey("LessTokens API key is required and must be a non-empty string")
	}

	o := options{baseURL: DefaultBaseURL, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.baseURL == "" {
		o.baseURL = DefaultBaseURL
	}
	if o.timeout == 0 {
		o.timeout = DefaultTimeout
	}
	retry := resilience.DefaultRetryConfig()
	if o.retry != nil {
		retry = *o.retry
	}

	baseURL := strings.TrimSuffix(o.baseURL, "/")
	hc, err := httpclient.New(httpclient.Config{
		BaseURL:    baseURL,
		Timeout:    o.timeout,
		Auth:       httpclient.APIKeyAuth(apiKey),
		Headers:    map[string]string{"User-Agent": version.UserAgent()},
		TLS:        o.tls,
		HTTPClient: o.httpClient,
	})
	if err != nil {
		return nil, apperrors.Validation(err.Error()).WithCause(err)
	}

	return &Client{
		http:    hc,
		retry:   retry,
		log:     logger.OrNop(o.log).WithComponent("compression"),
		metrics: observability.DefaultMetrics(),
		baseURL: baseURL,
	}, nil
}

// BaseURL returns the normalized service URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Compress sends prompt to the service and returns the normalized result.
// Transport failures are retried per the client's retry policy; every other
// failure is returned at once.
func (c *Client) Compress(ctx context.Context, prompt string, opts *Options) (*Result, error) {
	requestID := logger.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logger.ContextWithRequestID(ctx, requestID)
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanCompress)
	observability.SetSpanAttribute(ctx, observability.AttrRequestID, requestID)
	log := c.log.WithContext(ctx)
	start := time.Now()

	retry := c.retry
	userOnRetry := retry.OnRetry
	retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn("retrying compression", logger.Fields(
			logger.FieldAttempt, attempt,
			logger.FieldErrorCode, string(apperrors.CodeOf(err)),
			logger.FieldDuration, delay.Milliseconds(),
		))
		if userOnRetry != nil {
			userOnRetry(attempt, err, delay)
		}
	}

	body := request{Prompt: prompt, Options: opts}
	log.Debug("compressing prompt", logger.Fields(logger.FieldPromptChars, len(prompt)))

	res, err := resilience.Retry(ctx, retry, func() (*Result, error) {
		return c.compressOnce(ctx, body, prompt, requestID)
	})

	c.metrics.RecordOperation(ctx, "compress", "", err, time.Since(start))
	if err != nil {
		observability.EndSpan(span, err, string(apperrors.CodeOf(err)))
		log.Error("compression failed", logger.ErrorFields("compress", err))
		return nil, err
	}

	observability.SetSpanAttribute(ctx, observability.AttrOriginalTokens, res.OriginalTokens)
	observability.SetSpanAttribute(ctx, observability.AttrCompressedTokens, res.CompressedTokens)
	observability.SetSpanAttribute(ctx, observability.AttrSavings, res.Savings)
	observability.EndSpan(span, nil, "")
	log.Debug("prompt compressed", logger.Fields(
		logger.FieldTokens, res.CompressedTokens,
		logger.FieldSavings, res.Savings,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return res, nil
}

func (c *Client) compressOnce(ctx context.Context, body request, prompt, requestID string) (*Result, error) {
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    compressPath,
		Headers: map[string]string{requestIDHeader: requestID},
		Body:    body,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return decodeResult(resp.Body, prompt, resp.StatusCode)
}

// mapError converts transport errors into the SDK error kinds.
func mapError(err error) error {
	e, ok := httpclient.AsError(err)
	if !ok {
		return apperrors.Wrap(apperrors.ErrCodeNetwork, "Network error: "+err.Error(), err)
	}

	if httpclient.IsTimeout(err) {
		return apperrors.Timeout(e.Message).WithCause(err)
	}
	if httpclient.IsAuth(err) {
		return apperrors.InvalidAPIKey("Invalid LessTokens API key").
			WithStatus(e.StatusCode).
			WithDetails(errorDetails(e.Body)).
			WithCause(err)
	}

	switch e.Code {
	case httpclient.ErrCodeRateLimit, httpclient.ErrCodeClient, httpclient.ErrCodeServer:
		return apperrors.CompressionFailed(errorMessage(e.Body, e.StatusCode), e.StatusCode).
			WithDetails(errorDetails(e.Body)).
			WithCause(err)
	default:
		msg := e.Message
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return apperrors.NetworkError("Network error: "+msg, err)
	}
}
