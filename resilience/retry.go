package resilience

import (
	"context"
	"slices"
	"time"

	apperrors "github.com/kbukum/lesstokens/errors"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the exponential delay.
	MaxDelay time.Duration
	// RetryableCodes lists the error kinds worth another attempt.
	RetryableCodes []apperrors.ErrorCode
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns 3 retries, 1s initial delay, 10s cap and the
// transport kinds TIMEOUT, NETWORK_ERROR and RATE_LIMIT.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialDelay:   time.Second,
		MaxDelay:       10 * time.Second,
		RetryableCodes: apperrors.RetryableCodes(),
	}
}

// ShouldRetry reports whether err carries a kind in the retryable set.
func (c RetryConfig) ShouldRetry(err error) bool {
	code := apperrors.CodeOf(err)
	if code == "" {
		return false
	}
	return slices.Contains(c.RetryableCodes, code)
}

// Delay returns the wait before retry number attempt (0-based).
func (c RetryConfig) Delay(attempt int) time.Duration {
	d := c.InitialDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= c.MaxDelay || d <= 0 {
			return c.MaxDelay
		}
	}
	return min(d, c.MaxDelay)
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = time.Second
	}
	if c.MaxDelay < c.InitialDelay {
		c.MaxDelay = c.InitialDelay
	}
	if c.RetryableCodes == nil {
		c.RetryableCodes = apperrors.RetryableCodes()
	}
	return c
}

// Retry executes fn with retry logic and returns its result or the last error.
// Every call has its own attempt counter.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	cfg = cfg.normalized()

	for attempt := 0; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		if attempt >= cfg.MaxRetries || !cfg.ShouldRetry(err) {
			return zero, err
		}

		delay := cfg.Delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}

// RetryFunc executes a function that returns only an error.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := Retry(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
