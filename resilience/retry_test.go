package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/kbukum/lesstokens/errors"
)

func fastConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialDelay:   time.Millisecond,
		MaxDelay:       4 * time.Millisecond,
		RetryableCodes: apperrors.RetryableCodes(),
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	callCount := 0

	result, err := Retry(context.Background(), fastConfig(3), func() (string, error) {
		callCount++
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_RetryableFailuresThenSuccess(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3} {
		callCount := 0
		result, err := Retry(context.Background(), fastConfig(3), func() (int, error) {
			callCount++
			if callCount <= n {
				return 0, apperrors.NetworkError("flaky", nil)
			}
			return 42, nil
		})
		if err != nil {
			t.Errorf("n=%d: expected no error, got %v", n, err)
		}
		if result != 42 {
			t.Errorf("n=%d: expected 42, got %d", n, result)
		}
		if callCount != n+1 {
			t.Errorf("n=%d: expected %d calls, got %d", n, n+1, callCount)
		}
	}
}

func TestRetry_ExhaustsRetries(t *testing.T) {
	callCount := 0
	_, err := Retry(context.Background(), fastConfig(2), func() (string, error) {
		callCount++
		return "", apperrors.Timeout("slow")
	})

	if apperrors.CodeOf(err) != apperrors.ErrCodeTimeout {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetry_NonRetryableKind(t *testing.T) {
	callCount := 0
	_, err := Retry(context.Background(), fastConfig(3), func() (string, error) {
		callCount++
		return "", apperrors.InvalidAPIKey("")
	})

	if apperrors.CodeOf(err) != apperrors.ErrCodeInvalidAPIKey {
		t.Errorf("expected INVALID_API_KEY, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_ErrorWithoutKindIsNotRetried(t *testing.T) {
	callCount := 0
	_, err := Retry(context.Background(), fastConfig(3), func() (string, error) {
		callCount++
		return "", errors.New("plain")
	})

	if err == nil || err.Error() != "plain" {
		t.Errorf("expected plain error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_RateLimitIsRetryable(t *testing.T) {
	callCount := 0
	_, _ = Retry(context.Background(), fastConfig(1), func() (string, error) {
		callCount++
		return "", apperrors.RateLimit("slow down")
	})
	if callCount != 2 {
		t.Errorf("expected 2 calls, got %d", callCount)
	}
}

func TestRetry_CustomRetryableSet(t *testing.T) {
	cfg := fastConfig(2)
	cfg.RetryableCodes = []apperrors.ErrorCode{apperrors.ErrCodeCompressionFailed}

	callCount := 0
	_, _ = Retry(context.Background(), cfg, func() (string, error) {
		callCount++
		return "", apperrors.CompressionFailed("no", 500)
	})
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}

	callCount = 0
	_, _ = Retry(context.Background(), cfg, func() (string, error) {
		callCount++
		return "", apperrors.Timeout("slow")
	})
	if callCount != 1 {
		t.Errorf("expected TIMEOUT to be excluded from the custom set, got %d calls", callCount)
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	cfg := fastConfig(3)
	var attempts []int
	var delays []time.Duration
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
		delays = append(delays, delay)
	}

	_, _ = Retry(context.Background(), cfg, func() (string, error) {
		return "", apperrors.NetworkError("down", nil)
	})

	if len(attempts) != 3 {
		t.Fatalf("expected 3 callbacks, got %d", len(attempts))
	}
	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}
	for i := range want {
		if attempts[i] != i+1 {
			t.Errorf("callback %d: expected attempt %d, got %d", i, i+1, attempts[i])
		}
		if delays[i] != want[i] {
			t.Errorf("callback %d: expected delay %v, got %v", i, want[i], delays[i])
		}
	}
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 5, InitialDelay: time.Hour, MaxDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	done := make(chan error, 1)
	go func() {
		_, err := Retry(ctx, cfg, func() (string, error) {
			callCount++
			return "", apperrors.Timeout("slow")
		})
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if apperrors.CodeOf(err) != apperrors.ErrCodeTimeout {
			t.Errorf("expected last TIMEOUT error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("retry did not stop after cancellation")
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetryConfig_Delay(t *testing.T) {
	cfg := DefaultRetryConfig()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{40, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := cfg.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d): expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay != time.Second || cfg.MaxDelay != 10*time.Second {
		t.Errorf("unexpected delays %v / %v", cfg.InitialDelay, cfg.MaxDelay)
	}
	for _, code := range []apperrors.ErrorCode{apperrors.ErrCodeTimeout, apperrors.ErrCodeNetwork, apperrors.ErrCodeRateLimit} {
		if !cfg.ShouldRetry(apperrors.New(code, "x")) {
			t.Errorf("expected %s to be retryable", code)
		}
	}
}

func TestRetryFunc(t *testing.T) {
	callCount := 0
	err := RetryFunc(context.Background(), fastConfig(1), func() error {
		callCount++
		if callCount == 1 {
			return apperrors.NetworkError("once", nil)
		}
		return nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if callCount != 2 {
		t.Errorf("expected 2 calls, got %d", callCount)
	}
}
