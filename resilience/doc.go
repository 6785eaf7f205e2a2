// Package resilience provides the retry policy used around remote calls.
//
// Retry attempts an operation up to MaxRetries+1 times. Only failures whose
// error kind is in RetryableCodes are retried; everything else, including
// errors that carry no kind at all, is returned after the first attempt.
// The delay before retry n (counted from 0) is min(InitialDelay*2^n, MaxDelay).
//
//	res, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (*Result, error) {
//	    return doRequest(ctx)
//	})
package resilience
