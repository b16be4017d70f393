package llm

import (
	"context"
	"time"

	"review-insights/internal/shared/metrics"
	"review-insights/internal/shared/telemetry"
)

const (
	// DefaultMaxRetries is the default number of attempts, including the first.
	DefaultMaxRetries = 3
	retryBaseDelay    = time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryOptions controls WithRetry. Zero values select the defaults.
type RetryOptions struct {
	MaxRetries int
	Sleep      SleepFunc
}

// WithRetry calls fn, retrying rate-limit and network failures with
// exponential backoff (1s, 2s, 4s, ...). Auth and unclassified errors return
// immediately. Once MaxRetries attempts are used the last error is returned
// unchanged.
func WithRetry[T any](ctx context.Context, fn func(ctx context.Context) (T, error), opts RetryOptions) (T, error) {
	maxAttempts := opts.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxRetries
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var zero T
	for attempt := 1; ; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if !IsRetryable(err) || attempt >= maxAttempts {
			return zero, err
		}

		delay := retryBaseDelay << (attempt - 1)
		provider := ProviderOf(err)
		metrics.IncLLMRetry(provider, string(KindOf(err)))
		telemetry.Warn("llm.retry", map[string]any{
			"provider": provider,
			"attempt":  attempt,
			"kind":     string(KindOf(err)),
			"delay_ms": delay.Milliseconds(),
			"error":    SanitizeError(err),
		})
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return zero, sleepErr
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
