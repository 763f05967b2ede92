package retry

import (
	"context"
	"log"
	"time"
)

// Options controls the retry loop. Zero values fall back to the defaults
// below.
type Options struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	RetryCondition    func(error) bool
	OnRetry           func(err error, attempt int, delay time.Duration)
}

const (
	DefaultMaxAttempts       = 3
	DefaultInitialDelay      = 500 * time.Millisecond
	DefaultMaxDelay          = 10 * time.Second
	DefaultBackoffMultiplier = 2.0
)

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = DefaultInitialDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.BackoffMultiplier <= 1 {
		o.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if o.RetryCondition == nil {
		o.RetryCondition = IsRetryable
	}
	return o
}

// Do runs op up to opts.MaxAttempts times with exponential backoff between
// attempts. Non-retryable errors are returned immediately. The wait between
// attempts is aborted if ctx is cancelled.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	var zero T
	opts = opts.withDefaults()

	delay := opts.InitialDelay
	if delay > opts.MaxDelay {
		delay = opts.MaxDelay
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt >= opts.MaxAttempts || !opts.RetryCondition(err) {
			return zero, err
		}

		if opts.OnRetry != nil {
			opts.OnRetry(err, attempt, delay)
		} else {
			log.Printf("Retry -> Do -> attempt %d/%d failed, retrying in %v: %s",
				attempt, opts.MaxAttempts, delay, Describe(err))
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * opts.BackoffMultiplier)
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}

	return zero, lastErr
}
