package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Options configures exponential backoff for retries.
// MaxAttempts counts the first call, so 1 disables retries.
type Options struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// Default backoff settings used when opts are zero/invalid.
var Default = Options{
	MaxAttempts:  5,
	InitialDelay: 300 * time.Millisecond,
	MaxDelay:     8 * time.Second,
	Multiplier:   2.0,
	Jitter:       true,
}

// None performs a single attempt.
var None = Options{MaxAttempts: 1}

type IsRetryableFunc func(error) bool

// Do executes fn with retries and exponential backoff until it succeeds,
// context is done, or attempts are exhausted. Returns the last error.
func Do(ctx context.Context, opts Options, isRetryable IsRetryableFunc, fn func(context.Context) error) error {
	if opts.MaxAttempts <= 0 {
		opts = Default
	}
	if opts.MaxAttempts == 1 {
		return fn(ctx)
	}

	op := func() error {
		err := fn(ctx)
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, newBackOff(ctx, opts))
}

func newBackOff(ctx context.Context, opts Options) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if opts.InitialDelay > 0 {
		eb.InitialInterval = opts.InitialDelay
	}
	if opts.MaxDelay > 0 {
		eb.MaxInterval = opts.MaxDelay
	}
	if opts.Multiplier >= 1 {
		eb.Multiplier = opts.Multiplier
	}
	// +/-20% jitter, or none.
	eb.RandomizationFactor = 0
	if opts.Jitter {
		eb.RandomizationFactor = 0.2
	}
	// Attempts, not wall time, bound the loop.
	eb.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(opts.MaxAttempts-1)), ctx)
}
