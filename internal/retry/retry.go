package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrTooManyAttempts = errors.New("too many retry attempts")

// Callable receives the 1-based attempt counter.
type Callable func(attempt int) error

type transientError struct {
	error
	attempt int
}

// Transient marks an error as retryable. Errors returned from a
// Callable without this wrapper abort the retry loop immediately.
func Transient(err error, attempt int) error {
	if err == nil {
		return nil
	}

	return &transientError{error: err, attempt: attempt}
}

// Incremental retries cb with a linearly growing delay between
// attempts: step, 2*step, 3*step and so on.
func Incremental(ctx context.Context, step time.Duration, maxAttempts int, cb Callable) error {
	var delay time.Duration

	for attempt := 1; ; attempt++ {
		err := cb(attempt)
		if err == nil {
			return nil
		}

		if _, ok := err.(*transientError); !ok {
			return errors.Wrapf(err, "retry %d failed", attempt)
		}

		if attempt >= maxAttempts {
			return ErrTooManyAttempts
		}

		delay += step

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
