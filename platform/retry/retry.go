// Package retry provides bounded retries with exponential backoff for
// network and startup operations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barops_backend/platform/logger"

	goretry "github.com/sethvargo/go-retry"
)

// Permanent marks an error that must not be retried.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }

// Stop wraps err so Do returns it immediately.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &Permanent{Err: err}
}

// Do runs fn up to attempts times, doubling the delay from baseDelay
// between tries. Errors wrapped with Stop end the loop at once and are
// returned unwrapped.
func Do(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	backoff := goretry.WithMaxRetries(uint64(attempts-1), goretry.NewExponential(baseDelay))

	attempt := 0
	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var permanent *Permanent
		if errors.As(err, &permanent) {
			return permanent.Err
		}

		if log != nil {
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}
		return goretry.RetryableError(err)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
