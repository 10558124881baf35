// Package retry wraps an operation with a bounded retry loop. What is
// retried, how often and how long to wait in between are all explicit in a
// Policy; the zero delay (retry immediately) is the default.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DefaultAttempts is the total number of tries, first call included.
const DefaultAttempts = 5

// Policy describes when and how an operation is retried.
type Policy struct {
	// Attempts is the total number of calls, including the first. 0 means DefaultAttempts.
	Attempts uint
	// Delay is the constant wait between attempts. 0 retries immediately.
	Delay time.Duration
	// Retryable reports whether err is worth another attempt. nil never retries.
	Retryable func(error) bool
	// OnRetry is called before each new attempt.
	OnRetry func(err error, attempt uint)
}

func (p Policy) attempts() uint {
	if p.Attempts == 0 {
		return DefaultAttempts
	}
	return p.Attempts
}

func (p Policy) backOff() backoff.BackOff {
	if p.Delay <= 0 {
		return &backoff.ZeroBackOff{}
	}
	return backoff.NewConstantBackOff(p.Delay)
}

// Do runs op until it succeeds, returns a non-retryable error, the attempts
// are exhausted or ctx is done. The returned error is the last one op
// produced, unwrapped from any backoff bookkeeping.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var attempt uint
	operation := func() (T, error) {
		attempt++
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		v, err := op(ctx)
		if err != nil && (p.Retryable == nil || !p.Retryable(err)) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, next time.Duration) {
		slog.Debug("retrying", slog.Uint64("attempt", uint64(attempt+1)), slog.Duration("wait", next), slog.Any("err", err))
		if p.OnRetry != nil {
			p.OnRetry(err, attempt+1)
		}
	}
	// Attempts alone bounds the loop; backoff's default 15 minute elapsed
	// cap would otherwise end long delays early.
	v, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(p.attempts()),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	// The tries limit is checked before permanence, so a non-retryable error
	// on the last attempt comes back still wrapped.
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	return v, err
}
