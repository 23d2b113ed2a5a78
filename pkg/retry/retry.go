package retry

import (
	"context"
	"errors"
	"time"

	"github.com/eapache/go-resiliency/retrier"
)

// Policy bounds how often and how quickly a failing operation is retried.
type Policy struct {
	// Attempts is the number of retries after the first try.
	Attempts int
	Backoff  time.Duration
}

// DefaultPolicy returns the policy used for store operations
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Backoff: 50 * time.Millisecond}
}

// classifier retries everything except errors the caller marks as
// permanent and context cancellation.
type classifier struct {
	ctx       context.Context
	permanent func(error) bool
}

func (c classifier) Classify(err error) retrier.Action {
	switch {
	case err == nil:
		return retrier.Succeed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return retrier.Fail
	case c.ctx.Err() != nil:
		return retrier.Fail
	case c.permanent != nil && c.permanent(err):
		return retrier.Fail
	default:
		return retrier.Retry
	}
}

// Do runs fn until it succeeds, fails permanently, or the policy is
// exhausted. The last error is returned unchanged.
func Do(ctx context.Context, policy Policy, permanent func(error) bool, fn func(ctx context.Context) error) error {
	attempts := policy.Attempts
	if attempts < 0 {
		attempts = 0
	}

	r := retrier.New(retrier.ConstantBackoff(attempts, policy.Backoff), classifier{ctx: ctx, permanent: permanent})
	return r.Run(func() error {
		return fn(ctx)
	})
}
