package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

const (
	DefaultMaxRetries     = 2
	DefaultAttemptTimeout = 10 * time.Second
	DefaultBackoff        = 200 * time.Millisecond
	DefaultBackoffCeiling = 2 * time.Second
)

// RetryPolicy bounds the attempts made for one classification: one initial
// attempt plus MaxRetries, each limited by AttemptTimeout, separated by an
// exponential backoff capped at BackoffCeiling.
type RetryPolicy struct {
	MaxRetries     int
	AttemptTimeout time.Duration
	Backoff        time.Duration
	BackoffCeiling time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     DefaultMaxRetries,
		AttemptTimeout: DefaultAttemptTimeout,
		Backoff:        DefaultBackoff,
		BackoffCeiling: DefaultBackoffCeiling,
	}
}

func (p RetryPolicy) MaxAttempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.Backoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.BackoffCeiling > 0 && d >= p.BackoffCeiling {
			return p.BackoffCeiling
		}
	}
	if p.BackoffCeiling > 0 && d > p.BackoffCeiling {
		return p.BackoffCeiling
	}
	return d
}

type attemptState int

const (
	stateAttempting attemptState = iota
	stateSucceeded
	stateExhausted
)

type attemptFunc func(ctx context.Context) (string, error)

// run drives Attempting(n) -> Succeeded | Exhausted. It returns the reply,
// the number of attempts made and the last error when exhausted.
func (p RetryPolicy) run(ctx context.Context, attempt attemptFunc) (string, int, error) {
	var (
		state   = stateAttempting
		n       int
		reply   string
		lastErr error
	)
	for state == stateAttempting {
		n++
		attemptCtx, cancel := context.WithTimeout(ctx, p.attemptTimeout())
		reply, lastErr = attempt(attemptCtx)
		cancel()

		switch {
		case lastErr == nil:
			state = stateSucceeded
		case n >= p.MaxAttempts() || !retryable(lastErr):
			state = stateExhausted
		default:
			if err := sleep(ctx, p.Delay(n)); err != nil {
				lastErr = errors.Join(lastErr, err)
				state = stateExhausted
			}
		}
	}
	if state == stateExhausted {
		return "", n, lastErr
	}
	return reply, n, nil
}

func (p RetryPolicy) attemptTimeout() time.Duration {
	if p.AttemptTimeout <= 0 {
		return DefaultAttemptTimeout
	}
	return p.AttemptTimeout
}

func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable()
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
