package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Backoff selects how the delay between attempts grows.
type Backoff int

const (
	// BackoffFixed waits InitialBackoff between every attempt.
	BackoffFixed Backoff = iota
	// BackoffLinear waits attempt * InitialBackoff (1x, 2x, 3x, ...).
	BackoffLinear
	// BackoffExponential waits InitialBackoff * BackoffFactor^(attempt-1).
	BackoffExponential
)

// Policy defines how retries should be handled.
type Policy struct {
	MaxRetries     int // Additional attempts after the first one
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Backoff        Backoff
	Jitter         bool
}

// DefaultPolicy returns the exponential policy used for storage and misc calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		Backoff:        BackoffExponential,
		Jitter:         true,
	}
}

// FixedPolicy retries up to retries more times with the same delay in between.
func FixedPolicy(retries int, delay time.Duration) Policy {
	return Policy{MaxRetries: retries, InitialBackoff: delay, Backoff: BackoffFixed}
}

// LinearPolicy allows attempts total calls, waiting attempt*base after each failure.
func LinearPolicy(attempts int, base time.Duration) Policy {
	if attempts < 1 {
		attempts = 1
	}
	return Policy{MaxRetries: attempts - 1, InitialBackoff: base, Backoff: BackoffLinear}
}

// Attempts returns the total number of calls the policy allows.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// RetryableError wraps an error to indicate it should be retried.
type RetryableError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%v (retry after %v)", e.Err, e.RetryAfter)
	}
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error should trigger a retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var retryable *RetryableError
	return errors.As(err, &retryable)
}

// NewRetryableError creates a new retryable error.
func NewRetryableError(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// NewRetryableErrorWithDelay creates a retryable error with a specific retry delay.
func NewRetryableErrorWithDelay(err error, delay time.Duration) error {
	return &RetryableError{Err: err, RetryAfter: delay}
}

// ExhaustedError is returned once every allowed attempt has failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("max retries exceeded (%d attempts): %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do calls fn until it succeeds, returns a non-retryable error, or the policy is
// exhausted. fn receives the 1-based attempt number. The number of calls made is
// returned alongside the final error.
func Do(ctx context.Context, policy Policy, fn func(attempt int) error) (int, error) {
	maxAttempts := policy.Attempts()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return attempt, err
		}

		// No wait after the last attempt
		if attempt == maxAttempts {
			break
		}

		backoff := policy.Delay(attempt)

		var retryErr *RetryableError
		if errors.As(err, &retryErr) && retryErr.RetryAfter > 0 {
			backoff = retryErr.RetryAfter
		}

		if err := Sleep(ctx, backoff); err != nil {
			return attempt, fmt.Errorf("retry cancelled: %w", err)
		}
	}

	return maxAttempts, &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

// Retry executes fn with the given policy, discarding the attempt count.
func Retry(ctx context.Context, policy Policy, fn func() error) error {
	_, err := Do(ctx, policy, func(int) error { return fn() })
	return err
}

// Delay computes the wait after the given 1-based failed attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	var backoff float64
	switch p.Backoff {
	case BackoffLinear:
		backoff = float64(p.InitialBackoff) * float64(attempt)
	case BackoffExponential:
		factor := p.BackoffFactor
		if factor <= 0 {
			factor = 2.0
		}
		backoff = float64(p.InitialBackoff) * math.Pow(factor, float64(attempt-1))
	default:
		backoff = float64(p.InitialBackoff)
	}

	if p.MaxBackoff > 0 && backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}

	duration := time.Duration(backoff)

	// ±10% spread so parallel callers do not retry in lockstep
	if p.Jitter && duration > 0 {
		jitter := time.Duration(float64(duration) * 0.1 * (2*rand.Float64() - 1))
		duration += jitter
	}

	return duration
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
