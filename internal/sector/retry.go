package sector

import (
	"errors"
	"math"
	"math/rand"
	"syscall"
	"time"
)

// RetryConfig configures retry behavior for failed body I/O.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int
	// BaseDelay is the initial delay between retry attempts.
	BaseDelay time.Duration
	// MaxDelay is the maximum delay between retry attempts.
	MaxDelay time.Duration
	// Multiplier is the factor by which the delay increases after each attempt.
	Multiplier float64
	// Jitter is the randomization factor (0.0 to 1.0) added to delays.
	Jitter float64
	// RetryableOn determines if an error should trigger a retry.
	RetryableOn func(err error) bool
}

// DefaultRetryConfig returns the default retry configuration. Only transient
// syscall failures are retried; authentication and format errors never are.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 3,
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   500 * time.Millisecond,
		Multiplier: 2.0,
		Jitter:     0.2,
		RetryableOn: func(err error) bool {
			var errno syscall.Errno
			if !errors.As(err, &errno) {
				return false
			}
			switch errno {
			case syscall.EINTR, syscall.EAGAIN, syscall.EBUSY:
				return true
			default:
				return false
			}
		},
	}
}

// ShouldRetry determines if a failed operation should be retried.
func (r *RetryConfig) ShouldRetry(attempt int, err error) bool {
	if attempt >= r.MaxRetries {
		return false
	}
	return r.RetryableOn(err)
}

// Delay calculates the delay before the next retry attempt with optional jitter.
func (r *RetryConfig) Delay(attempt int) time.Duration {
	delay := float64(r.BaseDelay) * math.Pow(r.Multiplier, float64(attempt))
	if delay > float64(r.MaxDelay) {
		delay = float64(r.MaxDelay)
	}

	// Add jitter
	if r.Jitter > 0 {
		jitterAmount := delay * r.Jitter
		delay = delay - jitterAmount + (rand.Float64() * 2 * jitterAmount)
	}

	return time.Duration(delay)
}

// Do runs op, retrying retryable failures with backoff. It returns the last
// error once retries are exhausted or a non-retryable error occurs.
func (r *RetryConfig) Do(op func() error) error {
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !r.ShouldRetry(attempt, err) {
			return err
		}
		time.Sleep(r.Delay(attempt))
	}
}
