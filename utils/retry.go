package utils

import (
	"time"

	"vesting-indexer/logger"

	"github.com/pkg/errors"
)

const (
	DefaultMaxAttempts = 10
	defaultWarnAfter   = 3
)

type BackoffFunc func(attempt int) time.Duration

// Exponential backoff starting at base and capped at max
func ExponentialBackoff(base, max time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		d := base << uint(attempt)
		if d > max || d <= 0 {
			return max
		}
		return d
	}
}

type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffFunc

	// IsRetryable decides whether an error is transient. Nil means every
	// error except those marked with NonRetryable is retried.
	IsRetryable func(error) bool

	// Sleep is injectable for tests; nil means time.Sleep
	Sleep func(time.Duration)
}

type nonRetryableError struct {
	err error
}

func (e nonRetryableError) Error() string { return e.err.Error() }

func (e nonRetryableError) Unwrap() error { return e.err }

// NonRetryable marks an error so the retry helper aborts immediately,
// e.g. 4xx-class responses from an external service.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return nonRetryableError{err: err}
}

func IsNonRetryable(err error) bool {
	var nre nonRetryableError
	return errors.As(err, &nre)
}

// Retry runs op under the given policy, returning the first successful
// result or the last error after attempts are exhausted.
func Retry[T any](policy RetryPolicy, op func() (T, error)) (T, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	backoff := policy.Backoff
	if backoff == nil {
		backoff = ExponentialBackoff(100*time.Millisecond, 10*time.Second)
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	retryable := policy.IsRetryable
	if retryable == nil {
		retryable = func(err error) bool { return !IsNonRetryable(err) }
	}

	var result T
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err = op()
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return result, err
		}
		if attempt+1 == defaultWarnAfter {
			logger.Warn("operation failed %d consecutive times: %v", defaultWarnAfter, err)
		}
		if attempt+1 < maxAttempts {
			sleep(backoff(attempt))
		}
	}
	return result, errors.Wrapf(err, "giving up after %d attempts", maxAttempts)
}
