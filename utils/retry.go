package utils

import (
	"errors"
	"fmt"
	"time"
)

// ErrPermanent marks a failure that must not be retried. Wrap it into the
// error returned by the operation to abort the retry loop immediately.
var ErrPermanent = errors.New("permanent failure")

// RetryConfig holds the parameters for the retry strategy. Backoff between
// attempts is a fixed sleep rather than exponential, a deliberate trade-off
// against the aggressive rate limits of the remote services.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	Logger      *Logger
}

// Do executes fn with fixed-backoff retry logic. A misconfigured attempt
// count is clamped so at least one attempt is always made.
func (r *RetryConfig) Do(operationName string, fn func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if errors.Is(lastErr, ErrPermanent) {
			return lastErr
		}

		if attempt < attempts {
			r.Logger.Verbose("[retry] %s failed (attempt %d/%d): %v - retrying in %v",
				operationName, attempt, attempts, lastErr, r.Delay)
			time.Sleep(r.Delay)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempts, lastErr)
}
