package narrative

import (
	"context"
	"errors"
	"time"
)

type rateLimitError struct {
	retryAfter time.Duration
}

func (e *rateLimitError) Error() string { return "rate limited" }

// ErrAuth is wrapped by errors from a provider that rejected the credentials.
var ErrAuth = errors.New("authentication error")

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

func (e *authError) Unwrap() error { return ErrAuth }

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// retryWithBackoff retries fn on rate limiting only, doubling the wait from
// base after each attempt. A server-provided retry-after wins when longer.
func retryWithBackoff(ctx context.Context, maxRetries int, base time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var rl *rateLimitError
		if !errors.As(lastErr, &rl) {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := base << uint(attempt)
			if rl.retryAfter > backoff {
				backoff = rl.retryAfter
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return lastErr
}
