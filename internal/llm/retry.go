package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// RetryConfig bounds the retry behavior for transient API failures.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// InitialBackoff is the delay before the first retry; each further
	// retry doubles it, capped at MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (r RetryConfig) withDefaults() RetryConfig {
	if r.MaxRetries <= 0 {
		r.MaxRetries = 3
	}
	if r.InitialBackoff <= 0 {
		r.InitialBackoff = time.Second
	}
	if r.MaxBackoff <= 0 {
		r.MaxBackoff = 30 * time.Second
	}
	return r
}

// retryablePatterns are error substrings that mark a failure as
// transient when status classification is not available (connection
// resets, DNS hiccups, client-side timeouts).
var retryablePatterns = []string{
	"connection reset",
	"connection refused",
	"timeout",
	"temporary failure",
	"no such host",
	"eof",
}

// retryable reports whether err is worth another attempt.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.status == http.StatusTooManyRequests:
			return true
		case se.status >= 500:
			return true
		default:
			return false
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// withRetry runs fn with exponential backoff, waiting on the rate
// limiter (when configured) before every attempt.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	backoff := c.retry.InitialBackoff

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		// Jitter up to half the backoff keeps concurrent clients from
		// synchronizing their retries.
		delay := backoff + time.Duration(rand.Int63n(int64(backoff/2)+1))
		c.logger.Warn("transient generation failure, retrying",
			"attempt", attempt+1,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		backoff *= 2
		if backoff > c.retry.MaxBackoff {
			backoff = c.retry.MaxBackoff
		}
	}

	return fmt.Errorf("after %d retries: %w", c.retry.MaxRetries, lastErr)
}
