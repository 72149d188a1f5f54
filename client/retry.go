package client

import (
	"context"
	"errors"
	"math"
	"net"
	"strings"
	"time"
)

// RetryConfig tunes the retry/backoff behavior of a transport.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first. Zero disables
	// retrying.
	MaxRetries int
	// InitialDelay is the delay before the first retry, in milliseconds.
	InitialDelay int
	// MaxDelay caps the backoff delay, in milliseconds.
	MaxDelay int
	// BackoffMultiplier scales the delay between consecutive retries.
	BackoffMultiplier float64
	// Retryable decides whether an error is worth retrying.
	Retryable func(error) bool
	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns the stock exponential-backoff policy.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialDelay:      1000,
		MaxDelay:          10000,
		BackoffMultiplier: 2.0,
		Retryable:         isRetryableError,
	}
}

// isRetryableError reports whether an error looks transient.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"timeout",
		"http status",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isRetryableHTTPStatus reports whether an HTTP status is worth retrying:
// server errors and throttling, never client errors.
func isRetryableHTTPStatus(statusCode int) bool {
	return statusCode >= 500 && statusCode < 600 || statusCode == 429
}

// backoffDelay computes the delay before retry number attempt.
func backoffDelay(attempt int, config *RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiplier, float64(attempt))
	if max := float64(config.MaxDelay); delay > max {
		delay = max
	}
	return time.Duration(delay) * time.Millisecond
}

// withRetry runs fn, retrying per config while the error stays retryable
// and the context stays alive.
func withRetry(ctx context.Context, fn func() error, config *RetryConfig) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt >= config.MaxRetries {
			return lastErr
		}
		if config.Retryable != nil && !config.Retryable(lastErr) {
			return lastErr
		}
		if config.OnRetry != nil {
			config.OnRetry(attempt+1, lastErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffDelay(attempt, config)):
		}
	}
}
