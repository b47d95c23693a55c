package clients

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

// RetryConfig bounds retries of idempotent RPC reads.
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	// Retryable decides whether err is worth another attempt.
	Retryable func(error) bool
	// OnRetry runs before each retry.
	OnRetry func(attempt int, err error)
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialDelay:      500 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2.0,
		Retryable:         isRetryableError,
	}
}

// errRetryableStatus marks an HTTP status worth retrying.
type errRetryableStatus struct {
	code int
}

func (e errRetryableStatus) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.code)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var status errRetryableStatus
	if errors.As(err, &status) {
		return true
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTPStatus(httpErr.StatusCode)
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
	for _, s := range []string{"connection refused", "connection reset", "no such host", "network is unreachable", "EOF"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func isRetryableHTTPStatus(code int) bool {
	return code == 429 || (code >= 500 && code < 600)
}

func backoffDelay(attempt int, config *RetryConfig) time.Duration {
	delay := float64(config.InitialDelay)
	for i := 0; i < attempt; i++ {
		delay *= config.BackoffMultiplier
	}
	if d := time.Duration(delay); d < config.MaxDelay {
		return d
	}
	return config.MaxDelay
}

// withRetry runs fn until it succeeds, a non-retryable error occurs, the
// attempts are exhausted or ctx is done.
func withRetry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		return fn()
	}

	retryable := config.Retryable
	if retryable == nil {
		retryable = isRetryableError
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= config.MaxRetries || !retryable(err) {
			break
		}

		if config.OnRetry != nil {
			config.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(backoffDelay(attempt, config))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
