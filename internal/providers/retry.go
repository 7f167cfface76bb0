package providers

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryConfig defines retry behavior for provider API calls.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 = no retries)
	MaxRetries int
	// InitialDelay is the initial delay before first retry
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration
	// Multiplier is the factor by which delay increases after each retry
	Multiplier float64
}

// DefaultRetryConfig returns sensible defaults for provider retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// NextDelay calculates the next delay using exponential backoff.
func (c RetryConfig) NextDelay(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * c.Multiplier)
	if next > c.MaxDelay {
		next = c.MaxDelay
	}
	return next
}

// WaitWithJitter waits for the specified duration plus random jitter, or
// until the context is cancelled.
func WaitWithJitter(ctx context.Context, delay time.Duration) {
	// 10% jitter - math/rand is acceptable for non-security jitter
	jitter := time.Duration(rand.Float64() * 0.1 * float64(delay)) // #nosec G404
	select {
	case <-ctx.Done():
	case <-time.After(delay + jitter):
	}
}

// DoWithRetry executes an HTTP call with bounded exponential backoff.
// Network errors and retryable status codes (429, 5xx) are retried up to
// MaxRetries times; 401/403 fails immediately as an auth error. Any
// response returned has a status the caller is expected to handle.
//
// newRequest is invoked fresh for every attempt so the body reader is
// never reused.
func DoWithRetry(ctx context.Context, log *logrus.Logger, client *http.Client, provider string, cfg RetryConfig, newRequest func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, NewTransientError(provider, 0, fmt.Errorf("context cancelled: %w", ctx.Err()))
		default:
		}

		httpReq, err := newRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			if ctx.Err() != nil {
				// Call timeout or caller cancellation; retrying cannot help.
				return nil, NewTransientError(provider, 0, lastErr)
			}
			if attempt < cfg.MaxRetries {
				WaitWithJitter(ctx, delay)
				delay = cfg.NextDelay(delay)
				continue
			}
			return nil, NewTransientError(provider, 0, lastErr)
		}

		if IsAuthStatus(resp.StatusCode) {
			status := resp.StatusCode
			_ = resp.Body.Close()
			return nil, NewAuthError(provider, status, fmt.Errorf("HTTP %d", status))
		}

		if IsRetryableStatus(resp.StatusCode) {
			status := resp.StatusCode
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: retryable error", status)
			if attempt < cfg.MaxRetries {
				log.WithFields(logrus.Fields{
					"provider":    provider,
					"status_code": status,
					"attempt":     attempt + 1,
					"max_retries": cfg.MaxRetries,
				}).Debug("Retrying after retryable error")
				WaitWithJitter(ctx, delay)
				delay = cfg.NextDelay(delay)
				continue
			}
			return nil, NewTransientError(provider, status, lastErr)
		}

		return resp, nil
	}

	return nil, NewTransientError(provider, 0, fmt.Errorf("all %d retry attempts failed: %w", cfg.MaxRetries+1, lastErr))
}
