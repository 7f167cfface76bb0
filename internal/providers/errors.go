package providers

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies provider failures for the orchestrator.
type ErrorKind string

const (
	// KindTransient covers timeouts, 5xx and 429 responses. Retried inside
	// the adapter; orchestration continues to the next provider.
	KindTransient ErrorKind = "transient"
	// KindAuth covers 401 and 403. Never retried; fallback cannot fix a bad
	// credential, so callers should raise an operator-visible signal.
	KindAuth ErrorKind = "auth"
	// KindConfig covers construction-time problems such as a missing API
	// key. The provider is excluded from all chains at startup.
	KindConfig ErrorKind = "config"
)

// ProviderError wraps a backend failure with the information the
// orchestrator needs to decide what happens next.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Status   int // HTTP status if one was received, else 0
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s error (HTTP %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewTransientError wraps a retryable failure.
func NewTransientError(provider string, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindTransient, Status: status, Err: err}
}

// NewAuthError wraps a credential failure.
func NewAuthError(provider string, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindAuth, Status: status, Err: err}
}

// NewConfigError wraps a construction-time misconfiguration.
func NewConfigError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindConfig, Err: err}
}

// IsTransient reports whether err classifies as a retryable provider failure.
func IsTransient(err error) bool { return kindOf(err) == KindTransient }

// IsAuth reports whether err classifies as a credential failure.
func IsAuth(err error) bool { return kindOf(err) == KindAuth }

// IsConfig reports whether err classifies as a configuration failure.
func IsConfig(err error) bool { return kindOf(err) == KindConfig }

func kindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsRetryableStatus returns true for HTTP status codes that warrant a retry.
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429 - rate limited
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// IsAuthStatus returns true for credential failures that must not be retried.
func IsAuthStatus(statusCode int) bool {
	return statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden
}
