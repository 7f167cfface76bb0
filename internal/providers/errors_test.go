package providers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderError_Classification(t *testing.T) {
	transient := NewTransientError("groq", 503, errors.New("upstream down"))
	auth := NewAuthError("gemini", 401, errors.New("bad key"))
	config := NewConfigError("mistral", errors.New("missing API key"))

	assert.True(t, IsTransient(transient))
	assert.False(t, IsAuth(transient))

	assert.True(t, IsAuth(auth))
	assert.False(t, IsTransient(auth))

	assert.True(t, IsConfig(config))
	assert.False(t, IsTransient(config))
}

func TestProviderError_SurvivesWrapping(t *testing.T) {
	inner := NewAuthError("groq", 403, errors.New("forbidden"))
	wrapped := fmt.Errorf("attempt failed: %w", inner)

	assert.True(t, IsAuth(wrapped))
}

func TestProviderError_PlainErrorIsNoKind(t *testing.T) {
	err := errors.New("something else")

	assert.False(t, IsTransient(err))
	assert.False(t, IsAuth(err))
	assert.False(t, IsConfig(err))
}

func TestIsRetryableStatus(t *testing.T) {
	retryable := []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout}
	for _, code := range retryable {
		assert.True(t, IsRetryableStatus(code), "status %d", code)
	}

	notRetryable := []int{http.StatusOK, http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound}
	for _, code := range notRetryable {
		assert.False(t, IsRetryableStatus(code), "status %d", code)
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	p := &stubProvider{name: "groq"}

	assert.NoError(t, reg.Register(p))
	assert.Error(t, reg.Register(p), "duplicate registration must fail")

	assert.Equal(t, p, reg.Get("groq"))
	assert.Nil(t, reg.Get("unknown"))
	assert.Equal(t, []string{"groq"}, reg.Names())
}
