package appdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProvider_StudyContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users/user-42/study-context", r.URL.Path)
		_, _ = w.Write([]byte(`{"context":"Physics: 72% mastery"}`))
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL, time.Second)

	ctx, err := p.StudyContext(context.Background(), "user-42")
	require.NoError(t, err)
	assert.Equal(t, "Physics: 72% mastery", ctx)
}

func TestHTTPProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL, time.Second)

	_, err := p.StudyContext(context.Background(), "user-42")
	assert.Error(t, err)
}

func TestHTTPProvider_TimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL, 20*time.Millisecond)

	_, err := p.StudyContext(context.Background(), "user-42")
	assert.Error(t, err)
}

func TestDisabled_ReturnsEmptyContext(t *testing.T) {
	ctx, err := Disabled{}.StudyContext(context.Background(), "anyone")
	assert.NoError(t, err)
	assert.Empty(t, ctx)
}
