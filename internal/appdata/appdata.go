// Package appdata fetches optional study-progress context for a user. The
// call is opaque to the engine: it carries its own timeout and its failure
// degrades to "no context", never aborting the chat request.
package appdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ContextProvider supplies study-progress context for a user.
type ContextProvider interface {
	StudyContext(ctx context.Context, userID string) (string, error)
}

// HTTPProvider fetches context from the app-data service.
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type contextResponse struct {
	Context string `json:"context"`
}

func (p *HTTPProvider) StudyContext(ctx context.Context, userID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/v1/users/"+userID+"/study-context", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create app data request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("app data request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("app data service returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read app data response: %w", err)
	}

	var cr contextResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("failed to parse app data response: %w", err)
	}
	return cr.Context, nil
}

// Disabled is used when no app-data service is configured.
type Disabled struct{}

func (Disabled) StudyContext(context.Context, string) (string, error) { return "", nil }
