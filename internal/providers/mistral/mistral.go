package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
	"github.com/kunal1000-star/RouteNew-sub010/internal/providers"
)

var log = logrus.New()

const (
	MistralAPIURL = "https://api.mistral.ai/v1/chat/completions"
	MistralModel  = "mistral-small-latest"
)

type MistralProvider struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	retryConfig providers.RetryConfig
}

type MistralRequest struct {
	Model       string           `json:"model"`
	Messages    []MistralMessage `json:"messages"`
	Temperature float64          `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

type MistralMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type MistralResponse struct {
	ID      string          `json:"id"`
	Model   string          `json:"model"`
	Choices []MistralChoice `json:"choices"`
	Usage   MistralUsage    `json:"usage"`
}

type MistralChoice struct {
	Index        int            `json:"index"`
	Message      MistralMessage `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type MistralUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func NewMistralProvider(apiKey, baseURL, model string) *MistralProvider {
	if baseURL == "" {
		baseURL = MistralAPIURL
	}
	if model == "" {
		model = MistralModel
	}

	return &MistralProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
		retryConfig: providers.DefaultRetryConfig(),
	}
}

func (p *MistralProvider) Name() string { return "mistral" }

func (p *MistralProvider) Chat(ctx context.Context, messages []models.Message, opts providers.ChatOptions) (*providers.Result, error) {
	startTime := time.Now()

	mistralMessages := make([]MistralMessage, 0, len(messages))
	for _, msg := range messages {
		mistralMessages = append(mistralMessages, MistralMessage{Role: msg.Role, Content: msg.Content})
	}

	model := opts.Model
	if model == "" {
		model = p.model
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	body, err := json.Marshal(MistralRequest{
		Model:       model,
		Messages:    mistralMessages,
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := providers.DoWithRetry(ctx, log, p.httpClient, "mistral", p.retryConfig, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
		return httpReq, nil
	})
	if err != nil {
		log.WithFields(logrus.Fields{
			"provider": "mistral",
			"error":    err.Error(),
		}).Error("Mistral API call failed")
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Mistral API error: %d", resp.StatusCode)
	}

	var mistralResp MistralResponse
	if err := json.Unmarshal(respBody, &mistralResp); err != nil {
		return nil, fmt.Errorf("failed to parse Mistral response: %w", err)
	}

	if len(mistralResp.Choices) == 0 {
		return nil, fmt.Errorf("Mistral API returned no choices")
	}

	duration := time.Since(startTime)

	return &providers.Result{
		Content:      mistralResp.Choices[0].Message.Content,
		Model:        mistralResp.Model,
		InputTokens:  mistralResp.Usage.PromptTokens,
		OutputTokens: mistralResp.Usage.CompletionTokens,
		LatencyMs:    duration.Milliseconds(),
		FinishReason: mistralResp.Choices[0].FinishReason,
	}, nil
}

func (p *MistralProvider) HealthCheck(ctx context.Context) *providers.HealthStatus {
	startTime := time.Now()

	_, err := p.Chat(ctx, providers.ProbeMessages, providers.ProbeOptions)
	elapsed := time.Since(startTime).Milliseconds()
	if err != nil {
		return &providers.HealthStatus{Healthy: false, ResponseTimeMs: elapsed, Err: err}
	}
	return &providers.HealthStatus{Healthy: true, ResponseTimeMs: elapsed}
}
