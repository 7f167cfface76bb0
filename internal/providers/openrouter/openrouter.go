package openrouter

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
	OpenRouterAPIURL = "https://openrouter.ai/api/v1/chat/completions"
	OpenRouterModel  = "meta-llama/llama-3.3-70b-instruct"
)

type OpenRouterProvider struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	retryConfig providers.RetryConfig
}

type OpenRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []OpenRouterMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type OpenRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OpenRouterResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []OpenRouterChoice `json:"choices"`
	Usage   OpenRouterUsage    `json:"usage"`
}

type OpenRouterChoice struct {
	Index        int               `json:"index"`
	Message      OpenRouterMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type OpenRouterUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func NewOpenRouterProvider(apiKey, baseURL, model string) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = OpenRouterAPIURL
	}
	if model == "" {
		model = OpenRouterModel
	}

	return &OpenRouterProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
		retryConfig: providers.DefaultRetryConfig(),
	}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

func (p *OpenRouterProvider) Chat(ctx context.Context, messages []models.Message, opts providers.ChatOptions) (*providers.Result, error) {
	startTime := time.Now()

	orMessages := make([]OpenRouterMessage, 0, len(messages))
	for _, msg := range messages {
		orMessages = append(orMessages, OpenRouterMessage{Role: msg.Role, Content: msg.Content})
	}

	model := opts.Model
	if model == "" {
		model = p.model
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	body, err := json.Marshal(OpenRouterRequest{
		Model:       model,
		Messages:    orMessages,
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := providers.DoWithRetry(ctx, log, p.httpClient, "openrouter", p.retryConfig, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
		// OpenRouter attribution headers
		httpReq.Header.Set("HTTP-Referer", "routenew")
		httpReq.Header.Set("X-Title", "RouteNew")
		return httpReq, nil
	})
	if err != nil {
		log.WithFields(logrus.Fields{
			"provider": "openrouter",
			"error":    err.Error(),
			"duration": time.Since(startTime).String(),
		}).Error("OpenRouter API call failed")
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenRouter API error: %d - %s", resp.StatusCode, string(respBody[:min(500, len(respBody))]))
	}

	var orResp OpenRouterResponse
	if err := json.Unmarshal(respBody, &orResp); err != nil {
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}

	if len(orResp.Choices) == 0 {
		return nil, fmt.Errorf("OpenRouter API returned no choices")
	}

	duration := time.Since(startTime)
	log.WithFields(logrus.Fields{
		"provider":    "openrouter",
		"model":       orResp.Model,
		"duration":    duration.String(),
		"tokens_used": orResp.Usage.TotalTokens,
	}).Info("OpenRouter API call completed successfully")

	return &providers.Result{
		Content:      orResp.Choices[0].Message.Content,
		Model:        orResp.Model,
		InputTokens:  orResp.Usage.PromptTokens,
		OutputTokens: orResp.Usage.CompletionTokens,
		LatencyMs:    duration.Milliseconds(),
		FinishReason: orResp.Choices[0].FinishReason,
	}, nil
}

func (p *OpenRouterProvider) HealthCheck(ctx context.Context) *providers.HealthStatus {
	startTime := time.Now()

	_, err := p.Chat(ctx, providers.ProbeMessages, providers.ProbeOptions)
	elapsed := time.Since(startTime).Milliseconds()
	if err != nil {
		return &providers.HealthStatus{Healthy: false, ResponseTimeMs: elapsed, Err: err}
	}
	return &providers.HealthStatus{Healthy: true, ResponseTimeMs: elapsed}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
