package together

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
	TogetherAPIURL = "https://api.together.xyz/v1/chat/completions"
	TogetherModel  = "meta-llama/Llama-3.3-70B-Instruct-Turbo"
)

type TogetherProvider struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	retryConfig providers.RetryConfig
}

type TogetherRequest struct {
	Model       string            `json:"model"`
	Messages    []TogetherMessage `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

type TogetherMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TogetherResponse struct {
	ID      string           `json:"id"`
	Model   string           `json:"model"`
	Choices []TogetherChoice `json:"choices"`
	Usage   TogetherUsage    `json:"usage"`
}

type TogetherChoice struct {
	Index        int             `json:"index"`
	Message      TogetherMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type TogetherUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func NewTogetherProvider(apiKey, baseURL, model string) *TogetherProvider {
	if baseURL == "" {
		baseURL = TogetherAPIURL
	}
	if model == "" {
		model = TogetherModel
	}

	return &TogetherProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
		retryConfig: providers.DefaultRetryConfig(),
	}
}

func (p *TogetherProvider) Name() string { return "together" }

func (p *TogetherProvider) Chat(ctx context.Context, messages []models.Message, opts providers.ChatOptions) (*providers.Result, error) {
	startTime := time.Now()

	togetherMessages := make([]TogetherMessage, 0, len(messages))
	for _, msg := range messages {
		togetherMessages = append(togetherMessages, TogetherMessage{Role: msg.Role, Content: msg.Content})
	}

	model := opts.Model
	if model == "" {
		model = p.model
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	body, err := json.Marshal(TogetherRequest{
		Model:       model,
		Messages:    togetherMessages,
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := providers.DoWithRetry(ctx, log, p.httpClient, "together", p.retryConfig, func(ctx context.Context) (*http.Request, error) {
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
			"provider": "together",
			"error":    err.Error(),
		}).Error("Together API call failed")
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Together API error: %d", resp.StatusCode)
	}

	var togetherResp TogetherResponse
	if err := json.Unmarshal(respBody, &togetherResp); err != nil {
		return nil, fmt.Errorf("failed to parse Together response: %w", err)
	}

	if len(togetherResp.Choices) == 0 {
		return nil, fmt.Errorf("Together API returned no choices")
	}

	duration := time.Since(startTime)

	return &providers.Result{
		Content:      togetherResp.Choices[0].Message.Content,
		Model:        togetherResp.Model,
		InputTokens:  togetherResp.Usage.PromptTokens,
		OutputTokens: togetherResp.Usage.CompletionTokens,
		LatencyMs:    duration.Milliseconds(),
		FinishReason: togetherResp.Choices[0].FinishReason,
	}, nil
}

func (p *TogetherProvider) HealthCheck(ctx context.Context) *providers.HealthStatus {
	startTime := time.Now()

	_, err := p.Chat(ctx, providers.ProbeMessages, providers.ProbeOptions)
	elapsed := time.Since(startTime).Milliseconds()
	if err != nil {
		return &providers.HealthStatus{Healthy: false, ResponseTimeMs: elapsed, Err: err}
	}
	return &providers.HealthStatus{Healthy: true, ResponseTimeMs: elapsed}
}
