package cerebras

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
	CerebrasAPIURL = "https://api.cerebras.ai/v1/chat/completions"
	CerebrasModel  = "llama-3.3-70b"
)

type CerebrasProvider struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	retryConfig providers.RetryConfig
}

type CerebrasRequest struct {
	Model       string            `json:"model"`
	Messages    []CerebrasMessage `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

type CerebrasMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CerebrasResponse struct {
	ID      string           `json:"id"`
	Object  string           `json:"object"`
	Created int64            `json:"created"`
	Model   string           `json:"model"`
	Choices []CerebrasChoice `json:"choices"`
	Usage   CerebrasUsage    `json:"usage"`
}

type CerebrasChoice struct {
	Index        int             `json:"index"`
	Message      CerebrasMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type CerebrasUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type CerebrasErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func NewCerebrasProvider(apiKey, baseURL, model string) *CerebrasProvider {
	if baseURL == "" {
		baseURL = CerebrasAPIURL
	}
	if model == "" {
		model = CerebrasModel
	}

	return &CerebrasProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
		retryConfig: providers.DefaultRetryConfig(),
	}
}

func (p *CerebrasProvider) Name() string { return "cerebras" }

func (p *CerebrasProvider) Chat(ctx context.Context, messages []models.Message, opts providers.ChatOptions) (*providers.Result, error) {
	startTime := time.Now()

	cerebrasReq := p.convertRequest(messages, opts)

	body, err := json.Marshal(cerebrasReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := providers.DoWithRetry(ctx, log, p.httpClient, "cerebras", p.retryConfig, func(ctx context.Context) (*http.Request, error) {
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
			"provider": "cerebras",
			"error":    err.Error(),
			"duration": time.Since(startTime).String(),
		}).Error("Cerebras API call failed")
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp CerebrasErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("Cerebras API error: %d - %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("Cerebras API error: %d", resp.StatusCode)
	}

	var cerebrasResp CerebrasResponse
	if err := json.Unmarshal(respBody, &cerebrasResp); err != nil {
		return nil, fmt.Errorf("failed to parse Cerebras response: %w", err)
	}

	if len(cerebrasResp.Choices) == 0 {
		return nil, fmt.Errorf("Cerebras API returned no choices")
	}

	duration := time.Since(startTime)
	log.WithFields(logrus.Fields{
		"provider":      "cerebras",
		"duration":      duration.String(),
		"tokens_used":   cerebrasResp.Usage.TotalTokens,
		"finish_reason": cerebrasResp.Choices[0].FinishReason,
	}).Info("Cerebras API call completed successfully")

	return &providers.Result{
		Content:      cerebrasResp.Choices[0].Message.Content,
		Model:        cerebrasResp.Model,
		InputTokens:  cerebrasResp.Usage.PromptTokens,
		OutputTokens: cerebrasResp.Usage.CompletionTokens,
		LatencyMs:    duration.Milliseconds(),
		FinishReason: cerebrasResp.Choices[0].FinishReason,
	}, nil
}

func (p *CerebrasProvider) convertRequest(messages []models.Message, opts providers.ChatOptions) CerebrasRequest {
	cerebrasMessages := make([]CerebrasMessage, 0, len(messages))
	for _, msg := range messages {
		cerebrasMessages = append(cerebrasMessages, CerebrasMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	model := opts.Model
	if model == "" {
		model = p.model
	}

	// Cap max_tokens to Cerebras's limit
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	} else if maxTokens > 8192 {
		maxTokens = 8192
	}

	return CerebrasRequest{
		Model:       model,
		Messages:    cerebrasMessages,
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens,
	}
}

func (p *CerebrasProvider) HealthCheck(ctx context.Context) *providers.HealthStatus {
	startTime := time.Now()

	_, err := p.Chat(ctx, providers.ProbeMessages, providers.ProbeOptions)
	elapsed := time.Since(startTime).Milliseconds()
	if err != nil {
		return &providers.HealthStatus{Healthy: false, ResponseTimeMs: elapsed, Err: err}
	}
	return &providers.HealthStatus{Healthy: true, ResponseTimeMs: elapsed}
}
