package groq

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
	GroqAPIURL = "https://api.groq.com/openai/v1/chat/completions"
	GroqModel  = "llama-3.3-70b-versatile"
)

type GroqProvider struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	retryConfig providers.RetryConfig
}

type GroqRequest struct {
	Model       string        `json:"model"`
	Messages    []GroqMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type GroqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GroqResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []GroqChoice `json:"choices"`
	Usage   GroqUsage    `json:"usage"`
}

type GroqChoice struct {
	Index        int         `json:"index"`
	Message      GroqMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type GroqUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type GroqErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func NewGroqProvider(apiKey, baseURL, model string) *GroqProvider {
	return NewGroqProviderWithRetry(apiKey, baseURL, model, providers.DefaultRetryConfig())
}

func NewGroqProviderWithRetry(apiKey, baseURL, model string, retryConfig providers.RetryConfig) *GroqProvider {
	if baseURL == "" {
		baseURL = GroqAPIURL
	}
	if model == "" {
		model = GroqModel
	}

	return &GroqProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
		retryConfig: retryConfig,
	}
}

func (p *GroqProvider) Name() string { return "groq" }

func (p *GroqProvider) Chat(ctx context.Context, messages []models.Message, opts providers.ChatOptions) (*providers.Result, error) {
	startTime := time.Now()

	log.WithFields(logrus.Fields{
		"provider": "groq",
		"model":    p.model,
		"messages": len(messages),
	}).Debug("Starting Groq API call")

	groqReq := p.convertRequest(messages, opts)

	body, err := json.Marshal(groqReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := providers.DoWithRetry(ctx, log, p.httpClient, "groq", p.retryConfig, func(ctx context.Context) (*http.Request, error) {
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
			"provider": "groq",
			"error":    err.Error(),
			"duration": time.Since(startTime).String(),
		}).Error("Groq API call failed")
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp GroqErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("Groq API error: %d - %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("Groq API error: %d - %s", resp.StatusCode, string(respBody[:min(500, len(respBody))]))
	}

	var groqResp GroqResponse
	if err := json.Unmarshal(respBody, &groqResp); err != nil {
		return nil, fmt.Errorf("failed to parse Groq response: %w", err)
	}

	if len(groqResp.Choices) == 0 {
		return nil, fmt.Errorf("Groq API returned no choices")
	}

	duration := time.Since(startTime)
	log.WithFields(logrus.Fields{
		"provider":      "groq",
		"duration":      duration.String(),
		"tokens_used":   groqResp.Usage.TotalTokens,
		"content_len":   len(groqResp.Choices[0].Message.Content),
		"finish_reason": groqResp.Choices[0].FinishReason,
	}).Info("Groq API call completed successfully")

	return &providers.Result{
		Content:      groqResp.Choices[0].Message.Content,
		Model:        groqResp.Model,
		InputTokens:  groqResp.Usage.PromptTokens,
		OutputTokens: groqResp.Usage.CompletionTokens,
		LatencyMs:    duration.Milliseconds(),
		FinishReason: groqResp.Choices[0].FinishReason,
	}, nil
}

func (p *GroqProvider) convertRequest(messages []models.Message, opts providers.ChatOptions) GroqRequest {
	groqMessages := make([]GroqMessage, 0, len(messages))
	for _, msg := range messages {
		groqMessages = append(groqMessages, GroqMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	model := opts.Model
	if model == "" {
		model = p.model
	}

	// Cap max_tokens to Groq's completion limit
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	} else if maxTokens > 8192 {
		maxTokens = 8192
	}

	return GroqRequest{
		Model:       model,
		Messages:    groqMessages,
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
	}
}

// HealthCheck issues a minimal chat request with a trivial prompt and a
// small token budget to measure reachability and latency.
func (p *GroqProvider) HealthCheck(ctx context.Context) *providers.HealthStatus {
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
