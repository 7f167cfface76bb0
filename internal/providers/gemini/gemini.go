package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
	"github.com/kunal1000-star/RouteNew-sub010/internal/providers"
)

var log = logrus.New()

const (
	GeminiAPIURL = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	GeminiModel  = "gemini-2.0-flash"
)

type GeminiProvider struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	retryConfig providers.RetryConfig
}

type GeminiRequest struct {
	Contents          []GeminiContent        `json:"contents"`
	SystemInstruction *GeminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  GeminiGenerationConfig `json:"generationConfig,omitempty"`
	Tools             []GeminiTool           `json:"tools,omitempty"`
}

type GeminiContent struct {
	Parts []GeminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

type GeminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// GeminiTool enables Google Search grounding for time-sensitive queries.
type GeminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type GeminiResponse struct {
	Candidates    []GeminiCandidate    `json:"candidates"`
	UsageMetadata *GeminiUsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string               `json:"modelVersion,omitempty"`
}

type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
	Index        int           `json:"index"`
}

type GeminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type GeminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func NewGeminiProvider(apiKey, baseURL, model string) *GeminiProvider {
	if baseURL == "" {
		baseURL = GeminiAPIURL
	}
	if model == "" {
		model = GeminiModel
	}

	return &GeminiProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
		retryConfig: providers.DefaultRetryConfig(),
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Chat(ctx context.Context, messages []models.Message, opts providers.ChatOptions) (*providers.Result, error) {
	startTime := time.Now()

	geminiReq := p.convertRequest(messages, opts)

	body, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.requestURL(opts)

	resp, err := providers.DoWithRetry(ctx, log, p.httpClient, "gemini", p.retryConfig, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-goog-api-key", p.apiKey)
		return httpReq, nil
	})
	if err != nil {
		log.WithFields(logrus.Fields{
			"provider": "gemini",
			"error":    err.Error(),
			"duration": time.Since(startTime).String(),
		}).Error("Gemini API call failed")
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp GeminiErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("Gemini API error: %d - %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("Gemini API error: %d", resp.StatusCode)
	}

	var geminiResp GeminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to parse Gemini response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, fmt.Errorf("Gemini API returned no candidates")
	}

	content := extractText(geminiResp.Candidates[0].Content)
	if content == "" {
		return nil, fmt.Errorf("Gemini API returned empty content")
	}

	var inputTokens, outputTokens int
	if geminiResp.UsageMetadata != nil {
		inputTokens = geminiResp.UsageMetadata.PromptTokenCount
		outputTokens = geminiResp.UsageMetadata.CandidatesTokenCount
	}

	duration := time.Since(startTime)
	log.WithFields(logrus.Fields{
		"provider":      "gemini",
		"duration":      duration.String(),
		"input_tokens":  inputTokens,
		"output_tokens": outputTokens,
		"finish_reason": geminiResp.Candidates[0].FinishReason,
	}).Info("Gemini API call completed successfully")

	model := geminiResp.ModelVersion
	if model == "" {
		model = p.model
	}

	return &providers.Result{
		Content:      content,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		LatencyMs:    duration.Milliseconds(),
		FinishReason: geminiResp.Candidates[0].FinishReason,
	}, nil
}

func (p *GeminiProvider) requestURL(opts providers.ChatOptions) string {
	model := opts.Model
	if model == "" {
		model = p.model
	}
	if strings.Contains(p.baseURL, "%s") {
		return fmt.Sprintf(p.baseURL, model)
	}
	return p.baseURL
}

// convertRequest maps the common message list onto Gemini's contents/parts
// shape. Gemini has no "system" or "assistant" roles on the wire: system
// messages become a systemInstruction, assistant turns become "model".
func (p *GeminiProvider) convertRequest(messages []models.Message, opts providers.ChatOptions) GeminiRequest {
	var system *GeminiContent
	contents := make([]GeminiContent, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = &GeminiContent{Parts: []GeminiPart{{Text: msg.Content}}}
		case "assistant":
			contents = append(contents, GeminiContent{
				Role:  "model",
				Parts: []GeminiPart{{Text: msg.Content}},
			})
		default:
			contents = append(contents, GeminiContent{
				Role:  "user",
				Parts: []GeminiPart{{Text: msg.Content}},
			})
		}
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	req := GeminiRequest{
		Contents:          contents,
		SystemInstruction: system,
		GenerationConfig: GeminiGenerationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: maxTokens,
		},
	}

	if opts.WebSearch {
		req.Tools = []GeminiTool{{GoogleSearch: &struct{}{}}}
	}

	return req
}

func extractText(content GeminiContent) string {
	var sb strings.Builder
	for _, part := range content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func (p *GeminiProvider) HealthCheck(ctx context.Context) *providers.HealthStatus {
	startTime := time.Now()

	_, err := p.Chat(ctx, providers.ProbeMessages, providers.ProbeOptions)
	elapsed := time.Since(startTime).Milliseconds()
	if err != nil {
		return &providers.HealthStatus{Healthy: false, ResponseTimeMs: elapsed, Err: err}
	}
	return &providers.HealthStatus{Healthy: true, ResponseTimeMs: elapsed}
}
