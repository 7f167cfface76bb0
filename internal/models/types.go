package models

import "time"

// QueryType is the coarse intent classification that drives fallback chain
// selection and the system prompt.
type QueryType string

const (
	QueryTimeSensitive QueryType = "time_sensitive"
	QueryAppData       QueryType = "app_data"
	QueryGeneral       QueryType = "general"
)

// Message is a single conversation turn in the common wire-independent shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the inbound request consumed from the chat-handling layer.
// It is immutable for the duration of one orchestration.
type ChatRequest struct {
	UserID            string `json:"user_id"`
	ConversationID    string `json:"conversation_id"`
	Message           string `json:"message"`
	ChatType          string `json:"chat_type"`
	IncludeAppData    bool   `json:"include_app_data,omitempty"`
	PreferredProvider string `json:"preferred_provider,omitempty"`
}

// TokenUsage normalizes upstream token accounting into a common shape.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// ProviderResponse is the single terminal artifact produced per request.
type ProviderResponse struct {
	Content          string     `json:"content"`
	ModelUsed        string     `json:"model_used"`
	Provider         string     `json:"provider"`
	QueryType        QueryType  `json:"query_type"`
	TierUsed         int        `json:"tier_used"`
	Cached           bool       `json:"cached"`
	TokensUsed       TokenUsage `json:"tokens_used"`
	LatencyMs        int64      `json:"latency_ms"`
	WebSearchEnabled bool       `json:"web_search_enabled"`
	FallbackUsed     bool       `json:"fallback_used"`
	LimitApproaching bool       `json:"limit_approaching"`
}

// RateLimitState reports a provider's standing in the current window.
type RateLimitState string

const (
	RateLimitOK      RateLimitState = "ok"
	RateLimitBlocked RateLimitState = "blocked"
)

// RateLimitStatus is the result of a rate limit check for one provider.
type RateLimitStatus struct {
	Provider    string         `json:"provider"`
	Status      RateLimitState `json:"status"`
	Approaching bool           `json:"approaching"`
}

// HealthRecord is the cached judgement of a provider's reachability,
// refreshed by the health monitor and flipped by attempt failures.
type HealthRecord struct {
	Provider       string    `json:"provider"`
	Healthy        bool      `json:"healthy"`
	LastCheck      time.Time `json:"last_check"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Tier           int       `json:"tier"`
}
