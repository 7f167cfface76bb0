// Package orchestrator ties the engine together: cache check, health
// refresh, classification, chain building, sequential provider attempts,
// and graceful degradation. Every request produces exactly one terminal
// outcome.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kunal1000-star/RouteNew-sub010/internal/appdata"
	"github.com/kunal1000-star/RouteNew-sub010/internal/cache"
	"github.com/kunal1000-star/RouteNew-sub010/internal/classifier"
	"github.com/kunal1000-star/RouteNew-sub010/internal/config"
	"github.com/kunal1000-star/RouteNew-sub010/internal/fallback"
	"github.com/kunal1000-star/RouteNew-sub010/internal/health"
	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
	"github.com/kunal1000-star/RouteNew-sub010/internal/providers"
	"github.com/kunal1000-star/RouteNew-sub010/internal/ratelimit"
	"github.com/kunal1000-star/RouteNew-sub010/internal/usage"
	"github.com/kunal1000-star/RouteNew-sub010/pkg/metrics"
)

// criticalErrorMessage is the fixed reply for any uncaught failure inside
// orchestration. Nothing in this subsystem is fatal to the process.
const criticalErrorMessage = "I apologize, but I ran into an unexpected problem while processing your request. Please try again in a moment."

// degradationMessages are the always-successful canned replies returned
// when every candidate provider has failed.
var degradationMessages = map[models.QueryType]string{
	models.QueryTimeSensitive: "I'm having trouble reaching live information sources right now, so I can't give you an up-to-date answer. Please try again in a few minutes.",
	models.QueryAppData:       "I can't access your study data at the moment. Please check your progress on the dashboard, and try asking again shortly.",
	models.QueryGeneral:       "I'm temporarily unable to process your request. Please try again in a moment.",
}

// systemPrompts seed the conversation per query type.
var systemPrompts = map[models.QueryType]string{
	models.QueryTimeSensitive: "You are a helpful study assistant. The user is asking about current events or time-sensitive information. Use web search results when available, and say clearly when your information may be out of date.",
	models.QueryAppData:       "You are a helpful study assistant with access to the user's study progress. Ground your answer in the provided study context when it is present.",
	models.QueryGeneral:       "You are a helpful study assistant. Give clear, accurate explanations at the level the user is working at.",
}

// Engine is the provider orchestration engine. Construct it once via
// Initialize (or New with injected components in tests) and share it; all
// methods are safe for concurrent use.
type Engine struct {
	cfg       *config.Config
	providers *providers.Registry
	health    *health.Registry
	monitor   *health.Monitor
	selector  *fallback.Selector
	limiter   *ratelimit.Limiter
	cache     *cache.ResponseCache
	usage     *usage.Logger
	appData   appdata.ContextProvider
	log       *logrus.Logger
}

// New wires an Engine from pre-built components. Tests inject fakes here.
func New(cfg *config.Config, reg *providers.Registry, hr *health.Registry, mon *health.Monitor, sel *fallback.Selector, lim *ratelimit.Limiter, rc *cache.ResponseCache, ul *usage.Logger, ad appdata.ContextProvider, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	if ad == nil {
		ad = appdata.Disabled{}
	}
	mon.OnSweep(sel.Rebuild)
	return &Engine{
		cfg:       cfg,
		providers: reg,
		health:    hr,
		monitor:   mon,
		selector:  sel,
		limiter:   lim,
		cache:     rc,
		usage:     ul,
		appData:   ad,
		log:       log,
	}
}

// Chat runs one request through the orchestration state machine. It always
// returns a usable response; provider-layer errors never reach the caller.
func (e *Engine) Chat(ctx context.Context, req *models.ChatRequest) (resp *models.ProviderResponse) {
	start := time.Now()
	requestID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			e.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"panic":      r,
			}).Error("Orchestration panicked, returning critical error response")
			resp = &models.ProviderResponse{
				Content:   criticalErrorMessage,
				Provider:  "none",
				ModelUsed: "none",
				QueryType: models.QueryGeneral,
				LatencyMs: time.Since(start).Milliseconds(),
			}
		}
		metrics.RequestDuration.Observe(time.Since(start).Seconds())
	}()

	// Cache check short-circuits the entire pipeline.
	if cached := e.cache.Get(ctx, req); cached != nil {
		cached.LatencyMs = time.Since(start).Milliseconds()
		metrics.CacheHitsTotal.Inc()
		e.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"provider":   cached.Provider,
		}).Debug("Cache hit, skipping orchestration")
		e.usage.LogSuccess(usage.Event{
			RequestID: requestID,
			Provider:  cached.Provider,
			Model:     cached.ModelUsed,
			QueryType: cached.QueryType,
			Tier:      cached.TierUsed,
			LatencyMs: cached.LatencyMs,
			Cached:    true,
		})
		return cached
	}

	// Opportunistic health refresh; never blocks the request.
	e.monitor.RefreshIfStale(ctx)

	queryType := classifier.Classify(req.Message)
	metrics.RequestsTotal.WithLabelValues(string(queryType)).Inc()

	messages := e.buildMessages(ctx, req, queryType, requestID)
	chain := e.selector.Chain(queryType, req.PreferredProvider)

	e.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"query_type": queryType,
		"chain":      chain,
		"preferred":  req.PreferredProvider,
	}).Debug("Fallback chain built")

	fallbackUsed := false

	for i, name := range chain {
		// Position 0 bypasses the health filter only when it is the
		// caller's preferred provider.
		preferredSlot := i == 0 && name == req.PreferredProvider
		if !preferredSlot && !e.health.IsHealthy(name) {
			continue
		}

		// A blocked provider is skipped before any network call; this
		// consumes no retry budget and does not mark it unhealthy.
		if status := e.limiter.Check(name); status.Status == models.RateLimitBlocked {
			e.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"provider":   name,
			}).Warn("Provider rate limited, skipping")
			metrics.ProviderAttemptsTotal.WithLabelValues(name, "rate_limited").Inc()
			continue
		}

		p := e.providers.Get(name)
		if p == nil {
			continue
		}

		opts := providers.ChatOptions{
			Model:       e.cfg.Providers[name].Model,
			Temperature: e.cfg.Engine.Temperature,
			MaxTokens:   e.cfg.Engine.MaxTokens,
			WebSearch:   queryType == models.QueryTimeSensitive,
		}

		callCtx, cancel := context.WithTimeout(ctx, e.cfg.Engine.ProviderTimeout)
		result, err := p.Chat(callCtx, messages, opts)
		cancel()

		if err != nil {
			e.handleAttemptFailure(requestID, name, queryType, err)
			fallbackUsed = true
			continue
		}

		e.limiter.RecordRequest(name, result.InputTokens+result.OutputTokens)
		metrics.ProviderAttemptsTotal.WithLabelValues(name, "success").Inc()
		if fallbackUsed {
			metrics.FallbacksTotal.Inc()
		}

		resp := &models.ProviderResponse{
			Content:          result.Content,
			ModelUsed:        result.Model,
			Provider:         name,
			QueryType:        queryType,
			TierUsed:         e.health.Tier(name),
			TokensUsed:       models.TokenUsage{Input: result.InputTokens, Output: result.OutputTokens},
			LatencyMs:        time.Since(start).Milliseconds(),
			WebSearchEnabled: opts.WebSearch && name == "gemini",
			FallbackUsed:     fallbackUsed,
			LimitApproaching: e.limiter.LimitApproaching(name),
		}

		e.usage.LogSuccess(usage.Event{
			RequestID:    requestID,
			Provider:     name,
			Model:        result.Model,
			QueryType:    queryType,
			Tier:         resp.TierUsed,
			InputTokens:  result.InputTokens,
			OutputTokens: result.OutputTokens,
			LatencyMs:    resp.LatencyMs,
			FallbackUsed: fallbackUsed,
		})
		e.cache.Set(ctx, req, resp)
		return resp
	}

	// Chain exhausted: a canned, query-type-specific reply is still a
	// successful terminal outcome.
	metrics.DegradedTotal.Inc()
	e.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"query_type": queryType,
		"chain_len":  len(chain),
	}).Warn("All providers exhausted, returning degradation message")

	return &models.ProviderResponse{
		Content:      degradationMessages[queryType],
		Provider:     "none",
		ModelUsed:    "none",
		QueryType:    queryType,
		FallbackUsed: true,
		LatencyMs:    time.Since(start).Milliseconds(),
	}
}

func (e *Engine) handleAttemptFailure(requestID, name string, queryType models.QueryType, err error) {
	// One-strike policy: a single failure downs the provider until the
	// next sweep.
	e.health.MarkUnhealthy(name)
	metrics.ProviderAttemptsTotal.WithLabelValues(name, "failure").Inc()

	fields := logrus.Fields{
		"request_id": requestID,
		"provider":   name,
		"error":      err.Error(),
	}
	if providers.IsAuth(err) {
		// Fallback cannot fix a bad credential; make it operator-visible.
		fields["alert"] = "auth_failure"
		e.log.WithFields(fields).Error("Provider credential failure, falling back")
	} else {
		e.log.WithFields(fields).Warn("Provider attempt failed, falling back")
	}

	e.usage.LogFailure(usage.Event{
		RequestID: requestID,
		Provider:  name,
		QueryType: queryType,
		Tier:      e.health.Tier(name),
		Error:     err.Error(),
	})
}

// buildMessages assembles the system prompt and user turn. App-data
// context failures degrade to no context.
func (e *Engine) buildMessages(ctx context.Context, req *models.ChatRequest, queryType models.QueryType, requestID string) []models.Message {
	system := systemPrompts[queryType]

	if req.IncludeAppData {
		appCtx, err := e.appData.StudyContext(ctx, req.UserID)
		if err != nil {
			e.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("App data context unavailable, continuing without it")
		} else if appCtx != "" {
			system += "\n\nStudy context for this user:\n" + appCtx
		}
	}

	return []models.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: req.Message},
	}
}
