// Package ratelimit tracks per-provider request and token budgets. A
// blocked provider is skipped by the orchestrator before any network call;
// being blocked neither consumes retry budget nor marks the provider
// unhealthy.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
)

var timeNow = time.Now

// Limiter holds one pair of token buckets per provider: one for request
// count, one for token spend. Buckets refill continuously at the
// per-minute budget.
type Limiter struct {
	requestsPerMinute int
	tokensPerMinute   int

	mu          sync.Mutex
	perProvider map[string]*providerLimiter
}

type providerLimiter struct {
	requests *rate.Limiter
	tokens   *rate.Limiter
}

func NewLimiter(requestsPerMinute, tokensPerMinute int) *Limiter {
	return &Limiter{
		requestsPerMinute: requestsPerMinute,
		tokensPerMinute:   tokensPerMinute,
		perProvider:       make(map[string]*providerLimiter),
	}
}

func (l *Limiter) limiterFor(provider string) *providerLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl, ok := l.perProvider[provider]
	if !ok {
		pl = &providerLimiter{
			requests: rate.NewLimiter(rate.Limit(float64(l.requestsPerMinute)/60.0), l.requestsPerMinute),
			tokens:   rate.NewLimiter(rate.Limit(float64(l.tokensPerMinute)/60.0), l.tokensPerMinute),
		}
		l.perProvider[provider] = pl
	}
	return pl
}

// Check reports whether a provider has budget for one more request. The
// check consumes nothing.
func (l *Limiter) Check(provider string) models.RateLimitStatus {
	pl := l.limiterFor(provider)

	status := models.RateLimitStatus{Provider: provider, Status: models.RateLimitOK}
	if pl.requests.Tokens() < 1 || pl.tokens.Tokens() < 1 {
		status.Status = models.RateLimitBlocked
	}
	status.Approaching = l.approaching(pl)
	return status
}

// RecordRequest consumes one request slot and the given token spend from
// the provider's window.
func (l *Limiter) RecordRequest(provider string, tokens int) {
	pl := l.limiterFor(provider)
	pl.requests.AllowN(timeNow(), 1)
	if tokens > 0 {
		if tokens > l.tokensPerMinute {
			tokens = l.tokensPerMinute
		}
		// ReserveN debits even past zero so an oversized spend still
		// blocks the next window.
		pl.tokens.ReserveN(timeNow(), tokens)
	}
}

// LimitApproaching reports whether a provider's remaining window budget is
// below 20%, so the caller can surface limit_approaching downstream.
func (l *Limiter) LimitApproaching(provider string) bool {
	return l.approaching(l.limiterFor(provider))
}

func (l *Limiter) approaching(pl *providerLimiter) bool {
	reqRemaining := pl.requests.Tokens() / float64(l.requestsPerMinute)
	tokRemaining := pl.tokens.Tokens() / float64(l.tokensPerMinute)
	return reqRemaining < 0.2 || tokRemaining < 0.2
}
