// Package fallback builds the ordered provider chains the orchestrator
// attempts for each query type.
package fallback

import (
	"sync"

	"github.com/kunal1000-star/RouteNew-sub010/internal/health"
	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
)

// baseChains is the static preference ordering per query type, ascending
// by suitability cost. Time-sensitive queries start at gemini for its
// search grounding; app-data queries favor the fast low-tier backends.
var baseChains = map[models.QueryType][]string{
	models.QueryTimeSensitive: {"gemini", "groq", "openrouter", "cerebras", "mistral", "together"},
	models.QueryAppData:       {"groq", "cerebras", "mistral", "gemini", "openrouter", "together"},
	models.QueryGeneral:       {"groq", "cerebras", "gemini", "openrouter", "mistral", "together"},
}

// Selector produces health-filtered provider chains. Chains are rebuilt
// after every health sweep and additionally filtered against the live
// registry at selection time, so a provider downed by a mid-interval
// attempt failure drops out immediately.
type Selector struct {
	registry *health.Registry

	mu     sync.RWMutex
	chains map[models.QueryType][]string
}

func NewSelector(registry *health.Registry) *Selector {
	s := &Selector{
		registry: registry,
		chains:   make(map[models.QueryType][]string),
	}
	s.Rebuild()
	return s
}

// Rebuild recomputes every chain from the base ordering, keeping only
// currently healthy providers. Called after each health sweep.
func (s *Selector) Rebuild() {
	rebuilt := make(map[models.QueryType][]string, len(baseChains))
	for qt, base := range baseChains {
		chain := make([]string, 0, len(base))
		for _, name := range base {
			if s.registry.IsHealthy(name) {
				chain = append(chain, name)
			}
		}
		rebuilt[qt] = chain
	}

	s.mu.Lock()
	s.chains = rebuilt
	s.mu.Unlock()
}

// Chain returns the ordered candidate list for a query type. A preferred
// provider is always placed first, even if currently marked unhealthy —
// caller intent is honored over the health filter for position 0 only.
// The result never repeats a provider.
func (s *Selector) Chain(queryType models.QueryType, preferred string) []string {
	s.mu.RLock()
	cached := s.chains[queryType]
	s.mu.RUnlock()

	chain := make([]string, 0, len(cached)+1)
	if preferred != "" && !s.registry.IsPermanentlyUnhealthy(preferred) {
		chain = append(chain, preferred)
	}
	for _, name := range cached {
		if name == preferred {
			continue
		}
		if !s.registry.IsHealthy(name) {
			continue
		}
		chain = append(chain, name)
	}
	return chain
}
