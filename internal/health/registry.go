// Package health tracks provider reachability. The Registry is the shared
// health table; the Monitor refreshes it with periodic, self-guarded
// sweeps. Health data is advisory: a request may run against a slightly
// stale table, and the orchestrator handles per-attempt failure on its own.
package health

import (
	"sync"
	"time"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
)

// Registry holds one record per configured provider. Records are created
// at construction and never deleted; the monitor and per-attempt failure
// marking mutate them in place.
type Registry struct {
	mu        sync.RWMutex
	records   map[string]*models.HealthRecord
	permanent map[string]bool // excluded from sweeps and chains (ConfigError)
}

// NewRegistry creates a registry with one record per provider. tiers maps
// provider name to its static priority ranking. Providers start healthy so
// the first request can try them before the first sweep completes.
func NewRegistry(tiers map[string]int) *Registry {
	records := make(map[string]*models.HealthRecord, len(tiers))
	for name, tier := range tiers {
		records[name] = &models.HealthRecord{
			Provider: name,
			Healthy:  true,
			Tier:     tier,
		}
	}
	return &Registry{
		records:   records,
		permanent: make(map[string]bool),
	}
}

// IsHealthy reports a provider's last known health. Unknown providers are
// unhealthy.
func (r *Registry) IsHealthy(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[name]
	return ok && rec.Healthy && !r.permanent[name]
}

// MarkHealthy records a successful probe and its latency.
func (r *Registry) MarkHealthy(name string, responseTimeMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name]
	if !ok || r.permanent[name] {
		return
	}
	rec.Healthy = true
	rec.LastCheck = time.Now()
	rec.ResponseTimeMs = responseTimeMs
}

// MarkUnhealthy flips a provider to unhealthy. A single attempt failure is
// sufficient; the provider stays down until the next sweep clears it.
func (r *Registry) MarkUnhealthy(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name]
	if !ok {
		return
	}
	rec.Healthy = false
	rec.LastCheck = time.Now()
}

// MarkPermanentlyUnhealthy removes a misconfigured provider from service
// for the life of the process. Sweeps never revive it.
func (r *Registry) MarkPermanentlyUnhealthy(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[name]; ok {
		rec.Healthy = false
		rec.LastCheck = time.Now()
	}
	r.permanent[name] = true
}

// IsPermanentlyUnhealthy reports whether a provider was excluded at startup.
func (r *Registry) IsPermanentlyUnhealthy(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.permanent[name]
}

// Tier returns a provider's static priority ranking, or 0 if unknown.
func (r *Registry) Tier(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rec, ok := r.records[name]; ok {
		return rec.Tier
	}
	return 0
}

// Snapshot returns a copy of every record, for the health endpoint and for
// tests. Cross-field consistency within one record is best effort.
func (r *Registry) Snapshot() []models.HealthRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.HealthRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out
}
