// Package providers defines the uniform adapter contract for LLM backends
// and the shared retry and error machinery the adapters build on.
package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
)

// ChatOptions carries the per-call knobs common to every backend.
type ChatOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
	WebSearch   bool
}

// Result is the normalized outcome of a successful provider call. Token
// counts and latency are mapped into this shape regardless of upstream
// field naming.
type Result struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	FinishReason string
}

// HealthStatus is the outcome of a lightweight provider probe.
type HealthStatus struct {
	Healthy        bool
	ResponseTimeMs int64
	Err            error
}

// Provider is the uniform interface every backend adapter implements.
// Adapters own their retry, backoff and call timeout; they never touch
// shared health state.
type Provider interface {
	Name() string
	Chat(ctx context.Context, messages []models.Message, opts ChatOptions) (*Result, error)
	HealthCheck(ctx context.Context) *HealthStatus
}

// Registry is the closed set of configured providers. Registration is
// type-checked; dispatch is polymorphic through the Provider interface.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Provider)}
}

// Register adds a provider. Registering the same name twice is a
// programming error.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[p.Name()]; exists {
		return fmt.Errorf("provider %q already registered", p.Name())
	}
	r.byName[p.Name()] = p
	return nil
}

// Get returns the provider registered under name, or nil.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Names returns the registered provider names, sorted for determinism.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProbeMessages is the minimal conversation used for health probes: a
// trivial prompt whose output is never surfaced to end users.
var ProbeMessages = []models.Message{{Role: "user", Content: "ping"}}

// ProbeOptions is the fixed budget used for health probes.
var ProbeOptions = ChatOptions{MaxTokens: 5, Temperature: 0}
