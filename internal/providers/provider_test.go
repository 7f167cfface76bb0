package providers

import (
	"context"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
)

// stubProvider is a trivial Provider for registry tests.
type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Chat(ctx context.Context, messages []models.Message, opts ChatOptions) (*Result, error) {
	return &Result{Content: "ok", Model: "stub"}, nil
}

func (s *stubProvider) HealthCheck(ctx context.Context) *HealthStatus {
	return &HealthStatus{Healthy: true}
}
