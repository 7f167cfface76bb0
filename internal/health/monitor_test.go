package health

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
	"github.com/kunal1000-star/RouteNew-sub010/internal/providers"
)

// probeProvider counts health probes and can be configured to fail or hang.
type probeProvider struct {
	name   string
	probes int32
	fail   bool
	delay  time.Duration
}

func (p *probeProvider) Name() string { return p.name }

func (p *probeProvider) Chat(ctx context.Context, messages []models.Message, opts providers.ChatOptions) (*providers.Result, error) {
	return &providers.Result{Content: "ok"}, nil
}

func (p *probeProvider) HealthCheck(ctx context.Context) *providers.HealthStatus {
	atomic.AddInt32(&p.probes, 1)
	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return &providers.HealthStatus{Healthy: false, Err: ctx.Err()}
		case <-time.After(p.delay):
		}
	}
	if p.fail {
		return &providers.HealthStatus{Healthy: false, Err: errors.New("probe failed")}
	}
	return &providers.HealthStatus{Healthy: true, ResponseTimeMs: 25}
}

func setupMonitor(t *testing.T, interval time.Duration, provs ...*probeProvider) (*Monitor, *Registry) {
	t.Helper()
	tiers := make(map[string]int)
	reg := providers.NewRegistry()
	for i, p := range provs {
		tiers[p.name] = i + 1
		assert.NoError(t, reg.Register(p))
	}
	hr := NewRegistry(tiers)
	return NewMonitor(hr, reg, interval, 100*time.Millisecond, logrus.New()), hr
}

func TestPerformCheck_UpdatesAllProviders(t *testing.T) {
	good := &probeProvider{name: "groq"}
	bad := &probeProvider{name: "gemini", fail: true}
	mon, hr := setupMonitor(t, time.Minute, good, bad)

	mon.PerformCheck(context.Background())

	assert.True(t, hr.IsHealthy("groq"))
	assert.False(t, hr.IsHealthy("gemini"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&good.probes))
	assert.Equal(t, int32(1), atomic.LoadInt32(&bad.probes))
}

func TestPerformCheck_OneFailureNeverAbortsOthers(t *testing.T) {
	slow := &probeProvider{name: "cerebras", delay: 200 * time.Millisecond} // exceeds probe timeout
	good := &probeProvider{name: "groq"}
	mon, hr := setupMonitor(t, time.Minute, slow, good)

	mon.PerformCheck(context.Background())

	assert.False(t, hr.IsHealthy("cerebras"), "timed out probe marks unhealthy")
	assert.True(t, hr.IsHealthy("groq"))
}

func TestPerformCheck_SkipsPermanentlyUnhealthy(t *testing.T) {
	p := &probeProvider{name: "groq"}
	mon, hr := setupMonitor(t, time.Minute, p)
	hr.MarkPermanentlyUnhealthy("groq")

	mon.PerformCheck(context.Background())

	assert.Equal(t, int32(0), atomic.LoadInt32(&p.probes))
}

func TestRefreshIfStale_ConcurrentTriggersCollapse(t *testing.T) {
	p := &probeProvider{name: "groq"}
	mon, _ := setupMonitor(t, time.Minute, p)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mon.RefreshIfStale(context.Background())
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		return !mon.inFlight.Load()
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&p.probes),
		"N concurrent triggers must result in exactly one sweep")
}

func TestRefreshIfStale_NoSweepInsideInterval(t *testing.T) {
	p := &probeProvider{name: "groq"}
	mon, _ := setupMonitor(t, time.Minute, p)

	mon.PerformCheck(context.Background())
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.probes))

	mon.RefreshIfStale(context.Background())
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&p.probes),
		"sweep within the interval must not run again")
}

func TestRefreshIfStale_OnSweepRebuilds(t *testing.T) {
	p := &probeProvider{name: "groq"}
	mon, _ := setupMonitor(t, time.Nanosecond, p)

	var rebuilt atomic.Int32
	mon.OnSweep(func() { rebuilt.Add(1) })

	mon.RefreshIfStale(context.Background())

	assert.Eventually(t, func() bool {
		return rebuilt.Load() == 1
	}, time.Second, 5*time.Millisecond)
}
