package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kunal1000-star/RouteNew-sub010/internal/providers"
)

// Monitor probes every provider on a fixed minimum interval. Sweeps are
// triggered opportunistically by requests but run at most once per
// interval, guarded by a compare-and-set flag so concurrent triggers
// collapse into a single sweep.
type Monitor struct {
	registry  *Registry
	providers *providers.Registry
	interval  time.Duration
	probeTO   time.Duration
	log       *logrus.Logger

	inFlight  atomic.Bool
	lastSweep atomic.Int64 // unix nanos of last completed sweep start

	// onSweep runs after every completed sweep, outside any lock. The
	// fallback selector hangs its chain rebuild here.
	onSweep func()
}

func NewMonitor(registry *Registry, reg *providers.Registry, interval, probeTimeout time.Duration, log *logrus.Logger) *Monitor {
	if log == nil {
		log = logrus.New()
	}
	return &Monitor{
		registry:  registry,
		providers: reg,
		interval:  interval,
		probeTO:   probeTimeout,
		log:       log,
	}
}

// OnSweep registers the post-sweep callback. Call before serving traffic.
func (m *Monitor) OnSweep(fn func()) { m.onSweep = fn }

// RefreshIfStale triggers a sweep if the interval has elapsed and no sweep
// is in flight. The sweep runs in its own goroutine so the triggering
// request is never blocked behind probes.
func (m *Monitor) RefreshIfStale(ctx context.Context) {
	last := m.lastSweep.Load()
	if time.Since(time.Unix(0, last)) < m.interval {
		return
	}
	if !m.inFlight.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer m.inFlight.Store(false)
		m.PerformCheck(context.WithoutCancel(ctx))
	}()
}

// PerformCheck probes every registered provider concurrently. Each probe
// carries its own short timeout; one provider's failure never aborts the
// others. Permanently unhealthy providers are skipped.
func (m *Monitor) PerformCheck(ctx context.Context) {
	start := time.Now()
	m.lastSweep.Store(start.UnixNano())

	names := m.providers.Names()
	var wg sync.WaitGroup

	for _, name := range names {
		if m.registry.IsPermanentlyUnhealthy(name) {
			continue
		}
		p := m.providers.Get(name)
		if p == nil {
			continue
		}

		wg.Add(1)
		go func(name string, p providers.Provider) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, m.probeTO)
			defer cancel()

			status := p.HealthCheck(probeCtx)
			if status.Healthy {
				m.registry.MarkHealthy(name, status.ResponseTimeMs)
				m.log.WithFields(logrus.Fields{
					"provider":         name,
					"response_time_ms": status.ResponseTimeMs,
				}).Debug("Provider health check passed")
				return
			}

			m.registry.MarkUnhealthy(name)
			m.log.WithFields(logrus.Fields{
				"provider": name,
				"error":    errString(status.Err),
			}).Warn("Provider health check failed")
		}(name, p)
	}

	wg.Wait()

	m.log.WithFields(logrus.Fields{
		"providers": len(names),
		"duration":  time.Since(start).String(),
	}).Info("Health sweep completed")

	if m.onSweep != nil {
		m.onSweep()
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
