package orchestrator

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/kunal1000-star/RouteNew-sub010/internal/appdata"
	"github.com/kunal1000-star/RouteNew-sub010/internal/cache"
	"github.com/kunal1000-star/RouteNew-sub010/internal/config"
	"github.com/kunal1000-star/RouteNew-sub010/internal/fallback"
	"github.com/kunal1000-star/RouteNew-sub010/internal/health"
	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
	"github.com/kunal1000-star/RouteNew-sub010/internal/providers"
	"github.com/kunal1000-star/RouteNew-sub010/internal/providers/cerebras"
	"github.com/kunal1000-star/RouteNew-sub010/internal/providers/gemini"
	"github.com/kunal1000-star/RouteNew-sub010/internal/providers/groq"
	"github.com/kunal1000-star/RouteNew-sub010/internal/providers/mistral"
	"github.com/kunal1000-star/RouteNew-sub010/internal/providers/openrouter"
	"github.com/kunal1000-star/RouteNew-sub010/internal/providers/together"
	"github.com/kunal1000-star/RouteNew-sub010/internal/ratelimit"
	"github.com/kunal1000-star/RouteNew-sub010/internal/usage"
)

// Initialize builds a fully wired Engine from configuration. It is the
// single construction path for production use; nothing initializes on
// import. A provider without an API key is registered in the health table
// as permanently unhealthy and never appears in a chain.
func Initialize(cfg *config.Config, log *logrus.Logger) (*Engine, error) {
	if log == nil {
		log = logrus.New()
	}

	tiers := make(map[string]int, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		tiers[name] = pc.Tier
	}
	healthRegistry := health.NewRegistry(tiers)

	registry := providers.NewRegistry()
	enabled := 0
	for _, name := range config.ProviderNames {
		pc := cfg.Providers[name]
		if pc.APIKey == "" {
			healthRegistry.MarkPermanentlyUnhealthy(name)
			log.WithFields(logrus.Fields{
				"provider": name,
			}).Warn("Provider has no API key, excluded from all chains")
			continue
		}

		var p providers.Provider
		switch name {
		case "groq":
			p = groq.NewGroqProvider(pc.APIKey, pc.BaseURL, pc.Model)
		case "cerebras":
			p = cerebras.NewCerebrasProvider(pc.APIKey, pc.BaseURL, pc.Model)
		case "gemini":
			p = gemini.NewGeminiProvider(pc.APIKey, pc.BaseURL, pc.Model)
		case "openrouter":
			p = openrouter.NewOpenRouterProvider(pc.APIKey, pc.BaseURL, pc.Model)
		case "mistral":
			p = mistral.NewMistralProvider(pc.APIKey, pc.BaseURL, pc.Model)
		case "together":
			p = together.NewTogetherProvider(pc.APIKey, pc.BaseURL, pc.Model)
		default:
			return nil, fmt.Errorf("unknown provider %q in configuration", name)
		}

		if err := registry.Register(p); err != nil {
			return nil, err
		}
		enabled++
	}

	if enabled == 0 {
		log.Warn("No provider has an API key; every request will degrade gracefully")
	}

	monitor := health.NewMonitor(healthRegistry, registry, cfg.Engine.HealthCheckInterval, cfg.Engine.ProbeTimeout, log)
	selector := fallback.NewSelector(healthRegistry)
	limiter := ratelimit.NewLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.TokensPerMinute)

	var rdb *redis.Client
	if cfg.Cache.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
	}
	responseCache := cache.NewResponseCache(cfg.Cache.TTL, rdb, log)

	usageLogger := usage.NewLogger(log, 256)

	var appDataProvider appdata.ContextProvider = appdata.Disabled{}
	if cfg.AppData.BaseURL != "" {
		appDataProvider = appdata.NewHTTPProvider(cfg.AppData.BaseURL, cfg.AppData.Timeout)
	}

	return New(cfg, registry, healthRegistry, monitor, selector, limiter, responseCache, usageLogger, appDataProvider, log), nil
}

// Close releases background resources held by the engine.
func (e *Engine) Close() {
	e.usage.Close()
}

// HealthSnapshot exposes the health table for the /health endpoint.
func (e *Engine) HealthSnapshot() []models.HealthRecord {
	return e.health.Snapshot()
}
