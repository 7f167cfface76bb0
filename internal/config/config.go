package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every tunable of the orchestration engine. It is loaded once
// at process start and passed by value through Initialize; nothing reads the
// environment after that.
type Config struct {
	Server    ServerConfig
	Engine    EngineConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	AppData   AppDataConfig
	Providers map[string]ProviderConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// EngineConfig carries the orchestrator and health monitor tunables.
type EngineConfig struct {
	ProviderTimeout     time.Duration // per provider call, adapter aborts past this
	HealthCheckInterval time.Duration // minimum gap between health sweeps
	ProbeTimeout        time.Duration // per-provider health probe
	MaxTokens           int
	Temperature         float64
}

type CacheConfig struct {
	TTL       time.Duration
	RedisAddr string // empty disables the L2 tier
	RedisDB   int
}

// RateLimitConfig sets the per-provider per-minute budgets.
type RateLimitConfig struct {
	RequestsPerMinute int
	TokensPerMinute   int
}

type AppDataConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ProviderConfig is one backend's credentials and model selection. A
// provider with an empty APIKey is registered permanently unhealthy and
// never appears in a fallback chain.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Tier    int
}

// ProviderNames is the closed set of known backends, in tier order.
var ProviderNames = []string{"groq", "cerebras", "gemini", "openrouter", "mistral", "together"}

// Load builds a Config from the environment.
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
		},
		Engine: EngineConfig{
			ProviderTimeout:     getDuration("PROVIDER_TIMEOUT", 25*time.Second),
			HealthCheckInterval: getDuration("HEALTH_CHECK_INTERVAL", 5*time.Minute),
			ProbeTimeout:        getDuration("HEALTH_PROBE_TIMEOUT", 10*time.Second),
			MaxTokens:           getInt("MAX_TOKENS", 2048),
			Temperature:         getFloat("TEMPERATURE", 0.7),
		},
		Cache: CacheConfig{
			TTL:       getDuration("CACHE_TTL", 30*time.Minute),
			RedisAddr: getEnv("REDIS_ADDR", ""),
			RedisDB:   getInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 30),
			TokensPerMinute:   getInt("RATE_LIMIT_TOKENS_PER_MINUTE", 40000),
		},
		AppData: AppDataConfig{
			BaseURL: getEnv("APP_DATA_URL", ""),
			Timeout: getDuration("APP_DATA_TIMEOUT", 5*time.Second),
		},
		Providers: map[string]ProviderConfig{
			"groq": {
				APIKey:  getEnv("GROQ_API_KEY", ""),
				BaseURL: getEnv("GROQ_BASE_URL", ""),
				Model:   getEnv("GROQ_MODEL", ""),
				Tier:    1,
			},
			"cerebras": {
				APIKey:  getEnv("CEREBRAS_API_KEY", ""),
				BaseURL: getEnv("CEREBRAS_BASE_URL", ""),
				Model:   getEnv("CEREBRAS_MODEL", ""),
				Tier:    2,
			},
			"gemini": {
				APIKey:  getEnv("GEMINI_API_KEY", ""),
				BaseURL: getEnv("GEMINI_BASE_URL", ""),
				Model:   getEnv("GEMINI_MODEL", ""),
				Tier:    3,
			},
			"openrouter": {
				APIKey:  getEnv("OPENROUTER_API_KEY", ""),
				BaseURL: getEnv("OPENROUTER_BASE_URL", ""),
				Model:   getEnv("OPENROUTER_MODEL", ""),
				Tier:    4,
			},
			"mistral": {
				APIKey:  getEnv("MISTRAL_API_KEY", ""),
				BaseURL: getEnv("MISTRAL_BASE_URL", ""),
				Model:   getEnv("MISTRAL_MODEL", ""),
				Tier:    5,
			},
			"together": {
				APIKey:  getEnv("TOGETHER_API_KEY", ""),
				BaseURL: getEnv("TOGETHER_BASE_URL", ""),
				Model:   getEnv("TOGETHER_MODEL", ""),
				Tier:    6,
			},
		},
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
