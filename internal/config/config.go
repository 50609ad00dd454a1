package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Session memory backends.
const (
	MemorySQLite = "sqlite"
	MemoryRedis  = "redis"
	MemoryInProc = "memory"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// OpenWeather configuration.
	WeatherAPIKey    string
	WeatherEnabled   bool
	WeatherBaseURL   string
	WeatherTimeout   time.Duration
	WeatherCacheSize int
	WeatherCacheTTL  time.Duration

	// Generative-text configuration, shared by soil and crop advisories.
	LLMProvider  string
	LLMAPIKey    string
	LLMEnabled   bool
	LLMModel     string
	LLMBaseURL   string
	LLMTimeout   time.Duration
	LLMRateLimit float64
	LLMRateBurst int

	// Session memory configuration.
	MemoryBackend  string
	MemoryPath     string
	RedisAddr      string
	RedisKeyPrefix string

	FallbackMinDelay time.Duration

	// Resolution event publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	weatherCacheTTL, err := parsePositiveDuration("WEATHER_CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}
	llmTimeout, err := parsePositiveDuration("LLM_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	minDelay, err := time.ParseDuration(sharedcfg.EnvOrDefault("FALLBACK_MIN_DELAY", "0s"))
	if err != nil || minDelay < 0 {
		return nil, errors.New("invalid FALLBACK_MIN_DELAY")
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("LLM_RATE_LIMIT", "3"), 64)
	if err != nil || rateLimit < 0 {
		return nil, errors.New("invalid LLM_RATE_LIMIT")
	}
	rateBurst, err := strconv.Atoi(sharedcfg.EnvOrDefault("LLM_RATE_BURST", "5"))
	if err != nil || rateBurst < 1 {
		return nil, errors.New("invalid LLM_RATE_BURST")
	}

	weatherKey := os.Getenv("WEATHER_API_KEY")
	llmKey := os.Getenv("LLM_API_KEY")

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WeatherAPIKey:    weatherKey,
		WeatherEnabled:   featureEnabled("WEATHER_ENABLED", weatherKey != ""),
		WeatherBaseURL:   sharedcfg.EnvOrDefault("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		WeatherTimeout:   weatherTimeout,
		WeatherCacheSize: parseCacheSize("WEATHER_CACHE_SIZE", 500),
		WeatherCacheTTL:  weatherCacheTTL,

		LLMProvider:  strings.ToLower(sharedcfg.EnvOrDefault("LLM_PROVIDER", "gemini")),
		LLMAPIKey:    llmKey,
		LLMEnabled:   featureEnabled("LLM_ENABLED", llmKey != ""),
		LLMModel:     os.Getenv("LLM_MODEL"),
		LLMBaseURL:   os.Getenv("LLM_BASE_URL"),
		LLMTimeout:   llmTimeout,
		LLMRateLimit: rateLimit,
		LLMRateBurst: rateBurst,

		MemoryBackend:  strings.ToLower(sharedcfg.EnvOrDefault("MEMORY_BACKEND", MemorySQLite)),
		MemoryPath:     sharedcfg.EnvOrDefault("MEMORY_PATH", "~/.agri-advisory/advisory.db"),
		RedisAddr:      sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisKeyPrefix: sharedcfg.EnvOrDefault("REDIS_KEY_PREFIX", "advisory:last:"),

		FallbackMinDelay: minDelay,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "advisory-resolutions"),
	}

	if cfg.WeatherEnabled && cfg.WeatherAPIKey == "" {
		return nil, errors.New("WEATHER_ENABLED is true but WEATHER_API_KEY is not set")
	}
	if cfg.LLMEnabled && cfg.LLMAPIKey == "" {
		return nil, errors.New("LLM_ENABLED is true but LLM_API_KEY is not set")
	}
	switch cfg.LLMProvider {
	case "gemini", "openai":
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER %q (supported: gemini, openai)", cfg.LLMProvider)
	}
	switch cfg.MemoryBackend {
	case MemorySQLite, MemoryRedis, MemoryInProc:
	default:
		return nil, fmt.Errorf("invalid MEMORY_BACKEND %q (supported: sqlite, redis, memory)", cfg.MemoryBackend)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required")
		}
	}

	return cfg, nil
}

// featureEnabled applies the key-implies-enabled rule: an explicit flag
// value wins, otherwise the feature is on when its key is set.
func featureEnabled(flag string, hasKey bool) bool {
	if v := os.Getenv(flag); v != "" {
		return v == "true"
	}
	return hasKey
}

func parsePositiveDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parseCacheSize(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
