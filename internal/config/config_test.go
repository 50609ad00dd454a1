package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWeatherKey = "ow-test-key"
	testLLMKey     = "llm-test-key"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.False(t, cfg.WeatherEnabled)
	assert.Empty(t, cfg.WeatherAPIKey)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5", cfg.WeatherBaseURL)
	assert.Equal(t, 5*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 500, cfg.WeatherCacheSize)
	assert.Equal(t, 10*time.Minute, cfg.WeatherCacheTTL)

	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.False(t, cfg.LLMEnabled)
	assert.Empty(t, cfg.LLMModel)
	assert.Equal(t, 20*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 3.0, cfg.LLMRateLimit)
	assert.Equal(t, 5, cfg.LLMRateBurst)

	assert.Equal(t, MemorySQLite, cfg.MemoryBackend)
	assert.Equal(t, "~/.agri-advisory/advisory.db", cfg.MemoryPath)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "advisory:last:", cfg.RedisKeyPrefix)
	assert.Zero(t, cfg.FallbackMinDelay)

	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "advisory-resolutions", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("WEATHER_API_KEY", testWeatherKey)
	t.Setenv("WEATHER_BASE_URL", "http://localhost:8081/data/2.5")
	t.Setenv("WEATHER_TIMEOUT", "2s")
	t.Setenv("WEATHER_CACHE_SIZE", "50")
	t.Setenv("WEATHER_CACHE_TTL", "1m")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("LLM_API_KEY", testLLMKey)
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("LLM_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("LLM_TIMEOUT", "45s")
	t.Setenv("LLM_RATE_LIMIT", "0.5")
	t.Setenv("LLM_RATE_BURST", "2")
	t.Setenv("MEMORY_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_KEY_PREFIX", "farm:")
	t.Setenv("FALLBACK_MIN_DELAY", "300ms")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-resolutions")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.WeatherEnabled)
	assert.Equal(t, testWeatherKey, cfg.WeatherAPIKey)
	assert.Equal(t, "http://localhost:8081/data/2.5", cfg.WeatherBaseURL)
	assert.Equal(t, 2*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 50, cfg.WeatherCacheSize)
	assert.Equal(t, time.Minute, cfg.WeatherCacheTTL)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.True(t, cfg.LLMEnabled)
	assert.Equal(t, "gpt-4o", cfg.LLMModel)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLMBaseURL)
	assert.Equal(t, 45*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 0.5, cfg.LLMRateLimit)
	assert.Equal(t, 2, cfg.LLMRateBurst)
	assert.Equal(t, MemoryRedis, cfg.MemoryBackend)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "farm:", cfg.RedisKeyPrefix)
	assert.Equal(t, 300*time.Millisecond, cfg.FallbackMinDelay)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-resolutions", cfg.KafkaTopic)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		env, value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"WEATHER_TIMEOUT", "bad"},
		{"WEATHER_TIMEOUT", "0s"},
		{"WEATHER_CACHE_TTL", "forever"},
		{"LLM_TIMEOUT", "-5s"},
		{"LLM_RATE_LIMIT", "fast"},
		{"LLM_RATE_BURST", "0"},
		{"FALLBACK_MIN_DELAY", "-1s"},
		{"LLM_PROVIDER", "anthropic"},
		{"MEMORY_BACKEND", "postgres"},
	}

	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}

func TestLoad_WeatherEnabledWithoutKey(t *testing.T) {
	t.Setenv("WEATHER_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEATHER_API_KEY")
}

func TestLoad_LLMEnabledWithoutKey(t *testing.T) {
	t.Setenv("LLM_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")
}

func TestLoad_KeyImpliesEnabled(t *testing.T) {
	t.Setenv("WEATHER_API_KEY", testWeatherKey)
	t.Setenv("LLM_API_KEY", testLLMKey)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.WeatherEnabled)
	assert.True(t, cfg.LLMEnabled)
}

func TestLoad_ExplicitlyDisabled(t *testing.T) {
	t.Setenv("WEATHER_API_KEY", testWeatherKey)
	t.Setenv("WEATHER_ENABLED", "false")
	t.Setenv("LLM_API_KEY", testLLMKey)
	t.Setenv("LLM_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.WeatherEnabled)
	assert.False(t, cfg.LLMEnabled)
}

func TestLoad_InvalidCacheSizeFallsBackToDefault(t *testing.T) {
	t.Setenv("WEATHER_CACHE_SIZE", "-3")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.WeatherCacheSize)
}
