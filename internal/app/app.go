// Package app assembles the advisory service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	kafkaadapter "github.com/couchcryptid/agri-advisory-service/internal/adapter/kafka"
	"github.com/couchcryptid/agri-advisory-service/internal/adapter/llm"
	"github.com/couchcryptid/agri-advisory-service/internal/adapter/memory"
	"github.com/couchcryptid/agri-advisory-service/internal/adapter/openweather"
	redisadapter "github.com/couchcryptid/agri-advisory-service/internal/adapter/redis"
	"github.com/couchcryptid/agri-advisory-service/internal/adapter/sqlite"
	"github.com/couchcryptid/agri-advisory-service/internal/advisory"
	"github.com/couchcryptid/agri-advisory-service/internal/config"
	"github.com/couchcryptid/agri-advisory-service/internal/dataset"
	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	"github.com/couchcryptid/agri-advisory-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// App owns the Service and the resources behind it.
type App struct {
	Service *advisory.Service

	closers []io.Closer
}

// New builds the Service described by cfg. Live upstreams are attached only
// when enabled; everything else has a working default.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	ds, err := dataset.Load()
	if err != nil {
		return nil, fmt.Errorf("load reference dataset: %w", err)
	}

	a := &App{}
	opts := []advisory.Option{advisory.WithMinFallbackDelay(cfg.FallbackMinDelay)}

	mem, err := a.openMemory(cfg, &opts)
	if err != nil {
		return nil, err
	}
	logger.Info("session memory ready", "backend", cfg.MemoryBackend)

	var up advisory.Upstreams
	if cfg.WeatherEnabled {
		client := openweather.NewClient(cfg.WeatherAPIKey, cfg.WeatherBaseURL, cfg.WeatherTimeout, logger)
		up.Weather = openweather.NewCachedSource(client, cfg.WeatherCacheSize, cfg.WeatherCacheTTL, clockwork.NewRealClock(), metrics)
		up.WeatherTimeout = cfg.WeatherTimeout
		logger.Info("live weather enabled", "cache_size", cfg.WeatherCacheSize, "cache_ttl", cfg.WeatherCacheTTL, "timeout", cfg.WeatherTimeout)
	} else {
		logger.Info("live weather disabled")
	}

	if cfg.LLMEnabled {
		gen, err := llm.NewGenerator(ctx, llm.Config{
			Provider: cfg.LLMProvider,
			Model:    cfg.LLMModel,
			APIKey:   cfg.LLMAPIKey,
			BaseURL:  cfg.LLMBaseURL,
		})
		if err != nil {
			a.Close() //nolint:errcheck // already failing
			return nil, fmt.Errorf("create text generator: %w", err)
		}
		up.Generator = llm.NewRateLimited(gen, cfg.LLMRateLimit, cfg.LLMRateBurst)
		up.GeneratorTimeout = cfg.LLMTimeout
		logger.Info("live soil and crop advisories enabled", "generator", gen.Name(), "timeout", cfg.LLMTimeout)
	} else {
		logger.Info("live soil and crop advisories disabled")
	}

	if cfg.KafkaEnabled {
		w := kafkaadapter.NewWriter(cfg, logger)
		a.closers = append(a.closers, w)
		opts = append(opts, advisory.WithSinks(w))
		logger.Info("resolution events enabled", "topic", cfg.KafkaTopic)
	}

	svc, err := advisory.New(ds, up, mem, logger, metrics, opts...)
	if err != nil {
		a.Close() //nolint:errcheck // already failing
		return nil, err
	}
	a.Service = svc
	return a, nil
}

func (a *App) openMemory(cfg *config.Config, opts *[]advisory.Option) (domain.SessionMemory, error) {
	switch cfg.MemoryBackend {
	case config.MemorySQLite:
		st, err := sqlite.Open(cfg.MemoryPath)
		if err != nil {
			return nil, fmt.Errorf("open session memory: %w", err)
		}
		a.closers = append(a.closers, st)
		*opts = append(*opts, advisory.WithSinks(st), advisory.WithHistory(st))
		return st, nil
	case config.MemoryRedis:
		st := redisadapter.NewStore(cfg.RedisAddr, cfg.RedisKeyPrefix)
		a.closers = append(a.closers, st)
		return st, nil
	case config.MemoryInProc:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.MemoryBackend)
	}
}

// Close releases every resource opened by New, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
