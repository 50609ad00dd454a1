package advisory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/agri-advisory-service/internal/dataset"
	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	"github.com/couchcryptid/agri-advisory-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

// ErrHistoryDisabled is returned by History when no history reader is attached.
var ErrHistoryDisabled = errors.New("resolution history is not configured")

// HistoryReader lists past resolutions of a kind, newest first.
type HistoryReader interface {
	History(ctx context.Context, kind domain.Kind, limit int) ([]domain.Resolution, error)
}

// Upstreams holds the live collaborators. A nil source disables the live
// path for the kinds it serves.
type Upstreams struct {
	Weather        domain.WeatherSource
	WeatherTimeout time.Duration

	// Generator serves both soil and crop advisories.
	Generator        domain.TextGenerator
	GeneratorTimeout time.Duration
}

// FarmProfile combines the soil profile and crop recommendations for one
// location. Each half is resolved independently and keeps its own source.
type FarmProfile struct {
	Soil  domain.Result[domain.SoilAdvisory]         `json:"soil"`
	Crops domain.Result[[]domain.CropRecommendation] `json:"crops"`
}

// Service is the caller boundary of the resolver.
type Service struct {
	weather *Fetcher[domain.WeatherAdvisory]
	soil    *Fetcher[domain.SoilAdvisory]
	crops   *Fetcher[[]domain.CropRecommendation]

	memory  domain.SessionMemory
	history HistoryReader
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New builds the three fetchers over ds and the given upstreams.
func New(ds *dataset.Dataset, up Upstreams, memory domain.SessionMemory, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) (*Service, error) {
	weather, err := NewFetcher(WeatherSpec(ds, up.Weather, up.WeatherTimeout), memory, logger, metrics, opts...)
	if err != nil {
		return nil, err
	}
	soil, err := NewFetcher(SoilSpec(ds, up.Generator, up.GeneratorTimeout), memory, logger, metrics, opts...)
	if err != nil {
		return nil, err
	}
	crops, err := NewFetcher(CropSpec(ds, up.Generator, up.GeneratorTimeout), memory, logger, metrics, opts...)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	return &Service{
		weather: weather,
		soil:    soil,
		crops:   crops,
		memory:  memory,
		history: o.history,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// WeatherSpec resolves weather against the dataset's city snapshots.
func WeatherSpec(ds *dataset.Dataset, src domain.WeatherSource, timeout time.Duration) Spec[domain.WeatherAdvisory] {
	spec := Spec[domain.WeatherAdvisory]{
		Kind:       domain.KindWeather,
		Timeout:    timeout,
		Validate:   domain.ValidateWeather,
		Lookup:     ds.Weather,
		Keys:       ds.Keys(domain.KindWeather),
		DefaultKey: ds.DefaultKey(domain.KindWeather),
	}
	if src != nil {
		spec.Live = src.CurrentWeather
	}
	return spec
}

// SoilSpec resolves soil profiles against the dataset's country entries.
func SoilSpec(ds *dataset.Dataset, gen domain.TextGenerator, timeout time.Duration) Spec[domain.SoilAdvisory] {
	spec := Spec[domain.SoilAdvisory]{
		Kind:       domain.KindSoil,
		Timeout:    timeout,
		Validate:   domain.ValidateSoil,
		Lookup:     ds.Soil,
		Keys:       ds.Keys(domain.KindSoil),
		DefaultKey: ds.DefaultKey(domain.KindSoil),
	}
	if gen != nil {
		spec.Live = liveSoil(gen)
	}
	return spec
}

// CropSpec resolves crop recommendations against the dataset's country entries.
func CropSpec(ds *dataset.Dataset, gen domain.TextGenerator, timeout time.Duration) Spec[[]domain.CropRecommendation] {
	spec := Spec[[]domain.CropRecommendation]{
		Kind:       domain.KindCrop,
		Timeout:    timeout,
		Validate:   domain.ValidateCrops,
		Lookup:     ds.Crops,
		Keys:       ds.Keys(domain.KindCrop),
		DefaultKey: ds.DefaultKey(domain.KindCrop),
	}
	if gen != nil {
		spec.Live = liveCrops(gen)
	}
	return spec
}

// GetWeather resolves current weather for query.
func (s *Service) GetWeather(ctx context.Context, query string) (domain.Result[domain.WeatherAdvisory], error) {
	if isBlank(query) {
		return domain.Result[domain.WeatherAdvisory]{}, domain.ErrInvalidQuery
	}
	return s.weather.Resolve(ctx, query), nil
}

// GetSoil resolves the soil profile for query.
func (s *Service) GetSoil(ctx context.Context, query string) (domain.Result[domain.SoilAdvisory], error) {
	if isBlank(query) {
		return domain.Result[domain.SoilAdvisory]{}, domain.ErrInvalidQuery
	}
	return s.soil.Resolve(ctx, query), nil
}

// GetCropRecommendations resolves crop recommendations for query.
func (s *Service) GetCropRecommendations(ctx context.Context, query string) (domain.Result[[]domain.CropRecommendation], error) {
	if isBlank(query) {
		return domain.Result[[]domain.CropRecommendation]{}, domain.ErrInvalidQuery
	}
	return s.crops.Resolve(ctx, query), nil
}

// GetFarmProfile resolves soil and crops for query concurrently.
func (s *Service) GetFarmProfile(ctx context.Context, query string) (FarmProfile, error) {
	if isBlank(query) {
		return FarmProfile{}, domain.ErrInvalidQuery
	}

	var p FarmProfile
	var g errgroup.Group
	g.Go(func() error {
		p.Soil = s.soil.Resolve(ctx, query)
		return nil
	})
	g.Go(func() error {
		p.Crops = s.crops.Resolve(ctx, query)
		return nil
	})
	if err := g.Wait(); err != nil {
		return FarmProfile{}, err
	}
	return p, nil
}

// LastQuery returns the most recent query recorded for kind.
func (s *Service) LastQuery(ctx context.Context, kind domain.Kind) (string, bool, error) {
	q, ok, err := s.memory.Recall(ctx, kind)
	if err != nil {
		s.metrics.MemoryErrors.WithLabelValues("recall").Inc()
		return "", false, fmt.Errorf("recall %s: %w", kind, err)
	}
	return q, ok, nil
}

// History lists up to limit past resolutions of kind, newest first.
func (s *Service) History(ctx context.Context, kind domain.Kind, limit int) ([]domain.Resolution, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.History(ctx, kind, limit)
}

// LiveEnabled reports which kinds have a live upstream configured.
func (s *Service) LiveEnabled() map[domain.Kind]bool {
	return map[domain.Kind]bool{
		domain.KindWeather: s.weather.LiveEnabled(),
		domain.KindSoil:    s.soil.LiveEnabled(),
		domain.KindCrop:    s.crops.LiveEnabled(),
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// CheckReadiness returns nil when the session memory backend is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if p, ok := s.memory.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("session memory: %w", err)
		}
	}
	return nil
}

func isBlank(query string) bool {
	return strings.TrimSpace(query) == ""
}
