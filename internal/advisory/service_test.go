package advisory_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/agri-advisory-service/internal/adapter/memory"
	"github.com/couchcryptid/agri-advisory-service/internal/advisory"
	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	"github.com/couchcryptid/agri-advisory-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingMemory struct {
	*memory.Store
	err error
}

func (p pingMemory) Ping(context.Context) error { return p.err }

type staticHistory struct {
	records []domain.Resolution
}

func (h staticHistory) History(_ context.Context, kind domain.Kind, limit int) ([]domain.Resolution, error) {
	var out []domain.Resolution
	for _, r := range h.records {
		if r.Kind == kind && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func newService(t *testing.T, up advisory.Upstreams, mem domain.SessionMemory, opts ...advisory.Option) *advisory.Service {
	t.Helper()
	svc, err := advisory.New(loadDataset(t), up, mem, slog.Default(), observability.NewMetricsForTesting(), opts...)
	require.NoError(t, err)
	return svc
}

func TestService_RejectsBlankQuery(t *testing.T) {
	gen := &mockGenerator{response: `{"type":"Loam","characteristics":"x","suitableCrops":["Rice"]}`}
	mem := memory.NewStore()
	svc := newService(t, advisory.Upstreams{Generator: gen, GeneratorTimeout: time.Second}, mem)
	ctx := context.Background()

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := svc.GetWeather(ctx, q)
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
		_, err = svc.GetSoil(ctx, q)
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
		_, err = svc.GetCropRecommendations(ctx, q)
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
		_, err = svc.GetFarmProfile(ctx, q)
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	}

	assert.Zero(t, gen.calls.Load(), "upstream must not be called for a blank query")
	for _, kind := range domain.Kinds {
		_, ok, _ := mem.Recall(ctx, kind)
		assert.False(t, ok)
	}
}

func TestService_LiveSoil(t *testing.T) {
	gen := &mockGenerator{response: "Sure! Here you go:\n{\"type\":\"Loess\",\"characteristics\":\"wind-blown silt\",\"suitableCrops\":[\"Wheat\",\" Millet \"]}\nAnything else?"}
	svc := newService(t, advisory.Upstreams{Generator: gen, GeneratorTimeout: time.Second}, memory.NewStore())

	res, err := svc.GetSoil(context.Background(), "Loess Plateau")
	require.NoError(t, err)

	assert.Equal(t, domain.SourceLive, res.Source)
	assert.Equal(t, domain.SoilAdvisory{
		SoilType:        "Loess",
		Characteristics: "wind-blown silt",
		SuitableCrops:   []string{"Wheat", "Millet"},
	}, res.Value)
}

func TestService_FarmProfile(t *testing.T) {
	gen := &mockGenerator{response: `[{"crop":"Tea","suitability":"High","description":"highland rain"}]`}
	mem := memory.NewStore()
	svc := newService(t, advisory.Upstreams{Generator: gen, GeneratorTimeout: time.Second}, mem)
	ctx := context.Background()

	p, err := svc.GetFarmProfile(ctx, "Kenya")
	require.NoError(t, err)

	// The soil half decodes the crop object, which carries no soil type.
	assert.Equal(t, domain.SourceReference, p.Soil.Source)
	assert.Equal(t, "Kenya", p.Soil.ResolvedKey)
	assert.Equal(t, domain.SourceLive, p.Crops.Source)
	assert.Len(t, p.Crops.Value, 1)
	assert.EqualValues(t, 2, gen.calls.Load())

	for _, kind := range []domain.Kind{domain.KindSoil, domain.KindCrop} {
		q, ok, err := svc.LastQuery(ctx, kind)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Kenya", q)
	}
}

func TestService_LastQueryError(t *testing.T) {
	svc := newService(t, advisory.Upstreams{}, failingMemory{})

	_, _, err := svc.LastQuery(context.Background(), domain.KindSoil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestService_History(t *testing.T) {
	ctx := context.Background()

	svc := newService(t, advisory.Upstreams{}, memory.NewStore())
	_, err := svc.History(ctx, domain.KindWeather, 10)
	assert.ErrorIs(t, err, advisory.ErrHistoryDisabled)

	h := staticHistory{records: []domain.Resolution{
		{RequestID: "1", Kind: domain.KindWeather, Query: "London"},
		{RequestID: "2", Kind: domain.KindSoil, Query: "Kenya"},
		{RequestID: "3", Kind: domain.KindWeather, Query: "Tokyo"},
	}}
	svc = newService(t, advisory.Upstreams{}, memory.NewStore(), advisory.WithHistory(h))
	got, err := svc.History(ctx, domain.KindWeather, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "London", got[0].Query)
}

func TestService_LiveEnabled(t *testing.T) {
	src := weatherFunc(func(context.Context, string) (domain.WeatherAdvisory, error) {
		return londonWeather(), nil
	})
	svc := newService(t, advisory.Upstreams{Weather: src}, memory.NewStore())

	assert.Equal(t, map[domain.Kind]bool{
		domain.KindWeather: true,
		domain.KindSoil:    false,
		domain.KindCrop:    false,
	}, svc.LiveEnabled())
}

func TestService_CheckReadiness(t *testing.T) {
	ctx := context.Background()

	svc := newService(t, advisory.Upstreams{}, memory.NewStore())
	assert.NoError(t, svc.CheckReadiness(ctx))

	svc = newService(t, advisory.Upstreams{}, pingMemory{Store: memory.NewStore(), err: errors.New("connection refused")})
	err := svc.CheckReadiness(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session memory")
}
