package openweather

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	"github.com/couchcryptid/agri-advisory-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingSource struct {
	calls  int
	result domain.WeatherAdvisory
}

func (m *countingSource) CurrentWeather(_ context.Context, _ string) (domain.WeatherAdvisory, error) {
	m.calls++
	return m.result, nil
}

func reading(label string) domain.WeatherAdvisory {
	return domain.WeatherAdvisory{
		TemperatureC:  20,
		FeelsLikeC:    20,
		HumidityPct:   50,
		ConditionText: "clear sky",
		LocationLabel: label,
	}
}

// --- CachedSource tests ---

func TestCachedSource_HitWithinTTL(t *testing.T) {
	inner := &countingSource{result: reading("Austin")}
	fc := clockwork.NewFakeClock()
	cached := NewCachedSource(inner, 10, time.Minute, fc, observability.NewMetricsForTesting())

	r1, err := cached.CurrentWeather(context.Background(), "Austin")
	require.NoError(t, err)
	assert.Equal(t, "Austin", r1.LocationLabel)

	fc.Advance(30 * time.Second)
	r2, err := cached.CurrentWeather(context.Background(), "  AUSTIN ")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedSource_ExpiredEntryRefetched(t *testing.T) {
	inner := &countingSource{result: reading("Austin")}
	fc := clockwork.NewFakeClock()
	cached := NewCachedSource(inner, 10, time.Minute, fc, observability.NewMetricsForTesting())

	_, _ = cached.CurrentWeather(context.Background(), "Austin")
	fc.Advance(time.Minute)
	_, _ = cached.CurrentWeather(context.Background(), "Austin")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_InvalidReadingNotCached(t *testing.T) {
	bad := reading("Austin")
	bad.HumidityPct = 140
	inner := &countingSource{result: bad}
	cached := NewCachedSource(inner, 10, time.Minute, clockwork.NewFakeClock(), observability.NewMetricsForTesting())

	_, _ = cached.CurrentWeather(context.Background(), "Austin")
	_, _ = cached.CurrentWeather(context.Background(), "Austin")

	assert.Equal(t, 2, inner.calls)
}

// --- LRU cache unit tests ---

var farFuture = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	now := time.Now()

	c.put("a", reading("A"), farFuture)
	c.put("b", reading("B"), farFuture)
	c.put("c", reading("C"), farFuture) // evicts "a"

	_, ok := c.get("a", now)
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("c", now)
	assert.True(t, ok)
	assert.Equal(t, "C", result.LocationLabel)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)
	now := time.Now()

	c.put("a", reading("A"), farFuture)
	c.put("b", reading("B"), farFuture)
	c.get("a", now)
	c.put("c", reading("C"), farFuture)

	_, ok := c.get("a", now)
	assert.True(t, ok, "a was accessed recently, should not be evicted")
	_, ok = c.get("b", now)
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	now := time.Now()

	c.put("a", reading("A1"), farFuture)
	c.put("a", reading("A2"), farFuture)

	result, ok := c.get("a", now)
	assert.True(t, ok)
	assert.Equal(t, "A2", result.LocationLabel)
	assert.Len(t, c.entries, 1)
}
