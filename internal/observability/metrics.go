package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "advisory"

// Metrics holds the Prometheus counters, histograms, and gauges for the advisory resolver.
type Metrics struct {
	Requests      *prometheus.CounterVec   // labels: kind, source={live,reference,default}
	LiveFailures  *prometheus.CounterVec   // labels: kind, reason={disabled,upstream,timeout,extraction,validation}
	LiveDuration  *prometheus.HistogramVec // labels: kind
	StaleDiscards *prometheus.CounterVec   // labels: kind
	LiveEnabled   *prometheus.GaugeVec     // labels: kind

	MemoryErrors *prometheus.CounterVec // labels: op={recall,remember}
	SinkErrors   *prometheus.CounterVec // labels: sink

	// Weather lookup cache.
	WeatherCache *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all resolver metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.Requests,
		m.LiveFailures,
		m.LiveDuration,
		m.StaleDiscards,
		m.LiveEnabled,
		m.MemoryErrors,
		m.SinkErrors,
		m.WeatherCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      help("Resolved advisories by kind and the path that produced them."),
		}, []string{"kind", "source"}),
		LiveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_failures_total",
			Help:      help("Live upstream attempts that fell through, by kind and reason."),
		}, []string{"kind", "reason"}),
		LiveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "live_duration_seconds",
			Help:      help("Live upstream call duration in seconds."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"kind"}),
		StaleDiscards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_discards_total",
			Help:      help("Completions superseded by a newer request of the same kind."),
		}, []string{"kind"}),
		LiveEnabled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_enabled",
			Help:      help("1 when a live upstream is configured for the kind, 0 otherwise."),
		}, []string{"kind"}),
		MemoryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_errors_total",
			Help:      help("Session memory failures by operation."),
		}, []string{"op"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      help("Resolution records that a sink failed to store."),
		}, []string{"sink"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      help("Weather cache lookups by result."),
		}, []string{"result"}),
	}
}
