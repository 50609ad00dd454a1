// Package advisory resolves free-text location queries into weather, soil and
// crop advisories. Each kind is served by a Fetcher that tries its live
// upstream, then the reference dataset, then the kind's default entry.
package advisory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	"github.com/couchcryptid/agri-advisory-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Live failure reasons reported in metrics.
const (
	ReasonDisabled   = "disabled"
	ReasonUpstream   = "upstream"
	ReasonTimeout    = "timeout"
	ReasonExtraction = "extraction"
	ReasonValidation = "validation"
)

// LiveFunc fetches a value for query from a live upstream.
type LiveFunc[T any] func(ctx context.Context, query string) (T, error)

// Spec describes how one advisory kind is resolved.
type Spec[T any] struct {
	Kind domain.Kind

	// Live is nil when no upstream is configured for the kind.
	Live    LiveFunc[T]
	Timeout time.Duration

	Validate   func(T) error
	Lookup     func(key string) (T, bool)
	Keys       []string
	DefaultKey string
}

// Sink receives a record of every resolution that was not superseded.
type Sink interface {
	Name() string
	Record(ctx context.Context, res domain.Resolution) error
}

// Option configures a Fetcher or Service.
type Option func(*options)

type options struct {
	sinks    []Sink
	clock    clockwork.Clock
	minDelay time.Duration
	history  HistoryReader
}

// WithSinks adds resolution sinks.
func WithSinks(sinks ...Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, sinks...) }
}

// WithClock overrides the clock used for fallback padding and durations.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithMinFallbackDelay pads reference and default results so they take at
// least d. The wait ends early when the request context is cancelled.
func WithMinFallbackDelay(d time.Duration) Option {
	return func(o *options) { o.minDelay = d }
}

// WithHistory attaches a reader for past resolutions.
func WithHistory(h HistoryReader) Option {
	return func(o *options) { o.history = h }
}

func buildOptions(opts []Option) options {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	return o
}

// Fetcher resolves queries for a single advisory kind. Resolve never fails.
type Fetcher[T any] struct {
	spec    Spec[T]
	matcher *domain.Matcher
	memory  domain.SessionMemory
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    options

	latest   atomic.Pointer[string]
	commitMu sync.Mutex
}

// NewFetcher validates spec and returns a Fetcher for it. The default key must
// resolve through spec.Lookup, so the default path cannot fail at request time.
func NewFetcher[T any](spec Spec[T], memory domain.SessionMemory, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) (*Fetcher[T], error) {
	if spec.Kind == "" {
		return nil, errors.New("advisory kind is required")
	}
	if spec.Lookup == nil || spec.Validate == nil {
		return nil, fmt.Errorf("%s: lookup and validate are required", spec.Kind)
	}
	if memory == nil {
		return nil, fmt.Errorf("%s: session memory is required", spec.Kind)
	}
	if _, ok := spec.Lookup(spec.DefaultKey); !ok {
		return nil, fmt.Errorf("%s: default key %q not found", spec.Kind, spec.DefaultKey)
	}

	enabled := 0.0
	if spec.Live != nil {
		enabled = 1
	}
	metrics.LiveEnabled.WithLabelValues(string(spec.Kind)).Set(enabled)

	return &Fetcher[T]{
		spec:    spec,
		matcher: domain.NewMatcher(spec.Keys),
		memory:  memory,
		logger:  logger.With("kind", string(spec.Kind)),
		metrics: metrics,
		opts:    buildOptions(opts),
	}, nil
}

// Kind returns the advisory kind this fetcher serves.
func (f *Fetcher[T]) Kind() domain.Kind { return f.spec.Kind }

// LiveEnabled reports whether a live upstream is configured.
func (f *Fetcher[T]) LiveEnabled() bool { return f.spec.Live != nil }

// Resolve produces a result for query by trying the live upstream, the
// reference dataset and the default entry in that order. The query is
// recorded in session memory unless a newer request of the same kind was
// started or ctx was cancelled before this one completed.
func (f *Fetcher[T]) Resolve(ctx context.Context, query string) domain.Result[T] {
	token := uuid.NewString()
	f.latest.Store(&token)
	start := f.opts.clock.Now()

	result := f.resolve(ctx, query)
	if result.Source != domain.SourceLive {
		f.padFallback(ctx, start)
	}

	f.metrics.Requests.WithLabelValues(string(f.spec.Kind), string(result.Source)).Inc()
	f.commit(ctx, token, query, result)
	return result
}

func (f *Fetcher[T]) resolve(ctx context.Context, query string) domain.Result[T] {
	if f.spec.Live == nil {
		f.metrics.LiveFailures.WithLabelValues(string(f.spec.Kind), ReasonDisabled).Inc()
	} else {
		v, err := f.live(ctx, query)
		if err == nil {
			return domain.Result[T]{Value: v, Source: domain.SourceLive}
		}
		reason := failureReason(err)
		f.metrics.LiveFailures.WithLabelValues(string(f.spec.Kind), reason).Inc()
		f.logger.Warn("live upstream failed, falling back",
			"query", query,
			"reason", reason,
			"error", err,
		)
	}

	if key, ok := f.matcher.Match(query); ok {
		if v, ok := f.spec.Lookup(key); ok {
			return domain.Result[T]{
				Value:       v,
				Source:      domain.SourceReference,
				ResolvedKey: key,
				Notice:      fmt.Sprintf("Live %s data unavailable; showing reference data for %s.", f.spec.Kind, key),
			}
		}
	}

	key := f.spec.DefaultKey
	v, _ := f.spec.Lookup(key)
	return domain.Result[T]{
		Value:       v,
		Source:      domain.SourceDefault,
		ResolvedKey: key,
		Notice:      fmt.Sprintf("Live %s data unavailable and no reference data matches %q; showing data for %s.", f.spec.Kind, strings.TrimSpace(query), key),
	}
}

// live calls the upstream under the configured timeout and validates the value.
func (f *Fetcher[T]) live(ctx context.Context, query string) (T, error) {
	var zero T

	callCtx := ctx
	if f.spec.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.spec.Timeout)
		defer cancel()
	}

	start := f.opts.clock.Now()
	v, err := f.spec.Live(callCtx, query)
	f.metrics.LiveDuration.WithLabelValues(string(f.spec.Kind)).Observe(f.opts.clock.Since(start).Seconds())
	if err != nil {
		return zero, err
	}
	if err := f.spec.Validate(v); err != nil {
		return zero, err
	}
	return v, nil
}

// padFallback waits out the rest of the minimum fallback delay.
func (f *Fetcher[T]) padFallback(ctx context.Context, start time.Time) {
	if f.opts.minDelay <= 0 {
		return
	}
	remaining := f.opts.minDelay - f.opts.clock.Since(start)
	if remaining <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-f.opts.clock.After(remaining):
	}
}

// commit writes session memory and sink records for the latest request only.
func (f *Fetcher[T]) commit(ctx context.Context, token, query string, result domain.Result[T]) {
	f.commitMu.Lock()
	if ctx.Err() != nil || *f.latest.Load() != token {
		f.commitMu.Unlock()
		f.metrics.StaleDiscards.WithLabelValues(string(f.spec.Kind)).Inc()
		f.logger.Debug("discarding superseded resolution", "query", query, "request_id", token)
		return
	}
	if err := f.memory.Remember(ctx, f.spec.Kind, strings.TrimSpace(query)); err != nil {
		f.metrics.MemoryErrors.WithLabelValues("remember").Inc()
		f.logger.Warn("session memory write failed", "error", err)
	}
	f.commitMu.Unlock()

	if len(f.opts.sinks) == 0 {
		return
	}
	res, err := domain.NewResolution(token, f.spec.Kind, strings.TrimSpace(query), result)
	if err != nil {
		f.logger.Error("build resolution record failed", "error", err)
		return
	}
	for _, s := range f.opts.sinks {
		if err := s.Record(ctx, res); err != nil {
			f.metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
			f.logger.Warn("record resolution failed", "sink", s.Name(), "error", err)
		}
	}
}

func failureReason(err error) string {
	var extErr *domain.ExtractionError
	var valErr *domain.ValidationError
	var netErr interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return ReasonTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return ReasonTimeout
	case errors.As(err, &extErr):
		return ReasonExtraction
	case errors.As(err, &valErr):
		return ReasonValidation
	default:
		return ReasonUpstream
	}
}
