package llm

import (
	"context"
	"fmt"

	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	"golang.org/x/time/rate"
)

// RateLimited throttles calls to a TextGenerator with a token bucket.
type RateLimited struct {
	inner   domain.TextGenerator
	limiter *rate.Limiter
}

// NewRateLimited wraps inner so it is called at most perSecond times per
// second with the given burst. A non-positive rate returns inner unchanged.
func NewRateLimited(inner domain.TextGenerator, perSecond float64, burst int) domain.TextGenerator {
	if perSecond <= 0 {
		return inner
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *RateLimited) Name() string { return r.inner.Name() }

// Generate waits for a token, bounded by ctx, before calling the provider.
func (r *RateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			// The next token arrives after the deadline.
			return "", fmt.Errorf("rate limit wait: %w: %v", context.DeadlineExceeded, err)
		}
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return r.inner.Generate(ctx, prompt)
}
