package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitProvider is a decorator that blocks until the limiter admits
// the request. It never drops requests.
type RateLimitProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// WithRateLimit wraps a Provider with a token-bucket limiter. A zero
// RequestsPerMinute returns p unchanged.
func WithRateLimit(p Provider, cfg RateLimitConfig) Provider {
	if cfg.RequestsPerMinute <= 0 {
		return p
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	every := time.Minute / time.Duration(cfg.RequestsPerMinute)
	return &RateLimitProvider{
		inner:   p,
		limiter: rate.NewLimiter(rate.Every(every), burst),
	}
}

func (r *RateLimitProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Generate(ctx, req)
}

func (r *RateLimitProvider) ModelID() string {
	return r.inner.ModelID()
}
