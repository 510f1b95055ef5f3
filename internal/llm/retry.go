package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider retries failed calls with capped exponential backoff and
// ±20% jitter. Output that fails schema validation is asked for once more
// at most; truncation and cancellation are returned at once.
type RetryProvider struct {
	inner Provider
	cfg   RetryConfig
}

// WithRetry wraps p with retries. With MaxAttempts of one or less there is
// nothing to retry and p is returned as is.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts <= 1 {
		return p
	}
	return &RetryProvider{inner: p, cfg: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	reasked := false
	for attempt := 0; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt+1 >= r.cfg.MaxAttempts || !retryable(err) {
			return nil, err
		}
		var invalid *InvalidResponseError
		if errors.As(err, &invalid) {
			if reasked {
				return nil, err
			}
			reasked = true
		}

		t := time.NewTimer(r.delay(attempt, err))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// delay is the pause before attempt+1. A provider's retry-after hint wins
// over the backoff schedule.
func (r *RetryProvider) delay(attempt int, err error) time.Duration {
	if d, ok := retryAfter(err); ok {
		return d
	}
	d := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt))
	if r.cfg.MaxWait > 0 {
		d = min(d, float64(r.cfg.MaxWait))
	}
	return time.Duration(d * (0.8 + 0.4*rand.Float64()))
}
