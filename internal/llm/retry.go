package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// RetryProvider retries transient failures with jittered exponential backoff.
type RetryProvider struct {
	inner Provider
	cfg   RetryConfig
}

func WithRetry(p Provider, cfg RetryConfig) Provider {
	cfg.MaxAttempts = max(cfg.MaxAttempts, 1)
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2
	}
	return &RetryProvider{inner: p, cfg: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	wait := r.cfg.InitialWait
	invalidSeen := false
	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt >= r.cfg.MaxAttempts || !transient(err, &invalidSeen) {
			return nil, err
		}

		timer := time.NewTimer(jitter(wait))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		wait = time.Duration(float64(wait) * r.cfg.Multiplier)
		if r.cfg.MaxWait > 0 {
			wait = min(wait, r.cfg.MaxWait)
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// transient reports whether another attempt can help. Invalid output is
// retried once per call.
func transient(err error, invalidSeen *bool) bool {
	var (
		truncated   *ErrMaxTokensExceeded
		invalid     *ErrInvalidResponse
		unavailable *ErrProviderUnavailable
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.As(err, &truncated):
		return false
	case errors.As(err, &invalid):
		retry := !*invalidSeen
		*invalidSeen = true
		return retry
	case errors.As(err, &unavailable):
		return unavailable.Err != nil
	}
	return true
}

// jitter spreads d by up to 20% either way.
func jitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.8 + 0.4*rand.Float64()))
}
