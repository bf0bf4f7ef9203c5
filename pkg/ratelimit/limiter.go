// Package ratelimit gates outgoing PokeAPI requests with a client-side
// token bucket so page fan-outs stay within the service's fair use policy.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for request gating.
var (
	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pokeapi_rate_limit_wait_seconds",
		Help:    "Time spent waiting for a request token",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokeapi_rate_limit_throttles_total",
		Help: "Total number of requests delayed by the client-side limiter",
	})
)

// throttleThreshold is the wait above which a request counts as throttled.
const throttleThreshold = time.Millisecond

// Limiter is a token bucket shared by all requests of one client.
type Limiter struct {
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewLimiter creates a limiter allowing rps requests per second with the
// given burst.
func NewLimiter(rps float64, burst int, logger zerolog.Logger) (*Limiter, error) {
	if rps <= 0 {
		return nil, fmt.Errorf("requests per second must be > 0 (got %v)", rps)
	}
	if burst < 1 {
		return nil, fmt.Errorf("burst must be >= 1 (got %d)", burst)
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}, nil
}

// Unlimited returns a limiter that never blocks.
func Unlimited() *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  zerolog.Nop(),
	}
}

// Wait blocks until a request token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	waited := time.Since(start)
	rateLimitWaitSeconds.Observe(waited.Seconds())

	if waited > throttleThreshold {
		rateLimitThrottlesTotal.Inc()
		l.logger.Debug().
			Dur("waited", waited).
			Msg("Request delayed by rate limiter")
	}

	return nil
}

// Limit returns the configured requests per second.
func (l *Limiter) Limit() float64 {
	return float64(l.limiter.Limit())
}

// Burst returns the configured burst size.
func (l *Limiter) Burst() int {
	return l.limiter.Burst()
}
