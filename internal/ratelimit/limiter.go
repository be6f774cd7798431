// Package ratelimit throttles outbound calls to flight-data providers so
// a large expansion does not trip the provider's own rate ceiling.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

type Config struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultConfig matches SerpAPI's free-tier hourly allowance with
// headroom to spare.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 0.8,
		BurstSize:         2,
	}
}

// Limiter hands out one token-bucket limiter per provider name. Unknown
// providers get the default configuration on first use.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	defaults Config
}

func New(defaults Config) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: defaults,
	}
}

// SetLimit overrides the rate for one provider, replacing any limiter
// already handed out for it.
func (l *Limiter) SetLimit(provider string, rps float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[provider] = rate.NewLimiter(rate.Limit(rps), burst)
}

// Wait blocks until the provider's limiter releases a token or the
// context is cancelled.
func (l *Limiter) Wait(ctx context.Context, provider string) error {
	return l.limiterFor(provider).Wait(ctx)
}

func (l *Limiter) limiterFor(provider string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.limiters[provider]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Limit(l.defaults.RequestsPerSecond), l.defaults.BurstSize)
	l.limiters[provider] = limiter
	return limiter
}
