// Package fetch drives expanded search requests through the response
// cache and the external provider, tracking the monthly call quota.
package fetch

import (
	"context"
	"log"
	"sync"

	"github.com/dharmasatrya/flightagent/internal/cache"
	"github.com/dharmasatrya/flightagent/internal/models"
	"github.com/dharmasatrya/flightagent/internal/provider"
	"github.com/dharmasatrya/flightagent/internal/ratelimit"
)

type Config struct {
	Workers     int
	RateLimiter *ratelimit.Limiter
}

type Orchestrator struct {
	provider provider.Provider
	cache    *cache.ResponseCache
	quota    *QuotaTracker
	config   Config
}

type FailedRequest struct {
	Request models.SearchRequest
	Reason  string
}

type Stats struct {
	Attempted     int
	CacheHits     int
	ProviderCalls int
	MonthlyUsage  int
}

// Result holds the successful responses in original request order, the
// requests that failed with their reasons, and run statistics.
type Result struct {
	Responses []provider.Response
	Failures  []FailedRequest
	Stats     Stats
}

func NewOrchestrator(p provider.Provider, c *cache.ResponseCache, q *QuotaTracker, cfg Config) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Orchestrator{provider: p, cache: c, quota: q, config: cfg}
}

// FetchAll resolves every request, from cache where possible, from the
// provider otherwise. Requests run concurrently under a bounded worker
// pool but the returned responses keep the original request order. A
// provider failure on one request is collected, not fatal; the batch
// always runs to completion.
func (o *Orchestrator) FetchAll(ctx context.Context, requests []models.SearchRequest) (*Result, error) {
	usage := o.quota.Usage(ctx)
	remaining := o.quota.Limit() - usage
	log.Printf("fetch: %d request(s) planned, monthly usage %d/%d", len(requests), usage, o.quota.Limit())
	if remaining < len(requests) {
		// Informational only: the provider enforces the real ceiling, and
		// cache hits may cover the shortfall.
		log.Printf("fetch: warning: %d request(s) exceed the %d remaining monthly call(s)", len(requests), remaining)
	}

	type slot struct {
		resp provider.Response
		err  error
		hit  bool
	}
	slots := make([]slot, len(requests))

	sem := make(chan struct{}, o.config.Workers)
	var wg sync.WaitGroup

	for i, req := range requests {
		wg.Add(1)
		go func(i int, req models.SearchRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			resp, hit, err := o.fetchOne(ctx, req)
			slots[i] = slot{resp: resp, err: err, hit: hit}
		}(i, req)
	}
	wg.Wait()

	result := &Result{Stats: Stats{Attempted: len(requests)}}
	for i, s := range slots {
		if s.err != nil {
			log.Printf("fetch: %s failed: %v", requests[i].Route(), s.err)
			result.Failures = append(result.Failures, FailedRequest{
				Request: requests[i],
				Reason:  s.err.Error(),
			})
			continue
		}
		if s.hit {
			result.Stats.CacheHits++
		} else {
			result.Stats.ProviderCalls++
		}
		result.Responses = append(result.Responses, s.resp)
	}
	result.Stats.MonthlyUsage = o.quota.Usage(ctx)

	return result, nil
}

func (o *Orchestrator) fetchOne(ctx context.Context, req models.SearchRequest) (provider.Response, bool, error) {
	if resp, ok := o.cache.Lookup(ctx, req); ok {
		return resp, true, nil
	}

	if o.config.RateLimiter != nil {
		if err := o.config.RateLimiter.Wait(ctx, o.provider.Name()); err != nil {
			return provider.Response{}, false, err
		}
	}

	resp, err := o.provider.Search(ctx, req)
	if err != nil {
		return provider.Response{}, false, err
	}

	// Round-trip searches can take several upstream calls; providers that
	// do not report a count are charged one.
	calls := resp.Calls
	if calls < 1 {
		calls = 1
	}
	o.quota.Add(ctx, calls)
	if err := o.cache.Store(ctx, req, resp); err != nil {
		log.Printf("fetch: cache store for %s failed: %v", req.Route(), err)
	}
	return resp, false, nil
}
