package fetch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightagent/internal/cache"
	"github.com/dharmasatrya/flightagent/internal/models"
	"github.com/dharmasatrya/flightagent/internal/provider"
)

// fakeProvider answers from a canned table and records call counts.
// reportCalls is the upstream call count stamped on every response; zero
// means the orchestrator should charge the default of one.
type fakeProvider struct {
	mu          sync.Mutex
	calls       int
	reportCalls int
	fail        map[string]error
	delay       map[string]time.Duration
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{fail: make(map[string]error), delay: make(map[string]time.Duration)}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Search(ctx context.Context, req models.SearchRequest) (provider.Response, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if d, ok := p.delay[req.Destination]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return provider.Response{}, ctx.Err()
		}
	}
	if err, ok := p.fail[req.Destination]; ok {
		return provider.Response{}, err
	}

	return provider.Response{
		RequestKey: req.Key(),
		Itineraries: []models.Itinerary{
			{Price: models.Price{Amount: 100, Currency: "USD"}, RequestKey: req.Key()},
		},
		FetchedAt: time.Now().UTC(),
		Calls:     p.reportCalls,
	}, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func makeRequests(t *testing.T, destinations ...string) []models.SearchRequest {
	t.Helper()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	requests := make([]models.SearchRequest, 0, len(destinations))
	for _, d := range destinations {
		requests = append(requests, models.SearchRequest{
			Origin:        "AUS",
			Destination:   d,
			DepartureDate: day,
			Passengers:    models.Passengers{Adults: 1},
		})
	}
	return requests
}

func newTestOrchestrator(p provider.Provider, store cache.Store, bypass bool) *Orchestrator {
	rc := cache.NewResponseCache(store, time.Hour, bypass)
	quota := NewQuotaTracker(store, 250)
	return NewOrchestrator(p, rc, quota, Config{Workers: 3})
}

func TestFetchAll_OrderPreservedUnderConcurrency(t *testing.T) {
	fake := newFakeProvider()
	// Make the first request the slowest so completion order inverts.
	fake.delay["AAA"] = 80 * time.Millisecond
	fake.delay["BBB"] = 40 * time.Millisecond

	o := newTestOrchestrator(fake, cache.NewMemoryStore(), false)
	requests := makeRequests(t, "AAA", "BBB", "CCC", "DDD")

	result, err := o.FetchAll(context.Background(), requests)
	require.NoError(t, err)
	require.Len(t, result.Responses, 4)

	for i, resp := range result.Responses {
		assert.Equal(t, requests[i].Key(), resp.RequestKey, "response %d out of order", i)
	}
}

func TestFetchAll_CacheHitSkipsProvider(t *testing.T) {
	fake := newFakeProvider()
	store := cache.NewMemoryStore()
	o := newTestOrchestrator(fake, store, false)
	requests := makeRequests(t, "LAX")

	first, err := o.FetchAll(context.Background(), requests)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Stats.ProviderCalls)
	assert.Equal(t, 0, first.Stats.CacheHits)
	assert.Equal(t, 1, fake.callCount())

	second, err := o.FetchAll(context.Background(), requests)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Stats.ProviderCalls)
	assert.Equal(t, 1, second.Stats.CacheHits)
	assert.Equal(t, 1, fake.callCount(), "second run must be served from cache")
}

func TestFetchAll_BypassAlwaysCallsProvider(t *testing.T) {
	fake := newFakeProvider()
	o := newTestOrchestrator(fake, cache.NewMemoryStore(), true)
	requests := makeRequests(t, "LAX")

	_, err := o.FetchAll(context.Background(), requests)
	require.NoError(t, err)
	_, err = o.FetchAll(context.Background(), requests)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.callCount())
}

func TestFetchAll_FailureDoesNotAbortBatch(t *testing.T) {
	fake := newFakeProvider()
	fake.fail["BBB"] = models.NewProviderError("quota", "monthly searches exhausted")

	o := newTestOrchestrator(fake, cache.NewMemoryStore(), false)
	requests := makeRequests(t, "AAA", "BBB", "CCC")

	result, err := o.FetchAll(context.Background(), requests)
	require.NoError(t, err)

	require.Len(t, result.Responses, 2)
	assert.Equal(t, requests[0].Key(), result.Responses[0].RequestKey)
	assert.Equal(t, requests[2].Key(), result.Responses[1].RequestKey)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "BBB", result.Failures[0].Request.Destination)
	assert.Contains(t, result.Failures[0].Reason, "monthly searches exhausted")
}

func TestFetchAll_QuotaCountsProviderCallsOnly(t *testing.T) {
	fake := newFakeProvider()
	store := cache.NewMemoryStore()
	o := newTestOrchestrator(fake, store, false)
	requests := makeRequests(t, "AAA", "BBB")

	result, err := o.FetchAll(context.Background(), requests)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.MonthlyUsage)

	// Cache hits do not consume quota.
	result, err = o.FetchAll(context.Background(), requests)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.MonthlyUsage)
}

func TestFetchAll_QuotaChargesPerUpstreamCall(t *testing.T) {
	fake := newFakeProvider()
	// A round-trip search costs the initial call plus return-leg lookups.
	fake.reportCalls = 3

	o := newTestOrchestrator(fake, cache.NewMemoryStore(), false)
	requests := makeRequests(t, "AAA", "BBB")

	result, err := o.FetchAll(context.Background(), requests)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.ProviderCalls)
	assert.Equal(t, 6, result.Stats.MonthlyUsage)
}

func TestQuotaTracker_ConcurrentIncrementsLoseNothing(t *testing.T) {
	ctx := context.Background()
	q := NewQuotaTracker(cache.NewMemoryStore(), 250)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Increment(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, 64, q.Usage(ctx))
}

func TestQuotaTracker_MonthRollover(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	q := NewQuotaTracker(cache.NewMemoryStore(), 250).WithClock(func() time.Time { return now })

	q.Increment(ctx)
	q.Increment(ctx)
	assert.Equal(t, 2, q.Usage(ctx))

	now = now.Add(48 * time.Hour) // April
	assert.Equal(t, 0, q.Usage(ctx), "counter resets on month rollover")
	assert.Equal(t, 1, q.Increment(ctx))
}

func TestQuotaTracker_MalformedRecordCountsAsZero(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	q := NewQuotaTracker(store, 250)

	month := time.Now().UTC().Format("2006-01")
	require.NoError(t, store.Set(ctx, usagePrefix+month, []byte("garbage"), 0))
	assert.Equal(t, 0, q.Usage(ctx))

	// The next recorded call resets the counter instead of failing.
	assert.Equal(t, 1, q.Increment(ctx))
	assert.Equal(t, 1, q.Usage(ctx))
}

func TestFetchAll_ManyRequestsAllResolved(t *testing.T) {
	fake := newFakeProvider()
	o := newTestOrchestrator(fake, cache.NewMemoryStore(), false)

	var destinations []string
	for i := 0; i < 20; i++ {
		destinations = append(destinations, fmt.Sprintf("D%02d", i))
	}
	requests := makeRequests(t, destinations...)

	result, err := o.FetchAll(context.Background(), requests)
	require.NoError(t, err)
	assert.Len(t, result.Responses, 20)
	assert.Equal(t, 20, result.Stats.Attempted)
	assert.Empty(t, result.Failures)
}
