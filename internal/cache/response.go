package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dharmasatrya/flightagent/internal/models"
	"github.com/dharmasatrya/flightagent/internal/provider"
)

const searchPrefix = "search:"

// DefaultResponseTTL is how long a cached provider response stays fresh.
const DefaultResponseTTL = 6 * time.Hour

// ResponseCache maps a search request's content hash to the provider
// response it produced, with a TTL. In bypass mode both lookup and store
// are no-ops, so every request goes to the provider.
type ResponseCache struct {
	store  Store
	ttl    time.Duration
	bypass bool
}

func NewResponseCache(store Store, ttl time.Duration, bypass bool) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultResponseTTL
	}
	return &ResponseCache{store: store, ttl: ttl, bypass: bypass}
}

func (c *ResponseCache) Lookup(ctx context.Context, req models.SearchRequest) (provider.Response, bool) {
	if c.bypass {
		return provider.Response{}, false
	}

	data, ok, err := c.store.Get(ctx, searchPrefix+req.Key())
	if err != nil || !ok {
		return provider.Response{}, false
	}

	var resp provider.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return provider.Response{}, false
	}
	return resp, true
}

func (c *ResponseCache) Store(ctx context.Context, req models.SearchRequest, resp provider.Response) error {
	if c.bypass {
		return nil
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, searchPrefix+req.Key(), data, c.ttl)
}
