package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/dharmasatrya/flightagent/internal/models"
)

const parsePrefix = "parse:"

// ParseCache maps a hash of raw query text to a previously parsed trip
// query. Entries have no TTL: a given text always parses to the same
// structured query, so they stay valid until explicitly replaced.
type ParseCache struct {
	store Store
}

func NewParseCache(store Store) *ParseCache {
	return &ParseCache{store: store}
}

// Lookup returns the cached trip query for rawText, if present. A stored
// entry that no longer decodes or validates is treated as a miss, not an
// error.
func (c *ParseCache) Lookup(ctx context.Context, rawText string) (models.TripQuery, bool) {
	data, ok, err := c.store.Get(ctx, parseKey(rawText))
	if err != nil || !ok {
		return models.TripQuery{}, false
	}

	var query models.TripQuery
	if err := json.Unmarshal(data, &query); err != nil {
		return models.TripQuery{}, false
	}
	if err := query.Validate(); err != nil {
		return models.TripQuery{}, false
	}
	return query, true
}

func (c *ParseCache) Store(ctx context.Context, rawText string, query models.TripQuery) error {
	data, err := json.Marshal(query)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, parseKey(rawText), data, 0)
}

func parseKey(rawText string) string {
	normalized := strings.TrimSpace(rawText)
	hash := sha256.Sum256([]byte(normalized))
	return parsePrefix + hex.EncodeToString(hash[:])
}
