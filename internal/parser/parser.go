// Package parser maps free-text travel requests to structured trip
// queries. The heavy lifting is delegated to an LLM; a caching decorator
// keeps repeat runs of the same text from paying for a second parse.
package parser

import (
	"context"

	"github.com/dharmasatrya/flightagent/internal/cache"
	"github.com/dharmasatrya/flightagent/internal/models"
)

type Parser interface {
	Parse(ctx context.Context, rawText string) (models.TripQuery, error)
}

// CachedParser consults the parse cache before delegating to the inner
// parser. Force mode skips the lookup but still writes the fresh result,
// so the next run sees the re-parse.
type CachedParser struct {
	inner Parser
	cache *cache.ParseCache
	force bool
}

func NewCachedParser(inner Parser, c *cache.ParseCache, force bool) *CachedParser {
	return &CachedParser{inner: inner, cache: c, force: force}
}

func (p *CachedParser) Parse(ctx context.Context, rawText string) (models.TripQuery, error) {
	if !p.force {
		if query, ok := p.cache.Lookup(ctx, rawText); ok {
			return query, nil
		}
	}

	query, err := p.inner.Parse(ctx, rawText)
	if err != nil {
		return models.TripQuery{}, err
	}
	if err := p.cache.Store(ctx, rawText, query); err != nil {
		// Best effort: a cache write failure never fails the parse.
		return query, nil
	}
	return query, nil
}
