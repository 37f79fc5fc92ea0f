package search

import (
	"context"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/cache"
)

// CachedSearcher decorates a Searcher with the shared TTL store. Identical
// queries across concurrent entity runs coalesce onto one upstream call and
// later runs reuse the stored result until its TTL lapses.
type CachedSearcher struct {
	inner contracts.Searcher
	store contracts.CacheStore
}

// NewCached wraps inner with store. A nil store returns inner's results
// uncached.
func NewCached(inner contracts.Searcher, store contracts.CacheStore) *CachedSearcher {
	return &CachedSearcher{inner: inner, store: store}
}

func (c *CachedSearcher) Search(ctx context.Context, query string, category contracts.CacheCategory) ([]contracts.SourceDocument, bool, error) {
	if c.store == nil {
		return c.inner.Search(ctx, query, category)
	}
	if category == "" {
		category = contracts.CacheSearch
	}

	key := cache.Fingerprint("search", string(category), query)
	value, hit, err := c.store.GetOrCompute(ctx, key, category, func(ctx context.Context) (any, error) {
		docs, _, err := c.inner.Search(ctx, query, category)
		if err != nil {
			return nil, err
		}
		return docs, nil
	})
	if err != nil {
		return nil, false, err
	}

	docs, ok := value.([]contracts.SourceDocument)
	if !ok {
		// Foreign value under our key; recompute directly rather than fail.
		docs, _, err = c.inner.Search(ctx, query, category)
		return docs, false, err
	}
	return docs, hit, nil
}
