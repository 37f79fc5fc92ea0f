package llm

import (
	"context"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/cache"
)

// CachedAnalyzer decorates an Analyzer with the shared TTL store. A cache
// hit reports zero usage: nothing fresh was spent, and the task's cost delta
// stays at whatever its searches cost.
type CachedAnalyzer struct {
	inner contracts.Analyzer
	store contracts.CacheStore
}

// NewCached wraps inner with store. A nil store disables caching.
func NewCached(inner contracts.Analyzer, store contracts.CacheStore) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, store: store}
}

func (c *CachedAnalyzer) Analyze(ctx context.Context, req *contracts.AnalyzeRequest) (*contracts.Analysis, error) {
	if c.store == nil || req == nil {
		return c.inner.Analyze(ctx, req)
	}

	key := cache.Fingerprint("analysis", string(req.Role), req.System, req.Prompt)
	value, hit, err := c.store.GetOrCompute(ctx, key, contracts.CacheAnalysis, func(ctx context.Context) (any, error) {
		return c.inner.Analyze(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	analysis, ok := value.(*contracts.Analysis)
	if !ok {
		return c.inner.Analyze(ctx, req)
	}
	if !hit {
		return analysis, nil
	}
	return &contracts.Analysis{
		Text:   analysis.Text,
		Model:  analysis.Model,
		Cached: true,
	}, nil
}
