package contracts

import "context"

// =============================================================================
// Orchestration Interfaces
// =============================================================================

// TaskFunc is one task unit: a pure function from a read-only input view to a
// partial state update. Implementations never mutate in.State; a failure is
// reported through TaskResult.Err, not by panicking.
type TaskFunc func(ctx context.Context, in *TaskInput) (*TaskResult, error)

// Reducer folds a completed round's results into the state, single-threaded.
type Reducer interface {
	// Merge applies results in dispatch order and returns the updated state.
	// A duplicate output key within one round returns ErrMergeConflict.
	Merge(state *State, results []*TaskResult) (*State, error)
}

// Scorer grades a merged state in [0, 100].
type Scorer interface {
	Score(state *State) (float64, error)
}

// Selector chooses the node group for the next collection round.
type Selector interface {
	// Select returns the next fan-out group given the merged state. An empty
	// group tells the engine there is nothing left worth collecting.
	Select(state *State, policy RunPolicy) []NodeID
}

// Gate decides after each fan-in whether to run another round or finalize.
type Gate interface {
	Evaluate(state *State, policy RunPolicy) GateVerdict
}

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// Searcher fetches source documents for a query. The category selects the
// cache lane (and so the TTL) the query belongs to. The bool reports whether
// the documents were served from cache; a plain client always returns false.
type Searcher interface {
	Search(ctx context.Context, query string, category CacheCategory) ([]SourceDocument, bool, error)
}

// Analyzer runs one structured analysis call against a model.
type Analyzer interface {
	Analyze(ctx context.Context, req *AnalyzeRequest) (*Analysis, error)
}

// ComputeFunc produces a value on a cache miss.
type ComputeFunc func(ctx context.Context) (any, error)

// CacheStore is the TTL-aware cache shared across concurrent runs. Concurrent
// callers of one key coalesce onto a single compute; a storage-side failure
// degrades to computing directly (fail-open) and never fails the caller.
type CacheStore interface {
	// GetOrCompute returns the cached value for key when present and fresh,
	// otherwise runs compute and stores the result. The bool reports whether
	// the value came from the cache.
	GetOrCompute(ctx context.Context, key string, category CacheCategory, compute ComputeFunc) (any, bool, error)

	// Stats returns hit/miss counters for batch summaries.
	Stats() CacheStats
}

// =============================================================================
// Cost Control Interfaces
// =============================================================================

// TokenEstimator estimates token counts for prompt budgeting before a call.
type TokenEstimator interface {
	Estimate(text string) TokenCount
}

// CostCalculator converts token usage into USD using catalog pricing.
type CostCalculator interface {
	// Calculate prices an exact input/output token split for a model.
	Calculate(model ModelID, input, output TokenCount) (float64, error)

	// EstimateByRole prices a token count against a role's model using its
	// average per-1M rate, for pre-call budget checks.
	EstimateByRole(role ModelRole, tokens TokenCount) (float64, error)
}

// BudgetEnforcer guards expensive collaborator calls against the per-run
// cost ceiling. A zero ceiling means unlimited.
type BudgetEnforcer interface {
	// Allow returns ErrBudgetExceeded when spent plus estimate would cross
	// the ceiling.
	Allow(spentUSD, estimateUSD float64) error

	// Exhausted reports whether spending has reached the ceiling.
	Exhausted(spentUSD float64) bool
}

// UsageTracker accumulates model-call usage per run.
type UsageTracker interface {
	// Add adds usage to the run's total.
	Add(run RunID, u Usage)

	// Snapshot returns the current usage for the run.
	Snapshot(run RunID) Usage

	// Total returns usage summed across all runs.
	Total() Usage
}
