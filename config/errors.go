package config

import "errors"

// Sentinel errors for research configuration validation.
var (
	// ErrConfigEmpty is returned when the config data is empty (zero bytes).
	ErrConfigEmpty = errors.New("research configuration is empty")

	// ErrDurationFormat is returned when a duration value does not parse.
	ErrDurationFormat = errors.New("invalid duration format")

	// ErrMaxIterations is returned when run.max_iterations is below 1.
	ErrMaxIterations = errors.New("run.max_iterations must be at least 1")

	// ErrQualityThreshold is returned when run.quality_threshold is outside [0, 100].
	ErrQualityThreshold = errors.New("run.quality_threshold must be in [0, 100]")

	// ErrCostCeiling is returned when run.cost_ceiling_usd is not positive.
	ErrCostCeiling = errors.New("run.cost_ceiling_usd must be positive")

	// ErrFastPath is returned when run.fast_path_ms is negative.
	ErrFastPath = errors.New("run.fast_path_ms must not be negative")

	// ErrWorkers is returned when batch.workers is below 1.
	ErrWorkers = errors.New("batch.workers must be at least 1")

	// ErrEntityTimeout is returned when batch.entity_timeout is not positive.
	ErrEntityTimeout = errors.New("batch.entity_timeout must be positive")

	// ErrCacheCategory is returned when cache.ttl names an unknown category.
	ErrCacheCategory = errors.New("unknown cache category")

	// ErrSearchDepth is returned when search.depth is neither basic nor advanced.
	ErrSearchDepth = errors.New("search.depth must be basic or advanced")

	// ErrMaxResults is returned when search.max_results is below 1.
	ErrMaxResults = errors.New("search.max_results must be at least 1")

	// ErrModelRole is returned when llm.models names an unknown role.
	ErrModelRole = errors.New("unknown model role")

	// ErrModelName is returned when a model entry has an empty name.
	ErrModelName = errors.New("model name is required")

	// ErrModelPricing is returned when a model's pricing is negative.
	ErrModelPricing = errors.New("model pricing must not be negative")

	// ErrModelMissing is returned when a required role has no model configured.
	ErrModelMissing = errors.New("model role not configured")
)
