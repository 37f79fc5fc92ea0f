package config

import (
	"fmt"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// Validator validates research configurations.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

var knownCategories = map[string]bool{
	string(contracts.CacheSearch):   true,
	string(contracts.CacheNews):     true,
	string(contracts.CacheAnalysis): true,
}

var knownRoles = map[string]bool{
	string(contracts.RoleFast):     true,
	string(contracts.RoleBalanced): true,
	string(contracts.RoleFlagship): true,
}

// Validate performs comprehensive validation of a ResearchConfig.
// Returns nil if valid, or an error describing the first validation failure.
func (v *Validator) Validate(cfg *ResearchConfig) error {
	if cfg == nil {
		return ErrConfigEmpty
	}

	// 1. Run constraints
	if cfg.Run.MaxIterations < 1 {
		return fmt.Errorf("run.max_iterations=%d: %w", cfg.Run.MaxIterations, ErrMaxIterations)
	}
	if cfg.Run.QualityThreshold < 0 || cfg.Run.QualityThreshold > 100 {
		return fmt.Errorf("run.quality_threshold=%.1f: %w", cfg.Run.QualityThreshold, ErrQualityThreshold)
	}
	if cfg.Run.CostCeilingUSD <= 0 {
		return fmt.Errorf("run.cost_ceiling_usd=%.2f: %w", cfg.Run.CostCeilingUSD, ErrCostCeiling)
	}
	if cfg.Run.FastPathMs < 0 {
		return fmt.Errorf("run.fast_path_ms=%d: %w", cfg.Run.FastPathMs, ErrFastPath)
	}

	// 2. Batch constraints
	if cfg.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers=%d: %w", cfg.Batch.Workers, ErrWorkers)
	}
	if cfg.Batch.EntityTimeout.AsDuration() <= 0 {
		return fmt.Errorf("batch.entity_timeout=%s: %w", cfg.Batch.EntityTimeout.AsDuration(), ErrEntityTimeout)
	}

	// 3. Cache categories must be known; TTL values themselves are free
	// (zero or negative disables caching for the category)
	for name := range cfg.Cache.TTL {
		if !knownCategories[name] {
			return fmt.Errorf("cache.ttl.%s: %w", name, ErrCacheCategory)
		}
	}

	// 4. Search constraints
	switch cfg.Search.Depth {
	case "basic", "advanced":
	default:
		return fmt.Errorf("search.depth=%s: %w", cfg.Search.Depth, ErrSearchDepth)
	}
	if cfg.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results=%d: %w", cfg.Search.MaxResults, ErrMaxResults)
	}

	// 5. Model entries: known roles, named, non-negative pricing
	for role, m := range cfg.LLM.Models {
		if !knownRoles[role] {
			return fmt.Errorf("llm.models.%s: %w", role, ErrModelRole)
		}
		if m.Name == "" {
			return fmt.Errorf("llm.models.%s: %w", role, ErrModelName)
		}
		if m.InputPer1M < 0 || m.OutputPer1M < 0 {
			return fmt.Errorf("llm.models.%s: %w", role, ErrModelPricing)
		}
	}

	// 6. Every role the engine escalates through must be configured
	for role := range knownRoles {
		if _, ok := cfg.LLM.Models[role]; !ok {
			return fmt.Errorf("llm.models.%s: %w", role, ErrModelMissing)
		}
	}

	return nil
}
