package config

import (
	"errors"
	"testing"
)

func TestValidator_NilConfig(t *testing.T) {
	v := NewValidator()
	err := v.Validate(nil)
	if !errors.Is(err, ErrConfigEmpty) {
		t.Fatalf("expected ErrConfigEmpty, got %v", err)
	}
}

func TestValidator_DefaultPasses(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(Default()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidator_Rules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *ResearchConfig)
		wantErr error
	}{
		{
			name:    "max iterations zero",
			mutate:  func(cfg *ResearchConfig) { cfg.Run.MaxIterations = 0 },
			wantErr: ErrMaxIterations,
		},
		{
			name:    "quality threshold above range",
			mutate:  func(cfg *ResearchConfig) { cfg.Run.QualityThreshold = 101 },
			wantErr: ErrQualityThreshold,
		},
		{
			name:    "quality threshold below range",
			mutate:  func(cfg *ResearchConfig) { cfg.Run.QualityThreshold = -1 },
			wantErr: ErrQualityThreshold,
		},
		{
			name:    "cost ceiling zero",
			mutate:  func(cfg *ResearchConfig) { cfg.Run.CostCeilingUSD = 0 },
			wantErr: ErrCostCeiling,
		},
		{
			name:    "fast path negative",
			mutate:  func(cfg *ResearchConfig) { cfg.Run.FastPathMs = -10 },
			wantErr: ErrFastPath,
		},
		{
			name:    "workers zero",
			mutate:  func(cfg *ResearchConfig) { cfg.Batch.Workers = 0 },
			wantErr: ErrWorkers,
		},
		{
			name:    "entity timeout zero",
			mutate:  func(cfg *ResearchConfig) { cfg.Batch.EntityTimeout = 0 },
			wantErr: ErrEntityTimeout,
		},
		{
			name:    "unknown cache category",
			mutate:  func(cfg *ResearchConfig) { cfg.Cache.TTL["crawl"] = cfg.Cache.TTL["search"] },
			wantErr: ErrCacheCategory,
		},
		{
			name:    "unknown search depth",
			mutate:  func(cfg *ResearchConfig) { cfg.Search.Depth = "exhaustive" },
			wantErr: ErrSearchDepth,
		},
		{
			name:    "max results zero",
			mutate:  func(cfg *ResearchConfig) { cfg.Search.MaxResults = 0 },
			wantErr: ErrMaxResults,
		},
		{
			name: "unknown model role",
			mutate: func(cfg *ResearchConfig) {
				cfg.LLM.Models["turbo"] = ModelConfig{Name: "x", InputPer1M: 1, OutputPer1M: 1}
			},
			wantErr: ErrModelRole,
		},
		{
			name: "model name empty",
			mutate: func(cfg *ResearchConfig) {
				m := cfg.LLM.Models["fast"]
				m.Name = ""
				cfg.LLM.Models["fast"] = m
			},
			wantErr: ErrModelName,
		},
		{
			name: "negative pricing",
			mutate: func(cfg *ResearchConfig) {
				m := cfg.LLM.Models["balanced"]
				m.InputPer1M = -0.1
				cfg.LLM.Models["balanced"] = m
			},
			wantErr: ErrModelPricing,
		},
		{
			name:    "missing role",
			mutate:  func(cfg *ResearchConfig) { delete(cfg.LLM.Models, "flagship") },
			wantErr: ErrModelMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := NewValidator().Validate(cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidator_ZeroTTLAllowed(t *testing.T) {
	cfg := Default()
	cfg.Cache.TTL["news"] = 0 // disables caching for the category

	if err := NewValidator().Validate(cfg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
