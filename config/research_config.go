// Package config provides static research configuration loading and validation.
package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// ResearchConfig represents the root configuration structure.
type ResearchConfig struct {
	Run    RunConfig    `yaml:"run"`
	Batch  BatchConfig  `yaml:"batch"`
	Cache  CacheConfig  `yaml:"cache"`
	Search SearchConfig `yaml:"search"`
	LLM    LLMConfig    `yaml:"llm"`
}

// RunConfig holds per-entity run constraints.
type RunConfig struct {
	MaxIterations    int     `yaml:"max_iterations"`
	QualityThreshold float64 `yaml:"quality_threshold"`
	CostCeilingUSD   float64 `yaml:"cost_ceiling_usd"`
	FastPathMs       int     `yaml:"fast_path_ms"`
}

// BatchConfig holds worker pool settings.
type BatchConfig struct {
	Workers       int      `yaml:"workers"`
	EntityTimeout Duration `yaml:"entity_timeout"`
}

// CacheConfig holds per-category TTLs. A zero or negative TTL disables
// caching for that category.
type CacheConfig struct {
	TTL map[string]Duration `yaml:"ttl"`
}

// SearchConfig holds search collaborator settings.
type SearchConfig struct {
	APIKeyEnv  string `yaml:"api_key_env"`
	BaseURL    string `yaml:"base_url"`
	Depth      string `yaml:"depth"`
	MaxResults int    `yaml:"max_results"`
}

// LLMConfig holds analysis collaborator settings. Models is keyed by role
// (fast, balanced, flagship).
type LLMConfig struct {
	APIKeyEnv string                 `yaml:"api_key_env"`
	BaseURL   string                 `yaml:"base_url"`
	Models    map[string]ModelConfig `yaml:"models"`
}

// ModelConfig declares one model and its per-1M token pricing in USD.
type ModelConfig struct {
	Name        string  `yaml:"name"`
	Provider    string  `yaml:"provider"`
	MaxContext  int     `yaml:"max_context"`
	InputPer1M  float64 `yaml:"input_per_1m"`
	OutputPer1M float64 `yaml:"output_per_1m"`
}

// Duration wraps time.Duration to accept "90s" / "24h" style YAML values.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return ErrDurationFormat
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// AsDuration returns the underlying time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration. Loading a file merges over it:
// absent keys keep these values.
func Default() *ResearchConfig {
	return &ResearchConfig{
		Run: RunConfig{
			MaxIterations:    3,
			QualityThreshold: 80,
			CostCeilingUSD:   10.0,
			FastPathMs:       250,
		},
		Batch: BatchConfig{
			Workers:       4,
			EntityTimeout: Duration(90 * time.Second),
		},
		Cache: CacheConfig{
			TTL: map[string]Duration{
				string(contracts.CacheSearch):   Duration(24 * time.Hour),
				string(contracts.CacheNews):     Duration(1 * time.Hour),
				string(contracts.CacheAnalysis): Duration(168 * time.Hour),
			},
		},
		Search: SearchConfig{
			APIKeyEnv:  "SEARCH_API_KEY",
			BaseURL:    "https://api.tavily.com",
			Depth:      "basic",
			MaxResults: 5,
		},
		LLM: LLMConfig{
			APIKeyEnv: "LLM_API_KEY",
			BaseURL:   "https://api.openai.com/v1",
			Models: map[string]ModelConfig{
				string(contracts.RoleFast): {
					Name:        "gpt-4o-mini",
					Provider:    "openai",
					MaxContext:  128000,
					InputPer1M:  0.15,
					OutputPer1M: 0.60,
				},
				string(contracts.RoleBalanced): {
					Name:        "gpt-4o",
					Provider:    "openai",
					MaxContext:  128000,
					InputPer1M:  2.50,
					OutputPer1M: 10.00,
				},
				string(contracts.RoleFlagship): {
					Name:        "o1",
					Provider:    "openai",
					MaxContext:  200000,
					InputPer1M:  15.00,
					OutputPer1M: 60.00,
				},
			},
		},
	}
}

// RunPolicy converts the run section into the engine's policy struct.
func (c *ResearchConfig) RunPolicy(deep bool) contracts.RunPolicy {
	return contracts.RunPolicy{
		MaxIterations:     c.Run.MaxIterations,
		QualityThreshold:  c.Run.QualityThreshold,
		CostCeilingUSD:    c.Run.CostCeilingUSD,
		Deep:              deep,
		FastPathThreshold: time.Duration(c.Run.FastPathMs) * time.Millisecond,
	}
}

// TTLFor returns the configured TTL for a cache category, falling back to the
// search TTL for unknown categories.
func (c *ResearchConfig) TTLFor(category contracts.CacheCategory) time.Duration {
	if d, ok := c.Cache.TTL[string(category)]; ok {
		return d.AsDuration()
	}
	if d, ok := c.Cache.TTL[string(contracts.CacheSearch)]; ok {
		return d.AsDuration()
	}
	return 24 * time.Hour
}
