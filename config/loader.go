package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Loader loads and parses research configuration files.
type Loader struct{}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFromFile loads and parses a research configuration from a YAML file,
// merged over the built-in defaults. File errors are wrapped with context
// (use errors.Is with fs.ErrNotExist to check for a missing file).
func (l *Loader) LoadFromFile(path string) (*ResearchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read %s", path)
	}

	cfg, err := l.LoadFromBytes(data)
	if err != nil {
		return nil, eris.Wrapf(err, "config: load %s", path)
	}

	return cfg, nil
}

// LoadFromBytes parses research configuration from raw YAML bytes, merged
// over the built-in defaults. Empty data (len==0) returns ErrConfigEmpty.
func (l *Loader) LoadFromBytes(data []byte) (*ResearchConfig, error) {
	if len(data) == 0 {
		return nil, ErrConfigEmpty
	}

	// Unmarshal over the defaults: absent keys keep their default values.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, eris.Wrap(err, "config: parse YAML")
	}

	validator := NewValidator()
	if err := validator.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
