package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoader_LoadFromBytes_ValidYAML(t *testing.T) {
	l := NewLoader()
	data := []byte(`
run:
  max_iterations: 5
  quality_threshold: 70
batch:
  workers: 8
  entity_timeout: 2m
cache:
  ttl:
    news: 30m
`)

	cfg, err := l.LoadFromBytes(data)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Run.MaxIterations != 5 {
		t.Fatalf("expected max_iterations=5, got %d", cfg.Run.MaxIterations)
	}

	if cfg.Batch.EntityTimeout.AsDuration() != 2*time.Minute {
		t.Fatalf("expected entity_timeout=2m, got %s", cfg.Batch.EntityTimeout.AsDuration())
	}

	if cfg.Cache.TTL["news"].AsDuration() != 30*time.Minute {
		t.Fatalf("expected news ttl=30m, got %s", cfg.Cache.TTL["news"].AsDuration())
	}
}

func TestLoader_LoadFromBytes_MergesOverDefaults(t *testing.T) {
	l := NewLoader()
	// Only workers is set; everything else keeps defaults.
	data := []byte("batch:\n  workers: 2\n")

	cfg, err := l.LoadFromBytes(data)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Batch.Workers != 2 {
		t.Fatalf("expected workers=2, got %d", cfg.Batch.Workers)
	}

	def := Default()
	if cfg.Run.MaxIterations != def.Run.MaxIterations {
		t.Fatalf("expected default max_iterations=%d, got %d", def.Run.MaxIterations, cfg.Run.MaxIterations)
	}
	if cfg.Run.QualityThreshold != def.Run.QualityThreshold {
		t.Fatalf("expected default quality_threshold=%.1f, got %.1f", def.Run.QualityThreshold, cfg.Run.QualityThreshold)
	}
}

func TestLoader_LoadFromBytes_EmptyData(t *testing.T) {
	l := NewLoader()
	_, err := l.LoadFromBytes([]byte{})
	if !errors.Is(err, ErrConfigEmpty) {
		t.Fatalf("expected ErrConfigEmpty, got %v", err)
	}
}

func TestLoader_LoadFromBytes_InvalidYAML(t *testing.T) {
	l := NewLoader()
	_, err := l.LoadFromBytes([]byte("run: [unclosed"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoader_LoadFromBytes_BadDuration(t *testing.T) {
	l := NewLoader()
	data := []byte("batch:\n  entity_timeout: ninety-seconds\n")

	_, err := l.LoadFromBytes(data)
	if !errors.Is(err, ErrDurationFormat) {
		t.Fatalf("expected ErrDurationFormat, got %v", err)
	}
}

func TestLoader_LoadFromBytes_ValidationError(t *testing.T) {
	l := NewLoader()
	data := []byte("run:\n  max_iterations: 0\n")

	_, err := l.LoadFromBytes(data)
	if !errors.Is(err, ErrMaxIterations) {
		t.Fatalf("expected ErrMaxIterations, got %v", err)
	}
}

func TestLoader_LoadFromFile_NotFound(t *testing.T) {
	l := NewLoader()
	_, err := l.LoadFromFile("/nonexistent/path/research.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}

	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist in chain, got %v", err)
	}
}

func TestLoader_LoadFromFile_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "research.yaml")

	data := []byte("run:\n  quality_threshold: 90\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	l := NewLoader()
	cfg, err := l.LoadFromFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Run.QualityThreshold != 90 {
		t.Fatalf("expected quality_threshold=90, got %.1f", cfg.Run.QualityThreshold)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := NewValidator().Validate(Default()); err != nil {
		t.Fatalf("default config must validate, got %v", err)
	}
}
