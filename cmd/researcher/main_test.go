package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/batch"
)

func TestLoadEntities_MergesArgsAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.txt")
	content := "# portfolio batch\nGlobex\n\n  Initech  \nAcme Corp\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := loadEntities([]string{"Acme Corp", "Hooli"}, path)
	if err != nil {
		t.Fatalf("loadEntities() error = %v", err)
	}

	// Args come first, file entries follow, duplicates collapse.
	want := []contracts.EntityID{"Acme Corp", "Hooli", "Globex", "Initech"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("loadEntities() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEntities_ArgsOnly(t *testing.T) {
	got, err := loadEntities([]string{"Acme Corp"}, "")
	if err != nil {
		t.Fatalf("loadEntities() error = %v", err)
	}
	if len(got) != 1 || got[0] != "Acme Corp" {
		t.Errorf("loadEntities() = %v, want single entity", got)
	}
}

func TestLoadEntities_MissingFile(t *testing.T) {
	if _, err := loadEntities(nil, filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("loadEntities() error = nil, want read failure")
	}
}

func TestBuildLogger_RejectsUnknownLevel(t *testing.T) {
	if _, err := buildLogger("verbose", false); err == nil {
		t.Error("buildLogger() error = nil, want parse failure")
	}
}

func TestRun_NoEntitiesIsUsageError(t *testing.T) {
	if got := run([]string{}); got != exitUsage {
		t.Errorf("run() = %d, want %d", got, exitUsage)
	}
}

func TestRun_UnknownFlagIsUsageError(t *testing.T) {
	if got := run([]string{"-bogus"}); got != exitUsage {
		t.Errorf("run() = %d, want %d", got, exitUsage)
	}
}

func TestRun_MissingConfigFileIsUsageError(t *testing.T) {
	args := []string{"-config", filepath.Join(t.TempDir(), "absent.yaml"), "Acme Corp"}
	if got := run(args); got != exitUsage {
		t.Errorf("run() = %d, want %d", got, exitUsage)
	}
}

func TestWriteOutputs_WritesReportsSummaryAndComparison(t *testing.T) {
	dir := t.TempDir()
	records := []contracts.BatchRecord{{
		Entity:       "Acme Corp",
		RunID:        "run-1",
		Success:      true,
		QualityScore: 88,
		Iterations:   1,
		CostUSD:      0.5,
		Duration:     1200 * time.Millisecond,
	}}
	summary := &contracts.Summary{
		BatchID:   "batch-1",
		Entities:  1,
		Succeeded: 1,
		StartedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	table, err := batch.Compare(records, nil)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if err := writeOutputs(dir, records, summary, table); err != nil {
		t.Fatalf("writeOutputs() error = %v", err)
	}

	for _, name := range []string{"acme-corp.md", "summary.json", "comparison.md"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	if err != nil {
		t.Fatalf("ReadFile(summary.json) error = %v", err)
	}
	if !strings.Contains(string(data), "acme-corp.md") {
		t.Error("summary.json does not carry the entity report path")
	}
}
