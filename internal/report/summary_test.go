package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

func sampleSummary() (*contracts.Summary, []contracts.BatchRecord) {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	summary := &contracts.Summary{
		BatchID:      "batch-1",
		Entities:     2,
		Succeeded:    1,
		Failed:       1,
		TotalCostUSD: 0.05,
		WallDuration: 3200 * time.Millisecond,
		CacheHitRate: 0.5,
		FailureKinds: map[contracts.FailureKind]int{contracts.FailureTimeout: 1},
		StartedAt:    started,
	}
	records := []contracts.BatchRecord{
		{
			Entity: "Acme Corp", RunID: "run-1", Success: true,
			QualityScore: 88, Iterations: 2, CostUSD: 0.05,
			Duration: 1500 * time.Millisecond, CacheHit: true, ReportPath: "out/acme-corp.md",
		},
		{
			Entity: "Globex", FailureKind: contracts.FailureTimeout,
			FailureMsg: "entity run exceeded wall-clock timeout",
			Duration:   90 * time.Second,
		},
	}
	return summary, records
}

func TestBuildSummary_Mapping(t *testing.T) {
	summary, records := sampleSummary()
	dto := BuildSummary(summary, records)

	if dto.BatchID != "batch-1" || dto.Entities != 2 || dto.Succeeded != 1 || dto.Failed != 1 {
		t.Errorf("summary header mismatch: %+v", dto)
	}
	if dto.StartedAt != "2025-06-01T12:00:00Z" {
		t.Errorf("StartedAt = %q, want RFC3339 UTC", dto.StartedAt)
	}
	if dto.WallDurationMs != 3200 {
		t.Errorf("WallDurationMs = %d, want 3200", dto.WallDurationMs)
	}
	if diff := cmp.Diff(map[string]int{"timeout": 1}, dto.FailureKinds); diff != "" {
		t.Errorf("FailureKinds mismatch (-want +got):\n%s", diff)
	}

	if len(dto.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(dto.Records))
	}
	ok := dto.Records[0]
	if ok.Status != "ok" || ok.ReportPath != "out/acme-corp.md" || ok.DurationMs != 1500 {
		t.Errorf("ok record mismatch: %+v", ok)
	}
	failed := dto.Records[1]
	if failed.Status != "failed" || failed.FailureKind != "timeout" {
		t.Errorf("failed record mismatch: %+v", failed)
	}
}

func TestWriteSummaryJSON_SnakeCaseWire(t *testing.T) {
	summary, records := sampleSummary()
	path := filepath.Join(t.TempDir(), "summary.json")

	if err := WriteSummaryJSON(path, BuildSummary(summary, records)); err != nil {
		t.Fatalf("WriteSummaryJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, key := range []string{
		`"batch_id"`, `"total_cost_usd"`, `"wall_duration_ms"`,
		`"cache_hit_rate"`, `"quality_score"`, `"failure_kinds"`,
	} {
		if !strings.Contains(string(data), key) {
			t.Errorf("summary.json missing %s", key)
		}
	}

	var decoded SummaryDTO
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("written summary is not valid JSON: %v", err)
	}
	if decoded.TotalCostUSD != 0.05 {
		t.Errorf("round-tripped cost = %v, want 0.05", decoded.TotalCostUSD)
	}
}

func TestWriteSummaryJSON_BadPath(t *testing.T) {
	summary, records := sampleSummary()
	err := WriteSummaryJSON(filepath.Join(t.TempDir(), "missing", "summary.json"), BuildSummary(summary, records))
	if err == nil {
		t.Fatal("WriteSummaryJSON() into missing dir succeeded, want error")
	}
}
