package batch

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

func sampleRecords() []contracts.BatchRecord {
	return []contracts.BatchRecord{
		{
			Entity:       "Acme Corp",
			Success:      true,
			QualityScore: 87.5,
			Iterations:   2,
			CostUSD:      0.0312,
			Duration:     1800 * time.Millisecond,
			CacheHit:     false,
		},
		{
			Entity:      "Globex",
			FailureKind: contracts.FailureTimeout,
			FailureMsg:  "entity run exceeded wall-clock timeout",
			Duration:    90 * time.Second,
		},
		{
			Entity:       "Initech",
			Success:      true,
			QualityScore: 92.0,
			Iterations:   1,
			CostUSD:      0.0001,
			Duration:     120 * time.Millisecond,
			CacheHit:     true,
		},
	}
}

func TestCompare_DefaultFields(t *testing.T) {
	table, err := Compare(sampleRecords(), nil)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if diff := cmp.Diff(DefaultFields, table.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(table.Rows))
	}

	want := contracts.ComparisonRow{
		Entity: "Acme Corp",
		Values: []string{"ok", "87.5", "2", "0.0312", "1800", "false"},
	}
	if diff := cmp.Diff(want, table.Rows[0]); diff != "" {
		t.Errorf("first row mismatch (-want +got):\n%s", diff)
	}
}

func TestCompare_FailureStatusShowsKind(t *testing.T) {
	table, err := Compare(sampleRecords(), []string{"status"})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if got := table.Rows[1].Values[0]; got != "timeout" {
		t.Errorf("failed status = %q, want timeout", got)
	}
}

func TestCompare_RowOrderFollowsRecords(t *testing.T) {
	table, err := Compare(sampleRecords(), []string{"status"})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	want := []contracts.EntityID{"Acme Corp", "Globex", "Initech"}
	for i, row := range table.Rows {
		if row.Entity != want[i] {
			t.Errorf("row %d entity = %s, want %s", i, row.Entity, want[i])
		}
	}
}

func TestCompare_UnknownField(t *testing.T) {
	_, err := Compare(sampleRecords(), []string{"status", "vibes"})
	if !errors.Is(err, contracts.ErrUnknownField) {
		t.Errorf("Compare(unknown field) error = %v, want ErrUnknownField", err)
	}
}

func TestCompare_NoRecords(t *testing.T) {
	_, err := Compare(nil, nil)
	if !errors.Is(err, contracts.ErrNoEntities) {
		t.Errorf("Compare(no records) error = %v, want ErrNoEntities", err)
	}
}

func TestCompare_DoesNotAliasInput(t *testing.T) {
	fields := []string{"status"}
	table, err := Compare(sampleRecords(), fields)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	fields[0] = "mutated"
	if table.Fields[0] != "status" {
		t.Error("table aliases the caller's field slice")
	}
}
