package orchestration

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

func newTestState() *contracts.State {
	return contracts.NewState("run-1", "Acme Corp")
}

func resultWithCost(node contracts.NodeID, cost float64) *contracts.TaskResult {
	return &contracts.TaskResult{Node: node, CostDeltaUSD: cost}
}

func resultWithOutput(node contracts.NodeID, key contracts.NodeID, summary string) *contracts.TaskResult {
	return &contracts.TaskResult{
		Node: node,
		Patch: contracts.StatePatch{
			Outputs: map[contracts.NodeID]*contracts.Finding{
				key: {Node: node, Summary: summary},
			},
		},
	}
}

func resultWithDocs(node contracts.NodeID, urls ...string) *contracts.TaskResult {
	docs := make([]contracts.SourceDocument, len(urls))
	for i, u := range urls {
		docs[i] = contracts.SourceDocument{URL: u, Title: u}
	}
	return &contracts.TaskResult{
		Node:  node,
		Patch: contracts.StatePatch{RawInputs: docs},
	}
}

func TestMerge_SumsCostAcrossFanOut(t *testing.T) {
	r := NewReducer()
	results := []*contracts.TaskResult{
		resultWithCost("a", 1.00),
		resultWithCost("b", 1.00),
		resultWithCost("c", 1.00),
		resultWithCost("d", 1.00),
	}

	merged, err := r.Merge(newTestState(), results)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged.CostUSD != 4.00 {
		t.Errorf("CostUSD = %.2f, want 4.00", merged.CostUSD)
	}
}

func TestMerge_NegativeCostDelta(t *testing.T) {
	r := NewReducer()
	_, err := r.Merge(newTestState(), []*contracts.TaskResult{resultWithCost("a", -0.01)})
	if !errors.Is(err, contracts.ErrCostDecrease) {
		t.Errorf("Merge() error = %v, want ErrCostDecrease", err)
	}
}

func TestMerge_AppendsRawInputsInDispatchOrder(t *testing.T) {
	r := NewReducer()
	state := newTestState()
	state.RawInputs = []contracts.SourceDocument{{URL: "seed", Title: "seed"}}

	merged, err := r.Merge(state, []*contracts.TaskResult{
		resultWithDocs("a", "a1", "a2"),
		resultWithDocs("b", "b1"),
	})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	var got []string
	for _, doc := range merged.RawInputs {
		got = append(got, doc.URL)
	}
	want := []string{"seed", "a1", "a2", "b1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RawInputs order mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_DisjointOutputsUnion(t *testing.T) {
	r := NewReducer()
	merged, err := r.Merge(newTestState(), []*contracts.TaskResult{
		resultWithOutput("a", "a", "finding a"),
		resultWithOutput("b", "b", "finding b"),
	})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(merged.TaskOutputs) != 2 {
		t.Fatalf("TaskOutputs size = %d, want 2", len(merged.TaskOutputs))
	}
	if merged.TaskOutputs["a"].Summary != "finding a" {
		t.Errorf("TaskOutputs[a] = %q, want %q", merged.TaskOutputs["a"].Summary, "finding a")
	}
}

func TestMerge_SameRoundKeyCollision(t *testing.T) {
	r := NewReducer()
	_, err := r.Merge(newTestState(), []*contracts.TaskResult{
		resultWithOutput("a", "shared", "from a"),
		resultWithOutput("b", "shared", "from b"),
	})
	if !errors.Is(err, contracts.ErrMergeConflict) {
		t.Errorf("Merge() error = %v, want ErrMergeConflict", err)
	}
}

func TestMerge_CrossRoundRefreshOverwrites(t *testing.T) {
	r := NewReducer()
	state := newTestState()

	first, err := r.Merge(state, []*contracts.TaskResult{resultWithOutput("a", "a", "v1")})
	if err != nil {
		t.Fatalf("first Merge() error = %v", err)
	}
	second, err := r.Merge(first, []*contracts.TaskResult{resultWithOutput("a", "a", "v2")})
	if err != nil {
		t.Fatalf("second Merge() error = %v", err)
	}
	if second.TaskOutputs["a"].Summary != "v2" {
		t.Errorf("refreshed output = %q, want v2", second.TaskOutputs["a"].Summary)
	}
}

func TestMerge_ScoreOverwriteAndClamp(t *testing.T) {
	tests := []struct {
		name     string
		proposed float64
		want     float64
	}{
		{name: "in range", proposed: 72.5, want: 72.5},
		{name: "above cap", proposed: 140, want: 100},
		{name: "below floor", proposed: -5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReducer()
			score := tt.proposed
			merged, err := r.Merge(newTestState(), []*contracts.TaskResult{{
				Node:  "scorer",
				Patch: contracts.StatePatch{Score: &score},
			}})
			if err != nil {
				t.Fatalf("Merge() error = %v", err)
			}
			if merged.QualityScore != tt.want {
				t.Errorf("QualityScore = %.1f, want %.1f", merged.QualityScore, tt.want)
			}
		})
	}
}

func TestMerge_CollectsNodeErrors(t *testing.T) {
	r := NewReducer()
	merged, err := r.Merge(newTestState(), []*contracts.TaskResult{
		resultWithOutput("a", "a", "ok"),
		{
			Node: "b",
			Err:  &contracts.NodeError{Node: "b", Message: "search failed", At: time.Now()},
		},
	})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(merged.NodeErrs) != 1 || merged.NodeErrs[0].Node != "b" {
		t.Errorf("NodeErrs = %v, want one error from b", merged.NodeErrs)
	}
	if len(merged.TaskOutputs) != 1 {
		t.Errorf("TaskOutputs size = %d, want sibling output kept", len(merged.TaskOutputs))
	}
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	r := NewReducer()
	state := newTestState()
	state.CostUSD = 1.50
	state.RawInputs = []contracts.SourceDocument{{URL: "seed"}}
	before := state.Clone()

	_, err := r.Merge(state, []*contracts.TaskResult{
		resultWithCost("a", 0.25),
		resultWithDocs("b", "b1"),
		resultWithOutput("c", "c", "x"),
	})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if diff := cmp.Diff(before, state); diff != "" {
		t.Errorf("input state mutated (-before +after):\n%s", diff)
	}
}

func TestMerge_NilAndEmptyResults(t *testing.T) {
	r := NewReducer()
	state := newTestState()

	merged, err := r.Merge(state, []*contracts.TaskResult{nil, {Node: "quiet"}})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged.CostUSD != 0 || len(merged.TaskOutputs) != 0 {
		t.Errorf("merged state changed by empty results: cost=%v outputs=%d", merged.CostUSD, len(merged.TaskOutputs))
	}

	if _, err := r.Merge(nil, nil); !errors.Is(err, contracts.ErrInvalidInput) {
		t.Errorf("Merge(nil state) error = %v, want ErrInvalidInput", err)
	}
}

func TestMerge_OrderIndependentForDisjointKeys(t *testing.T) {
	r := NewReducer()
	forward := []*contracts.TaskResult{
		resultWithOutput("a", "a", "fa"),
		resultWithOutput("b", "b", "fb"),
		resultWithCost("c", 0.40),
	}
	reversed := []*contracts.TaskResult{
		resultWithCost("c", 0.40),
		resultWithOutput("b", "b", "fb"),
		resultWithOutput("a", "a", "fa"),
	}

	m1, err := r.Merge(newTestState(), forward)
	if err != nil {
		t.Fatalf("Merge(forward) error = %v", err)
	}
	m2, err := r.Merge(newTestState(), reversed)
	if err != nil {
		t.Fatalf("Merge(reversed) error = %v", err)
	}

	if m1.CostUSD != m2.CostUSD {
		t.Errorf("cost differs with order: %.2f vs %.2f", m1.CostUSD, m2.CostUSD)
	}
	if diff := cmp.Diff(m1.TaskOutputs, m2.TaskOutputs); diff != "" {
		t.Errorf("outputs differ with order:\n%s", diff)
	}
}
