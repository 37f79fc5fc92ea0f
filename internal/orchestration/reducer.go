package orchestration

import (
	"fmt"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// reducer implements contracts.Reducer as a pure, sequential fold: results
// are applied in dispatch order against a clone of the input state, so the
// same inputs always produce the same output and a failed merge leaves the
// caller's state untouched.
//
// Merge policy per field:
//   - CostUSD: sum of deltas; a negative delta is rejected (ErrCostDecrease)
//   - RawInputs: append, preserving dispatch order
//   - TaskOutputs: disjoint union; two writes to one key in a single merge
//     is a conflict (ErrMergeConflict), while a write to a key produced in
//     an earlier round is a refresh and overwrites
//   - QualityScore: overwrite when a result proposes one
//   - NodeErrs: collect every failed node's error
//
// Iteration and Phase are engine-owned and never touched here.
type reducer struct{}

// NewReducer creates the standard state reducer.
func NewReducer() contracts.Reducer {
	return &reducer{}
}

// fieldRule applies one field's merge policy for a single result. Rules run
// in declaration order for every result; any error aborts the whole merge.
type fieldRule struct {
	name  string
	apply func(st *contracts.State, r *contracts.TaskResult, written map[contracts.NodeID]contracts.NodeID) error
}

var mergeRules = []fieldRule{
	{name: "accumulated_cost", apply: mergeCost},
	{name: "raw_inputs", apply: mergeRawInputs},
	{name: "task_outputs", apply: mergeOutputs},
	{name: "quality_score", apply: mergeScore},
	{name: "node_errors", apply: mergeNodeErrs},
}

func (m *reducer) Merge(state *contracts.State, results []*contracts.TaskResult) (*contracts.State, error) {
	if state == nil {
		return nil, contracts.ErrInvalidInput
	}

	out := state.Clone()
	// Output keys written during this merge; a second write marks a
	// same-round collision.
	written := make(map[contracts.NodeID]contracts.NodeID)

	for _, result := range results {
		if result == nil {
			continue
		}
		for _, rule := range mergeRules {
			if err := rule.apply(out, result, written); err != nil {
				return nil, fmt.Errorf("merge %s from node %s: %w", rule.name, result.Node, err)
			}
		}
	}

	return out, nil
}

func mergeCost(st *contracts.State, r *contracts.TaskResult, _ map[contracts.NodeID]contracts.NodeID) error {
	if r.CostDeltaUSD < 0 {
		return fmt.Errorf("delta %.6f: %w", r.CostDeltaUSD, contracts.ErrCostDecrease)
	}
	st.CostUSD += r.CostDeltaUSD
	return nil
}

func mergeRawInputs(st *contracts.State, r *contracts.TaskResult, _ map[contracts.NodeID]contracts.NodeID) error {
	st.RawInputs = append(st.RawInputs, r.Patch.RawInputs...)
	return nil
}

func mergeOutputs(st *contracts.State, r *contracts.TaskResult, written map[contracts.NodeID]contracts.NodeID) error {
	for key, finding := range r.Patch.Outputs {
		if first, clash := written[key]; clash {
			return fmt.Errorf("output key %s written by %s and %s in one round: %w",
				key, first, r.Node, contracts.ErrMergeConflict)
		}
		written[key] = r.Node
		st.TaskOutputs[key] = finding
	}
	return nil
}

func mergeScore(st *contracts.State, r *contracts.TaskResult, _ map[contracts.NodeID]contracts.NodeID) error {
	if r.Patch.Score == nil {
		return nil
	}
	st.QualityScore = clampScore(*r.Patch.Score)
	return nil
}

func mergeNodeErrs(st *contracts.State, r *contracts.TaskResult, _ map[contracts.NodeID]contracts.NodeID) error {
	if r.Err != nil {
		st.NodeErrs = append(st.NodeErrs, r.Err)
	}
	return nil
}

func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 100:
		return 100
	}
	return s
}
