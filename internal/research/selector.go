package research

import (
	"sort"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// weakConfidence is the floor under which a finding counts as weak even when
// present.
const weakConfidence = 0.55

// selector picks the next round's fan-out group after the gate sends a run
// back to collecting.
type selector struct {
	expected []contracts.NodeID
}

// NewSelector returns the round selector for a node set. Standard runs
// re-run only the weak analysis nodes against the already collected sources;
// deep runs reopen the grounding root, which cascades into a full
// re-collection with gap-targeted queries and escalated model tiers.
func NewSelector(expected []contracts.NodeID) contracts.Selector {
	return &selector{expected: expected}
}

func (s *selector) Select(state *contracts.State, policy contracts.RunPolicy) []contracts.NodeID {
	weak := weakNodes(state, s.expected)
	if len(weak) == 0 {
		return nil
	}
	if policy.Deep {
		return []contracts.NodeID{NodeGrounding}
	}
	return weak
}

// weakNodes lists the expected nodes whose finding is missing, low
// confidence, or mostly unfilled. Sorted for deterministic dispatch.
func weakNodes(state *contracts.State, expected []contracts.NodeID) []contracts.NodeID {
	var weak []contracts.NodeID
	for _, node := range expected {
		finding := state.TaskOutputs[node]
		if finding == nil || finding.Summary == "" {
			weak = append(weak, node)
			continue
		}
		if finding.Confidence < weakConfidence {
			weak = append(weak, node)
			continue
		}
		if wanted := fieldsFor(node); len(wanted) > 0 {
			filled := 0
			for _, field := range wanted {
				if v, ok := finding.Fields[field]; ok && v != "" {
					filled++
				}
			}
			if filled*2 < len(wanted) {
				weak = append(weak, node)
			}
		}
	}
	sort.Slice(weak, func(i, j int) bool { return weak[i] < weak[j] })
	return weak
}
