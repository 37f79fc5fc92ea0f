package research

import (
	"fmt"
	"sort"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// Scoring weights. Presence of findings dominates; confidence and structured
// field fill refine within it.
const (
	weightPresence   = 0.5
	weightConfidence = 0.3
	weightFields     = 0.2
)

// scorer grades a merged state against the expected analysis set.
type scorer struct {
	expected []contracts.NodeID
}

// NewScorer returns the quality scorer for a node set. The same grading
// backs the coverage node, so the gate and the in-graph score agree.
func NewScorer(expected []contracts.NodeID) contracts.Scorer {
	return &scorer{expected: expected}
}

func (s *scorer) Score(state *contracts.State) (float64, error) {
	if state == nil {
		return 0, fmt.Errorf("scorer: nil state: %w", contracts.ErrInvalidInput)
	}
	score, _ := scoreAndGaps(state, s.expected)
	return score, nil
}

// scoreAndGaps grades the state in [0,100] and lists what is missing. A gap
// is a whole absent finding ("financials") or an unfilled declared field
// ("financials.revenue"); the list drives gap-targeted re-collection.
func scoreAndGaps(state *contracts.State, expected []contracts.NodeID) (float64, []string) {
	if len(expected) == 0 {
		return 0, nil
	}

	var present int
	var confidenceSum float64
	var fieldsWanted, fieldsFilled int
	var gaps []string

	for _, node := range expected {
		finding := state.TaskOutputs[node]
		if finding == nil || finding.Summary == "" {
			gaps = append(gaps, string(node))
			fieldsWanted += len(fieldsFor(node))
			continue
		}
		present++
		confidenceSum += clamp01(finding.Confidence)

		for _, field := range fieldsFor(node) {
			fieldsWanted++
			if v, ok := finding.Fields[field]; ok && v != "" {
				fieldsFilled++
			} else {
				gaps = append(gaps, string(node)+"."+field)
			}
		}
	}

	presence := float64(present) / float64(len(expected))
	confidence := 0.0
	if present > 0 {
		confidence = confidenceSum / float64(present)
	}
	fieldFill := 0.0
	if fieldsWanted > 0 {
		fieldFill = float64(fieldsFilled) / float64(fieldsWanted)
	}

	score := 100 * (weightPresence*presence + weightConfidence*confidence + weightFields*fieldFill)
	sort.Strings(gaps)
	return score, gaps
}
