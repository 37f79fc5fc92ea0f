package orchestration

import (
	"fmt"
	"time"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// gate implements contracts.Gate: the decision point between collection
// iterations. Finalization conditions, in evaluation order:
//  1. a terminal error is recorded on the state
//  2. quality score meets the policy threshold
//  3. the iteration cap is reached
//  4. the budget ceiling is exhausted
//
// Otherwise the verdict is to continue collecting. The iteration cap is
// checked even when the scorer fails or panics, so a broken scorer can never
// produce an unbounded run.
type gate struct {
	scorer contracts.Scorer
	budget contracts.BudgetEnforcer
}

// NewGate creates a gate. A nil budget disables the ceiling condition.
func NewGate(scorer contracts.Scorer, budget contracts.BudgetEnforcer) contracts.Gate {
	return &gate{scorer: scorer, budget: budget}
}

func (g *gate) Evaluate(state *contracts.State, policy contracts.RunPolicy) contracts.GateVerdict {
	score := g.safeScore(state)

	if state.TerminalErr != nil {
		return contracts.GateVerdict{
			Decision: contracts.DecideFinalize,
			Reason:   contracts.ReasonTerminalError,
			Score:    score,
		}
	}
	if policy.QualityThreshold > 0 && score >= policy.QualityThreshold {
		return contracts.GateVerdict{
			Decision: contracts.DecideFinalize,
			Reason:   contracts.ReasonQualityMet,
			Score:    score,
		}
	}
	if state.Iteration >= policy.MaxIterations {
		return contracts.GateVerdict{
			Decision: contracts.DecideFinalize,
			Reason:   contracts.ReasonMaxIterations,
			Score:    score,
		}
	}
	if g.budget != nil && g.budget.Exhausted(state.CostUSD) {
		return contracts.GateVerdict{
			Decision: contracts.DecideFinalize,
			Reason:   contracts.ReasonBudgetExhausted,
			Score:    score,
		}
	}

	return contracts.GateVerdict{
		Decision: contracts.DecideContinue,
		Score:    score,
	}
}

// safeScore runs the scorer, carrying the state's previous score when the
// scorer errors or panics.
func (g *gate) safeScore(state *contracts.State) (score float64) {
	score = state.QualityScore
	if g.scorer == nil {
		return score
	}

	defer func() {
		if r := recover(); r != nil {
			score = state.QualityScore
			state.NodeErrs = append(state.NodeErrs, &contracts.NodeError{
				Node:    "gate",
				Message: fmt.Sprintf("scorer panic: %v", r),
				At:      time.Now().UTC(),
			})
		}
	}()

	s, err := g.scorer.Score(state)
	if err != nil {
		state.NodeErrs = append(state.NodeErrs, &contracts.NodeError{
			Node:    "gate",
			Message: fmt.Sprintf("scorer: %v", err),
			At:      time.Now().UTC(),
		})
		return state.QualityScore
	}
	return clampScore(s)
}
