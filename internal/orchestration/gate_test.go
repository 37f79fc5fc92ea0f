package orchestration

import (
	"errors"
	"testing"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/cost"
)

type failingScorer struct{}

func (failingScorer) Score(_ *contracts.State) (float64, error) {
	return 0, errors.New("coverage node never ran")
}

type panickyScorer struct{}

func (panickyScorer) Score(_ *contracts.State) (float64, error) {
	panic("index out of range")
}

func TestGateEvaluate_FinalizeReasonPrecedence(t *testing.T) {
	policy := contracts.RunPolicy{
		MaxIterations:    3,
		QualityThreshold: 80,
		CostCeilingUSD:   1.00,
	}
	budget := cost.NewBudgetEnforcer(policy.CostCeilingUSD)

	tests := []struct {
		name       string
		state      *contracts.State
		score      float64
		wantReason contracts.FinalizeReason
	}{
		{
			name: "terminal error beats everything",
			state: &contracts.State{
				TerminalErr: &contracts.NodeError{Node: "engine", Message: "merge conflict"},
				Iteration:   3,
				CostUSD:     5.00,
			},
			score:      95,
			wantReason: contracts.ReasonTerminalError,
		},
		{
			name:       "quality met beats iteration cap",
			state:      &contracts.State{Iteration: 3},
			score:      85,
			wantReason: contracts.ReasonQualityMet,
		},
		{
			name:       "iteration cap beats budget",
			state:      &contracts.State{Iteration: 3, CostUSD: 5.00},
			score:      40,
			wantReason: contracts.ReasonMaxIterations,
		},
		{
			name:       "budget exhaustion",
			state:      &contracts.State{Iteration: 1, CostUSD: 1.00},
			score:      40,
			wantReason: contracts.ReasonBudgetExhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(&scriptScorer{scores: []float64{tt.score}}, budget)
			verdict := g.Evaluate(tt.state, policy)
			if verdict.Decision != contracts.DecideFinalize {
				t.Fatalf("Decision = %s, want finalize", verdict.Decision)
			}
			if verdict.Reason != tt.wantReason {
				t.Errorf("Reason = %s, want %s", verdict.Reason, tt.wantReason)
			}
			if verdict.Score != tt.score {
				t.Errorf("Score = %.0f, want %.0f", verdict.Score, tt.score)
			}
		})
	}
}

func TestGateEvaluate_ContinuesBelowEveryLimit(t *testing.T) {
	g := NewGate(&scriptScorer{scores: []float64{40}}, cost.NewBudgetEnforcer(1.00))
	state := &contracts.State{Iteration: 1, CostUSD: 0.30}

	verdict := g.Evaluate(state, contracts.RunPolicy{MaxIterations: 3, QualityThreshold: 80})
	if verdict.Decision != contracts.DecideContinue {
		t.Fatalf("Decision = %s, want continue", verdict.Decision)
	}
	if verdict.Reason != "" {
		t.Errorf("Reason = %q, want empty on continue", verdict.Reason)
	}
	if verdict.Score != 40 {
		t.Errorf("Score = %.0f, want 40", verdict.Score)
	}
}

func TestGateEvaluate_ZeroThresholdDisablesQualityCondition(t *testing.T) {
	g := NewGate(&scriptScorer{scores: []float64{100}}, nil)
	state := &contracts.State{Iteration: 1}

	verdict := g.Evaluate(state, contracts.RunPolicy{MaxIterations: 3})
	if verdict.Decision != contracts.DecideContinue {
		t.Errorf("Decision = %s, want continue when threshold is zero", verdict.Decision)
	}
}

func TestGateEvaluate_NilBudgetDisablesCeiling(t *testing.T) {
	g := NewGate(&scriptScorer{scores: []float64{40}}, nil)
	state := &contracts.State{Iteration: 1, CostUSD: 9999}

	verdict := g.Evaluate(state, contracts.RunPolicy{MaxIterations: 3, QualityThreshold: 80})
	if verdict.Decision != contracts.DecideContinue {
		t.Errorf("Decision = %s, want continue with nil budget", verdict.Decision)
	}
}

func TestGateEvaluate_ScorerErrorCarriesPreviousScore(t *testing.T) {
	g := NewGate(failingScorer{}, nil)
	state := &contracts.State{Iteration: 3, QualityScore: 42}

	verdict := g.Evaluate(state, contracts.RunPolicy{MaxIterations: 3, QualityThreshold: 80})
	if verdict.Decision != contracts.DecideFinalize || verdict.Reason != contracts.ReasonMaxIterations {
		t.Fatalf("verdict = %+v, want finalize on iteration cap", verdict)
	}
	if verdict.Score != 42 {
		t.Errorf("Score = %.0f, want previous score 42", verdict.Score)
	}
	if len(state.NodeErrs) != 1 || state.NodeErrs[0].Node != "gate" {
		t.Errorf("NodeErrs = %v, want one gate record", state.NodeErrs)
	}
}

func TestGateEvaluate_ScorerPanicIsContained(t *testing.T) {
	g := NewGate(panickyScorer{}, nil)
	state := &contracts.State{Iteration: 2, QualityScore: 55}

	verdict := g.Evaluate(state, contracts.RunPolicy{MaxIterations: 2, QualityThreshold: 80})
	if verdict.Decision != contracts.DecideFinalize || verdict.Reason != contracts.ReasonMaxIterations {
		t.Fatalf("verdict = %+v, want finalize despite scorer panic", verdict)
	}
	if verdict.Score != 55 {
		t.Errorf("Score = %.0f, want previous score 55", verdict.Score)
	}
	if len(state.NodeErrs) != 1 || state.NodeErrs[0].Node != "gate" {
		t.Errorf("NodeErrs = %v, want one gate record", state.NodeErrs)
	}
}

func TestGateEvaluate_ScoreClamped(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{name: "above range", raw: 250, want: 100},
		{name: "below range", raw: -5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(&scriptScorer{scores: []float64{tt.raw}}, nil)
			verdict := g.Evaluate(&contracts.State{Iteration: 1}, contracts.RunPolicy{MaxIterations: 3})
			if verdict.Score != tt.want {
				t.Errorf("Score = %.0f, want clamped to %.0f", verdict.Score, tt.want)
			}
		})
	}
}

func TestGateEvaluate_NilScorerKeepsStateScore(t *testing.T) {
	g := NewGate(nil, nil)
	state := &contracts.State{Iteration: 1, QualityScore: 61}

	verdict := g.Evaluate(state, contracts.RunPolicy{MaxIterations: 3, QualityThreshold: 80})
	if verdict.Score != 61 {
		t.Errorf("Score = %.0f, want state score 61", verdict.Score)
	}
	if verdict.Decision != contracts.DecideContinue {
		t.Errorf("Decision = %s, want continue", verdict.Decision)
	}
}
