package contracts

// RunPhase represents the gate state machine of a run.
// Collecting -> Evaluating -> {Collecting | Finalizing}; Finalizing is absorbing.
type RunPhase int

const (
	PhaseCollecting RunPhase = iota
	PhaseEvaluating
	PhaseFinalizing
)

func (p RunPhase) String() string {
	switch p {
	case PhaseCollecting:
		return "collecting"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// NodeState represents the per-round state of a graph node.
type NodeState int

const (
	NodePending NodeState = iota
	NodeReady
	NodeRunning
	NodeDone
	NodeFailed
)

func (s NodeState) String() string {
	switch s {
	case NodePending:
		return "pending"
	case NodeReady:
		return "ready"
	case NodeRunning:
		return "running"
	case NodeDone:
		return "done"
	case NodeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// GateDecision is the outcome of one gate evaluation.
type GateDecision int

const (
	DecideContinue GateDecision = iota
	DecideFinalize
)

func (d GateDecision) String() string {
	switch d {
	case DecideContinue:
		return "continue"
	case DecideFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// FinalizeReason names the gate condition that ended collection.
type FinalizeReason string

const (
	ReasonQualityMet      FinalizeReason = "quality_met"
	ReasonMaxIterations   FinalizeReason = "max_iterations"
	ReasonTerminalError   FinalizeReason = "terminal_error"
	ReasonBudgetExhausted FinalizeReason = "budget_exhausted"
)

// FailureKind classifies why an entity run failed in a batch record.
type FailureKind string

const (
	FailureNone          FailureKind = ""
	FailureTimeout       FailureKind = "timeout"
	FailureMergeConflict FailureKind = "merge_conflict"
	FailureRunError      FailureKind = "run_error"
	FailurePanic         FailureKind = "panic"
)
