package contracts

import "context"

// Engine coordinates one entity run: rounds of concurrently executed task
// units, a deterministic single-threaded merge after each round, and a gate
// decision between rounds.
type Engine interface {
	// Run executes the entity's graph until the gate finalizes.
	//
	// The returned state is non-nil whenever the run started; on failure
	// state.TerminalErr records why and the error wraps a sentinel:
	// - ErrMergeConflict: an output key was written twice in one round
	// - ErrNoRawInputs: collection produced nothing to analyze
	// - context.Canceled/DeadlineExceeded: cancelled between rounds
	//
	// Per-node failures never surface as a Run error; they are recorded in
	// state.NodeErrs and weighed by the gate.
	Run(ctx context.Context, entity EntityID, policy RunPolicy) (*State, error)
}
