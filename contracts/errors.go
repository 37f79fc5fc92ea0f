package contracts

import "errors"

// Sentinel errors for the research engine. Operational layers wrap these with
// additional context; callers branch with errors.Is.
var (
	// Graph construction errors
	ErrGraphCycle         = errors.New("cycle in task graph beyond the declared iteration edge")
	ErrUnknownNode        = errors.New("node not registered")
	ErrDuplicateNode      = errors.New("duplicate node name")
	ErrDuplicateOutputKey = errors.New("duplicate output key in concurrent group")
	ErrInputNotCovered    = errors.New("declared input key produced by no node")
	ErrIterationEdge      = errors.New("invalid iteration edge")

	// Merge errors
	ErrMergeConflict = errors.New("task output key written twice in one round")
	ErrCostDecrease  = errors.New("accumulated cost may not decrease")

	// Run errors
	ErrNoRawInputs  = errors.New("no raw inputs collected; nothing to analyze")
	ErrRunFinalized = errors.New("run already finalized")

	// Batch errors
	ErrEntityTimeout = errors.New("entity run exceeded wall-clock timeout")
	ErrNoEntities    = errors.New("no entities to run")
	ErrUnknownField  = errors.New("unknown comparison field")

	// Budget errors
	ErrBudgetExceeded = errors.New("cost ceiling exceeded")

	// Collaborator errors
	ErrSearchEmpty  = errors.New("search returned no results")
	ErrModelUnknown = errors.New("model not in catalog")
	ErrRateLimited  = errors.New("rate limited after retries")

	// Input validation errors
	ErrInvalidInput = errors.New("invalid input: nil or malformed")
)
