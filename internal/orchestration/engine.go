package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/audit"
)

// defaultCharBudget bounds the prompt context handed to each task unit when
// the caller does not set one.
const defaultCharBudget = 20000

// engine implements contracts.Engine with the core execution discipline:
// concurrent I/O inside a round, strictly sequential merge between rounds.
// Tasks never see the live state; each round works against a snapshot and
// only the reducer advances it. One run is single-goroutine except for the
// round dispatch, so the engine needs no locks.
type engine struct {
	graph      *Graph
	reducer    contracts.Reducer
	gate       contracts.Gate
	selector   contracts.Selector
	executor   *roundExecutor
	audit      *audit.Logger
	charBudget int
	onRound    func(*contracts.State)
}

// EngineDeps carries the engine's collaborators. Graph, Reducer, Gate and
// Selector are required; Audit defaults to a nop logger and CharBudget to
// defaultCharBudget.
type EngineDeps struct {
	Graph      *Graph
	Reducer    contracts.Reducer
	Gate       contracts.Gate
	Selector   contracts.Selector
	Audit      *audit.Logger
	CharBudget int
	OnRound    func(*contracts.State)
}

// NewEngine creates an engine from explicit dependencies.
func NewEngine(deps EngineDeps) (contracts.Engine, error) {
	switch {
	case deps.Graph == nil:
		return nil, fmt.Errorf("engine: nil graph: %w", contracts.ErrInvalidInput)
	case deps.Reducer == nil:
		return nil, fmt.Errorf("engine: nil reducer: %w", contracts.ErrInvalidInput)
	case deps.Gate == nil:
		return nil, fmt.Errorf("engine: nil gate: %w", contracts.ErrInvalidInput)
	case deps.Selector == nil:
		return nil, fmt.Errorf("engine: nil selector: %w", contracts.ErrInvalidInput)
	}

	if deps.Audit == nil {
		deps.Audit = audit.NewNop()
	}
	if deps.CharBudget <= 0 {
		deps.CharBudget = defaultCharBudget
	}

	return &engine{
		graph:      deps.Graph,
		reducer:    deps.Reducer,
		gate:       deps.Gate,
		selector:   deps.Selector,
		executor:   newRoundExecutor(),
		audit:      deps.Audit,
		charBudget: deps.CharBudget,
		onRound:    deps.OnRound,
	}, nil
}

// Run executes the full collect-evaluate loop for one entity and returns the
// final state. The returned state is non-nil whenever a run actually started,
// even on failure, so callers can report partial findings and cost.
func (e *engine) Run(ctx context.Context, entity contracts.EntityID, policy contracts.RunPolicy) (*contracts.State, error) {
	if entity == "" {
		return nil, fmt.Errorf("engine: empty entity: %w", contracts.ErrInvalidInput)
	}
	if policy.MaxIterations <= 0 {
		policy.MaxIterations = 1
	}

	state := contracts.NewState(contracts.RunID(uuid.NewString()), entity)
	log := e.audit.With(
		zap.String("run_id", string(state.RunID)),
		zap.String("entity", string(entity)),
	)
	log.Event(audit.EventRunStarted,
		zap.Int("max_iterations", policy.MaxIterations),
		zap.Float64("quality_threshold", policy.QualityThreshold),
		zap.Bool("deep", policy.Deep),
	)

	table := newRunTable(e.graph)
	var runErr error

collect:
	for {
		if err := ctx.Err(); err != nil {
			runErr = e.terminate(state, "engine", eris.Wrap(err, "engine: run aborted"))
			break collect
		}

		ready := table.ready()
		if len(ready) > 0 {
			merged, err := e.runRound(ctx, state, table, ready, policy, log)
			if err != nil {
				runErr = err
				break collect
			}
			state = merged
			continue
		}

		// Fan-in complete: evaluate.
		if len(state.RawInputs) == 0 && len(state.TaskOutputs) == 0 {
			runErr = e.terminate(state, "engine",
				eris.Wrap(contracts.ErrNoRawInputs, "engine: collection produced nothing"))
		}

		state.Iteration++
		state.Phase = contracts.PhaseEvaluating
		verdict := e.gate.Evaluate(state, policy)
		state.QualityScore = verdict.Score
		log.Event(audit.EventGateDecision,
			zap.Int("iteration", state.Iteration),
			zap.Float64("score", verdict.Score),
			zap.String("decision", verdict.Decision.String()),
			zap.String("reason", string(verdict.Reason)),
		)

		if verdict.Decision == contracts.DecideFinalize {
			break collect
		}

		group := e.selector.Select(state, policy)
		if len(group) == 0 {
			// Nothing left worth re-running; treat as converged.
			break collect
		}
		if err := e.graph.ValidateGroup(group); err != nil {
			runErr = e.terminate(state, "engine", eris.Wrap(err, "engine: invalid re-run group"))
			break collect
		}
		table.reopen(group)
		state.Phase = contracts.PhaseCollecting
	}

	state.Phase = contracts.PhaseFinalizing
	if state.TerminalErr == nil {
		state = e.runFinalNodes(ctx, state, log)
	}

	log.Event(audit.EventRunFinalized,
		zap.Int("iterations", state.Iteration),
		zap.Float64("score", state.QualityScore),
		zap.Float64("cost_usd", state.CostUSD),
		zap.Int("node_errors", len(state.NodeErrs)),
		zap.Bool("terminal", state.TerminalErr != nil),
	)

	return state, runErr
}

// runRound dispatches one round and merges its results into a fresh state.
// The input state is not modified; on success the merged successor state is
// returned.
func (e *engine) runRound(ctx context.Context, state *contracts.State, table *runTable, ready []contracts.NodeID, policy contracts.RunPolicy, log *audit.Logger) (*contracts.State, error) {
	round := state.Iteration + 1
	snap := state.Clone()

	specs := make([]contracts.NodeSpec, len(ready))
	inputs := make([]*contracts.TaskInput, len(ready))
	for i, id := range ready {
		spec, _ := e.graph.Spec(id)
		specs[i] = spec
		inputs[i] = &contracts.TaskInput{
			State:      snap,
			Deps:       resolveDeps(snap, spec.Needs),
			Role:       roleFor(spec, policy),
			Round:      round,
			CharBudget: e.charBudget,
		}
		table.markRunning(id)
	}

	log.Event(audit.EventRoundStarted,
		zap.Int("round", round),
		zap.Int("nodes", len(ready)),
		zap.String("group", joinIDs(ready)),
	)

	started := time.Now()
	results := e.executor.runRound(ctx, specs, inputs)

	merged, err := e.reducer.Merge(state, results)
	if err != nil {
		for i := range ready {
			table.markDone(ready[i], true)
		}
		return nil, e.terminate(state, "reducer", eris.Wrap(err, "engine: merge round"))
	}

	var failed int
	for i := range ready {
		nodeFailed := results[i].Err != nil
		table.markDone(ready[i], nodeFailed)
		if nodeFailed {
			failed++
			log.Warn(audit.EventNodeFailed,
				zap.Int("round", round),
				zap.String("node", string(ready[i])),
				zap.String("error", results[i].Err.Message),
				zap.Bool("retryable", results[i].Err.Retryable),
			)
		}
	}

	log.Event(audit.EventRoundMerged,
		zap.Int("round", round),
		zap.Int("nodes", len(ready)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(started)),
		zap.Float64("cost_usd", merged.CostUSD),
	)

	if e.onRound != nil {
		e.onRound(merged)
	}
	return merged, nil
}

// runFinalNodes executes the finalization tail one node at a time and
// returns the advanced state. A final node's failure is recorded but never
// terminal: the run still seals with whatever was synthesized.
func (e *engine) runFinalNodes(ctx context.Context, state *contracts.State, log *audit.Logger) *contracts.State {
	for _, id := range e.graph.FinalNodes() {
		spec, _ := e.graph.Spec(id)
		snap := state.Clone()
		in := &contracts.TaskInput{
			State:      snap,
			Deps:       resolveDeps(snap, spec.Needs),
			Role:       spec.Role,
			Round:      state.Iteration,
			CharBudget: e.charBudget,
		}
		results := e.executor.runRound(ctx, []contracts.NodeSpec{spec}, []*contracts.TaskInput{in})
		merged, err := e.reducer.Merge(state, results)
		if err != nil {
			state.NodeErrs = append(state.NodeErrs, &contracts.NodeError{
				Node:    id,
				Message: err.Error(),
				At:      time.Now().UTC(),
			})
			continue
		}
		state = merged
		if results[0].Err != nil {
			log.Warn(audit.EventNodeFailed,
				zap.String("node", string(id)),
				zap.String("error", results[0].Err.Message),
			)
		}
	}
	return state
}

// terminate records a terminal error on the state and returns the run error.
func (e *engine) terminate(state *contracts.State, node contracts.NodeID, err error) error {
	if state.TerminalErr == nil {
		state.TerminalErr = &contracts.NodeError{
			Node:    node,
			Message: err.Error(),
			At:      time.Now().UTC(),
		}
	}
	return err
}

// resolveDeps collects the findings a node declared in Needs. Pseudo-inputs
// resolve through the state itself; a missing finding (failed producer) is
// simply absent and the task runs best-effort.
func resolveDeps(state *contracts.State, needs []contracts.NodeID) map[contracts.NodeID]*contracts.Finding {
	deps := make(map[contracts.NodeID]*contracts.Finding, len(needs))
	for _, need := range needs {
		if need == contracts.KeyRawInputs || need == contracts.KeyEntity {
			continue
		}
		if finding, ok := state.TaskOutputs[need]; ok {
			deps[need] = finding
		}
	}
	return deps
}

// roleFor picks the model role for a dispatch: the spec's declared role,
// escalated one tier in deep mode.
func roleFor(spec contracts.NodeSpec, policy contracts.RunPolicy) contracts.ModelRole {
	if policy.Deep {
		return contracts.EscalateRole(spec.Role)
	}
	return spec.Role
}

func joinIDs(ids []contracts.NodeID) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += string(id)
	}
	return out
}
