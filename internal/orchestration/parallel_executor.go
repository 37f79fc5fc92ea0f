package orchestration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// roundExecutor dispatches one round's nodes concurrently and collects their
// results in dispatch order. Concurrency within a round is bounded by the
// group size itself; entity-level parallelism is bounded at the batch layer.
//
// CRITICAL: results are written into a slice indexed by dispatch position,
// one goroutine per slot, so no locking is needed and the reducer sees a
// deterministic order regardless of completion order.
type roundExecutor struct{}

func newRoundExecutor() *roundExecutor {
	return &roundExecutor{}
}

// runRound executes nodes[i] with inputs[i] for every i and returns exactly
// len(nodes) results. A result is never nil: run function errors, contract
// violations and panics are all folded into TaskResult.Err so one bad node
// cannot take down its siblings or the round.
func (e *roundExecutor) runRound(ctx context.Context, nodes []contracts.NodeSpec, inputs []*contracts.TaskInput) []*contracts.TaskResult {
	results := make([]*contracts.TaskResult, len(nodes))

	var wg sync.WaitGroup
	for i := range nodes {
		wg.Add(1)
		go func(idx int, spec contracts.NodeSpec, in *contracts.TaskInput) {
			defer wg.Done()
			results[idx] = e.runOne(ctx, spec, in)
		}(i, nodes[i], inputs[i])
	}
	wg.Wait()

	return results
}

// runOne executes a single node and normalizes its outcome.
func (e *roundExecutor) runOne(ctx context.Context, spec contracts.NodeSpec, in *contracts.TaskInput) (res *contracts.TaskResult) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = failedResult(spec.Name, started, fmt.Sprintf("panic: %v", r), false)
		}
	}()

	result, err := spec.Run(ctx, in)
	switch {
	case err != nil:
		retryable := ctx.Err() == nil
		return failedResult(spec.Name, started, err.Error(), retryable)
	case result == nil:
		return failedResult(spec.Name, started, "run function returned no result", false)
	}

	if result.Node == "" {
		result.Node = spec.Name
	}
	if result.Duration == 0 {
		result.Duration = time.Since(started)
	}
	return result
}

// failedResult builds the error-carrying result for a node that produced
// nothing mergeable. Cost stays zero: a failed call reports no spend.
func failedResult(node contracts.NodeID, started time.Time, msg string, retryable bool) *contracts.TaskResult {
	return &contracts.TaskResult{
		Node:     node,
		Duration: time.Since(started),
		Err: &contracts.NodeError{
			Node:      node,
			Message:   msg,
			Retryable: retryable,
			At:        time.Now().UTC(),
		},
	}
}
