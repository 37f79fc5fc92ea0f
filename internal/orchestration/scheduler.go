package orchestration

import (
	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// nodeRun is the per-run execution state of one collection node.
type nodeRun struct {
	spec    contracts.NodeSpec
	deps    []contracts.NodeID
	next    []contracts.NodeID
	pending int
	state   contracts.NodeState
}

// runTable tracks node states and pending counts for one engine run. The
// graph itself stays immutable; every run gets its own table. Not safe for
// concurrent use: the engine mutates it only between rounds.
type runTable struct {
	nodes map[contracts.NodeID]*nodeRun
}

// newRunTable copies the graph's collection nodes into a fresh table with
// template pending counts. Final nodes are excluded: the engine dispatches
// them explicitly during finalization.
func newRunTable(g *Graph) *runTable {
	t := &runTable{nodes: make(map[contracts.NodeID]*nodeRun, len(g.collect))}
	for _, id := range g.collect {
		node := g.nodes[id]
		t.nodes[id] = &nodeRun{
			spec:    node.spec,
			deps:    node.deps,
			next:    node.next,
			pending: node.pending,
			state:   contracts.NodePending,
		}
	}
	return t
}

// ready returns the maximal set of dispatchable nodes: pending count zero and
// not yet run. Sorted by name so dispatch order is deterministic.
func (t *runTable) ready() []contracts.NodeID {
	var out []contracts.NodeID
	for id, node := range t.nodes {
		if node.pending == 0 && (node.state == contracts.NodePending || node.state == contracts.NodeReady) {
			out = append(out, id)
		}
	}
	sortIDs(out)
	return out
}

// markRunning transitions a dispatched node to running.
func (t *runTable) markRunning(id contracts.NodeID) {
	if node, ok := t.nodes[id]; ok {
		node.state = contracts.NodeRunning
	}
}

// markDone records a node's outcome and unblocks its dependents. A failed
// node still decrements: downstream nodes run best-effort with whatever
// outputs exist, so one failure never deadlocks the round loop.
func (t *runTable) markDone(id contracts.NodeID, failed bool) {
	node, ok := t.nodes[id]
	if !ok {
		return
	}
	if failed {
		node.state = contracts.NodeFailed
	} else {
		node.state = contracts.NodeDone
	}
	for _, nextID := range node.next {
		if next, ok := t.nodes[nextID]; ok && next.pending > 0 {
			next.pending--
		}
	}
}

// reopen resets a re-run group plus its in-table descendants back to pending.
// A reopened node waits only for deps that are themselves reopened; deps
// outside the set already merged their outputs into state.
func (t *runTable) reopen(group []contracts.NodeID) {
	set := make(map[contracts.NodeID]bool, len(group))
	queue := make([]contracts.NodeID, 0, len(group))
	for _, id := range group {
		if _, ok := t.nodes[id]; ok && !set[id] {
			set[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, nextID := range t.nodes[id].next {
			if _, ok := t.nodes[nextID]; ok && !set[nextID] {
				set[nextID] = true
				queue = append(queue, nextID)
			}
		}
	}

	for id := range set {
		node := t.nodes[id]
		node.state = contracts.NodePending
		node.pending = 0
		for _, dep := range node.deps {
			if set[dep] {
				node.pending++
			}
		}
	}
}

// exhausted reports whether every node has reached a terminal state.
func (t *runTable) exhausted() bool {
	for _, node := range t.nodes {
		if node.state != contracts.NodeDone && node.state != contracts.NodeFailed {
			return false
		}
	}
	return true
}
