package orchestration

import (
	"fmt"
	"sort"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// IterationEdge declares the single sanctioned back-edge in an otherwise
// acyclic graph: after the gate votes to continue, execution re-enters at To,
// which must be an ancestor of From. A zero edge means no iteration loop is
// declared and the graph must be a plain DAG.
type IterationEdge struct {
	From contracts.NodeID
	To   contracts.NodeID
}

func (e IterationEdge) declared() bool {
	return e.From != "" || e.To != ""
}

// graphNode is one node with resolved edges. deps and next carry node names,
// not output keys; pending is the template count copied into each run table.
type graphNode struct {
	spec    contracts.NodeSpec
	deps    []contracts.NodeID
	next    []contracts.NodeID
	pending int
}

// Graph is a validated execution graph. Collection nodes run in rounds until
// exhaustion; final nodes run once after the gate decides to finalize.
// A Graph is immutable after Build and safe for concurrent runs.
type Graph struct {
	nodes     map[contracts.NodeID]*graphNode
	collect   []contracts.NodeID
	finals    []contracts.NodeID
	producers map[contracts.NodeID]contracts.NodeID
	loop      IterationEdge
}

// Build resolves and validates a set of node specs into an executable graph.
//
// Validation order:
//  1. Unique node names, non-nil run functions.
//  2. Globally unique output keys. A key collision between any two nodes is
//     rejected at construction, which subsumes the per-round collision rule
//     for statically declared groups.
//  3. Every declared need is either a pseudo-input (KeyRawInputs, KeyEntity)
//     or the output key of some node.
//  4. The need-derived edge set is acyclic.
//  5. A declared iteration edge must connect two known collection nodes and
//     must actually close a loop: From must be reachable from To.
func Build(specs []contracts.NodeSpec, loop IterationEdge) (*Graph, error) {
	if specs == nil {
		return nil, fmt.Errorf("graph: nil specs: %w", contracts.ErrInvalidInput)
	}

	g := &Graph{
		nodes:     make(map[contracts.NodeID]*graphNode, len(specs)),
		producers: make(map[contracts.NodeID]contracts.NodeID, len(specs)),
		loop:      loop,
	}

	// Step 1+2: index nodes and output keys.
	for _, spec := range specs {
		if spec.Name == "" || spec.Run == nil {
			return nil, fmt.Errorf("graph: node %q: %w", spec.Name, contracts.ErrInvalidInput)
		}
		if _, exists := g.nodes[spec.Name]; exists {
			return nil, fmt.Errorf("graph: node %s: %w", spec.Name, contracts.ErrDuplicateNode)
		}
		if spec.OutputKey == "" {
			spec.OutputKey = spec.Name
		}
		if prev, taken := g.producers[spec.OutputKey]; taken {
			return nil, fmt.Errorf("graph: output key %s declared by %s and %s: %w",
				spec.OutputKey, prev, spec.Name, contracts.ErrDuplicateOutputKey)
		}
		g.producers[spec.OutputKey] = spec.Name
		g.nodes[spec.Name] = &graphNode{spec: spec}
		if spec.Final {
			g.finals = append(g.finals, spec.Name)
		} else {
			g.collect = append(g.collect, spec.Name)
		}
	}

	// Step 3: resolve needs into edges. Pseudo-inputs are satisfied by the
	// initial state and produce no edge.
	for _, node := range g.nodes {
		seen := make(map[contracts.NodeID]bool)
		for _, need := range node.spec.Needs {
			if need == contracts.KeyRawInputs || need == contracts.KeyEntity {
				continue
			}
			producer, ok := g.producers[need]
			if !ok {
				return nil, fmt.Errorf("graph: node %s needs %s which no node produces: %w",
					node.spec.Name, need, contracts.ErrInputNotCovered)
			}
			if producer == node.spec.Name {
				return nil, fmt.Errorf("graph: node %s needs its own output: %w",
					node.spec.Name, contracts.ErrGraphCycle)
			}
			if seen[producer] {
				continue
			}
			seen[producer] = true
			node.deps = append(node.deps, producer)
			g.nodes[producer].next = append(g.nodes[producer].next, node.spec.Name)
			node.pending++
		}
		sortIDs(node.deps)
	}
	for _, node := range g.nodes {
		sortIDs(node.next)
	}
	sortIDs(g.collect)
	sortIDs(g.finals)

	// Step 4: cycle detection over the need-derived edges.
	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}

	// Step 5: iteration edge sanity.
	if loop.declared() {
		if err := g.checkLoop(loop); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// checkAcyclic runs DFS with color marking. White = unvisited, gray = on the
// current path, black = fully explored. A gray hit means a cycle.
func (g *Graph) checkAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	colors := make(map[contracts.NodeID]int, len(g.nodes))

	var visit func(id contracts.NodeID) bool
	visit = func(id contracts.NodeID) bool {
		colors[id] = gray
		for _, next := range g.nodes[id].next {
			switch colors[next] {
			case gray:
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		colors[id] = black
		return false
	}

	for id := range g.nodes {
		if colors[id] == white && visit(id) {
			return fmt.Errorf("graph: cycle through %s: %w", id, contracts.ErrGraphCycle)
		}
	}
	return nil
}

// checkLoop validates the declared iteration edge.
func (g *Graph) checkLoop(loop IterationEdge) error {
	from, ok := g.nodes[loop.From]
	if !ok {
		return fmt.Errorf("graph: iteration edge from unknown node %s: %w", loop.From, contracts.ErrIterationEdge)
	}
	to, ok := g.nodes[loop.To]
	if !ok {
		return fmt.Errorf("graph: iteration edge to unknown node %s: %w", loop.To, contracts.ErrIterationEdge)
	}
	if from.spec.Final || to.spec.Final {
		return fmt.Errorf("graph: iteration edge %s->%s touches a final node: %w",
			loop.From, loop.To, contracts.ErrIterationEdge)
	}
	if !g.reachable(loop.To, loop.From) {
		return fmt.Errorf("graph: iteration edge %s->%s does not close a loop: %w",
			loop.From, loop.To, contracts.ErrIterationEdge)
	}
	return nil
}

// reachable reports whether to is reachable from from along forward edges.
func (g *Graph) reachable(from, to contracts.NodeID) bool {
	if from == to {
		return true
	}
	visited := map[contracts.NodeID]bool{from: true}
	queue := []contracts.NodeID{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range g.nodes[id].next {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// ValidateGroup checks a selector-chosen re-run group: every name must be a
// known collection node, appear once, and sit inside the declared iteration
// loop (reachable from the loop entry).
func (g *Graph) ValidateGroup(group []contracts.NodeID) error {
	seen := make(map[contracts.NodeID]bool, len(group))
	for _, id := range group {
		node, ok := g.nodes[id]
		if !ok {
			return fmt.Errorf("group: unknown node %s: %w", id, contracts.ErrUnknownNode)
		}
		if node.spec.Final {
			return fmt.Errorf("group: final node %s cannot be re-run: %w", id, contracts.ErrUnknownNode)
		}
		if seen[id] {
			return fmt.Errorf("group: node %s selected twice: %w", id, contracts.ErrDuplicateOutputKey)
		}
		seen[id] = true
		if g.loop.declared() && !g.reachable(g.loop.To, id) {
			return fmt.Errorf("group: node %s is outside the iteration loop entered at %s: %w",
				id, g.loop.To, contracts.ErrIterationEdge)
		}
	}
	return nil
}

// Spec returns the spec for a node name.
func (g *Graph) Spec(name contracts.NodeID) (contracts.NodeSpec, bool) {
	node, ok := g.nodes[name]
	if !ok {
		return contracts.NodeSpec{}, false
	}
	return node.spec, true
}

// CollectionNodes returns the names of all non-final nodes, sorted.
func (g *Graph) CollectionNodes() []contracts.NodeID {
	return append([]contracts.NodeID(nil), g.collect...)
}

// FinalNodes returns the names of all final nodes, sorted.
func (g *Graph) FinalNodes() []contracts.NodeID {
	return append([]contracts.NodeID(nil), g.finals...)
}

// Loop returns the declared iteration edge.
func (g *Graph) Loop() IterationEdge {
	return g.loop
}

func sortIDs(ids []contracts.NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
