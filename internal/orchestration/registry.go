package orchestration

import (
	"fmt"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// Registry maps node names to their specs. Registration is explicit and
// tag-based: the engine never discovers task units by reflection or import
// side effects.
type Registry struct {
	specs map[contracts.NodeID]contracts.NodeSpec
	order []contracts.NodeID
}

// NewRegistry creates an empty node registry.
func NewRegistry() *Registry {
	return &Registry{
		specs: make(map[contracts.NodeID]contracts.NodeSpec),
	}
}

// Register adds a node spec. An empty OutputKey defaults to the node name.
// Returns ErrInvalidInput for a nameless or runless spec and ErrDuplicateNode
// when the name is taken.
func (r *Registry) Register(spec contracts.NodeSpec) error {
	if spec.Name == "" || spec.Run == nil {
		return contracts.ErrInvalidInput
	}

	if _, exists := r.specs[spec.Name]; exists {
		return fmt.Errorf("node %s: %w", spec.Name, contracts.ErrDuplicateNode)
	}

	if spec.OutputKey == "" {
		spec.OutputKey = spec.Name
	}

	r.specs[spec.Name] = spec
	r.order = append(r.order, spec.Name)
	return nil
}

// MustRegister registers a spec and panics on error. For wiring code where a
// registration failure is a programming bug.
func (r *Registry) MustRegister(spec contracts.NodeSpec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

// Get returns the spec for a node name.
func (r *Registry) Get(name contracts.NodeID) (contracts.NodeSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// List returns all specs in registration order.
func (r *Registry) List() []contracts.NodeSpec {
	out := make([]contracts.NodeSpec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name])
	}
	return out
}

// Names returns all node names in registration order.
func (r *Registry) Names() []contracts.NodeID {
	return append([]contracts.NodeID(nil), r.order...)
}
