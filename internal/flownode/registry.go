// Package flownode defines the catalog of flow node types and the
// validation passes that run over a flow graph before it is persisted or
// published.
package flownode

import (
	"github.com/mysbc/sbcadmin/internal/model"
)

// Validator checks one node in the context of its graph. It may inspect the
// node's decoded data and the edges leaving the node.
type Validator func(node *model.Node, graph *model.Graph) error

// Definition describes one node type: its machine name, a human label, an
// optional strict decoder for the node's data bag, and an optional
// per-node validator.
type Definition struct {
	Type     string
	Label    string
	Decode   func(node *model.Node) error
	Validate Validator
}

// Registry is a catalog of node type definitions keyed by type name. It is
// built once at startup and read-only afterwards; no locking is required.
type Registry struct {
	defs  map[string]*Definition
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition, overwriting any previous entry for the same type.
func (r *Registry) Register(def *Definition) {
	if _, exists := r.defs[def.Type]; !exists {
		r.order = append(r.order, def.Type)
	}
	r.defs[def.Type] = def
}

// Get returns the definition for a type name.
func (r *Registry) Get(typ string) (*Definition, bool) {
	def, ok := r.defs[typ]
	return def, ok
}

// All returns every definition in registration order.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, typ := range r.order {
		out = append(out, r.defs[typ])
	}
	return out
}
