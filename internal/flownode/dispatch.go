package flownode

import (
	"fmt"

	"github.com/mysbc/sbcadmin/internal/model"
)

// ValidateNode runs the strict per-node pass for a single node: the type must
// be registered, its data must decode, and its validator must accept it.
func ValidateNode(reg *Registry, node *model.Node, graph *model.Graph) error {
	def, ok := reg.Get(node.Type)
	if !ok {
		return fmt.Errorf("unknown node type: %s (node: %s)", node.Type, node.ID)
	}
	if def.Decode != nil {
		if err := def.Decode(node); err != nil {
			return err
		}
	}
	if def.Validate != nil {
		if err := def.Validate(node, graph); err != nil {
			return err
		}
	}
	return nil
}

// ValidateNodes runs ValidateNode over the whole graph, stopping at the first
// failure. Publishing uses this fail-fast form; the editor uses ValidateFlow
// to collect everything.
func ValidateNodes(reg *Registry, graph *model.Graph) error {
	for _, node := range graph.Nodes {
		if err := ValidateNode(reg, node, graph); err != nil {
			return err
		}
	}
	return nil
}
