package flownode

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mysbc/sbcadmin/internal/model"
)

// ValidateConnectivity checks the graph's shape independently of node data:
// exactly one start node, at least one end node, no dangling edges, and
// every node reachable from start. Branches may terminate in non-end leaves
// (transfer, callcenter, hangup); StuckNodes surfaces those as advisory.
func ValidateConnectivity(graph *model.Graph) []error {
	var errs []error
	if len(graph.Nodes) == 0 {
		return []error{fmt.Errorf("flow graph is empty")}
	}

	byID := make(map[string]*model.Node, len(graph.Nodes))
	for _, n := range graph.Nodes {
		if _, dup := byID[n.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate node id: %s", n.ID))
			continue
		}
		byID[n.ID] = n
	}

	var starts, ends []string
	for _, n := range graph.Nodes {
		switch n.Type {
		case TypeStart:
			starts = append(starts, n.ID)
		case TypeEnd:
			ends = append(ends, n.ID)
		}
	}
	switch {
	case len(starts) == 0:
		errs = append(errs, fmt.Errorf("flow must contain a start node"))
	case len(starts) > 1:
		sort.Strings(starts)
		errs = append(errs, fmt.Errorf("flow must contain exactly one start node, found %d (%s)",
			len(starts), strings.Join(starts, ", ")))
	}
	if len(ends) == 0 {
		errs = append(errs, fmt.Errorf("flow must contain an end node"))
	}

	// Dangling edges are hard errors rather than silently ignored hops.
	fwd := make(map[string][]string)
	for _, e := range graph.Edges {
		var dangling bool
		if _, ok := byID[e.Source]; !ok {
			errs = append(errs, fmt.Errorf("edge %s references missing source node: %s", e.ID, e.Source))
			dangling = true
		}
		if _, ok := byID[e.Target]; !ok {
			errs = append(errs, fmt.Errorf("edge %s references missing target node: %s", e.ID, e.Target))
			dangling = true
		}
		if dangling {
			continue
		}
		fwd[e.Source] = append(fwd[e.Source], e.Target)
	}

	// Reachability only makes sense against a single well-defined start.
	if len(starts) != 1 {
		return errs
	}

	reached := traverse(starts[0], fwd)
	var unreachable []string
	for _, n := range graph.Nodes {
		if !reached[n.ID] {
			unreachable = append(unreachable, n.ID)
		}
	}
	if len(unreachable) > 0 {
		sort.Strings(unreachable)
		errs = append(errs, fmt.Errorf("graph has unreachable nodes: %s", strings.Join(unreachable, ", ")))
	}
	return errs
}

// StuckNodes returns the ids of nodes reachable from start that have no path
// to any end node. Advisory only: branches routinely terminate in transfer,
// callcenter or hangup leaves.
func StuckNodes(graph *model.Graph) []string {
	byID := make(map[string]*model.Node, len(graph.Nodes))
	for _, n := range graph.Nodes {
		byID[n.ID] = n
	}

	var start string
	var ends []string
	for _, n := range graph.Nodes {
		switch n.Type {
		case TypeStart:
			if start != "" {
				return nil
			}
			start = n.ID
		case TypeEnd:
			ends = append(ends, n.ID)
		}
	}
	if start == "" || len(ends) == 0 {
		return nil
	}

	fwd := make(map[string][]string)
	rev := make(map[string][]string)
	for _, e := range graph.Edges {
		if _, ok := byID[e.Source]; !ok {
			continue
		}
		if _, ok := byID[e.Target]; !ok {
			continue
		}
		fwd[e.Source] = append(fwd[e.Source], e.Target)
		rev[e.Target] = append(rev[e.Target], e.Source)
	}

	reached := traverse(start, fwd)
	finishes := make(map[string]bool)
	for _, end := range ends {
		for id := range traverse(end, rev) {
			finishes[id] = true
		}
	}
	var stuck []string
	for _, n := range graph.Nodes {
		if reached[n.ID] && !finishes[n.ID] {
			stuck = append(stuck, n.ID)
		}
	}
	sort.Strings(stuck)
	return stuck
}

func traverse(from string, adj map[string][]string) map[string]bool {
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adj[id] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return seen
}
