package model

import (
	"encoding/json"
	"time"
)

// FlowStatus represents the lifecycle state of a flow.
type FlowStatus string

const (
	FlowDraft     FlowStatus = "draft"
	FlowPublished FlowStatus = "published"
)

// String returns the string representation of the status.
func (s FlowStatus) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s FlowStatus) IsValid() bool {
	switch s {
	case FlowDraft, FlowPublished:
		return true
	}
	return false
}

// Node is one step in a flow graph. Type must name a registered node type;
// Data carries the type-specific configuration and is decoded into a typed
// variant during validation and generation.
type Node struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Name string          `json:"name,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Edge is a directed transition between two nodes. Source and Target must
// reference node IDs present in the same graph.
type Edge struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Target    string          `json:"target"`
	Condition json.RawMessage `json:"condition,omitempty"`
}

// Graph is the call-handling graph of a flow: a set of nodes unique by ID
// and a set of directed edges. Pure data; validation lives in flownode.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// NodeByID returns the node with the given ID, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// OutgoingTargets returns the set of target node IDs of edges leaving the
// given node.
func (g *Graph) OutgoingTargets(nodeID string) map[string]bool {
	targets := make(map[string]bool)
	for _, e := range g.Edges {
		if e.Source == nodeID {
			targets[e.Target] = true
		}
	}
	return targets
}

// Flow is a versioned, organization-scoped call-handling graph.
type Flow struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	Name           string     `json:"name"`
	Status         FlowStatus `json:"status"`
	Version        int        `json:"version"`
	Graph          Graph      `json:"graph"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	PublishedAt    *time.Time `json:"publishedAt,omitempty"`
}

// FlowVersion is an immutable snapshot of a flow's graph taken at publish time.
type FlowVersion struct {
	ID             int64     `json:"id"`
	FlowID         string    `json:"flowId"`
	OrganizationID string    `json:"organizationId"`
	Version        int       `json:"version"`
	Graph          Graph     `json:"graph"`
	EngineRef      string    `json:"engineRef,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// FlowFilter holds criteria for querying flows.
type FlowFilter struct {
	Status FlowStatus `json:"status,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}
