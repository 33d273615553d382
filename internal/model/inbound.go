package model

import (
	"encoding/json"
	"time"
)

// InboundContext is the dialplan context an inbound route is evaluated in.
type InboundContext string

const (
	ContextPublic  InboundContext = "public"
	ContextDefault InboundContext = "default"
)

// IsValid checks whether the context is a known value.
func (c InboundContext) IsValid() bool {
	switch c {
	case ContextPublic, ContextDefault:
		return true
	}
	return false
}

// Inbound maps an incoming dialed number or URI to a target flow. Priority
// drives the evaluation order inside the engine: lower numbers are written
// with a lower zero-padded filename prefix and therefore load first.
type Inbound struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organizationId"`
	Name           string          `json:"name"`
	DidOrURI       string          `json:"didOrUri"`
	CallerIDNumber string          `json:"callerIdNumber,omitempty"`
	NetworkAddr    string          `json:"networkAddr,omitempty"`
	Context        InboundContext  `json:"context"`
	Priority       int             `json:"priority"`
	MatchRules     json.RawMessage `json:"matchRules,omitempty"`
	TargetFlowID   string          `json:"targetFlowId,omitempty"`
	Enabled        bool            `json:"enabled"`
	PublishedAt    *time.Time      `json:"publishedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
