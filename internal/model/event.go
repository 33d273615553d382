package model

import (
	"encoding/json"
	"time"
)

// Event is a persisted audit record of a resource change, scoped to an
// organization and correlated by trace ID.
type Event struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organizationId"`
	TraceID        string          `json:"traceId,omitempty"`
	Topic          string          `json:"topic"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ExecutionStatus is the outcome of one flow execution step.
type ExecutionStatus string

const (
	ExecStarted ExecutionStatus = "started"
	ExecSuccess ExecutionStatus = "success"
	ExecError   ExecutionStatus = "error"
)

// IsValid checks whether the status is a known value.
func (s ExecutionStatus) IsValid() bool {
	switch s {
	case ExecStarted, ExecSuccess, ExecError:
		return true
	}
	return false
}

// Execution is a record of the engine running (part of) a flow, reported
// back by the engine-side scripts.
type Execution struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organizationId"`
	TraceID        string          `json:"traceId"`
	FlowID         string          `json:"flowId,omitempty"`
	NodeID         string          `json:"nodeId,omitempty"`
	Status         ExecutionStatus `json:"status"`
	Details        json.RawMessage `json:"details,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}
