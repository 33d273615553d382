package model

import "time"

// Default monthly limits applied when an organization has no quota row yet.
const (
	DefaultTTSUnits = 3000
	DefaultFlowExec = 100000
)

// QuotaLimits are the configured monthly ceilings for an organization.
type QuotaLimits struct {
	TTSUnits int `json:"ttsUnits"`
	FlowExec int `json:"flowExec"`
}

// QuotaUsage counts consumption within the month.
type QuotaUsage struct {
	TTSUnitsUsed int `json:"ttsUnitsUsed"`
	FlowExecUsed int `json:"flowExecUsed"`
}

// Quota is one organization's limits and usage for a month ("2026-08").
type Quota struct {
	OrganizationID string      `json:"organizationId"`
	Month          string      `json:"month"`
	Limits         QuotaLimits `json:"limits"`
	Usage          QuotaUsage  `json:"usage"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Remaining returns the unconsumed portion of each limit, floored at zero.
func (q *Quota) Remaining() QuotaLimits {
	rem := QuotaLimits{
		TTSUnits: q.Limits.TTSUnits - q.Usage.TTSUnitsUsed,
		FlowExec: q.Limits.FlowExec - q.Usage.FlowExecUsed,
	}
	if rem.TTSUnits < 0 {
		rem.TTSUnits = 0
	}
	if rem.FlowExec < 0 {
		rem.FlowExec = 0
	}
	return rem
}

// CurrentMonth returns the UTC month key in YYYY-MM form.
func CurrentMonth(now time.Time) string {
	return now.UTC().Format("2006-01")
}
