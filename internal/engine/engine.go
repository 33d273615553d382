// Package engine writes generated artifacts where the telephony engine
// picks them up and drives reloads over its control CLI. Everything is
// behind the Adapter interface so environments without an engine (tests,
// staging API) can run against the noop implementation.
package engine

import (
	"context"

	"github.com/mysbc/sbcadmin/internal/model"
)

// ApplyResult reports what happened to an artifact after it was written.
// Applied=false means the file is on disk but the engine has not confirmed
// picking it up (reload disabled, or reload failed in non-strict mode), so
// desired and live state may differ until the next successful reload.
type ApplyResult struct {
	EngineRef string `json:"engineRef"`
	Applied   bool   `json:"applied"`
	Detail    string `json:"detail,omitempty"`
}

// GatewayStatus is the live registration state of one trunk gateway.
type GatewayStatus struct {
	Name       string `json:"name"`
	Running    bool   `json:"running"`
	Registered bool   `json:"registered"`
	Raw        string `json:"raw,omitempty"`
}

// Health reports whether the engine control channel answers.
type Health struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Adapter is the engine-facing side of every resource service.
type Adapter interface {
	UpsertTrunk(ctx context.Context, trunk *model.Trunk) (ApplyResult, error)
	RemoveTrunk(ctx context.Context, orgID, trunkName string) (ApplyResult, error)
	UpsertInbound(ctx context.Context, inbound *model.Inbound) (ApplyResult, error)
	RemoveInbound(ctx context.Context, inbound *model.Inbound) (ApplyResult, error)
	PublishFlow(ctx context.Context, flow *model.Flow) (ApplyResult, error)
	UnpublishFlow(ctx context.Context, flow *model.Flow) (ApplyResult, error)
	WriteSurveyScript(ctx context.Context, survey *model.CsatSurvey) (ApplyResult, error)
	Reload(ctx context.Context) error
	Health(ctx context.Context) Health
	TestGateway(ctx context.Context, orgID, gatewayName string) (GatewayStatus, error)
}
