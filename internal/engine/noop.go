package engine

import (
	"context"

	"github.com/mysbc/sbcadmin/internal/model"
)

// Noop satisfies Adapter for environments without an engine. Writes succeed
// with Applied=false so callers can tell nothing actually reached a switch.
type Noop struct{}

func noopResult() (ApplyResult, error) {
	return ApplyResult{EngineRef: "noop", Applied: false, Detail: "no engine configured"}, nil
}

func (Noop) UpsertTrunk(context.Context, *model.Trunk) (ApplyResult, error) { return noopResult() }
func (Noop) RemoveTrunk(context.Context, string, string) (ApplyResult, error) {
	return noopResult()
}
func (Noop) UpsertInbound(context.Context, *model.Inbound) (ApplyResult, error) {
	return noopResult()
}
func (Noop) RemoveInbound(context.Context, *model.Inbound) (ApplyResult, error) {
	return noopResult()
}
func (Noop) PublishFlow(context.Context, *model.Flow) (ApplyResult, error)   { return noopResult() }
func (Noop) UnpublishFlow(context.Context, *model.Flow) (ApplyResult, error) { return noopResult() }
func (Noop) WriteSurveyScript(context.Context, *model.CsatSurvey) (ApplyResult, error) {
	return noopResult()
}
func (Noop) Reload(context.Context) error   { return nil }
func (Noop) Health(context.Context) Health  { return Health{OK: true, Detail: "noop"} }
func (Noop) TestGateway(ctx context.Context, orgID, name string) (GatewayStatus, error) {
	return GatewayStatus{Name: name}, nil
}
