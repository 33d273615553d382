package events

import (
	"context"

	"github.com/mysbc/sbcadmin/internal/engine"
	"github.com/mysbc/sbcadmin/internal/model"
)

// Event topic constants
const (
	TopicOrgCreated = "sbc.org.created"
	TopicOrgUpdated = "sbc.org.updated"
	TopicOrgBlocked = "sbc.org.blocked"
	TopicOrgDeleted = "sbc.org.deleted"

	TopicTrunkUpserted = "sbc.trunk.upserted"
	TopicTrunkDeleted  = "sbc.trunk.deleted"

	TopicInboundUpserted = "sbc.inbound.upserted"
	TopicInboundDeleted  = "sbc.inbound.deleted"

	TopicFlowCreated     = "sbc.flow.created"
	TopicFlowUpdated     = "sbc.flow.updated"
	TopicFlowPublished   = "sbc.flow.published"
	TopicFlowUnpublished = "sbc.flow.unpublished"
	TopicFlowRolledBack  = "sbc.flow.rolled_back"
	TopicFlowDeleted     = "sbc.flow.deleted"

	TopicAudioUploaded    = "sbc.audio.uploaded"
	TopicAudioSynthesized = "sbc.audio.synthesized"
	TopicAudioDeleted     = "sbc.audio.deleted"

	TopicSurveyUpserted    = "sbc.survey.upserted"
	TopicSurveyDeleted     = "sbc.survey.deleted"
	TopicResponseSubmitted = "sbc.survey.response_submitted"

	TopicQuotaExceeded = "sbc.quota.exceeded"

	TopicExecutionStarted  = "sbc.execution.started"
	TopicExecutionFinished = "sbc.execution.finished"
)

// Event types

type OrgCreated struct {
	Organization *model.Organization `json:"organization"`
}

type OrgUpdated struct {
	Organization *model.Organization `json:"organization"`
	Changes      map[string]any      `json:"changes"` // field name -> new value
}

type OrgBlocked struct {
	OrgID   string `json:"org_id"`
	Blocked bool   `json:"blocked"`
}

type OrgDeleted struct {
	OrgID string `json:"org_id"`
}

type TrunkUpserted struct {
	Trunk  *model.Trunk       `json:"trunk"`
	Result engine.ApplyResult `json:"result"`
}

type TrunkDeleted struct {
	OrgID   string `json:"org_id"`
	TrunkID string `json:"trunk_id"`
}

type InboundUpserted struct {
	Inbound *model.Inbound     `json:"inbound"`
	Result  engine.ApplyResult `json:"result"`
}

type InboundDeleted struct {
	OrgID     string `json:"org_id"`
	InboundID string `json:"inbound_id"`
}

type FlowCreated struct {
	Flow *model.Flow `json:"flow"`
}

type FlowUpdated struct {
	Flow *model.Flow `json:"flow"`
}

type FlowPublished struct {
	Flow   *model.Flow        `json:"flow"`
	Result engine.ApplyResult `json:"result"`
}

type FlowUnpublished struct {
	OrgID  string `json:"org_id"`
	FlowID string `json:"flow_id"`
}

type FlowRolledBack struct {
	Flow        *model.Flow `json:"flow"`
	FromVersion int         `json:"from_version"`
	ToVersion   int         `json:"to_version"`
}

type FlowDeleted struct {
	OrgID  string `json:"org_id"`
	FlowID string `json:"flow_id"`
}

type AudioUploaded struct {
	Audio *model.Audio `json:"audio"`
}

type AudioSynthesized struct {
	Audio     *model.Audio `json:"audio"`
	CharsUsed int          `json:"chars_used"`
}

type AudioDeleted struct {
	OrgID   string `json:"org_id"`
	AudioID string `json:"audio_id"`
}

type SurveyUpserted struct {
	Survey *model.CsatSurvey `json:"survey"`
}

type SurveyDeleted struct {
	OrgID    string `json:"org_id"`
	SurveyID string `json:"survey_id"`
}

type ResponseSubmitted struct {
	Response *model.CsatResponse `json:"response"`
}

type QuotaExceeded struct {
	OrgID    string `json:"org_id"`
	Resource string `json:"resource"` // "tts_units" or "flow_exec"
	Limit    int64  `json:"limit"`
	Used     int64  `json:"used"`
}

type ExecutionStarted struct {
	Execution *model.Execution `json:"execution"`
}

type ExecutionFinished struct {
	Execution *model.Execution `json:"execution"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
