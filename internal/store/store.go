package store

import (
	"context"

	"github.com/mysbc/sbcadmin/internal/model"
)

// Store defines the persistence interface for the platform.
type Store interface {
	// Organizations
	CreateOrganization(ctx context.Context, org *model.Organization) error
	GetOrganization(ctx context.Context, id string) (*model.Organization, error)
	ListOrganizations(ctx context.Context) ([]*model.Organization, error)
	UpdateOrganization(ctx context.Context, org *model.Organization) error
	SetOrganizationBlocked(ctx context.Context, id string, blocked bool, reason string) (*model.Organization, error)
	DeleteOrganization(ctx context.Context, id string) error

	// Trunks
	UpsertTrunk(ctx context.Context, trunk *model.Trunk) error
	GetTrunk(ctx context.Context, orgID, id string) (*model.Trunk, error)
	ListTrunks(ctx context.Context, orgID string) ([]*model.Trunk, error)
	DeleteTrunk(ctx context.Context, orgID, id string) error

	// Inbound routes
	UpsertInbound(ctx context.Context, inbound *model.Inbound) error
	GetInbound(ctx context.Context, orgID, id string) (*model.Inbound, error)
	ListInbounds(ctx context.Context, orgID string) ([]*model.Inbound, error)
	DeleteInbound(ctx context.Context, orgID, id string) error

	// Flows
	CreateFlow(ctx context.Context, flow *model.Flow) error
	GetFlow(ctx context.Context, orgID, id string) (*model.Flow, error)
	GetFlowForUpdate(ctx context.Context, orgID, id string) (*model.Flow, error)
	ListFlows(ctx context.Context, orgID string, filter model.FlowFilter) ([]*model.Flow, int, error)
	UpdateFlow(ctx context.Context, flow *model.Flow) error
	DeleteFlow(ctx context.Context, orgID, id string) error

	// Flow versions
	SaveFlowVersion(ctx context.Context, version *model.FlowVersion) error
	GetFlowVersion(ctx context.Context, orgID, flowID string, version int) (*model.FlowVersion, error)
	ListFlowVersions(ctx context.Context, orgID, flowID string) ([]*model.FlowVersion, error)

	// Audio
	CreateAudio(ctx context.Context, audio *model.Audio) error
	GetAudio(ctx context.Context, orgID, id string) (*model.Audio, error)
	ListAudio(ctx context.Context, orgID string, audioType model.AudioType) ([]*model.Audio, error)
	DeleteAudio(ctx context.Context, orgID, id string) error

	// CSAT surveys
	UpsertSurvey(ctx context.Context, survey *model.CsatSurvey) error
	GetSurvey(ctx context.Context, orgID, id string) (*model.CsatSurvey, error)
	GetSurveyBySlug(ctx context.Context, slug string) (*model.CsatSurvey, error)
	ListSurveys(ctx context.Context, orgID string) ([]*model.CsatSurvey, error)
	DeleteSurvey(ctx context.Context, orgID, id string) error
	ReplaceSurveyQuestions(ctx context.Context, surveyID string, questions []*model.CsatQuestion) error
	CreateResponse(ctx context.Context, response *model.CsatResponse) error
	ListResponses(ctx context.Context, orgID, surveyID string) ([]*model.CsatResponse, error)

	// Quotas
	GetQuota(ctx context.Context, orgID, month string) (*model.Quota, error)
	AddQuotaUsage(ctx context.Context, orgID, month string, ttsUnits, flowExec int) (*model.Quota, error)

	// Events and executions
	RecordEvent(ctx context.Context, event *model.Event) error
	ListEvents(ctx context.Context, orgID string, limit int) ([]*model.Event, error)
	RecordExecution(ctx context.Context, exec *model.Execution) error
	ListExecutions(ctx context.Context, orgID, traceID string, limit int) ([]*model.Execution, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
