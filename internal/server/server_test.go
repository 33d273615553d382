package server

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	"github.com/lib/pq"
	"github.com/mysbc/sbcadmin/internal/engine"
	"github.com/mysbc/sbcadmin/internal/model"
	"github.com/mysbc/sbcadmin/internal/store"
)

// mockStore is an in-memory store.Store for handler tests.
type mockStore struct {
	orgs      map[string]*model.Organization
	trunks    map[string]*model.Trunk
	inbounds  map[string]*model.Inbound
	flows     map[string]*model.Flow
	versions  []*model.FlowVersion
	audios    map[string]*model.Audio
	surveys   map[string]*model.CsatSurvey
	responses []*model.CsatResponse
	quotas    map[string]*model.Quota
	events    []*model.Event
	execs     []*model.Execution
}

var _ store.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		orgs:     make(map[string]*model.Organization),
		trunks:   make(map[string]*model.Trunk),
		inbounds: make(map[string]*model.Inbound),
		flows:    make(map[string]*model.Flow),
		audios:   make(map[string]*model.Audio),
		surveys:  make(map[string]*model.CsatSurvey),
		quotas:   make(map[string]*model.Quota),
	}
}

func (m *mockStore) CreateOrganization(_ context.Context, org *model.Organization) error {
	m.orgs[org.ID] = org
	return nil
}

func (m *mockStore) GetOrganization(_ context.Context, id string) (*model.Organization, error) {
	org, ok := m.orgs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return org, nil
}

func (m *mockStore) ListOrganizations(_ context.Context) ([]*model.Organization, error) {
	var out []*model.Organization
	for _, o := range m.orgs {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockStore) UpdateOrganization(_ context.Context, org *model.Organization) error {
	if _, ok := m.orgs[org.ID]; !ok {
		return sql.ErrNoRows
	}
	m.orgs[org.ID] = org
	return nil
}

func (m *mockStore) SetOrganizationBlocked(_ context.Context, id string, blocked bool, reason string) (*model.Organization, error) {
	org, ok := m.orgs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	org.Blocked = blocked
	org.BlockReason = reason
	return org, nil
}

func (m *mockStore) DeleteOrganization(_ context.Context, id string) error {
	if _, ok := m.orgs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.orgs, id)
	return nil
}

func (m *mockStore) UpsertTrunk(_ context.Context, t *model.Trunk) error {
	m.trunks[t.ID] = t
	return nil
}

func (m *mockStore) GetTrunk(_ context.Context, orgID, id string) (*model.Trunk, error) {
	t, ok := m.trunks[id]
	if !ok || t.OrganizationID != orgID {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (m *mockStore) ListTrunks(_ context.Context, orgID string) ([]*model.Trunk, error) {
	var out []*model.Trunk
	for _, t := range m.trunks {
		if t.OrganizationID == orgID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteTrunk(_ context.Context, orgID, id string) error {
	t, ok := m.trunks[id]
	if !ok || t.OrganizationID != orgID {
		return sql.ErrNoRows
	}
	delete(m.trunks, id)
	return nil
}

func (m *mockStore) UpsertInbound(_ context.Context, in *model.Inbound) error {
	m.inbounds[in.ID] = in
	return nil
}

func (m *mockStore) GetInbound(_ context.Context, orgID, id string) (*model.Inbound, error) {
	in, ok := m.inbounds[id]
	if !ok || in.OrganizationID != orgID {
		return nil, sql.ErrNoRows
	}
	return in, nil
}

func (m *mockStore) ListInbounds(_ context.Context, orgID string) ([]*model.Inbound, error) {
	var out []*model.Inbound
	for _, in := range m.inbounds {
		if in.OrganizationID == orgID {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (m *mockStore) DeleteInbound(_ context.Context, orgID, id string) error {
	in, ok := m.inbounds[id]
	if !ok || in.OrganizationID != orgID {
		return sql.ErrNoRows
	}
	delete(m.inbounds, id)
	return nil
}

func (m *mockStore) CreateFlow(_ context.Context, f *model.Flow) error {
	for _, existing := range m.flows {
		if existing.OrganizationID == f.OrganizationID && existing.Name == f.Name {
			return &pq.Error{Code: "23505"}
		}
	}
	m.flows[f.ID] = f
	return nil
}

func (m *mockStore) GetFlow(_ context.Context, orgID, id string) (*model.Flow, error) {
	f, ok := m.flows[id]
	if !ok || f.OrganizationID != orgID {
		return nil, sql.ErrNoRows
	}
	cp := *f
	return &cp, nil
}

func (m *mockStore) GetFlowForUpdate(ctx context.Context, orgID, id string) (*model.Flow, error) {
	return m.GetFlow(ctx, orgID, id)
}

func (m *mockStore) ListFlows(_ context.Context, orgID string, filter model.FlowFilter) ([]*model.Flow, int, error) {
	var out []*model.Flow
	for _, f := range m.flows {
		if f.OrganizationID != orgID {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		out = append(out, f)
	}
	return out, len(out), nil
}

func (m *mockStore) UpdateFlow(_ context.Context, f *model.Flow) error {
	if _, ok := m.flows[f.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *f
	m.flows[f.ID] = &cp
	return nil
}

func (m *mockStore) DeleteFlow(_ context.Context, orgID, id string) error {
	f, ok := m.flows[id]
	if !ok || f.OrganizationID != orgID {
		return sql.ErrNoRows
	}
	delete(m.flows, id)
	return nil
}

func (m *mockStore) SaveFlowVersion(_ context.Context, v *model.FlowVersion) error {
	v.ID = int64(len(m.versions) + 1)
	m.versions = append(m.versions, v)
	return nil
}

func (m *mockStore) GetFlowVersion(_ context.Context, orgID, flowID string, version int) (*model.FlowVersion, error) {
	for _, v := range m.versions {
		if v.OrganizationID == orgID && v.FlowID == flowID && v.Version == version {
			return v, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStore) ListFlowVersions(_ context.Context, orgID, flowID string) ([]*model.FlowVersion, error) {
	var out []*model.FlowVersion
	for _, v := range m.versions {
		if v.OrganizationID == orgID && v.FlowID == flowID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockStore) CreateAudio(_ context.Context, a *model.Audio) error {
	m.audios[a.ID] = a
	return nil
}

func (m *mockStore) GetAudio(_ context.Context, orgID, id string) (*model.Audio, error) {
	a, ok := m.audios[id]
	if !ok || a.OrganizationID != orgID {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (m *mockStore) ListAudio(_ context.Context, orgID string, audioType model.AudioType) ([]*model.Audio, error) {
	var out []*model.Audio
	for _, a := range m.audios {
		if a.OrganizationID != orgID {
			continue
		}
		if audioType != "" && a.Type != audioType {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockStore) DeleteAudio(_ context.Context, orgID, id string) error {
	a, ok := m.audios[id]
	if !ok || a.OrganizationID != orgID {
		return sql.ErrNoRows
	}
	delete(m.audios, id)
	return nil
}

func (m *mockStore) UpsertSurvey(_ context.Context, s *model.CsatSurvey) error {
	m.surveys[s.ID] = s
	return nil
}

func (m *mockStore) GetSurvey(_ context.Context, orgID, id string) (*model.CsatSurvey, error) {
	s, ok := m.surveys[id]
	if !ok || s.OrganizationID != orgID {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (m *mockStore) GetSurveyBySlug(_ context.Context, slug string) (*model.CsatSurvey, error) {
	for _, s := range m.surveys {
		if s.PublicLinkSlug == slug && s.Enabled {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStore) ListSurveys(_ context.Context, orgID string) ([]*model.CsatSurvey, error) {
	var out []*model.CsatSurvey
	for _, s := range m.surveys {
		if s.OrganizationID == orgID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteSurvey(_ context.Context, orgID, id string) error {
	s, ok := m.surveys[id]
	if !ok || s.OrganizationID != orgID {
		return sql.ErrNoRows
	}
	delete(m.surveys, id)
	return nil
}

func (m *mockStore) ReplaceSurveyQuestions(_ context.Context, surveyID string, questions []*model.CsatQuestion) error {
	if s, ok := m.surveys[surveyID]; ok {
		s.Questions = questions
	}
	return nil
}

func (m *mockStore) CreateResponse(_ context.Context, r *model.CsatResponse) error {
	m.responses = append(m.responses, r)
	return nil
}

func (m *mockStore) ListResponses(_ context.Context, orgID, surveyID string) ([]*model.CsatResponse, error) {
	var out []*model.CsatResponse
	for _, r := range m.responses {
		if r.OrganizationID == orgID && r.SurveyID == surveyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) GetQuota(_ context.Context, orgID, month string) (*model.Quota, error) {
	if q, ok := m.quotas[orgID+"|"+month]; ok {
		return q, nil
	}
	return &model.Quota{
		OrganizationID: orgID,
		Month:          month,
		Limits:         model.QuotaLimits{TTSUnits: model.DefaultTTSUnits, FlowExec: model.DefaultFlowExec},
	}, nil
}

func (m *mockStore) AddQuotaUsage(ctx context.Context, orgID, month string, ttsUnits, flowExec int) (*model.Quota, error) {
	q, _ := m.GetQuota(ctx, orgID, month)
	q.Usage.TTSUnitsUsed += ttsUnits
	q.Usage.FlowExecUsed += flowExec
	m.quotas[orgID+"|"+month] = q
	return q, nil
}

func (m *mockStore) RecordEvent(_ context.Context, e *model.Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockStore) ListEvents(_ context.Context, orgID string, _ int) ([]*model.Event, error) {
	var out []*model.Event
	for _, e := range m.events {
		if e.OrganizationID == orgID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockStore) RecordExecution(_ context.Context, e *model.Execution) error {
	m.execs = append(m.execs, e)
	return nil
}

func (m *mockStore) ListExecutions(_ context.Context, orgID, traceID string, _ int) ([]*model.Execution, error) {
	var out []*model.Execution
	for _, e := range m.execs {
		if e.OrganizationID != orgID {
			continue
		}
		if traceID != "" && e.TraceID != traceID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

// fakeAdapter records engine calls and reports everything applied.
type fakeAdapter struct {
	engine.Noop
	upsertedTrunks  []string
	removedTrunks   []string
	publishedFlows  []string
	unpublished     []string
	surveyScripts   []string
	publishResult   engine.ApplyResult
	publishedResult bool
}

func (f *fakeAdapter) UpsertTrunk(_ context.Context, t *model.Trunk) (engine.ApplyResult, error) {
	f.upsertedTrunks = append(f.upsertedTrunks, t.Name)
	return engine.ApplyResult{EngineRef: t.Name, Applied: true}, nil
}

func (f *fakeAdapter) RemoveTrunk(_ context.Context, _, name string) (engine.ApplyResult, error) {
	f.removedTrunks = append(f.removedTrunks, name)
	return engine.ApplyResult{EngineRef: name, Applied: true}, nil
}

func (f *fakeAdapter) UpsertInbound(_ context.Context, in *model.Inbound) (engine.ApplyResult, error) {
	return engine.ApplyResult{EngineRef: in.Name, Applied: true}, nil
}

func (f *fakeAdapter) RemoveInbound(_ context.Context, in *model.Inbound) (engine.ApplyResult, error) {
	return engine.ApplyResult{EngineRef: in.Name, Applied: true}, nil
}

func (f *fakeAdapter) PublishFlow(_ context.Context, flow *model.Flow) (engine.ApplyResult, error) {
	f.publishedFlows = append(f.publishedFlows, flow.ID)
	if f.publishedResult {
		return f.publishResult, nil
	}
	return engine.ApplyResult{EngineRef: flow.ID, Applied: true}, nil
}

func (f *fakeAdapter) UnpublishFlow(_ context.Context, flow *model.Flow) (engine.ApplyResult, error) {
	f.unpublished = append(f.unpublished, flow.ID)
	return engine.ApplyResult{EngineRef: flow.ID, Applied: true}, nil
}

func (f *fakeAdapter) WriteSurveyScript(_ context.Context, s *model.CsatSurvey) (engine.ApplyResult, error) {
	f.surveyScripts = append(f.surveyScripts, s.ID)
	return engine.ApplyResult{EngineRef: s.ID, Applied: true}, nil
}

// newTestServer wires an AdminServer around the mock store and fake engine.
func newTestServer(t *testing.T) (*AdminServer, *mockStore, *fakeAdapter) {
	t.Helper()
	ms := newMockStore()
	fa := &fakeAdapter{}
	srv := New(Options{
		Store:    ms,
		Engine:   fa,
		AudioDir: t.TempDir(),
	})
	return srv, ms, fa
}
