package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mysbc/sbcadmin/internal/engine"
	"github.com/mysbc/sbcadmin/internal/model"
)

func seedOrg(ms *mockStore, id string) *model.Organization {
	org := &model.Organization{
		ID: id, Name: "Acme", Slug: "acme", Domain: "acme.example.com",
		AdminEmail: "ops@acme.example.com",
	}
	ms.orgs[id] = org
	return org
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthNoAuth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.NewHTTPHandler("secret")

	rec := doJSON(t, h, http.MethodGet, "/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	h := srv.NewHTTPHandler("secret")

	rec := doJSON(t, h, http.MethodGet, "/v1/orgs", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/orgs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", rec2.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/orgs", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec3 := httptest.NewRecorder()
	h.ServeHTTP(rec3, req)
	if rec3.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec3.Code)
	}
}

func TestCreateOrg(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs", map[string]any{
		"name": "Acme", "slug": "acme", "domain": "acme.example.com",
		"adminEmail": "ops@acme.example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	org := decode[model.Organization](t, rec)
	if !strings.HasPrefix(org.ID, "org-") {
		t.Errorf("id = %q, want org- prefix", org.ID)
	}
	if _, ok := ms.orgs[org.ID]; !ok {
		t.Error("organization not persisted")
	}
}

func TestCreateOrgValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs", map[string]any{"name": "Acme"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBlockedOrgRejectsMutations(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	org := seedOrg(ms, "org-1")
	org.Blocked = true
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/trunks", map[string]any{
		"name": "carrier", "host": "sip.carrier.example",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestTrunkLifecycle(t *testing.T) {
	srv, ms, fa := newTestServer(t)
	seedOrg(ms, "org-1")
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/trunks", map[string]any{
		"name": "carrier", "host": "sip.carrier.example", "enabled": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	out := decode[map[string]json.RawMessage](t, rec)
	var trunk model.Trunk
	if err := json.Unmarshal(out["trunk"], &trunk); err != nil {
		t.Fatal(err)
	}
	if trunk.Expires != 300 {
		t.Errorf("expires = %d, want default 300", trunk.Expires)
	}
	if len(fa.upsertedTrunks) != 1 {
		t.Fatalf("engine upserts = %d, want 1", len(fa.upsertedTrunks))
	}

	rec = doJSON(t, h, http.MethodDelete, "/v1/orgs/org-1/trunks/"+trunk.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if len(fa.removedTrunks) != 1 || fa.removedTrunks[0] != "carrier" {
		t.Errorf("engine removals = %v", fa.removedTrunks)
	}
	if len(ms.trunks) != 0 {
		t.Error("trunk not deleted from store")
	}
}

func validGraph() model.Graph {
	return model.Graph{
		Nodes: []*model.Node{
			{ID: "n1", Type: "start"},
			{ID: "n2", Type: "hangup", Data: json.RawMessage(`{"cause":"NORMAL_CLEARING"}`)},
			{ID: "n3", Type: "end"},
		},
		Edges: []*model.Edge{
			{ID: "e1", Source: "n1", Target: "n2"},
			{ID: "e2", Source: "n2", Target: "n3"},
		},
	}
}

func seedFlow(ms *mockStore, id string, status model.FlowStatus) *model.Flow {
	now := time.Now().UTC()
	f := &model.Flow{
		ID: id, OrganizationID: "org-1", Name: "atendimento",
		Status: status, Version: 1, Graph: validGraph(),
		CreatedAt: now, UpdatedAt: now,
	}
	if status == model.FlowPublished {
		// A published flow always has the snapshot its publish wrote.
		f.PublishedAt = &now
		ms.versions = append(ms.versions, &model.FlowVersion{
			ID: int64(len(ms.versions) + 1), FlowID: f.ID,
			OrganizationID: f.OrganizationID, Version: f.Version,
			Graph: f.Graph, CreatedAt: now,
		})
	}
	ms.flows[id] = f
	return f
}

func TestCreateFlowDuplicateName(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	h := srv.NewHTTPHandler("")

	body := map[string]any{"name": "atendimento", "graph": validGraph()}
	rec := doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/flows", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/flows", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create = %d, want 409; body = %s", rec.Code, rec.Body.String())
	}
}

func TestPublishFlow(t *testing.T) {
	srv, ms, fa := newTestServer(t)
	seedOrg(ms, "org-1")
	seedFlow(ms, "flw-1", model.FlowDraft)
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/flows/flw-1/publish", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	flow := ms.flows["flw-1"]
	if flow.Status != model.FlowPublished {
		t.Errorf("status = %s, want published", flow.Status)
	}
	if flow.Version != 1 {
		t.Errorf("first publish version = %d, want 1", flow.Version)
	}
	if len(ms.versions) != 1 || ms.versions[0].Version != 1 {
		t.Errorf("versions = %+v, want one snapshot at v1", ms.versions)
	}
	if len(fa.publishedFlows) != 1 {
		t.Errorf("engine publishes = %d", len(fa.publishedFlows))
	}
}

func TestRepublishBumpsVersion(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	seedFlow(ms, "flw-1", model.FlowPublished)
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/flows/flw-1/publish", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := ms.flows["flw-1"].Version; got != 2 {
		t.Errorf("version = %d, want 2", got)
	}
}

func TestRepublishAfterUnpublishBumpsVersion(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	seedFlow(ms, "flw-1", model.FlowDraft)
	h := srv.NewHTTPHandler("")

	for _, path := range []string{
		"/v1/orgs/org-1/flows/flw-1/publish",
		"/v1/orgs/org-1/flows/flw-1/unpublish",
		"/v1/orgs/org-1/flows/flw-1/publish",
	} {
		rec := doJSON(t, h, http.MethodPost, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("POST %s = %d, body = %s", path, rec.Code, rec.Body.String())
		}
	}

	if got := ms.flows["flw-1"].Version; got != 2 {
		t.Errorf("version after republish = %d, want 2", got)
	}
	// One snapshot per version; a duplicate would violate the store's
	// (flow_id, version) uniqueness.
	seen := map[int]int{}
	for _, v := range ms.versions {
		seen[v.Version]++
	}
	if seen[1] != 1 || seen[2] != 1 {
		t.Errorf("snapshot counts by version = %v, want one each of v1 and v2", seen)
	}
}

func TestPublishFlowEngineNotApplied(t *testing.T) {
	srv, ms, fa := newTestServer(t)
	seedOrg(ms, "org-1")
	seedFlow(ms, "flw-1", model.FlowDraft)
	fa.publishedResult = true
	fa.publishResult = engine.ApplyResult{EngineRef: "flw-1", Applied: false, Detail: "reload disabled"}
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/flows/flw-1/publish", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	out := decode[struct {
		Result engine.ApplyResult `json:"result"`
	}](t, rec)
	if out.Result.Applied {
		t.Error("result.applied = true, want false")
	}
	// The record is committed even when the engine did not pick it up.
	if ms.flows["flw-1"].Status != model.FlowPublished {
		t.Error("flow should persist as published")
	}
}

func TestPublishInvalidGraph(t *testing.T) {
	srv, ms, fa := newTestServer(t)
	seedOrg(ms, "org-1")
	flow := seedFlow(ms, "flw-1", model.FlowDraft)
	flow.Graph.Nodes = flow.Graph.Nodes[:1] // start only, no end
	flow.Graph.Edges = nil
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/flows/flw-1/publish", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
	if len(fa.publishedFlows) != 0 {
		t.Error("engine publish should not run for an invalid graph")
	}
	if ms.flows["flw-1"].Status != model.FlowDraft {
		t.Error("flow should stay draft")
	}
}

func TestUpdatePublishedFlowConflict(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	seedFlow(ms, "flw-1", model.FlowPublished)
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPut, "/v1/orgs/org-1/flows/flw-1", map[string]any{
		"name": "novo", "graph": validGraph(),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestRollbackFlow(t *testing.T) {
	srv, ms, fa := newTestServer(t)
	seedOrg(ms, "org-1")
	flow := seedFlow(ms, "flw-1", model.FlowPublished)
	flow.Version = 3
	ms.versions = append(ms.versions, &model.FlowVersion{
		ID: 1, FlowID: "flw-1", OrganizationID: "org-1", Version: 2, Graph: validGraph(),
	})
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/flows/flw-1/rollback", map[string]any{"version": 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := ms.flows["flw-1"].Version; got != 4 {
		t.Errorf("version = %d, want 4 (rollback is a new version)", got)
	}
	if len(fa.publishedFlows) != 1 {
		t.Error("rollback should republish through the engine")
	}
}

func TestValidateFlowReport(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	flow := seedFlow(ms, "flw-1", model.FlowDraft)
	flow.Graph.Nodes = append(flow.Graph.Nodes, &model.Node{ID: "nx", Type: "warp_drive"})
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/flows/flw-1/validate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	report := decode[struct {
		OK     bool     `json:"ok"`
		Errors []string `json:"errors"`
	}](t, rec)
	if report.OK {
		t.Error("report should not be ok")
	}
	found := false
	for _, e := range report.Errors {
		if strings.Contains(e, "unknown node type: warp_drive") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want unknown node type", report.Errors)
	}
}

func TestTTSQuotaExceeded(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	month := model.CurrentMonth(time.Now())
	ms.quotas["org-1|"+month] = &model.Quota{
		OrganizationID: "org-1",
		Month:          month,
		Limits:         model.QuotaLimits{TTSUnits: 10, FlowExec: 100},
		Usage:          model.QuotaUsage{TTSUnitsUsed: 8},
	}
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/audio/tts", map[string]any{
		"name": "saudacao", "text": "bem vindo ao atendimento",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body = %s", rec.Code, rec.Body.String())
	}
	if len(ms.audios) != 0 {
		t.Error("no audio should be created past the quota")
	}
}

func TestTTSSynthesis(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/audio/tts", map[string]any{
		"name": "saudacao", "text": "bem vindo",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	audio := decode[model.Audio](t, rec)
	if audio.Type != model.AudioTTS {
		t.Errorf("type = %s", audio.Type)
	}
	if audio.EnginePath == "" {
		t.Error("engine path not set")
	}

	month := model.CurrentMonth(time.Now())
	q, _ := ms.GetQuota(t.Context(), "org-1", month)
	if q.Usage.TTSUnitsUsed != len([]rune("bem vindo")) {
		t.Errorf("tts usage = %d", q.Usage.TTSUnitsUsed)
	}
}

func TestUploadAudioRejectsUnknownExtension(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	h := srv.NewHTTPHandler("")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "prompt.ogg")
	fmt.Fprint(fw, "not really audio")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/orgs/org-1/audio", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadAudio(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	h := srv.NewHTTPHandler("")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "saudacao")
	fw, _ := mw.CreateFormFile("file", "prompt.wav")
	fmt.Fprint(fw, "RIFF....WAVE")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/orgs/org-1/audio", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(ms.audios) != 1 {
		t.Fatal("audio not persisted")
	}
}

func seedSurvey(ms *mockStore, id, slug string) *model.CsatSurvey {
	s := &model.CsatSurvey{
		ID: id, OrganizationID: "org-1", Name: "pos-atendimento",
		ScoreTypes: []model.CsatScoreType{model.ScoreNPS, model.ScoreStars},
		PublicLinkSlug: slug, Enabled: true,
		Questions: []*model.CsatQuestion{
			{ID: "qst-1", SurveyID: id, Text: "Como foi o atendimento?", Order: 1},
		},
	}
	ms.surveys[id] = s
	return s
}

func TestPublicSurveyNoAuth(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	seedSurvey(ms, "srv-1", "abc123")
	h := srv.NewHTTPHandler("secret")

	rec := doJSON(t, h, http.MethodGet, "/v1/csat/public/abc123", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/csat/public/abc123/responses", map[string]any{
		"questionId": "qst-1", "scoreType": "nps", "score": 9,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("response status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(ms.responses) != 1 || ms.responses[0].Channel != model.ChannelLink {
		t.Errorf("responses = %+v, want one link-channel response", ms.responses)
	}
}

func TestResponseScoreValidation(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	seedSurvey(ms, "srv-1", "abc123")
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/csat/surveys/srv-1/responses", map[string]any{
		"questionId": "qst-1", "channel": "ivr", "scoreType": "stars", "score": 6,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSurveyAnalytics(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	seedSurvey(ms, "srv-1", "abc123")
	for _, score := range []int{10, 9, 7, 2} {
		ms.responses = append(ms.responses, &model.CsatResponse{
			OrganizationID: "org-1", SurveyID: "srv-1", QuestionID: "qst-1",
			Channel: model.ChannelIVR, ScoreType: model.ScoreNPS, Score: score,
		})
	}
	ms.responses = append(ms.responses, &model.CsatResponse{
		OrganizationID: "org-1", SurveyID: "srv-1", QuestionID: "qst-1",
		Channel: model.ChannelIVR, ScoreType: model.ScoreStars, Score: 4,
	})
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodGet, "/v1/orgs/org-1/csat/surveys/srv-1/analytics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	a := decode[model.CsatAnalytics](t, rec)
	if a.TotalResponses != 5 {
		t.Errorf("total = %d", a.TotalResponses)
	}
	if a.NPS.Promoters != 2 || a.NPS.Passive != 1 || a.NPS.Detractors != 1 {
		t.Errorf("nps buckets = %+v", a.NPS)
	}
	// (2-1)/4 * 100 = 25
	if a.NPS.Score != 25 {
		t.Errorf("nps score = %d, want 25", a.NPS.Score)
	}
	if a.StarsAverage != 4.0 {
		t.Errorf("stars average = %v", a.StarsAverage)
	}
}

func TestRecordExecutionCountsQuota(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodPost, "/v1/orgs/org-1/executions", map[string]any{
		"traceId": "trace-1", "flowId": "flw-1", "status": "started",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	month := model.CurrentMonth(time.Now())
	q, _ := ms.GetQuota(t.Context(), "org-1", month)
	if q.Usage.FlowExecUsed != 1 {
		t.Errorf("flow exec usage = %d, want 1", q.Usage.FlowExecUsed)
	}
}

func TestGetQuotaDefaults(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	seedOrg(ms, "org-1")
	h := srv.NewHTTPHandler("")

	rec := doJSON(t, h, http.MethodGet, "/v1/orgs/org-1/quotas", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out := decode[struct {
		Quota     model.Quota       `json:"quota"`
		Remaining model.QuotaLimits `json:"remaining"`
	}](t, rec)
	if out.Remaining.TTSUnits != model.DefaultTTSUnits {
		t.Errorf("remaining tts = %d", out.Remaining.TTSUnits)
	}
}
