package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mysbc/sbcadmin/internal/events"
	"github.com/mysbc/sbcadmin/internal/idgen"
	"github.com/mysbc/sbcadmin/internal/model"
)

// handleGetQuota handles GET /v1/orgs/{orgId}/quotas. Defaults to the
// current month; ?month=YYYY-MM selects another.
func (s *AdminServer) handleGetQuota(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, false); err != nil {
		respondError(w, err)
		return
	}

	month := r.URL.Query().Get("month")
	if month == "" {
		month = model.CurrentMonth(time.Now())
	}

	quota, err := s.store.GetQuota(r.Context(), orgID, month)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quota":     quota,
		"remaining": quota.Remaining(),
	})
}

// handleListEvents handles GET /v1/orgs/{orgId}/events.
func (s *AdminServer) handleListEvents(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, false); err != nil {
		respondError(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	evts, err := s.store.ListEvents(r.Context(), orgID, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if evts == nil {
		evts = []*model.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evts})
}

// handleListExecutions handles GET /v1/orgs/{orgId}/executions.
func (s *AdminServer) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, false); err != nil {
		respondError(w, err)
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	execs, err := s.store.ListExecutions(r.Context(), orgID, q.Get("traceId"), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if execs == nil {
		execs = []*model.Execution{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"executions": execs})
}

// handleRecordExecution handles POST /v1/orgs/{orgId}/executions. The
// engine-side scripts report flow progress here; a started record counts
// one flow execution against the monthly quota.
func (s *AdminServer) handleRecordExecution(w http.ResponseWriter, r *http.Request) {
	var exec model.Execution
	if err := decodeBody(r, &exec); err != nil {
		respondError(w, err)
		return
	}

	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, false); err != nil {
		respondError(w, err)
		return
	}
	if exec.TraceID == "" {
		respondError(w, inputError("traceId is required"))
		return
	}
	if !exec.Status.IsValid() {
		respondError(w, inputError("status must be started, success, or error"))
		return
	}

	id, err := idgen.Generate(idgen.PrefixExecution)
	if err != nil {
		respondError(w, err)
		return
	}
	exec.ID = id
	exec.OrganizationID = orgID
	exec.CreatedAt = time.Now().UTC()

	if err := s.store.RecordExecution(r.Context(), &exec); err != nil {
		respondError(w, err)
		return
	}

	if exec.Status == model.ExecStarted {
		month := model.CurrentMonth(time.Now())
		quota, err := s.store.AddQuotaUsage(r.Context(), orgID, month, 0, 1)
		if err != nil {
			slog.Warn("failed to count flow execution against quota",
				"org_id", orgID, "month", month, "error", err)
		}
		if err == nil && quota.Usage.FlowExecUsed > quota.Limits.FlowExec {
			s.recordAndPublish(r.Context(), events.TopicQuotaExceeded, orgID, exec.TraceID, events.QuotaExceeded{
				OrgID:    orgID,
				Resource: "flow_exec",
				Limit:    int64(quota.Limits.FlowExec),
				Used:     int64(quota.Usage.FlowExecUsed),
			})
		}
		s.recordAndPublish(r.Context(), events.TopicExecutionStarted, orgID, exec.TraceID,
			events.ExecutionStarted{Execution: &exec})
	} else {
		s.recordAndPublish(r.Context(), events.TopicExecutionFinished, orgID, exec.TraceID,
			events.ExecutionFinished{Execution: &exec})
	}

	writeJSON(w, http.StatusCreated, &exec)
}
