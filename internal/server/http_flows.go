package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mysbc/sbcadmin/internal/events"
	"github.com/mysbc/sbcadmin/internal/flownode"
	"github.com/mysbc/sbcadmin/internal/idgen"
	"github.com/mysbc/sbcadmin/internal/model"
	"github.com/mysbc/sbcadmin/internal/store"
)

// handleListFlows handles GET /v1/orgs/{orgId}/flows.
func (s *AdminServer) handleListFlows(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, false); err != nil {
		respondError(w, err)
		return
	}

	q := r.URL.Query()
	filter := model.FlowFilter{Status: model.FlowStatus(q.Get("status"))}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	flows, total, err := s.store.ListFlows(r.Context(), orgID, filter)
	if err != nil {
		respondError(w, err)
		return
	}
	if flows == nil {
		flows = []*model.Flow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"flows": flows, "total": total})
}

// handleGetFlow handles GET /v1/orgs/{orgId}/flows/{id}.
func (s *AdminServer) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := s.store.GetFlow(r.Context(), r.PathValue("orgId"), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("flow not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

type flowInput struct {
	Name  string      `json:"name"`
	Graph model.Graph `json:"graph"`
}

// handleCreateFlow handles POST /v1/orgs/{orgId}/flows. Drafts save without
// graph validation; the editor calls validate for the advisory report and
// publish enforces the strict pass.
func (s *AdminServer) handleCreateFlow(w http.ResponseWriter, r *http.Request) {
	var in flowInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, err)
		return
	}

	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	id, err := idgen.Generate(idgen.PrefixFlow)
	if err != nil {
		respondError(w, err)
		return
	}
	now := time.Now().UTC()
	flow := &model.Flow{
		ID:             id,
		OrganizationID: orgID,
		Name:           in.Name,
		Status:         model.FlowDraft,
		Version:        1,
		Graph:          in.Graph,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := model.ValidateFlowRecord(flow); err != nil {
		respondError(w, err)
		return
	}
	if err := s.store.CreateFlow(r.Context(), flow); err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicFlowCreated, orgID, "", events.FlowCreated{Flow: flow})
	writeJSON(w, http.StatusCreated, flow)
}

// handleUpdateFlow handles PUT /v1/orgs/{orgId}/flows/{id}. Published flows
// reject edits; unpublish first.
func (s *AdminServer) handleUpdateFlow(w http.ResponseWriter, r *http.Request) {
	var in flowInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, err)
		return
	}

	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	flow, err := s.store.GetFlow(r.Context(), orgID, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("flow not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	if flow.Status == model.FlowPublished {
		respondError(w, conflictError("published flow cannot be modified; unpublish it first"))
		return
	}

	if in.Name != "" {
		flow.Name = in.Name
	}
	flow.Graph = in.Graph
	if err := model.ValidateFlowRecord(flow); err != nil {
		respondError(w, err)
		return
	}
	if err := s.store.UpdateFlow(r.Context(), flow); err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicFlowUpdated, orgID, "", events.FlowUpdated{Flow: flow})
	writeJSON(w, http.StatusOK, flow)
}

// handleValidateFlow handles POST /v1/orgs/{orgId}/flows/{id}/validate. The
// collect pass always answers 200; the report carries the verdict.
func (s *AdminServer) handleValidateFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := s.store.GetFlow(r.Context(), r.PathValue("orgId"), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("flow not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flownode.ValidateFlow(s.registry, &flow.Graph))
}

// handlePublishFlow handles POST /v1/orgs/{orgId}/flows/{id}/publish.
// Validation is strict and fail-fast. The version bump and snapshot run in
// one transaction on a row lock; the engine write happens after commit, so
// a reload failure leaves the flow published with applied=false.
func (s *AdminServer) handlePublishFlow(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	var flow *model.Flow
	err := s.store.RunInTransaction(r.Context(), func(tx store.Store) error {
		var err error
		flow, err = tx.GetFlowForUpdate(r.Context(), orgID, r.PathValue("id"))
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundError("flow not found")
		}
		if err != nil {
			return err
		}

		if errs := flownode.ValidateConnectivity(&flow.Graph); len(errs) > 0 {
			return inputError(errs[0].Error())
		}
		if err := flownode.ValidateNodes(s.registry, &flow.Graph); err != nil {
			return inputError(err.Error())
		}

		now := time.Now().UTC()
		// A snapshot at the current version means this version already went
		// out once (still published, or published and later unpublished), so
		// the republish gets a fresh version. First publish keeps v1.
		if _, err := tx.GetFlowVersion(r.Context(), orgID, flow.ID, flow.Version); err == nil {
			flow.Version++
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		flow.Status = model.FlowPublished
		flow.PublishedAt = &now
		if err := tx.UpdateFlow(r.Context(), flow); err != nil {
			return err
		}
		return tx.SaveFlowVersion(r.Context(), &model.FlowVersion{
			FlowID:         flow.ID,
			OrganizationID: orgID,
			Version:        flow.Version,
			Graph:          flow.Graph,
			CreatedAt:      now,
		})
	})
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := s.engine.PublishFlow(r.Context(), flow)
	if err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicFlowPublished, orgID, "",
		events.FlowPublished{Flow: flow, Result: result})
	writeJSON(w, http.StatusOK, map[string]any{"flow": flow, "result": result})
}

// handleUnpublishFlow handles POST /v1/orgs/{orgId}/flows/{id}/unpublish.
func (s *AdminServer) handleUnpublishFlow(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	flow, err := s.store.GetFlow(r.Context(), orgID, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("flow not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	if flow.Status != model.FlowPublished {
		respondError(w, conflictError("flow is not published"))
		return
	}

	flow.Status = model.FlowDraft
	flow.PublishedAt = nil
	if err := s.store.UpdateFlow(r.Context(), flow); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.engine.UnpublishFlow(r.Context(), flow)
	if err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicFlowUnpublished, orgID, "",
		events.FlowUnpublished{OrgID: orgID, FlowID: flow.ID})
	writeJSON(w, http.StatusOK, map[string]any{"flow": flow, "result": result})
}

type rollbackInput struct {
	Version int `json:"version"`
}

// handleRollbackFlow handles POST /v1/orgs/{orgId}/flows/{id}/rollback.
// Restores a snapshot graph as a new published version.
func (s *AdminServer) handleRollbackFlow(w http.ResponseWriter, r *http.Request) {
	var in rollbackInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, err)
		return
	}
	if in.Version < 1 {
		respondError(w, inputError("version is required"))
		return
	}

	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	var (
		flow        *model.Flow
		fromVersion int
	)
	err := s.store.RunInTransaction(r.Context(), func(tx store.Store) error {
		var err error
		flow, err = tx.GetFlowForUpdate(r.Context(), orgID, r.PathValue("id"))
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundError("flow not found")
		}
		if err != nil {
			return err
		}

		snapshot, err := tx.GetFlowVersion(r.Context(), orgID, flow.ID, in.Version)
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundError("flow version not found")
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		fromVersion = flow.Version
		flow.Graph = snapshot.Graph
		flow.Version++
		flow.Status = model.FlowPublished
		flow.PublishedAt = &now
		if err := tx.UpdateFlow(r.Context(), flow); err != nil {
			return err
		}
		return tx.SaveFlowVersion(r.Context(), &model.FlowVersion{
			FlowID:         flow.ID,
			OrganizationID: orgID,
			Version:        flow.Version,
			Graph:          flow.Graph,
			CreatedAt:      now,
		})
	})
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := s.engine.PublishFlow(r.Context(), flow)
	if err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicFlowRolledBack, orgID, "",
		events.FlowRolledBack{Flow: flow, FromVersion: fromVersion, ToVersion: flow.Version})
	writeJSON(w, http.StatusOK, map[string]any{"flow": flow, "result": result})
}

// handleListFlowVersions handles GET /v1/orgs/{orgId}/flows/{id}/versions.
func (s *AdminServer) handleListFlowVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.store.ListFlowVersions(r.Context(), r.PathValue("orgId"), r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	if versions == nil {
		versions = []*model.FlowVersion{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

// handleDeleteFlow handles DELETE /v1/orgs/{orgId}/flows/{id}.
func (s *AdminServer) handleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	flow, err := s.store.GetFlow(r.Context(), orgID, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("flow not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	if flow.Status == model.FlowPublished {
		respondError(w, conflictError("published flow cannot be deleted; unpublish it first"))
		return
	}

	if err := s.store.DeleteFlow(r.Context(), orgID, flow.ID); err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicFlowDeleted, orgID, "",
		events.FlowDeleted{OrgID: orgID, FlowID: flow.ID})
	w.WriteHeader(http.StatusNoContent)
}
