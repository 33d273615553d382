package server

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/mysbc/sbcadmin/internal/events"
	"github.com/mysbc/sbcadmin/internal/idgen"
	"github.com/mysbc/sbcadmin/internal/model"
)

// handleListTrunks handles GET /v1/orgs/{orgId}/trunks.
func (s *AdminServer) handleListTrunks(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, false); err != nil {
		respondError(w, err)
		return
	}
	trunks, err := s.store.ListTrunks(r.Context(), orgID)
	if err != nil {
		respondError(w, err)
		return
	}
	if trunks == nil {
		trunks = []*model.Trunk{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"trunks": trunks})
}

// handleGetTrunk handles GET /v1/orgs/{orgId}/trunks/{id}.
func (s *AdminServer) handleGetTrunk(w http.ResponseWriter, r *http.Request) {
	trunk, err := s.store.GetTrunk(r.Context(), r.PathValue("orgId"), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("trunk not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trunk)
}

// handleCreateTrunk handles POST /v1/orgs/{orgId}/trunks.
func (s *AdminServer) handleCreateTrunk(w http.ResponseWriter, r *http.Request) {
	var trunk model.Trunk
	if err := decodeBody(r, &trunk); err != nil {
		respondError(w, err)
		return
	}

	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	id, err := idgen.Generate(idgen.PrefixTrunk)
	if err != nil {
		respondError(w, err)
		return
	}
	now := time.Now().UTC()
	trunk.ID = id
	trunk.OrganizationID = orgID
	trunk.CreatedAt = now
	trunk.UpdatedAt = now
	applyTrunkDefaults(&trunk)

	s.upsertTrunk(w, r, &trunk, http.StatusCreated)
}

// handleUpdateTrunk handles PUT /v1/orgs/{orgId}/trunks/{id}.
func (s *AdminServer) handleUpdateTrunk(w http.ResponseWriter, r *http.Request) {
	var trunk model.Trunk
	if err := decodeBody(r, &trunk); err != nil {
		respondError(w, err)
		return
	}

	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	existing, err := s.store.GetTrunk(r.Context(), orgID, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("trunk not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	trunk.ID = existing.ID
	trunk.OrganizationID = orgID
	trunk.CreatedAt = existing.CreatedAt
	trunk.UpdatedAt = time.Now().UTC()
	applyTrunkDefaults(&trunk)

	s.upsertTrunk(w, r, &trunk, http.StatusOK)
}

// upsertTrunk persists a trunk and pushes the gateway profile to the engine.
// The engine result rides along in the response; an engine failure after the
// DB write surfaces as applied=false, never as a rollback.
func (s *AdminServer) upsertTrunk(w http.ResponseWriter, r *http.Request, trunk *model.Trunk, status int) {
	if err := model.ValidateTrunk(trunk); err != nil {
		respondError(w, err)
		return
	}
	if err := s.store.UpsertTrunk(r.Context(), trunk); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.engine.UpsertTrunk(r.Context(), trunk)
	if err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicTrunkUpserted, trunk.OrganizationID, "",
		events.TrunkUpserted{Trunk: trunk, Result: result})
	writeJSON(w, status, map[string]any{"trunk": trunk, "result": result})
}

// applyTrunkDefaults fills engine defaults the caller left empty.
func applyTrunkDefaults(t *model.Trunk) {
	if t.Expires == 0 {
		t.Expires = 300
	}
	if len(t.Codecs) == 0 {
		t.Codecs = append([]string(nil), model.DefaultCodecs...)
	}
}

// handleDeleteTrunk handles DELETE /v1/orgs/{orgId}/trunks/{id}.
func (s *AdminServer) handleDeleteTrunk(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	trunk, err := s.store.GetTrunk(r.Context(), orgID, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("trunk not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	if err := s.store.DeleteTrunk(r.Context(), orgID, trunk.ID); err != nil {
		respondError(w, err)
		return
	}
	result, err := s.engine.RemoveTrunk(r.Context(), orgID, trunk.Name)
	if err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicTrunkDeleted, orgID, "",
		events.TrunkDeleted{OrgID: orgID, TrunkID: trunk.ID})
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

// handleTestTrunk handles POST /v1/orgs/{orgId}/trunks/{id}/test.
func (s *AdminServer) handleTestTrunk(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	trunk, err := s.store.GetTrunk(r.Context(), orgID, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("trunk not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	status, err := s.engine.TestGateway(r.Context(), orgID, trunk.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
