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

// handleListInbounds handles GET /v1/orgs/{orgId}/inbounds.
func (s *AdminServer) handleListInbounds(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, false); err != nil {
		respondError(w, err)
		return
	}
	inbounds, err := s.store.ListInbounds(r.Context(), orgID)
	if err != nil {
		respondError(w, err)
		return
	}
	if inbounds == nil {
		inbounds = []*model.Inbound{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"inbounds": inbounds})
}

// handleGetInbound handles GET /v1/orgs/{orgId}/inbounds/{id}.
func (s *AdminServer) handleGetInbound(w http.ResponseWriter, r *http.Request) {
	inbound, err := s.store.GetInbound(r.Context(), r.PathValue("orgId"), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("inbound route not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inbound)
}

// handleCreateInbound handles POST /v1/orgs/{orgId}/inbounds.
func (s *AdminServer) handleCreateInbound(w http.ResponseWriter, r *http.Request) {
	var inbound model.Inbound
	if err := decodeBody(r, &inbound); err != nil {
		respondError(w, err)
		return
	}

	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	id, err := idgen.Generate(idgen.PrefixInbound)
	if err != nil {
		respondError(w, err)
		return
	}
	now := time.Now().UTC()
	inbound.ID = id
	inbound.OrganizationID = orgID
	if inbound.Context == "" {
		inbound.Context = model.ContextPublic
	}
	inbound.CreatedAt = now
	inbound.UpdatedAt = now

	s.upsertInbound(w, r, &inbound, http.StatusCreated)
}

// handleUpdateInbound handles PUT /v1/orgs/{orgId}/inbounds/{id}.
func (s *AdminServer) handleUpdateInbound(w http.ResponseWriter, r *http.Request) {
	var inbound model.Inbound
	if err := decodeBody(r, &inbound); err != nil {
		respondError(w, err)
		return
	}

	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	existing, err := s.store.GetInbound(r.Context(), orgID, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("inbound route not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	inbound.ID = existing.ID
	inbound.OrganizationID = orgID
	if inbound.Context == "" {
		inbound.Context = existing.Context
	}
	inbound.CreatedAt = existing.CreatedAt
	inbound.UpdatedAt = time.Now().UTC()

	// The old artifact file is keyed by priority and name; drop it first when
	// either changed so stale dialplan entries don't keep matching.
	if existing.Priority != inbound.Priority || existing.Name != inbound.Name {
		if _, err := s.engine.RemoveInbound(r.Context(), existing); err != nil {
			respondError(w, err)
			return
		}
	}

	s.upsertInbound(w, r, &inbound, http.StatusOK)
}

// upsertInbound persists a route and writes its dialplan entry.
func (s *AdminServer) upsertInbound(w http.ResponseWriter, r *http.Request, inbound *model.Inbound, status int) {
	if err := model.ValidateInbound(inbound); err != nil {
		respondError(w, err)
		return
	}

	var result events.InboundUpserted
	if inbound.Enabled {
		applied, err := s.engine.UpsertInbound(r.Context(), inbound)
		if err != nil {
			respondError(w, err)
			return
		}
		if applied.Applied {
			now := time.Now().UTC()
			inbound.PublishedAt = &now
		}
		result.Result = applied
	} else {
		if _, err := s.engine.RemoveInbound(r.Context(), inbound); err != nil {
			respondError(w, err)
			return
		}
		inbound.PublishedAt = nil
	}

	if err := s.store.UpsertInbound(r.Context(), inbound); err != nil {
		respondError(w, err)
		return
	}

	result.Inbound = inbound
	s.recordAndPublish(r.Context(), events.TopicInboundUpserted, inbound.OrganizationID, "", result)
	writeJSON(w, status, map[string]any{"inbound": inbound, "result": result.Result})
}

// handleDeleteInbound handles DELETE /v1/orgs/{orgId}/inbounds/{id}.
func (s *AdminServer) handleDeleteInbound(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	inbound, err := s.store.GetInbound(r.Context(), orgID, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("inbound route not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	if err := s.store.DeleteInbound(r.Context(), orgID, inbound.ID); err != nil {
		respondError(w, err)
		return
	}
	result, err := s.engine.RemoveInbound(r.Context(), inbound)
	if err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicInboundDeleted, orgID, "",
		events.InboundDeleted{OrgID: orgID, InboundID: inbound.ID})
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}
