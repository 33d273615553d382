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

type createOrgInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Domain      string `json:"domain"`
	WebhookBase string `json:"webhookBase"`
	AdminEmail  string `json:"adminEmail"`
}

// handleCreateOrg handles POST /v1/orgs.
func (s *AdminServer) handleCreateOrg(w http.ResponseWriter, r *http.Request) {
	var in createOrgInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, err)
		return
	}

	now := time.Now().UTC()
	org := &model.Organization{
		Name:        in.Name,
		Slug:        in.Slug,
		Domain:      in.Domain,
		WebhookBase: in.WebhookBase,
		AdminEmail:  in.AdminEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := model.ValidateOrganization(org); err != nil {
		respondError(w, err)
		return
	}

	id, err := idgen.Generate(idgen.PrefixOrganization)
	if err != nil {
		respondError(w, err)
		return
	}
	org.ID = id

	if err := s.store.CreateOrganization(r.Context(), org); err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicOrgCreated, org.ID, "", events.OrgCreated{Organization: org})
	writeJSON(w, http.StatusCreated, org)
}

// handleListOrgs handles GET /v1/orgs.
func (s *AdminServer) handleListOrgs(w http.ResponseWriter, r *http.Request) {
	orgs, err := s.store.ListOrganizations(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if orgs == nil {
		orgs = []*model.Organization{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
}

// handleGetOrg handles GET /v1/orgs/{orgId}.
func (s *AdminServer) handleGetOrg(w http.ResponseWriter, r *http.Request) {
	org, err := s.requireOrg(r.Context(), r.PathValue("orgId"), false)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

type updateOrgInput struct {
	Name        *string `json:"name"`
	Domain      *string `json:"domain"`
	WebhookBase *string `json:"webhookBase"`
	AdminEmail  *string `json:"adminEmail"`
}

// handleUpdateOrg handles PATCH /v1/orgs/{orgId}.
func (s *AdminServer) handleUpdateOrg(w http.ResponseWriter, r *http.Request) {
	var in updateOrgInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, err)
		return
	}

	org, err := s.requireOrg(r.Context(), r.PathValue("orgId"), false)
	if err != nil {
		respondError(w, err)
		return
	}

	changes := make(map[string]any)
	if in.Name != nil {
		org.Name = *in.Name
		changes["name"] = *in.Name
	}
	if in.Domain != nil {
		org.Domain = *in.Domain
		changes["domain"] = *in.Domain
	}
	if in.WebhookBase != nil {
		org.WebhookBase = *in.WebhookBase
		changes["webhookBase"] = *in.WebhookBase
	}
	if in.AdminEmail != nil {
		org.AdminEmail = *in.AdminEmail
		changes["adminEmail"] = *in.AdminEmail
	}

	if err := model.ValidateOrganization(org); err != nil {
		respondError(w, err)
		return
	}
	if err := s.store.UpdateOrganization(r.Context(), org); err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicOrgUpdated, org.ID, "", events.OrgUpdated{Organization: org, Changes: changes})
	writeJSON(w, http.StatusOK, org)
}

type blockOrgInput struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason"`
}

// handleBlockOrg handles POST /v1/orgs/{orgId}/block.
func (s *AdminServer) handleBlockOrg(w http.ResponseWriter, r *http.Request) {
	var in blockOrgInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, err)
		return
	}

	org, err := s.store.SetOrganizationBlocked(r.Context(), r.PathValue("orgId"), in.Blocked, in.Reason)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("organization not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicOrgBlocked, org.ID, "", events.OrgBlocked{OrgID: org.ID, Blocked: org.Blocked})
	writeJSON(w, http.StatusOK, org)
}

// handleDeleteOrg handles DELETE /v1/orgs/{orgId}.
func (s *AdminServer) handleDeleteOrg(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if err := s.store.DeleteOrganization(r.Context(), orgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, notFoundError("organization not found"))
			return
		}
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicOrgDeleted, orgID, "", events.OrgDeleted{OrgID: orgID})
	w.WriteHeader(http.StatusNoContent)
}
