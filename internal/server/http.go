package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health and the
// public survey routes) must include a valid Authorization: Bearer <token>
// header.
func (s *AdminServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/orgs", s.handleCreateOrg)
	mux.HandleFunc("GET /v1/orgs", s.handleListOrgs)
	mux.HandleFunc("GET /v1/orgs/{orgId}", s.handleGetOrg)
	mux.HandleFunc("PATCH /v1/orgs/{orgId}", s.handleUpdateOrg)
	mux.HandleFunc("POST /v1/orgs/{orgId}/block", s.handleBlockOrg)
	mux.HandleFunc("DELETE /v1/orgs/{orgId}", s.handleDeleteOrg)

	mux.HandleFunc("GET /v1/orgs/{orgId}/trunks", s.handleListTrunks)
	mux.HandleFunc("POST /v1/orgs/{orgId}/trunks", s.handleCreateTrunk)
	mux.HandleFunc("GET /v1/orgs/{orgId}/trunks/{id}", s.handleGetTrunk)
	mux.HandleFunc("PUT /v1/orgs/{orgId}/trunks/{id}", s.handleUpdateTrunk)
	mux.HandleFunc("DELETE /v1/orgs/{orgId}/trunks/{id}", s.handleDeleteTrunk)
	mux.HandleFunc("POST /v1/orgs/{orgId}/trunks/{id}/test", s.handleTestTrunk)

	mux.HandleFunc("GET /v1/orgs/{orgId}/inbounds", s.handleListInbounds)
	mux.HandleFunc("POST /v1/orgs/{orgId}/inbounds", s.handleCreateInbound)
	mux.HandleFunc("GET /v1/orgs/{orgId}/inbounds/{id}", s.handleGetInbound)
	mux.HandleFunc("PUT /v1/orgs/{orgId}/inbounds/{id}", s.handleUpdateInbound)
	mux.HandleFunc("DELETE /v1/orgs/{orgId}/inbounds/{id}", s.handleDeleteInbound)

	mux.HandleFunc("GET /v1/orgs/{orgId}/flows", s.handleListFlows)
	mux.HandleFunc("POST /v1/orgs/{orgId}/flows", s.handleCreateFlow)
	mux.HandleFunc("GET /v1/orgs/{orgId}/flows/{id}", s.handleGetFlow)
	mux.HandleFunc("PUT /v1/orgs/{orgId}/flows/{id}", s.handleUpdateFlow)
	mux.HandleFunc("DELETE /v1/orgs/{orgId}/flows/{id}", s.handleDeleteFlow)
	mux.HandleFunc("POST /v1/orgs/{orgId}/flows/{id}/validate", s.handleValidateFlow)
	mux.HandleFunc("POST /v1/orgs/{orgId}/flows/{id}/publish", s.handlePublishFlow)
	mux.HandleFunc("POST /v1/orgs/{orgId}/flows/{id}/unpublish", s.handleUnpublishFlow)
	mux.HandleFunc("POST /v1/orgs/{orgId}/flows/{id}/rollback", s.handleRollbackFlow)
	mux.HandleFunc("GET /v1/orgs/{orgId}/flows/{id}/versions", s.handleListFlowVersions)

	mux.HandleFunc("GET /v1/orgs/{orgId}/audio", s.handleListAudio)
	mux.HandleFunc("POST /v1/orgs/{orgId}/audio", s.handleUploadAudio)
	mux.HandleFunc("POST /v1/orgs/{orgId}/audio/tts", s.handleSynthesizeAudio)
	mux.HandleFunc("GET /v1/orgs/{orgId}/audio/{id}", s.handleGetAudio)
	mux.HandleFunc("DELETE /v1/orgs/{orgId}/audio/{id}", s.handleDeleteAudio)

	mux.HandleFunc("GET /v1/orgs/{orgId}/csat/surveys", s.handleListSurveys)
	mux.HandleFunc("POST /v1/orgs/{orgId}/csat/surveys", s.handleCreateSurvey)
	mux.HandleFunc("GET /v1/orgs/{orgId}/csat/surveys/{id}", s.handleGetSurvey)
	mux.HandleFunc("PUT /v1/orgs/{orgId}/csat/surveys/{id}", s.handleUpdateSurvey)
	mux.HandleFunc("DELETE /v1/orgs/{orgId}/csat/surveys/{id}", s.handleDeleteSurvey)
	mux.HandleFunc("POST /v1/orgs/{orgId}/csat/surveys/{id}/responses", s.handleCreateResponse)
	mux.HandleFunc("GET /v1/orgs/{orgId}/csat/surveys/{id}/responses", s.handleListResponses)
	mux.HandleFunc("GET /v1/orgs/{orgId}/csat/surveys/{id}/responses/export", s.handleExportResponses)
	mux.HandleFunc("GET /v1/orgs/{orgId}/csat/surveys/{id}/analytics", s.handleSurveyAnalytics)
	mux.HandleFunc("GET /v1/orgs/{orgId}/csat/dashboard", s.handleCsatDashboard)

	mux.HandleFunc("GET /v1/csat/public/{slug}", s.handlePublicSurvey)
	mux.HandleFunc("POST /v1/csat/public/{slug}/responses", s.handlePublicResponse)

	mux.HandleFunc("GET /v1/orgs/{orgId}/quotas", s.handleGetQuota)
	mux.HandleFunc("GET /v1/orgs/{orgId}/events", s.handleListEvents)
	mux.HandleFunc("GET /v1/orgs/{orgId}/executions", s.handleListExecutions)
	mux.HandleFunc("POST /v1/orgs/{orgId}/executions", s.handleRecordExecution)

	mux.HandleFunc("GET /v1/health", s.handleHealth)

	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health. The engine check is informational;
// the endpoint answers 200 as long as the API itself is up.
func (s *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"engine": s.engine.Health(r.Context()),
	})
}

// authExempt reports whether a request bypasses bearer auth: the health
// check and the public survey surface callers reach without credentials.
func authExempt(r *http.Request) bool {
	if r.Method == http.MethodGet && r.URL.Path == "/v1/health" {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/v1/csat/public/")
}

// AuthMiddleware wraps an http.Handler and checks the Authorization header
// for a valid Bearer token. When token is empty, auth is disabled and all
// requests pass through.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authExempt(r) {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		if !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "invalid authorization scheme")
			return
		}

		provided := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
