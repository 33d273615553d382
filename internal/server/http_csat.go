package server

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/mysbc/sbcadmin/internal/events"
	"github.com/mysbc/sbcadmin/internal/idgen"
	"github.com/mysbc/sbcadmin/internal/model"
	"github.com/mysbc/sbcadmin/internal/store"
)

// publicSlugLen is the length of generated public survey link tokens.
const publicSlugLen = 10

type surveyInput struct {
	Name       string                `json:"name"`
	ScoreTypes []model.CsatScoreType `json:"scoreTypes"`
	Enabled    *bool                 `json:"enabled"`
	Questions  []surveyQuestionInput `json:"questions"`
}

type surveyQuestionInput struct {
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// handleListSurveys handles GET /v1/orgs/{orgId}/csat/surveys.
func (s *AdminServer) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, false); err != nil {
		respondError(w, err)
		return
	}
	surveys, err := s.store.ListSurveys(r.Context(), orgID)
	if err != nil {
		respondError(w, err)
		return
	}
	if surveys == nil {
		surveys = []*model.CsatSurvey{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"surveys": surveys})
}

// handleGetSurvey handles GET /v1/orgs/{orgId}/csat/surveys/{id}.
func (s *AdminServer) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	survey, err := s.store.GetSurvey(r.Context(), r.PathValue("orgId"), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("survey not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

// handleCreateSurvey handles POST /v1/orgs/{orgId}/csat/surveys.
func (s *AdminServer) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	var in surveyInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, err)
		return
	}

	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	id, err := idgen.Generate(idgen.PrefixSurvey)
	if err != nil {
		respondError(w, err)
		return
	}
	slug, err := idgen.Slug(publicSlugLen)
	if err != nil {
		respondError(w, err)
		return
	}
	now := time.Now().UTC()
	survey := &model.CsatSurvey{
		ID:             id,
		OrganizationID: orgID,
		Name:           in.Name,
		ScoreTypes:     in.ScoreTypes,
		PublicLinkSlug: slug,
		Enabled:        in.Enabled == nil || *in.Enabled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.attachQuestions(survey, in.Questions); err != nil {
		respondError(w, err)
		return
	}

	s.persistSurvey(w, r, survey, http.StatusCreated)
}

// handleUpdateSurvey handles PUT /v1/orgs/{orgId}/csat/surveys/{id}. The
// public slug survives updates so printed links keep working.
func (s *AdminServer) handleUpdateSurvey(w http.ResponseWriter, r *http.Request) {
	var in surveyInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, err)
		return
	}

	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	survey, err := s.store.GetSurvey(r.Context(), orgID, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("survey not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	survey.Name = in.Name
	survey.ScoreTypes = in.ScoreTypes
	if in.Enabled != nil {
		survey.Enabled = *in.Enabled
	}
	survey.UpdatedAt = time.Now().UTC()
	if err := s.attachQuestions(survey, in.Questions); err != nil {
		respondError(w, err)
		return
	}

	s.persistSurvey(w, r, survey, http.StatusOK)
}

// attachQuestions builds question rows in declared order.
func (s *AdminServer) attachQuestions(survey *model.CsatSurvey, in []surveyQuestionInput) error {
	questions := make([]*model.CsatQuestion, 0, len(in))
	for i, q := range in {
		id, err := idgen.Generate(idgen.PrefixQuestion)
		if err != nil {
			return err
		}
		order := q.Order
		if order == 0 {
			order = i + 1
		}
		questions = append(questions, &model.CsatQuestion{
			ID:             id,
			OrganizationID: survey.OrganizationID,
			SurveyID:       survey.ID,
			Text:           q.Text,
			Order:          order,
			CreatedAt:      time.Now().UTC(),
		})
	}
	survey.Questions = questions
	return nil
}

// persistSurvey validates, saves survey plus questions in one transaction,
// and writes the IVR script.
func (s *AdminServer) persistSurvey(w http.ResponseWriter, r *http.Request, survey *model.CsatSurvey, status int) {
	if err := model.ValidateSurvey(survey); err != nil {
		respondError(w, err)
		return
	}

	err := s.store.RunInTransaction(r.Context(), func(tx store.Store) error {
		if err := tx.UpsertSurvey(r.Context(), survey); err != nil {
			return err
		}
		return tx.ReplaceSurveyQuestions(r.Context(), survey.ID, survey.Questions)
	})
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := s.engine.WriteSurveyScript(r.Context(), survey)
	if err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicSurveyUpserted, survey.OrganizationID, "",
		events.SurveyUpserted{Survey: survey})
	writeJSON(w, status, map[string]any{"survey": survey, "result": result})
}

// handleDeleteSurvey handles DELETE /v1/orgs/{orgId}/csat/surveys/{id}.
func (s *AdminServer) handleDeleteSurvey(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, true); err != nil {
		respondError(w, err)
		return
	}

	id := r.PathValue("id")
	if err := s.store.DeleteSurvey(r.Context(), orgID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, notFoundError("survey not found"))
			return
		}
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicSurveyDeleted, orgID, "",
		events.SurveyDeleted{OrgID: orgID, SurveyID: id})
	w.WriteHeader(http.StatusNoContent)
}

type responseInput struct {
	QuestionID string              `json:"questionId"`
	TraceID    string              `json:"traceId"`
	Channel    model.CsatChannel   `json:"channel"`
	ScoreType  model.CsatScoreType `json:"scoreType"`
	Score      int                 `json:"score"`
	Comment    string              `json:"comment"`
}

// handleCreateResponse handles POST /v1/orgs/{orgId}/csat/surveys/{id}/responses.
// The engine-side Lua script posts here with channel=ivr.
func (s *AdminServer) handleCreateResponse(w http.ResponseWriter, r *http.Request) {
	var in responseInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, err)
		return
	}

	orgID := r.PathValue("orgId")
	survey, err := s.store.GetSurvey(r.Context(), orgID, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("survey not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	s.submitResponse(w, r, survey, in)
}

// handlePublicSurvey handles GET /v1/csat/public/{slug}: the form payload
// behind a printed or texted survey link. No auth, no org internals.
func (s *AdminServer) handlePublicSurvey(w http.ResponseWriter, r *http.Request) {
	survey, err := s.store.GetSurveyBySlug(r.Context(), r.PathValue("slug"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("survey not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	questions := make([]map[string]any, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		questions = append(questions, map[string]any{"id": q.ID, "text": q.Text, "order": q.Order})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":       survey.Name,
		"scoreTypes": survey.ScoreTypes,
		"questions":  questions,
	})
}

// handlePublicResponse handles POST /v1/csat/public/{slug}/responses.
func (s *AdminServer) handlePublicResponse(w http.ResponseWriter, r *http.Request) {
	var in responseInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, err)
		return
	}

	survey, err := s.store.GetSurveyBySlug(r.Context(), r.PathValue("slug"))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("survey not found"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	in.Channel = model.ChannelLink
	s.submitResponse(w, r, survey, in)
}

func (s *AdminServer) submitResponse(w http.ResponseWriter, r *http.Request, survey *model.CsatSurvey, in responseInput) {
	id, err := idgen.Generate(idgen.PrefixResponse)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := &model.CsatResponse{
		ID:             id,
		OrganizationID: survey.OrganizationID,
		SurveyID:       survey.ID,
		QuestionID:     in.QuestionID,
		TraceID:        in.TraceID,
		Channel:        in.Channel,
		ScoreType:      in.ScoreType,
		Score:          in.Score,
		Comment:        in.Comment,
		CreatedAt:      time.Now().UTC(),
	}
	if err := model.ValidateResponse(resp); err != nil {
		respondError(w, err)
		return
	}
	if survey.QuestionByID(in.QuestionID) == nil {
		respondError(w, inputError(fmt.Sprintf("question %q does not belong to this survey", in.QuestionID)))
		return
	}

	if err := s.store.CreateResponse(r.Context(), resp); err != nil {
		respondError(w, err)
		return
	}

	s.recordAndPublish(r.Context(), events.TopicResponseSubmitted, survey.OrganizationID, resp.TraceID,
		events.ResponseSubmitted{Response: resp})
	writeJSON(w, http.StatusCreated, resp)
}

// handleListResponses handles GET /v1/orgs/{orgId}/csat/surveys/{id}/responses.
func (s *AdminServer) handleListResponses(w http.ResponseWriter, r *http.Request) {
	responses, err := s.store.ListResponses(r.Context(), r.PathValue("orgId"), r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	if responses == nil {
		responses = []*model.CsatResponse{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": responses})
}

// handleExportResponses handles GET .../responses/export as CSV.
func (s *AdminServer) handleExportResponses(w http.ResponseWriter, r *http.Request) {
	responses, err := s.store.ListResponses(r.Context(), r.PathValue("orgId"), r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="responses.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "questionId", "traceId", "channel", "scoreType", "score", "comment", "createdAt"})
	for _, resp := range responses {
		_ = cw.Write([]string{
			resp.ID,
			resp.QuestionID,
			resp.TraceID,
			string(resp.Channel),
			string(resp.ScoreType),
			strconv.Itoa(resp.Score),
			resp.Comment,
			resp.CreatedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()
}

// handleSurveyAnalytics handles GET .../surveys/{id}/analytics.
func (s *AdminServer) handleSurveyAnalytics(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.store.GetSurvey(r.Context(), orgID, r.PathValue("id")); errors.Is(err, sql.ErrNoRows) {
		respondError(w, notFoundError("survey not found"))
		return
	} else if err != nil {
		respondError(w, err)
		return
	}

	responses, err := s.store.ListResponses(r.Context(), orgID, r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, computeAnalytics(responses))
}

// handleCsatDashboard handles GET /v1/orgs/{orgId}/csat/dashboard: per-survey
// analytics for every survey in the organization.
func (s *AdminServer) handleCsatDashboard(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgId")
	if _, err := s.requireOrg(r.Context(), orgID, false); err != nil {
		respondError(w, err)
		return
	}

	surveys, err := s.store.ListSurveys(r.Context(), orgID)
	if err != nil {
		respondError(w, err)
		return
	}

	total := 0
	entries := make([]map[string]any, 0, len(surveys))
	for _, survey := range surveys {
		responses, err := s.store.ListResponses(r.Context(), orgID, survey.ID)
		if err != nil {
			respondError(w, err)
			return
		}
		analytics := computeAnalytics(responses)
		total += analytics.TotalResponses
		entries = append(entries, map[string]any{
			"survey":    survey,
			"analytics": analytics,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalResponses": total,
		"surveys":        entries,
	})
}

// computeAnalytics aggregates a survey's responses. NPS buckets: 0-6
// detractors, 7-8 passive, 9-10 promoters.
func computeAnalytics(responses []*model.CsatResponse) model.CsatAnalytics {
	a := model.CsatAnalytics{
		TotalResponses: len(responses),
		Distribution:   make(map[string]int),
		Period:         "all",
	}

	starsSum, starsCount := 0, 0
	for _, r := range responses {
		a.Distribution[fmt.Sprintf("%s_%d", r.ScoreType, r.Score)]++
		switch r.ScoreType {
		case model.ScoreNPS:
			a.NPS.Total++
			switch {
			case r.Score <= 6:
				a.NPS.Detractors++
			case r.Score <= 8:
				a.NPS.Passive++
			default:
				a.NPS.Promoters++
			}
		case model.ScoreStars:
			starsSum += r.Score
			starsCount++
		}
	}

	if a.NPS.Total > 0 {
		a.NPS.Score = int(math.Round(float64(a.NPS.Promoters-a.NPS.Detractors) / float64(a.NPS.Total) * 100))
	}
	if starsCount > 0 {
		a.StarsAverage = math.Round(float64(starsSum)/float64(starsCount)*10) / 10
	}
	return a
}
