package postgres

import (
	"context"

	"github.com/mysbc/sbcadmin/internal/model"
)

const (
	surveyColumns = `id, organization_id, name, score_types, public_link_slug,
		enabled, created_at, updated_at`

	questionColumns = `id, organization_id, survey_id, text, position, created_at`

	responseColumns = `id, organization_id, survey_id, question_id, trace_id,
		channel, score_type, score, comment, created_at`
)

func queryUpsertSurvey(ctx context.Context, db executor, s *model.CsatSurvey) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO csat_surveys (
			id, organization_id, name, score_types, public_link_slug,
			enabled, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			score_types = EXCLUDED.score_types,
			enabled = EXCLUDED.enabled,
			updated_at = NOW()`,
		s.ID,
		s.OrganizationID,
		s.Name,
		joinCSV(s.ScoreTypes),
		s.PublicLinkSlug,
		s.Enabled,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func queryGetSurvey(ctx context.Context, db executor, orgID, id string) (*model.CsatSurvey, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+surveyColumns+` FROM csat_surveys WHERE id = $1 AND organization_id = $2`,
		id, orgID)
	s, err := scanSurvey(row)
	if err != nil {
		return nil, err
	}
	s.Questions, err = queryGetQuestions(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func queryGetSurveyBySlug(ctx context.Context, db executor, slug string) (*model.CsatSurvey, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+surveyColumns+` FROM csat_surveys WHERE public_link_slug = $1 AND enabled`,
		slug)
	s, err := scanSurvey(row)
	if err != nil {
		return nil, err
	}
	s.Questions, err = queryGetQuestions(ctx, db, s.ID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func queryListSurveys(ctx context.Context, db executor, orgID string) ([]*model.CsatSurvey, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+surveyColumns+` FROM csat_surveys WHERE organization_id = $1 ORDER BY created_at`,
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var surveys []*model.CsatSurvey
	for rows.Next() {
		s, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		surveys = append(surveys, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, s := range surveys {
		s.Questions, err = queryGetQuestions(ctx, db, s.ID)
		if err != nil {
			return nil, err
		}
	}
	return surveys, nil
}

func queryDeleteSurvey(ctx context.Context, db executor, orgID, id string) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM csat_surveys WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

func queryGetQuestions(ctx context.Context, db executor, surveyID string) ([]*model.CsatQuestion, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM csat_questions WHERE survey_id = $1 ORDER BY position`,
		surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*model.CsatQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func queryReplaceSurveyQuestions(ctx context.Context, db executor, surveyID string, questions []*model.CsatQuestion) error {
	if _, err := db.ExecContext(ctx,
		`DELETE FROM csat_questions WHERE survey_id = $1`, surveyID); err != nil {
		return err
	}
	for _, q := range questions {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO csat_questions (id, organization_id, survey_id, text, position, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			q.ID, q.OrganizationID, surveyID, q.Text, q.Order, q.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func queryCreateResponse(ctx context.Context, db executor, r *model.CsatResponse) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO csat_responses (
			id, organization_id, survey_id, question_id, trace_id,
			channel, score_type, score, comment, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID,
		r.OrganizationID,
		r.SurveyID,
		r.QuestionID,
		nullString(r.TraceID),
		string(r.Channel),
		string(r.ScoreType),
		r.Score,
		nullString(r.Comment),
		r.CreatedAt,
	)
	return err
}

func queryListResponses(ctx context.Context, db executor, orgID, surveyID string) ([]*model.CsatResponse, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+responseColumns+` FROM csat_responses
		WHERE survey_id = $1 AND organization_id = $2 ORDER BY created_at`,
		surveyID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []*model.CsatResponse
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}
