package model

import "time"

// CsatChannel is the channel a survey response arrived through.
type CsatChannel string

const (
	ChannelIVR  CsatChannel = "ivr"
	ChannelLink CsatChannel = "link"
)

// IsValid checks whether the channel is a known value.
func (c CsatChannel) IsValid() bool {
	switch c {
	case ChannelIVR, ChannelLink:
		return true
	}
	return false
}

// CsatScoreType is the scoring scheme of a survey question.
type CsatScoreType string

const (
	ScoreNPS   CsatScoreType = "nps"   // 0-10
	ScoreStars CsatScoreType = "stars" // 1-5
)

// IsValid checks whether the score type is a known value.
func (s CsatScoreType) IsValid() bool {
	switch s {
	case ScoreNPS, ScoreStars:
		return true
	}
	return false
}

// CsatSurvey is a customer-satisfaction survey. IVR surveys are rendered to
// a Lua script executed by the engine; link surveys are reachable through
// the public slug.
type CsatSurvey struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organizationId"`
	Name           string          `json:"name"`
	ScoreTypes     []CsatScoreType `json:"scoreTypes"`
	PublicLinkSlug string          `json:"publicLinkSlug"`
	Enabled        bool            `json:"enabled"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	// Populated by queries that join questions; not stored on the surveys row.
	Questions []*CsatQuestion `json:"questions,omitempty"`
}

// QuestionByID returns the question with the given ID, or nil.
func (s *CsatSurvey) QuestionByID(id string) *CsatQuestion {
	for _, q := range s.Questions {
		if q.ID == id {
			return q
		}
	}
	return nil
}

// CsatQuestion is one ordered question of a survey.
type CsatQuestion struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	SurveyID       string    `json:"surveyId"`
	Text           string    `json:"text"`
	Order          int       `json:"order"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CsatResponse is one submitted answer.
type CsatResponse struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organizationId"`
	SurveyID       string        `json:"surveyId"`
	QuestionID     string        `json:"questionId"`
	TraceID        string        `json:"traceId"`
	Channel        CsatChannel   `json:"channel"`
	ScoreType      CsatScoreType `json:"scoreType"`
	Score          int           `json:"score"`
	Comment        string        `json:"comment,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// NPSStats aggregates NPS responses. Scores 0-6 count as detractors, 7-8 as
// passive, 9-10 as promoters.
type NPSStats struct {
	Total      int `json:"total"`
	Detractors int `json:"detractors"`
	Passive    int `json:"passive"`
	Promoters  int `json:"promoters"`
	Score      int `json:"score"` // round(((promoters-detractors)/total)*100)
}

// CsatAnalytics is the aggregate report for one survey.
type CsatAnalytics struct {
	TotalResponses int            `json:"totalResponses"`
	NPS            NPSStats       `json:"nps"`
	StarsAverage   float64        `json:"starsAverage"` // rounded to one decimal
	Distribution   map[string]int `json:"distribution"` // "<scoreType>_<score>" -> count
	Period         string         `json:"period"`
}
