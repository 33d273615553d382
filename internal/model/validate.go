package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// ValidateOrganization checks an Organization for constraint violations.
func ValidateOrganization(o *Organization) error {
	var ve ValidationError
	if strings.TrimSpace(o.Name) == "" {
		ve.add("name", "is required")
	}
	if strings.TrimSpace(o.Slug) == "" {
		ve.add("slug", "is required")
	}
	if strings.TrimSpace(o.AdminEmail) == "" {
		ve.add("adminEmail", "is required")
	} else if !strings.Contains(o.AdminEmail, "@") {
		ve.add("adminEmail", fmt.Sprintf("invalid value %q", o.AdminEmail))
	}
	return ve.orNil()
}

// ValidateTrunk checks a Trunk for constraint violations.
func ValidateTrunk(t *Trunk) error {
	var ve ValidationError
	if strings.TrimSpace(t.Name) == "" {
		ve.add("name", "is required")
	}
	if strings.TrimSpace(t.Host) == "" {
		ve.add("host", "is required")
	}
	if !t.Transport.IsValid() {
		ve.add("transport", fmt.Sprintf("invalid value %q", t.Transport))
	}
	if !t.Srtp.IsValid() {
		ve.add("srtp", fmt.Sprintf("invalid value %q", t.Srtp))
	}
	if !t.DtmfMode.IsValid() {
		ve.add("dtmfMode", fmt.Sprintf("invalid value %q", t.DtmfMode))
	}
	if t.Expires < 0 {
		ve.add("expires", fmt.Sprintf("must not be negative, got %d", t.Expires))
	}
	return ve.orNil()
}

// ValidateInbound checks an Inbound for constraint violations.
func ValidateInbound(in *Inbound) error {
	var ve ValidationError
	if strings.TrimSpace(in.Name) == "" {
		ve.add("name", "is required")
	}
	if strings.TrimSpace(in.DidOrURI) == "" {
		ve.add("didOrUri", "is required")
	}
	if !in.Context.IsValid() {
		ve.add("context", fmt.Sprintf("invalid value %q", in.Context))
	}
	if in.Priority < 1 || in.Priority > 999 {
		ve.add("priority", fmt.Sprintf("must be between 1 and 999, got %d", in.Priority))
	}
	return ve.orNil()
}

// ValidateFlowRecord checks a Flow's metadata (not its graph; graph
// validation lives in the flownode package).
func ValidateFlowRecord(f *Flow) error {
	var ve ValidationError
	name := strings.TrimSpace(f.Name)
	if name == "" {
		ve.add("name", "is required")
	} else if len([]rune(name)) > 200 {
		ve.add("name", "must be 200 characters or fewer")
	}
	if !f.Status.IsValid() {
		ve.add("status", fmt.Sprintf("invalid value %q", f.Status))
	}
	if f.Version < 1 {
		ve.add("version", fmt.Sprintf("must be positive, got %d", f.Version))
	}
	return ve.orNil()
}

// ValidateSurvey checks a CsatSurvey and its questions.
func ValidateSurvey(s *CsatSurvey) error {
	var ve ValidationError
	if strings.TrimSpace(s.Name) == "" {
		ve.add("name", "is required")
	}
	if len(s.ScoreTypes) == 0 {
		ve.add("scoreTypes", "at least one score type is required")
	}
	for _, st := range s.ScoreTypes {
		if !st.IsValid() {
			ve.add("scoreTypes", fmt.Sprintf("invalid value %q", st))
		}
	}
	if len(s.Questions) == 0 {
		ve.add("questions", "at least one question is required")
	}
	for i, q := range s.Questions {
		if strings.TrimSpace(q.Text) == "" {
			ve.add(fmt.Sprintf("questions[%d].text", i), "is required")
		}
	}
	return ve.orNil()
}

// ValidateResponse checks a CsatResponse score against its score type.
func ValidateResponse(r *CsatResponse) error {
	var ve ValidationError
	if !r.Channel.IsValid() {
		ve.add("channel", fmt.Sprintf("invalid value %q", r.Channel))
	}
	switch r.ScoreType {
	case ScoreNPS:
		if r.Score < 0 || r.Score > 10 {
			ve.add("score", fmt.Sprintf("nps score must be between 0 and 10, got %d", r.Score))
		}
	case ScoreStars:
		if r.Score < 1 || r.Score > 5 {
			ve.add("score", fmt.Sprintf("stars score must be between 1 and 5, got %d", r.Score))
		}
	default:
		ve.add("scoreType", fmt.Sprintf("invalid value %q", r.ScoreType))
	}
	if strings.TrimSpace(r.QuestionID) == "" {
		ve.add("questionId", "is required")
	}
	return ve.orNil()
}
