// Package survey owns survey definitions and their assignment to
// employees. Assignment produces notification records; collecting answers
// happens in the survey tool itself, not here.
package survey

import (
	"strings"
	"time"

	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

// Status is the survey lifecycle.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Question is one prompt in a survey.
type Question struct {
	Text     string   `json:"text"`
	Kind     string   `json:"kind"` // free_text, rating, choice
	Choices  []string `json:"choices,omitempty"`
	Required bool     `json:"required"`
}

// Survey is a questionnaire definition.
type Survey struct {
	ID          id.SurveyID `json:"id"`
	TenantID    string      `json:"tenantId"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Questions   []Question  `json:"questions"`
	Status      Status      `json:"status"`
	CreatedBy   string      `json:"createdBy"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewSurvey validates and builds a draft survey, collecting every
// violation.
func NewSurvey(surveyID id.SurveyID, tenantID, title, description string, questions []Question, createdBy string, now time.Time) (*Survey, error) {
	var violations []string
	if strings.TrimSpace(title) == "" {
		violations = append(violations, "title is required")
	}
	if len(questions) == 0 {
		violations = append(violations, "at least one question is required")
	}
	for i := range questions {
		if strings.TrimSpace(questions[i].Text) == "" {
			violations = append(violations, "every question needs text")
			break
		}
	}
	if len(violations) > 0 {
		return nil, dErrors.NewValidation("invalid survey", violations)
	}
	return &Survey{
		ID:          surveyID,
		TenantID:    tenantID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Questions:   questions,
		Status:      StatusDraft,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanAssign gates assignment on the lifecycle: only open surveys go out.
func (s *Survey) CanAssign() error {
	if s.Status != StatusOpen {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "survey is %s, only open surveys can be assigned", s.Status)
	}
	return nil
}

// ApplyOpen moves a draft to open.
func (s *Survey) ApplyOpen(now time.Time) error {
	if s.Status != StatusDraft {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "only draft surveys can be opened, survey is %s", s.Status)
	}
	s.Status = StatusOpen
	s.UpdatedAt = now
	return nil
}

// ApplyClose moves an open survey to closed.
func (s *Survey) ApplyClose(now time.Time) error {
	if s.Status != StatusOpen {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "only open surveys can be closed, survey is %s", s.Status)
	}
	s.Status = StatusClosed
	s.UpdatedAt = now
	return nil
}
