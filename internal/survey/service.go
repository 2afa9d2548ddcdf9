package survey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"peopleops/internal/audit"
	"peopleops/internal/notification"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/platform/sentinel"
	"peopleops/pkg/requestcontext"
)

// Store persists survey definitions.
type Store interface {
	Create(ctx context.Context, s *Survey) error
	Get(ctx context.Context, surveyID id.SurveyID) (*Survey, error)
	Update(ctx context.Context, s *Survey) error
	Delete(ctx context.Context, surveyID id.SurveyID) error
	List(ctx context.Context, tenantID string) ([]Survey, error)
}

// Notifier dispatches assignment notifications; the notification service
// satisfies it.
type Notifier interface {
	DispatchAll(ctx context.Context, tenantID string, recipients []id.EmployeeID, in notification.Input) ([]notification.Notification, error)
}

// Auditor is the slice of the audit ledger the service emits into.
type Auditor interface {
	Append(ctx context.Context, in audit.Input) (*audit.Entry, error)
}

type Service struct {
	store    Store
	notifier Notifier
	auditor  Auditor
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Input carries create/update fields for a survey.
type Input struct {
	Title       string
	Description string
	Questions   []Question
}

func (s *Service) Create(ctx context.Context, tenantID string, in Input, createdBy string) (*Survey, error) {
	sv, err := NewSurvey(id.SurveyID(uuid.New()), tenantID,
		in.Title, in.Description, in.Questions, createdBy, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, sv); err != nil {
		return nil, wrapSurveyErr(err)
	}
	s.audit(ctx, "survey_created", sv.ID.String(), createdBy, tenantID)
	return sv, nil
}

func (s *Service) Get(ctx context.Context, surveyID id.SurveyID) (*Survey, error) {
	sv, err := s.store.Get(ctx, surveyID)
	if err != nil {
		return nil, wrapSurveyErr(err)
	}
	return sv, nil
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Survey, error) {
	out, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, wrapSurveyErr(err)
	}
	return out, nil
}

// Update edits a draft. Published surveys are immutable so that everyone
// answers the same questions.
func (s *Service) Update(ctx context.Context, surveyID id.SurveyID, in Input, updatedBy string) (*Survey, error) {
	sv, err := s.store.Get(ctx, surveyID)
	if err != nil {
		return nil, wrapSurveyErr(err)
	}
	if sv.Status != StatusDraft {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"only draft surveys can be edited, survey is %s", sv.Status)
	}
	if in.Title != "" {
		sv.Title = in.Title
	}
	if in.Description != "" {
		sv.Description = in.Description
	}
	if len(in.Questions) > 0 {
		sv.Questions = in.Questions
	}
	sv.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, sv); err != nil {
		return nil, wrapSurveyErr(err)
	}
	s.audit(ctx, "survey_updated", sv.ID.String(), updatedBy, sv.TenantID)
	return sv, nil
}

func (s *Service) Delete(ctx context.Context, surveyID id.SurveyID, deletedBy string) error {
	sv, err := s.store.Get(ctx, surveyID)
	if err != nil {
		return wrapSurveyErr(err)
	}
	if err := s.store.Delete(ctx, surveyID); err != nil {
		return wrapSurveyErr(err)
	}
	s.audit(ctx, "survey_deleted", surveyID.String(), deletedBy, sv.TenantID)
	return nil
}

func (s *Service) Open(ctx context.Context, surveyID id.SurveyID, openedBy string) (*Survey, error) {
	return s.transition(ctx, surveyID, openedBy, "survey_opened", (*Survey).ApplyOpen)
}

func (s *Service) CloseSurvey(ctx context.Context, surveyID id.SurveyID, closedBy string) (*Survey, error) {
	return s.transition(ctx, surveyID, closedBy, "survey_closed", (*Survey).ApplyClose)
}

func (s *Service) transition(ctx context.Context, surveyID id.SurveyID, by, action string, apply func(*Survey, time.Time) error) (*Survey, error) {
	sv, err := s.store.Get(ctx, surveyID)
	if err != nil {
		return nil, wrapSurveyErr(err)
	}
	if err := apply(sv, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, sv); err != nil {
		return nil, wrapSurveyErr(err)
	}
	s.audit(ctx, action, sv.ID.String(), by, sv.TenantID)
	return sv, nil
}

// Assign fans the survey out to the given employees through notification
// dispatch. Only open surveys are assignable.
func (s *Service) Assign(ctx context.Context, surveyID id.SurveyID, recipients []id.EmployeeID, assignedBy string) ([]notification.Notification, error) {
	if len(recipients) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one recipient is required")
	}
	sv, err := s.store.Get(ctx, surveyID)
	if err != nil {
		return nil, wrapSurveyErr(err)
	}
	if err := sv.CanAssign(); err != nil {
		return nil, err
	}
	if s.notifier == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "notification dispatch is not configured")
	}
	sent, err := s.notifier.DispatchAll(ctx, sv.TenantID, recipients, notification.Input{
		Kind:      notification.KindSurveyAssignment,
		Title:     fmt.Sprintf("Survey assigned: %s", sv.Title),
		Body:      sv.Description,
		RelatedID: sv.ID.String(),
	})
	if err != nil {
		return sent, err
	}
	s.audit(ctx, "survey_assigned", sv.ID.String(), assignedBy, sv.TenantID)
	return sent, nil
}

func (s *Service) audit(ctx context.Context, action, resourceID, userID, tenantID string) {
	if s.auditor == nil {
		return
	}
	correlationID := requestcontext.RequestID(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	if _, err := s.auditor.Append(ctx, audit.Input{
		Action:        action,
		Resource:      "survey",
		ResourceID:    resourceID,
		UserID:        userID,
		TenantID:      tenantID,
		Category:      audit.CategoryDataChange,
		CorrelationID: correlationID,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to append audit entry",
			"action", action, "error", err)
	}
}

func wrapSurveyErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "survey not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "survey already exists")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "survey store failure")
	}
}
