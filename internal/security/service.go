package security

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"peopleops/internal/audit"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/platform/sentinel"
	"peopleops/pkg/requestcontext"
)

// Store persists per-tenant settings documents.
type Store interface {
	Create(ctx context.Context, settings *Settings) error
	Get(ctx context.Context, tenantID string) (*Settings, error)
	Save(ctx context.Context, settings *Settings) error
}

// Auditor is the slice of the audit ledger the service emits into.
type Auditor interface {
	Append(ctx context.Context, in audit.Input) (*audit.Entry, error)
}

// Service owns the settings lifecycle: lazy creation with defaults,
// partial updates and the password/whitelist helpers.
type Service struct {
	store   Store
	auditor Auditor
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSettings returns the tenant's settings, creating the defaults on
// first access. A duplicate-key failure means a concurrent caller created
// them first; the loser re-fetches instead of failing.
func (s *Service) EnsureSettings(ctx context.Context, tenantID string) (*Settings, error) {
	settings, err := s.store.Get(ctx, tenantID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load security settings")
	}

	settings = DefaultSettings(tenantID, requestcontext.Now(ctx))
	createErr := s.store.Create(ctx, settings)
	if createErr == nil {
		return settings, nil
	}
	if errors.Is(createErr, sentinel.ErrConflict) {
		settings, err = s.store.Get(ctx, tenantID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to re-fetch security settings")
		}
		return settings, nil
	}
	return nil, dErrors.Wrap(createErr, dErrors.CodeInternal, "failed to create security settings")
}

// UpdateSettings merges a partial update, validates the result and
// persists it.
func (s *Service) UpdateSettings(ctx context.Context, tenantID string, in UpdateInput, modifiedBy string) (*Settings, error) {
	settings, err := s.EnsureSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := settings.ApplyUpdate(in, modifiedBy, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, settings); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save security settings")
	}
	s.audit(ctx, audit.Input{
		Action:          "security_settings_updated",
		Resource:        "security_settings",
		ResourceID:      tenantID,
		UserID:          modifiedBy,
		TenantID:        tenantID,
		Category:        audit.CategoryConfiguration,
		Severity:        audit.SeverityWarning,
		RetentionPolicy: audit.RetentionExtended,
	})
	return settings, nil
}

// TestPassword evaluates a candidate against the tenant's current policy.
func (s *Service) TestPassword(ctx context.Context, tenantID, candidate string) (PasswordCheck, error) {
	settings, err := s.EnsureSettings(ctx, tenantID)
	if err != nil {
		return PasswordCheck{}, err
	}
	return settings.CheckPassword(candidate), nil
}

// ValidatePassword returns a validation error carrying every violated
// rule, for callers that want rejection rather than a report.
func (s *Service) ValidatePassword(ctx context.Context, tenantID, candidate string) error {
	check, err := s.TestPassword(ctx, tenantID, candidate)
	if err != nil {
		return err
	}
	if !check.Valid {
		return dErrors.NewValidation("password does not satisfy the policy", check.Errors)
	}
	return nil
}

// IsIPWhitelisted evaluates ip against the tenant's whitelist.
func (s *Service) IsIPWhitelisted(ctx context.Context, tenantID, ip string) (bool, error) {
	settings, err := s.EnsureSettings(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return settings.IsIPWhitelisted(ip), nil
}

func (s *Service) audit(ctx context.Context, in audit.Input) {
	if s.auditor == nil {
		return
	}
	if in.CorrelationID == "" {
		in.CorrelationID = requestcontext.RequestID(ctx)
	}
	if in.CorrelationID == "" {
		in.CorrelationID = uuid.New().String()
	}
	if _, err := s.auditor.Append(ctx, in); err != nil {
		s.logger.WarnContext(ctx, "failed to append audit entry",
			"action", in.Action, "error", err)
	}
}
