// Package lockout throttles failed logins per (identifier, ip) against the
// tenant's configured attempt limit, locking the pair out for the
// configured duration once the limit is reached.
package lockout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mssola/useragent"

	"peopleops/internal/audit"
	"peopleops/internal/platform/metrics"
	"peopleops/internal/security"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// FailureStore counts failures and holds lock state. The redis
// implementation lives alongside; tests use the in-memory one.
type FailureStore interface {
	// Increment bumps the failure count for key, starting a fresh window
	// of ttl on first failure, and returns the new count.
	Increment(ctx context.Context, key string, ttl time.Duration) (int, error)
	// Lock marks key locked until now+duration.
	Lock(ctx context.Context, key string, duration time.Duration) error
	// LockedUntil reports the lock expiry, zero when unlocked.
	LockedUntil(ctx context.Context, key string) (time.Time, error)
	// Clear removes failure count and lock for key.
	Clear(ctx context.Context, key string) error
}

// SettingsSource resolves the tenant's lockout configuration.
type SettingsSource interface {
	EnsureSettings(ctx context.Context, tenantID string) (*security.Settings, error)
}

// Auditor is the slice of the audit ledger lockout events land in.
type Auditor interface {
	Append(ctx context.Context, in audit.Input) (*audit.Entry, error)
}

// Status reports the throttle state for an (identifier, ip) pair.
type Status struct {
	Locked       bool      `json:"locked"`
	FailureCount int       `json:"failureCount"`
	Remaining    int       `json:"remaining"`
	LockedUntil  time.Time `json:"lockedUntil,omitzero"`
}

type Service struct {
	store    FailureStore
	settings SettingsSource
	auditor  Auditor
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store FailureStore, settings SettingsSource, opts ...Option) *Service {
	s := &Service{store: store, settings: settings, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func key(tenantID, identifier, ip string) string {
	return fmt.Sprintf("lockout:%s:%s:%s", tenantID, identifier, ip)
}

// Check reports whether the pair may attempt a login.
func (s *Service) Check(ctx context.Context, tenantID, identifier, ip string) (*Status, error) {
	settings, err := s.settings.EnsureSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	until, err := s.store.LockedUntil(ctx, key(tenantID, identifier, ip))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read lockout state")
	}
	if !until.IsZero() && until.After(requestcontext.Now(ctx)) {
		return &Status{Locked: true, LockedUntil: until}, nil
	}
	return &Status{Locked: false, Remaining: settings.Lockout.MaxAttempts}, nil
}

// RecordFailure counts a failed login and locks the pair when the
// configured limit is reached. The lockout lands in the audit ledger with
// a device label derived from the request's User-Agent.
func (s *Service) RecordFailure(ctx context.Context, tenantID, identifier, ip string) (*Status, error) {
	settings, err := s.settings.EnsureSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	k := key(tenantID, identifier, ip)
	count, err := s.store.Increment(ctx, k, settings.Lockout.Duration())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}

	s.auditFailure(ctx, tenantID, identifier, ip)

	status := &Status{FailureCount: count, Remaining: settings.Lockout.MaxAttempts - count}
	if count < settings.Lockout.MaxAttempts {
		return status, nil
	}

	duration := settings.Lockout.Duration()
	if err := s.store.Lock(ctx, k, duration); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply lockout")
	}
	status.Locked = true
	status.Remaining = 0
	status.LockedUntil = requestcontext.Now(ctx).Add(duration)

	if s.metrics != nil {
		s.metrics.LockoutsTriggered.Inc()
	}
	s.auditLockout(ctx, tenantID, identifier, ip, status.LockedUntil)
	return status, nil
}

// Clear resets the pair after a successful login.
func (s *Service) Clear(ctx context.Context, tenantID, identifier, ip string) error {
	if err := s.store.Clear(ctx, key(tenantID, identifier, ip)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear login failures")
	}
	return nil
}

func (s *Service) auditFailure(ctx context.Context, tenantID, identifier, ip string) {
	s.append(ctx, audit.Input{
		Action:     "login_failed",
		Resource:   "user_session",
		ResourceID: identifier,
		UserID:     identifier,
		TenantID:   tenantID,
		Category:   audit.CategoryAuthentication,
		IP:         ip,
		Device:     deviceLabel(requestcontext.UserAgent(ctx)),
	})
}

func (s *Service) auditLockout(ctx context.Context, tenantID, identifier, ip string, until time.Time) {
	s.append(ctx, audit.Input{
		Action:          "account_locked",
		Resource:        "user_session",
		ResourceID:      identifier,
		UserID:          identifier,
		TenantID:        tenantID,
		Category:        audit.CategoryAuthentication,
		Severity:        audit.SeverityCritical,
		RetentionPolicy: audit.RetentionExtended,
		IP:              ip,
		Device:          deviceLabel(requestcontext.UserAgent(ctx)),
		Changes: audit.Changes{
			After: map[string]any{"lockedUntil": until},
		},
	})
}

func (s *Service) append(ctx context.Context, in audit.Input) {
	if s.auditor == nil {
		return
	}
	if in.CorrelationID == "" {
		in.CorrelationID = requestcontext.RequestID(ctx)
	}
	if _, err := s.auditor.Append(ctx, in); err != nil {
		s.logger.WarnContext(ctx, "failed to append audit entry",
			"action", in.Action, "error", err)
	}
}

// deviceLabel condenses a User-Agent header into "Browser x.y on OS".
func deviceLabel(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return rawUA
	}
	label := name
	if version != "" {
		label += " " + version
	}
	if os := ua.OS(); os != "" {
		label += " on " + os
	}
	return label
}
