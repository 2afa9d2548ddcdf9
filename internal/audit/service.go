package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"peopleops/internal/platform/metrics"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Store is the persistence contract the ledger drives. Declared here so the
// service owns its dependency surface; internal/audit/store implements it.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	FindByID(ctx context.Context, entryID id.EntryID) (*Entry, error)
	FindByCorrelation(ctx context.Context, correlationID string) ([]Entry, error)
	FindByTenantAndSeverity(ctx context.Context, tenantID string, severity Severity) ([]Entry, error)
	List(ctx context.Context, filter Filter) ([]Entry, int, error)
	FindExpiredByRetention(ctx context.Context, now time.Time, days int) ([]Entry, error)
	DeleteOlderThan(ctx context.Context, now time.Time, days int) (int, error)
}

// StreamPublisher fans appended entries out to the event stream. Must never
// block or fail an append; implementations buffer and drop on overflow.
type StreamPublisher interface {
	Publish(entry *Entry)
}

// Input is what emitters supply; the ledger owns ID, timestamp and hash.
type Input struct {
	Action          string
	Resource        string
	ResourceID      string
	UserID          string
	TenantID        string
	Category        Category
	Severity        Severity
	Changes         Changes
	CorrelationID   string
	RetentionPolicy RetentionPolicy
	ComplianceFlags []string
	IP              string
	Device          string
}

// Ledger appends immutable, hash-bearing entries recording state-changing
// actions and exposes the read/query/export surfaces over them.
type Ledger struct {
	store   Store
	stream  StreamPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func WithStream(stream StreamPublisher) Option {
	return func(l *Ledger) { l.stream = stream }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func NewLedger(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append validates, hashes and persists one ledger entry. The hash is
// computed over the canonical tuple before persistence so verifiers can
// always recompute it from stored content.
func (l *Ledger) Append(ctx context.Context, in Input) (*Entry, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:              id.EntryID(uuid.New()),
		Action:          in.Action,
		Resource:        in.Resource,
		ResourceID:      in.ResourceID,
		UserID:          in.UserID,
		TenantID:        in.TenantID,
		Category:        in.Category,
		Severity:        in.Severity,
		Changes:         in.Changes,
		CorrelationID:   in.CorrelationID,
		RetentionPolicy: in.RetentionPolicy,
		ComplianceFlags: in.ComplianceFlags,
		IP:              in.IP,
		Device:          in.Device,
		CreatedAt:       requestcontext.Now(ctx).UTC(),
	}
	if entry.Category == "" {
		entry.Category = CategoryDataChange
	}
	if entry.Severity == "" {
		entry.Severity = DefaultSeverity(entry.Action)
	}
	if entry.RetentionPolicy == "" {
		entry.RetentionPolicy = RetentionStandard
	}

	hash, err := ComputeHash(entry.Action, entry.Resource, entry.ResourceID, entry.UserID, entry.Changes, entry.CreatedAt)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash audit entry")
	}
	entry.Hash = hash

	if err := l.store.Append(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
	}

	if l.metrics != nil {
		l.metrics.AuditEntriesAppended.Inc()
	}
	if l.stream != nil {
		l.stream.Publish(entry)
	}
	return entry, nil
}

func validateInput(in Input) error {
	var violations []string
	if in.Action == "" {
		violations = append(violations, "action is required")
	}
	if in.Resource == "" {
		violations = append(violations, "resource is required")
	}
	if in.ResourceID == "" {
		violations = append(violations, "resourceId is required")
	}
	if in.UserID == "" {
		violations = append(violations, "userId is required")
	}
	if in.CorrelationID == "" {
		violations = append(violations, "correlationId is required")
	}
	if len(violations) > 0 {
		return dErrors.NewValidation("audit entry is missing required fields", violations)
	}
	return nil
}

// RecordDiscrepancy is the best-effort compensation path: when an audit
// append fails after a state change already landed, the discrepancy itself
// is recorded rather than silently dropped. Failure here is logged only;
// there is nothing further to unwind.
func (l *Ledger) RecordDiscrepancy(ctx context.Context, in Input, cause error) {
	l.logger.ErrorContext(ctx, "audit append failed after state change",
		"action", in.Action,
		"resource", in.Resource,
		"resource_id", in.ResourceID,
		"error", cause,
		"request_id", requestcontext.RequestID(ctx),
	)
	_, err := l.Append(ctx, Input{
		Action:        "audit_append_failed",
		Resource:      in.Resource,
		ResourceID:    in.ResourceID,
		UserID:        in.UserID,
		TenantID:      in.TenantID,
		Category:      CategoryConfiguration,
		Severity:      SeverityCritical,
		CorrelationID: in.CorrelationID,
		Changes: Changes{
			After: map[string]any{
				"failed_action": in.Action,
				"cause":         cause.Error(),
			},
		},
		RetentionPolicy: RetentionPermanent,
	})
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to record audit discrepancy", "error", err)
	}
}

func (l *Ledger) FindByCorrelation(ctx context.Context, correlationID string) ([]Entry, error) {
	if correlationID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "correlation id is required")
	}
	entries, err := l.store.FindByCorrelation(ctx, correlationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit entries")
	}
	return entries, nil
}

func (l *Ledger) FindByTenantAndSeverity(ctx context.Context, tenantID string, severity Severity) ([]Entry, error) {
	entries, err := l.store.FindByTenantAndSeverity(ctx, tenantID, severity)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit entries")
	}
	return entries, nil
}

func (l *Ledger) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	entries, total, err := l.store.List(ctx, filter)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit entries")
	}
	return entries, total, nil
}

// SuspiciousActivities returns warning-and-above entries for a tenant
// within the lookback window.
func (l *Ledger) SuspiciousActivities(ctx context.Context, tenantID string, window time.Duration) ([]Entry, error) {
	now := requestcontext.Now(ctx)
	entries, _, err := l.store.List(ctx, Filter{
		TenantID:    tenantID,
		MinSeverity: SeverityWarning,
		From:        now.Add(-window),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query suspicious activities")
	}
	return entries, nil
}

// FailedLogins returns the failed-login trail for a tenant.
func (l *Ledger) FailedLogins(ctx context.Context, tenantID string, filter Filter) ([]Entry, int, error) {
	filter.TenantID = tenantID
	filter.Action = "login_failed"
	return l.List(ctx, filter)
}

func (l *Ledger) FindExpiredByRetention(ctx context.Context, days int) ([]Entry, error) {
	if days <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "retention days must be positive")
	}
	entries, err := l.store.FindExpiredByRetention(ctx, requestcontext.Now(ctx), days)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query expired audit entries")
	}
	return entries, nil
}

// CleanupOldLogs deletes entries older than the threshold. This is the only
// legitimate destruction path; the sweep itself is recorded in the ledger.
func (l *Ledger) CleanupOldLogs(ctx context.Context, days int, requestedBy string) (int, error) {
	if days <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "retention days must be positive")
	}
	deleted, err := l.store.DeleteOlderThan(ctx, requestcontext.Now(ctx), days)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to clean up audit entries")
	}
	if l.metrics != nil {
		l.metrics.AuditEntriesDeleted.Add(float64(deleted))
	}
	if deleted > 0 && requestedBy != "" {
		// The retention worker runs on a background context with no request
		// id; the sweep record still needs a correlation id to pass append
		// validation.
		correlationID := requestcontext.RequestID(ctx)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		_, err = l.Append(ctx, Input{
			Action:        "audit_cleanup",
			Resource:      "audit_entries",
			ResourceID:    "retention_sweep",
			UserID:        requestedBy,
			Category:      CategoryConfiguration,
			CorrelationID: correlationID,
			Changes: Changes{
				After: map[string]any{"deleted": deleted, "older_than_days": days},
			},
			RetentionPolicy: RetentionExtended,
		})
		if err != nil {
			l.logger.WarnContext(ctx, "failed to record cleanup in ledger", "error", err)
		}
	}
	return deleted, nil
}

// VerifyFilter recomputes hashes over a filtered set and returns the IDs of
// entries whose stored hash no longer matches their content.
func (l *Ledger) VerifyFilter(ctx context.Context, filter Filter) ([]id.EntryID, error) {
	entries, _, err := l.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit entries")
	}
	var tampered []id.EntryID
	for i := range entries {
		ok, err := Verify(&entries[i])
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify audit entry")
		}
		if !ok {
			tampered = append(tampered, entries[i].ID)
		}
	}
	return tampered, nil
}

// ExportResult is the shape of an audit export.
type ExportResult struct {
	Success bool           `json:"success"`
	Logs    []Entry        `json:"logs"`
	Stats   map[string]int `json:"stats"`
}

// Export returns the full filtered set (no paging) plus per-severity stats.
func (l *Ledger) Export(ctx context.Context, filter Filter) (*ExportResult, error) {
	filter.Page = 0
	filter.PageSize = 0
	entries, _, err := l.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to export audit entries")
	}
	stats := map[string]int{"total": len(entries)}
	for i := range entries {
		stats[string(entries[i].Severity)]++
	}
	if entries == nil {
		entries = []Entry{}
	}
	return &ExportResult{Success: true, Logs: entries, Stats: stats}, nil
}
