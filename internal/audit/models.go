package audit

import (
	"time"

	id "peopleops/pkg/domain"
)

// Category classifies ledger entries by their primary purpose. Categories
// drive retention tiers and the query surfaces exposed over HTTP.
type Category string

const (
	// CategoryAuthentication covers login, logout and credential events.
	CategoryAuthentication Category = "authentication"
	// CategoryAuthorization covers role and access decisions.
	CategoryAuthorization Category = "authorization"
	// CategoryPermission covers permission grants/revocations; this is the
	// trail served by the /permission-audit endpoints.
	CategoryPermission Category = "permission"
	// CategoryDataChange covers mutations of HR entities.
	CategoryDataChange Category = "data_change"
	// CategoryConfiguration covers security-settings and policy changes.
	CategoryConfiguration Category = "configuration"
)

// Severity levels for ledger entries.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// RetentionPolicy names the tier governing how long an entry survives
// before cleanup eligibility.
type RetentionPolicy string

const (
	// RetentionStandard entries are eligible for cleanup at the caller's
	// threshold.
	RetentionStandard RetentionPolicy = "standard"
	// RetentionExtended entries use a longer horizon (compliance holds).
	RetentionExtended RetentionPolicy = "extended"
	// RetentionPermanent entries are never deleted by cleanup.
	RetentionPermanent RetentionPolicy = "permanent"
)

// ExtendedRetentionMultiplier scales the caller-supplied threshold for
// extended-retention entries.
const ExtendedRetentionMultiplier = 4

// Changes captures the before/after state of a mutation. Maps serialize
// with sorted keys, which keeps the canonical hash input deterministic.
type Changes struct {
	Before map[string]any `json:"before,omitempty"`
	After  map[string]any `json:"after,omitempty"`
	Fields []string       `json:"fields,omitempty"`
}

// Entry is one immutable ledger record. Hash binds the entry to its
// original content: no field, especially CreatedAt and Hash, may change
// after Append. The only legitimate destruction path is retention cleanup.
type Entry struct {
	ID              id.EntryID      `json:"id"`
	Action          string          `json:"action"`
	Resource        string          `json:"resource"`
	ResourceID      string          `json:"resourceId"`
	UserID          string          `json:"userId"`
	TenantID        string          `json:"tenantId"`
	Category        Category        `json:"category"`
	Severity        Severity        `json:"severity"`
	Changes         Changes         `json:"changes"`
	CorrelationID   string          `json:"correlationId"`
	Hash            string          `json:"hash"`
	RetentionPolicy RetentionPolicy `json:"retentionPolicy"`
	ComplianceFlags []string        `json:"complianceFlags,omitempty"`
	IP              string          `json:"ip,omitempty"`
	Device          string          `json:"device,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Filter narrows ledger queries. Zero values mean "any".
type Filter struct {
	TenantID    string
	UserID      string
	Action      string
	Resource    string
	Category    Category
	Severity    Severity
	MinSeverity Severity
	From        time.Time
	To          time.Time
	Page        int
	PageSize    int
}

// severityRank orders severities for MinSeverity filtering.
func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is at or above the given floor.
func (s Severity) AtLeast(floor Severity) bool {
	return severityRank(s) >= severityRank(floor)
}

// actionSeverities maps well-known actions to their default severity so
// emitters don't have to pick one at every call site.
var actionSeverities = map[string]Severity{
	"login_failed":             SeverityWarning,
	"lockout_triggered":        SeverityCritical,
	"permission_granted":       SeverityWarning,
	"permission_revoked":       SeverityWarning,
	"security_settings_update": SeverityWarning,
	"audit_cleanup":            SeverityWarning,
	"audit_append_failed":      SeverityCritical,
}

// DefaultSeverity returns the severity configured for an action, or info.
func DefaultSeverity(action string) Severity {
	if s, ok := actionSeverities[action]; ok {
		return s
	}
	return SeverityInfo
}
