// Package security owns the per-tenant security settings document: password
// policy, lockout thresholds, 2FA, IP whitelist, session limits and audit
// retention, plus the password and whitelist evaluation helpers.
package security

import (
	"fmt"
	"net"
	"strings"
	"time"
	"unicode"

	dErrors "peopleops/pkg/domain-errors"
)

// PasswordPolicy configures the composition rules a password must satisfy.
type PasswordPolicy struct {
	MinLength           int  `json:"minLength"`
	RequireUppercase    bool `json:"requireUppercase"`
	RequireLowercase    bool `json:"requireLowercase"`
	RequireNumbers      bool `json:"requireNumbers"`
	RequireSpecialChars bool `json:"requireSpecialChars"`
}

// Lockout configures failed-login throttling. Duration is held in
// minutes to keep the stored document readable.
type Lockout struct {
	MaxAttempts            int `json:"maxAttempts"`
	LockoutDurationMinutes int `json:"lockoutDurationMinutes"`
}

// Duration converts the configured lockout window.
func (l Lockout) Duration() time.Duration {
	return time.Duration(l.LockoutDurationMinutes) * time.Minute
}

// TwoFactor configures the 2FA surface.
type TwoFactor struct {
	Enforced         bool `json:"enforced"`
	BackupCodesCount int  `json:"backupCodesCount"`
}

// IPWhitelist restricts admin access to known addresses when enabled.
// Entries may be exact IPs or CIDR ranges.
type IPWhitelist struct {
	Enabled bool     `json:"enabled"`
	Entries []string `json:"entries"`
}

// Session configures session lifetime and concurrency.
type Session struct {
	TimeoutMinutes        int `json:"timeoutMinutes"`
	MaxConcurrentSessions int `json:"maxConcurrentSessions"`
}

// AuditSettings configures ledger retention.
type AuditSettings struct {
	RetentionDays int `json:"retentionDays"`
}

// Settings is the security settings document, one per tenant, created
// lazily with defaults on first access.
type Settings struct {
	TenantID       string         `json:"tenantId"`
	PasswordPolicy PasswordPolicy `json:"passwordPolicy"`
	Lockout        Lockout        `json:"lockout"`
	TwoFactor      TwoFactor      `json:"twoFactor"`
	IPWhitelist    IPWhitelist    `json:"ipWhitelist"`
	Session        Session        `json:"session"`
	Audit          AuditSettings  `json:"audit"`
	LastModified   time.Time      `json:"lastModified"`
	LastModifiedBy string         `json:"lastModifiedBy"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// DefaultSettings builds the documented defaults for a tenant.
func DefaultSettings(tenantID string, now time.Time) *Settings {
	return &Settings{
		TenantID: tenantID,
		PasswordPolicy: PasswordPolicy{
			MinLength:           8,
			RequireUppercase:    true,
			RequireLowercase:    true,
			RequireNumbers:      true,
			RequireSpecialChars: false,
		},
		Lockout: Lockout{
			MaxAttempts:            5,
			LockoutDurationMinutes: 30,
		},
		TwoFactor: TwoFactor{
			Enforced:         false,
			BackupCodesCount: 8,
		},
		IPWhitelist: IPWhitelist{Enabled: false, Entries: []string{}},
		Session: Session{
			TimeoutMinutes:        30,
			MaxConcurrentSessions: 3,
		},
		Audit:        AuditSettings{RetentionDays: 365},
		LastModified: now,
		CreatedAt:    now,
	}
}

// Validate range-checks every threshold, collecting all violations.
func (s *Settings) Validate() error {
	var violations []string
	if s.PasswordPolicy.MinLength < 8 || s.PasswordPolicy.MinLength > 128 {
		violations = append(violations, "passwordPolicy.minLength must be between 8 and 128")
	}
	if s.Lockout.MaxAttempts < 3 || s.Lockout.MaxAttempts > 10 {
		violations = append(violations, "lockout.maxAttempts must be between 3 and 10")
	}
	if s.Lockout.LockoutDurationMinutes < 5 || s.Lockout.LockoutDurationMinutes > 24*60 {
		violations = append(violations, "lockout.lockoutDurationMinutes must be between 5 and 1440")
	}
	if s.TwoFactor.BackupCodesCount < 5 || s.TwoFactor.BackupCodesCount > 20 {
		violations = append(violations, "twoFactor.backupCodesCount must be between 5 and 20")
	}
	if s.Session.TimeoutMinutes < 5 || s.Session.TimeoutMinutes > 24*60 {
		violations = append(violations, "session.timeoutMinutes must be between 5 and 1440")
	}
	if s.Session.MaxConcurrentSessions < 1 || s.Session.MaxConcurrentSessions > 10 {
		violations = append(violations, "session.maxConcurrentSessions must be between 1 and 10")
	}
	if s.Audit.RetentionDays < 30 || s.Audit.RetentionDays > 3650 {
		violations = append(violations, "audit.retentionDays must be between 30 and 3650")
	}
	for _, entry := range s.IPWhitelist.Entries {
		if !validWhitelistEntry(entry) {
			violations = append(violations, fmt.Sprintf("ipWhitelist entry %q is neither an IP nor a CIDR range", entry))
		}
	}
	if len(violations) > 0 {
		return dErrors.NewValidation("invalid security settings", violations)
	}
	return nil
}

func validWhitelistEntry(entry string) bool {
	if net.ParseIP(entry) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(entry)
	return err == nil
}

// PasswordCheck is the outcome of evaluating a candidate password.
type PasswordCheck struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// CheckPassword evaluates every configured rule independently and collects
// all violated rules.
func (s *Settings) CheckPassword(candidate string) PasswordCheck {
	var errs []string
	if len(candidate) < s.PasswordPolicy.MinLength {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters", s.PasswordPolicy.MinLength))
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if s.PasswordPolicy.RequireUppercase && !hasUpper {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if s.PasswordPolicy.RequireLowercase && !hasLower {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if s.PasswordPolicy.RequireNumbers && !hasDigit {
		errs = append(errs, "Password must contain at least one number")
	}
	if s.PasswordPolicy.RequireSpecialChars && !hasSpecial {
		errs = append(errs, "Password must contain at least one special character")
	}
	if errs == nil {
		errs = []string{}
	}
	return PasswordCheck{Valid: len(errs) == 0, Errors: errs}
}

// IsIPWhitelisted reports whether ip may pass the whitelist. Always true
// when the feature is disabled.
func (s *Settings) IsIPWhitelisted(ip string) bool {
	if !s.IPWhitelist.Enabled {
		return true
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return false
	}
	for _, entry := range s.IPWhitelist.Entries {
		if strings.Contains(entry, "/") {
			if _, cidr, err := net.ParseCIDR(entry); err == nil && cidr.Contains(parsed) {
				return true
			}
			continue
		}
		if allowed := net.ParseIP(entry); allowed != nil && allowed.Equal(parsed) {
			return true
		}
	}
	return false
}

// UpdateInput carries a partial settings merge; nil sections are left
// untouched.
type UpdateInput struct {
	PasswordPolicy *PasswordPolicy `json:"passwordPolicy"`
	Lockout        *Lockout        `json:"lockout"`
	TwoFactor      *TwoFactor      `json:"twoFactor"`
	IPWhitelist    *IPWhitelist    `json:"ipWhitelist"`
	Session        *Session        `json:"session"`
	Audit          *AuditSettings  `json:"audit"`
}

// ApplyUpdate merges the partial update and validates the result before
// the caller persists it.
func (s *Settings) ApplyUpdate(in UpdateInput, modifiedBy string, now time.Time) error {
	merged := *s
	if in.PasswordPolicy != nil {
		merged.PasswordPolicy = *in.PasswordPolicy
	}
	if in.Lockout != nil {
		merged.Lockout = *in.Lockout
	}
	if in.TwoFactor != nil {
		merged.TwoFactor = *in.TwoFactor
	}
	if in.IPWhitelist != nil {
		merged.IPWhitelist = *in.IPWhitelist
	}
	if in.Session != nil {
		merged.Session = *in.Session
	}
	if in.Audit != nil {
		merged.Audit = *in.Audit
	}
	if err := merged.Validate(); err != nil {
		return err
	}
	merged.LastModified = now
	merged.LastModifiedBy = modifiedBy
	*s = merged
	return nil
}
