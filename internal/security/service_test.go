package security_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"peopleops/internal/security"
	"peopleops/internal/security/store"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/platform/sentinel"
	"peopleops/pkg/testutil"
)

type SettingsSuite struct {
	suite.Suite
	svc   *security.Service
	store *store.InMemory
	ctx   context.Context
}

func TestSettingsSuite(t *testing.T) {
	suite.Run(t, new(SettingsSuite))
}

func (s *SettingsSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.svc = security.NewService(s.store)
	s.ctx = testutil.AuthContext("admin-1", "tenant-1")
}

func (s *SettingsSuite) TestEnsureSettingsIsIdempotent() {
	first, err := s.svc.EnsureSettings(s.ctx, "tenant-1")
	s.Require().NoError(err)
	s.Equal(8, first.PasswordPolicy.MinLength)

	second, err := s.svc.EnsureSettings(s.ctx, "tenant-1")
	s.Require().NoError(err)
	s.Equal(first.CreatedAt, second.CreatedAt)
}

func (s *SettingsSuite) TestEnsureSettingsSurvivesCreationRace() {
	// Simulate losing the creation race: the document appears between the
	// miss and the insert, so Create returns a conflict and the service
	// re-fetches instead of failing.
	racing := security.NewService(&racingStore{InMemory: s.store})
	settings, err := racing.EnsureSettings(s.ctx, "tenant-1")
	s.Require().NoError(err)
	s.Equal("tenant-1", settings.TenantID)
}

func (s *SettingsSuite) TestUpdateSettings() {
	_, err := s.svc.EnsureSettings(s.ctx, "tenant-1")
	s.Require().NoError(err)

	updated, err := s.svc.UpdateSettings(s.ctx, "tenant-1", security.UpdateInput{
		PasswordPolicy: &security.PasswordPolicy{
			MinLength:        12,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireNumbers:   true,
		},
	}, "admin-1")
	s.Require().NoError(err)
	s.Equal(12, updated.PasswordPolicy.MinLength)
	s.Equal("admin-1", updated.LastModifiedBy)

	stored, err := s.store.Get(s.ctx, "tenant-1")
	s.Require().NoError(err)
	s.Equal(12, stored.PasswordPolicy.MinLength)
}

func (s *SettingsSuite) TestUpdateRejectsOutOfRange() {
	_, err := s.svc.UpdateSettings(s.ctx, "tenant-1", security.UpdateInput{
		TwoFactor: &security.TwoFactor{BackupCodesCount: 100},
	}, "admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	stored, err := s.store.Get(s.ctx, "tenant-1")
	s.Require().NoError(err)
	s.Equal(8, stored.TwoFactor.BackupCodesCount)
}

func (s *SettingsSuite) TestTestPasswordAgainstDefaults() {
	check, err := s.svc.TestPassword(s.ctx, "tenant-1", "short")
	s.Require().NoError(err)
	s.False(check.Valid)
	s.Contains(check.Errors, "Password must be at least 8 characters")
	s.Greater(len(check.Errors), 1)
}

func (s *SettingsSuite) TestValidatePassword() {
	err := s.svc.ValidatePassword(s.ctx, "tenant-1", "short")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.NotEmpty(dErrors.ViolationsOf(err))

	s.NoError(s.svc.ValidatePassword(s.ctx, "tenant-1", "Sufficient1"))
}

func (s *SettingsSuite) TestIsIPWhitelisted() {
	allowed, err := s.svc.IsIPWhitelisted(s.ctx, "tenant-1", "203.0.113.9")
	s.Require().NoError(err)
	s.True(allowed)

	_, err = s.svc.UpdateSettings(s.ctx, "tenant-1", security.UpdateInput{
		IPWhitelist: &security.IPWhitelist{Enabled: true, Entries: []string{"10.0.0.0/8"}},
	}, "admin-1")
	s.Require().NoError(err)

	allowed, err = s.svc.IsIPWhitelisted(s.ctx, "tenant-1", "203.0.113.9")
	s.Require().NoError(err)
	s.False(allowed)

	allowed, err = s.svc.IsIPWhitelisted(s.ctx, "tenant-1", "10.3.2.1")
	s.Require().NoError(err)
	s.True(allowed)
}

// racingStore reports a miss then rejects the insert, as if another
// instance created the document in between.
type racingStore struct {
	*store.InMemory
	misses int
}

func (r *racingStore) Get(ctx context.Context, tenantID string) (*security.Settings, error) {
	if r.misses == 0 {
		r.misses++
		// Seed the real store so the re-fetch finds a document.
		seed := security.DefaultSettings(tenantID, now)
		_ = r.InMemory.Create(ctx, seed)
		return nil, sentinel.ErrNotFound
	}
	return r.InMemory.Get(ctx, tenantID)
}

func (r *racingStore) Create(context.Context, *security.Settings) error {
	return sentinel.ErrConflict
}
