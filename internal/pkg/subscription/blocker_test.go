package subscription

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedrioueche/gympro-sub000/app/models"
)

func TestGetBlockerConfig_NoSubscription(t *testing.T) {
	repo := newFakeRepo()
	svc := NewBlockerService(repo)

	config, err := svc.GetBlockerConfig(42)
	assert.NoError(t, err)
	assert.Nil(t, config)
}

func TestGetBlockerConfig_HealthySubscription(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo(&models.AppSubscription{
		ID:               1,
		UserID:           10,
		Status:           models.SubscriptionStatusActive,
		AutoRenewType:    models.AutoRenewAuto,
		CurrentPeriodEnd: timePtr(now.Add(30 * 24 * time.Hour)),
	})
	svc := NewBlockerService(repo).WithClock(fixedClock(now))

	config, err := svc.GetBlockerConfig(10)
	assert.NoError(t, err)
	assert.Nil(t, config)
}

func TestGetBlockerConfig_PreExpiryWarningTakesPrecedence(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo(&models.AppSubscription{
		ID:               1,
		UserID:           10,
		Status:           models.SubscriptionStatusActive,
		AutoRenewType:    models.AutoRenewAuto,
		CurrentPeriodEnd: timePtr(now.Add(3 * 24 * time.Hour)),
	})
	svc := NewBlockerService(repo).WithClock(fixedClock(now))

	config, err := svc.GetBlockerConfig(10)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.True(t, config.Show)
	assert.Equal(t, ModalWarning, config.Type)
	assert.Equal(t, ReasonManualRenewalDue, config.Reason)
	assert.Equal(t, TimingDays3, config.Timing)
	assert.Equal(t, SeverityNotice, config.Severity)
	assert.Equal(t, 3, config.DaysRemaining)
	assert.True(t, config.CanDismiss)
	assert.Equal(t, ActionRenew, config.PrimaryAction)
	assert.Equal(t, []Action{ActionViewPlans}, config.SecondaryActions)
	assert.Zero(t, repo.startSoftGraceCalls, "a pre-expiry warning must not touch grace state")
}

func TestGetBlockerConfig_ManualSkipsPreExpiryWarning(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo(&models.AppSubscription{
		ID:               1,
		UserID:           10,
		Status:           models.SubscriptionStatusActive,
		AutoRenewType:    models.AutoRenewManual,
		CurrentPeriodEnd: timePtr(now.Add(3 * 24 * time.Hour)),
	})
	svc := NewBlockerService(repo).WithClock(fixedClock(now))

	config, err := svc.GetBlockerConfig(10)
	assert.NoError(t, err)
	assert.Nil(t, config)
}

func TestGetBlockerConfig_FirstExpiredObservationStartsSoftGrace(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo(&models.AppSubscription{
		ID:               1,
		UserID:           10,
		Status:           models.SubscriptionStatusActive,
		AutoRenewType:    models.AutoRenewManual,
		CurrentPeriodEnd: timePtr(now.Add(-time.Hour)),
	})
	svc := NewBlockerService(repo).WithClock(fixedClock(now))

	config, err := svc.GetBlockerConfig(10)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, ModalWarning, config.Type)
	assert.Equal(t, ReasonManualExpired, config.Reason)
	assert.True(t, config.CanDismiss)
	assert.Equal(t, ActionRenew, config.PrimaryAction)
	assert.Equal(t, []Action{ActionViewPlans, ActionExportData}, config.SecondaryActions)
	assert.Equal(t, SeverityCritical, config.Severity)
	assert.Equal(t, TimingExpired, config.Timing)
	assert.Equal(t, 6, config.HoursUntilBlock)
	require.NotNil(t, config.SoftGraceExpiresAt)
	assert.Equal(t, now.Add(SoftGraceHours*time.Hour), *config.SoftGraceExpiresAt)

	// The write went through the conditional path.
	assert.Equal(t, 1, repo.startSoftGraceCalls)
	stored, _ := repo.FindByUserID(10)
	require.NotNil(t, stored.SoftGraceExpiresAt)
	assert.Equal(t, now.Add(SoftGraceHours*time.Hour), *stored.SoftGraceExpiresAt)
}

func TestGetBlockerConfig_SoftGraceNeverRestarts(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo(&models.AppSubscription{
		ID:               1,
		UserID:           10,
		Status:           models.SubscriptionStatusActive,
		AutoRenewType:    models.AutoRenewManual,
		CurrentPeriodEnd: timePtr(now.Add(-time.Hour)),
	})
	svc := NewBlockerService(repo).WithClock(fixedClock(now))

	first, err := svc.GetBlockerConfig(10)
	require.NoError(t, err)
	require.NotNil(t, first)

	// An hour later the window must still end at its original deadline.
	svc.WithClock(fixedClock(now.Add(time.Hour)))
	second, err := svc.GetBlockerConfig(10)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, *first.SoftGraceExpiresAt, *second.SoftGraceExpiresAt)
	assert.Equal(t, 5, second.HoursUntilBlock)
	assert.Equal(t, 1, repo.startSoftGraceCalls, "grace must start exactly once")
}

func TestGetBlockerConfig_ReadOnlyWindowShowsBlocker(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	graceStart := now.Add(-7 * time.Hour)
	repo := newFakeRepo(&models.AppSubscription{
		ID:                 1,
		UserID:             10,
		Status:             models.SubscriptionStatusActive,
		AutoRenewType:      models.AutoRenewManual,
		CurrentPeriodEnd:   timePtr(graceStart.Add(-time.Hour)),
		SoftGraceStartedAt: timePtr(graceStart),
		SoftGraceExpiresAt: timePtr(graceStart.Add(SoftGraceHours * time.Hour)),
	})
	svc := NewBlockerService(repo).WithClock(fixedClock(now))

	config, err := svc.GetBlockerConfig(10)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, ModalBlocker, config.Type)
	assert.False(t, config.CanDismiss)
	assert.Equal(t, SeverityBlocker, config.Severity)
	assert.Equal(t, TimingPostGrace, config.Timing)
	assert.False(t, config.ShowCountdown)

	// Status stays untouched until the read-only window ends.
	assert.Zero(t, repo.markExpiredCalls)
	stored, _ := repo.FindByUserID(10)
	assert.Equal(t, models.SubscriptionStatusActive, stored.Status)
}

func TestGetBlockerConfig_FinalizesAfterReadOnlyWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	graceStart := now.Add(-5 * 24 * time.Hour)
	repo := newFakeRepo(&models.AppSubscription{
		ID:                 1,
		UserID:             10,
		Status:             models.SubscriptionStatusTrialing,
		AutoRenewType:      models.AutoRenewAuto,
		TrialEndDate:       timePtr(graceStart.Add(-time.Hour)),
		SoftGraceStartedAt: timePtr(graceStart),
		SoftGraceExpiresAt: timePtr(graceStart.Add(SoftGraceHours * time.Hour)),
	})
	svc := NewBlockerService(repo).WithClock(fixedClock(now))

	config, err := svc.GetBlockerConfig(10)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, ModalBlocker, config.Type)
	assert.False(t, config.CanDismiss)
	// The re-read row carries the terminal status, so the modal reflects the
	// terminal classification, not the pre-flip trial one.
	assert.Equal(t, ReasonManualExpired, config.Reason)

	assert.Equal(t, 1, repo.markExpiredCalls)
	stored, _ := repo.FindByUserID(10)
	assert.Equal(t, models.SubscriptionStatusExpired, stored.Status)
	require.NotNil(t, stored.EndDate)
	assert.Equal(t, now, *stored.EndDate)

	// Repeat evaluations see the terminal status and skip the flip.
	again, err := svc.GetBlockerConfig(10)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, ModalBlocker, again.Type)
	assert.Equal(t, 1, repo.markExpiredCalls, "the status flip must fire exactly once")
}

func TestGetBlockerConfig_PersistenceErrorPropagates(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo(&models.AppSubscription{
		ID:               1,
		UserID:           10,
		Status:           models.SubscriptionStatusActive,
		AutoRenewType:    models.AutoRenewManual,
		CurrentPeriodEnd: timePtr(now.Add(-time.Hour)),
	})
	repo.startSoftGraceErr = errors.New("connection reset")
	svc := NewBlockerService(repo).WithClock(fixedClock(now))

	config, err := svc.GetBlockerConfig(10)
	assert.Error(t, err)
	assert.Nil(t, config)
}

func TestResetSoftGrace(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo(&models.AppSubscription{
		ID:                 1,
		UUID:               "0b7c8c2e-1111-4222-8333-444455556666",
		UserID:             10,
		Status:             models.SubscriptionStatusActive,
		AutoRenewType:      models.AutoRenewManual,
		CurrentPeriodEnd:   timePtr(now.Add(-time.Hour)),
		SoftGraceStartedAt: timePtr(now.Add(-2 * time.Hour)),
		SoftGraceExpiresAt: timePtr(now.Add(4 * time.Hour)),
	})
	svc := NewBlockerService(repo).WithClock(fixedClock(now))

	require.NoError(t, svc.ResetSoftGrace("0b7c8c2e-1111-4222-8333-444455556666"))

	stored, _ := repo.FindByUserID(10)
	assert.Nil(t, stored.SoftGraceStartedAt)
	assert.Nil(t, stored.SoftGraceExpiresAt)

	// Unknown UUID surfaces the lookup error.
	assert.Error(t, svc.ResetSoftGrace("does-not-exist"))
}

func TestGracePhase(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo(&models.AppSubscription{
		ID:                 1,
		UserID:             10,
		Status:             models.SubscriptionStatusActive,
		SoftGraceStartedAt: timePtr(now.Add(-8 * time.Hour)),
		SoftGraceExpiresAt: timePtr(now.Add(-2 * time.Hour)),
	})
	svc := NewBlockerService(repo).WithClock(fixedClock(now))

	phase, err := svc.GracePhase(10)
	assert.NoError(t, err)
	assert.Equal(t, PhaseReadOnly, phase)

	// No subscription record means no grace restriction.
	phase, err = svc.GracePhase(999)
	assert.NoError(t, err)
	assert.Equal(t, PhaseWarning, phase)
}
