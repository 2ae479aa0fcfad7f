package subscription

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ahmedrioueche/gympro-sub000/app/models"
)

// BlockerService decides, per request, whether a user's subscription should
// surface a modal: a pre-expiry notice, a dismissible soft-grace warning, or
// a non-dismissible blocker. It owns the two state transitions of the grace
// machinery (starting soft grace, finalizing to expired); both are
// conditional writes so concurrent evaluations cannot restart the grace
// timer or double-fire the flip.
type BlockerService struct {
	repo Repository
	now  func() time.Time
}

// NewBlockerService creates a blocker service from an injected repository.
func NewBlockerService(repo Repository) *BlockerService {
	return &BlockerService{repo: repo, now: time.Now}
}

// NewBlockerServiceFromDB creates a blocker service from a GORM DB handle.
func NewBlockerServiceFromDB(db *gorm.DB) *BlockerService {
	return NewBlockerService(NewRepository(db))
}

// WithClock overrides the wall clock, for deterministic tests.
func (s *BlockerService) WithClock(now func() time.Time) *BlockerService {
	s.now = now
	return s
}

// GetBlockerConfig computes the modal for a user's subscription at the
// current instant. A nil config with a nil error means fully entitled, no UI
// interruption. A missing subscription record is not an error here; whether
// the absence itself is disallowed is the caller's policy.
//
// Precedence is fixed: pre-expiry warning, then expiry classification, then
// grace phase. The pre-expiry check runs first so a subscription seven days
// from its end is never mistaken for an already-expired one.
func (s *BlockerService) GetBlockerConfig(userID uint) (*BlockerModalConfig, error) {
	sub, err := s.repo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	now := s.now()

	if sub.AutoRenewType != models.AutoRenewManual {
		if warning := CheckPreExpiryWarning(sub, now); warning.ShouldWarn {
			return s.buildPreExpiryWarningModal(sub, warning), nil
		}
	}

	expiry := CheckExpiry(sub, now)
	if !expiry.ShouldBlock {
		return nil, nil
	}

	return s.evaluateGrace(sub, expiry, now)
}

// evaluateGrace walks the soft-grace state machine for a subscription the
// classifier has declared expired.
func (s *BlockerService) evaluateGrace(sub *models.AppSubscription, expiry ExpiryCheck, now time.Time) (*BlockerModalConfig, error) {
	// First observation of the expired condition: start the grace window
	// once, then trust the re-read row, not the local object. A concurrent
	// evaluator may have won the conditional write with its own timestamps.
	if !sub.HasSoftGrace() {
		if err := s.StartSoftGrace(sub.ID, now); err != nil {
			return nil, err
		}
		reloaded, err := s.repo.FindByUserID(sub.UserID)
		if err != nil {
			return nil, err
		}
		return s.buildGraceWarningModal(reloaded, expiry, now), nil
	}

	softEnd, readOnlyEnd := graceWindows(sub)

	// Soft grace still running: dismissible warning with a countdown.
	if now.Before(softEnd) {
		return s.buildGraceWarningModal(sub, expiry, now), nil
	}

	// Read-only window: hard modal, but the status is not finalized yet.
	if now.Before(readOnlyEnd) {
		return s.buildBlockerModal(expiry), nil
	}

	// Read-only window elapsed: finalize the status once. The conditional
	// update makes repeated and concurrent calls no-ops; evaluations that
	// follow see the terminal status straight from the classifier.
	if sub.Status == models.SubscriptionStatusActive || sub.Status == models.SubscriptionStatusTrialing {
		if err := s.repo.MarkExpired(sub.ID, now); err != nil {
			return nil, err
		}
		reloaded, err := s.repo.FindByUserID(sub.UserID)
		if err != nil {
			return nil, err
		}
		expiry = CheckExpiry(reloaded, now)
	}

	return s.buildBlockerModal(expiry), nil
}

// StartSoftGrace sets the soft-grace marker if it is absent. Exposed for
// admin tooling; the evaluator calls it on first observation of expiry.
func (s *BlockerService) StartSoftGrace(subscriptionID uint, now time.Time) error {
	expiresAt := now.Add(SoftGraceHours * time.Hour)
	return s.repo.StartSoftGrace(subscriptionID, now, expiresAt)
}

// ResetSoftGrace clears the soft-grace marker so the next expired
// observation starts a fresh window (admin/maintenance use).
func (s *BlockerService) ResetSoftGrace(subUUID string) error {
	sub, err := s.repo.FindByUUID(subUUID)
	if err != nil {
		return err
	}
	return s.repo.ResetSoftGrace(sub.ID)
}

// GracePhase returns the current grace phase for a user without mutating
// anything, for access-control callers.
func (s *BlockerService) GracePhase(userID uint) (GracePhase, error) {
	sub, err := s.repo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PhaseWarning, nil
		}
		return PhaseWarning, err
	}
	return GracePhaseAt(sub, s.now()), nil
}

func (s *BlockerService) buildPreExpiryWarningModal(sub *models.AppSubscription, warning WarningCheck) *BlockerModalConfig {
	reason := PreWarningReason(sub)
	titleKey, messageKey := PreExpiryTranslationKeys(reason, warning.Timing)

	return &BlockerModalConfig{
		Show:             true,
		Type:             ModalWarning,
		Reason:           reason,
		ExpiryDate:       warning.ExpiryDate,
		DaysRemaining:    warning.DaysRemaining,
		CanDismiss:       true,
		PrimaryAction:    PreWarningAction(sub),
		SecondaryActions: []Action{ActionViewPlans},
		TitleKey:         titleKey,
		MessageKey:       messageKey,
		Severity:         SeverityForTiming(warning.Timing),
		Timing:           warning.Timing,
		ShowCountdown:    true,
	}
}

func (s *BlockerService) buildGraceWarningModal(sub *models.AppSubscription, expiry ExpiryCheck, now time.Time) *BlockerModalConfig {
	titleKey, messageKey := TranslationKeys(expiry.Reason, ModalWarning)

	return &BlockerModalConfig{
		Show:               true,
		Type:               ModalWarning,
		Reason:             expiry.Reason,
		ExpiryDate:         expiry.ExpiryDate,
		SoftGraceExpiresAt: sub.SoftGraceExpiresAt,
		HoursUntilBlock:    hoursUntilBlock(sub, now),
		CanDismiss:         true,
		PrimaryAction:      PrimaryActionForReason(expiry.Reason),
		SecondaryActions:   []Action{ActionViewPlans, ActionExportData},
		TitleKey:           titleKey,
		MessageKey:         messageKey,
		UrgencyMessageKey:  translationPrefix + ".urgency_message",
		ShowCountdown:      true,
		Severity:           SeverityCritical,
		Timing:             TimingExpired,
	}
}

func (s *BlockerService) buildBlockerModal(expiry ExpiryCheck) *BlockerModalConfig {
	titleKey, messageKey := TranslationKeys(expiry.Reason, ModalBlocker)

	return &BlockerModalConfig{
		Show:             true,
		Type:             ModalBlocker,
		Reason:           expiry.Reason,
		ExpiryDate:       expiry.ExpiryDate,
		CanDismiss:       false,
		PrimaryAction:    PrimaryActionForReason(expiry.Reason),
		SecondaryActions: []Action{ActionViewPlans, ActionExportData},
		TitleKey:         titleKey,
		MessageKey:       messageKey,
		ShowCountdown:    false,
		Severity:         SeverityBlocker,
		Timing:           TimingPostGrace,
	}
}
