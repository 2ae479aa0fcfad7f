package subscription

import "time"

// Grace window sizes. The soft grace starts the first time an expired
// condition is observed; the read-only window follows it before the status
// is finalized.
const (
	SoftGraceHours    = 6
	ReadOnlyGraceDays = 3
)

// Pre-expiry warning thresholds. Matched exactly (==7, ==3, ==1 days, then
// 0 < hours <= 6), not as ranges. A subscription that is only evaluated on
// an off-day skips the threshold it jumped over; this mirrors the behavior
// the product shipped with and changing it would change notification volume.
const (
	ThresholdDays7  = 7
	ThresholdDays3  = 3
	ThresholdDays1  = 1
	ThresholdHours6 = 6
)

// Reason explains why a modal is shown.
type Reason string

const (
	ReasonTrialExpired     Reason = "trial_expired"
	ReasonTrialExpiring    Reason = "trial_expiring"
	ReasonManualExpired    Reason = "manual_expired"
	ReasonManualRenewalDue Reason = "manual_renewal_due"
	ReasonCancelledExpired Reason = "cancelled_expired"
	ReasonCancelledEnding  Reason = "cancelled_ending"
)

// Timing identifies which threshold or phase produced the modal.
type Timing string

const (
	TimingDays7     Timing = "days_7"
	TimingDays3     Timing = "days_3"
	TimingDays1     Timing = "days_1"
	TimingHours6    Timing = "hours_6"
	TimingExpired   Timing = "expired"
	TimingPostGrace Timing = "post_grace"
)

// Severity is the UI styling level for a modal.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityNotice   Severity = "notice"
	SeverityWarning  Severity = "warning"
	SeverityUrgent   Severity = "urgent"
	SeverityCritical Severity = "critical"
	SeverityBlocker  Severity = "blocker"
)

// Action is a call-to-action button identity resolved by the client.
type Action string

const (
	ActionSubscribe  Action = "subscribe"
	ActionRenew      Action = "renew"
	ActionReactivate Action = "reactivate"
	ActionViewPlans  Action = "view_plans"
	ActionExportData Action = "export_data"
)

// ModalType distinguishes dismissible warnings from hard blockers.
type ModalType string

const (
	ModalWarning ModalType = "warning"
	ModalBlocker ModalType = "blocker"
)

// GracePhase is the access level derived from the soft-grace windows.
type GracePhase string

const (
	PhaseWarning  GracePhase = "warning"
	PhaseReadOnly GracePhase = "read_only"
	PhaseExpired  GracePhase = "expired"
)

// BlockerModalConfig is the full modal descriptor returned to the UI layer.
// It is recomputed on every call because it depends on wall-clock time;
// callers must never cache it.
type BlockerModalConfig struct {
	Show               bool       `json:"show"`
	Type               ModalType  `json:"type"`
	Reason             Reason     `json:"reason"`
	ExpiryDate         *time.Time `json:"expiry_date,omitempty"`
	DaysRemaining      int        `json:"days_remaining"`
	CanDismiss         bool       `json:"can_dismiss"`
	PrimaryAction      Action     `json:"primary_action"`
	SecondaryActions   []Action   `json:"secondary_actions"`
	TitleKey           string     `json:"title_key"`
	MessageKey         string     `json:"message_key"`
	UrgencyMessageKey  string     `json:"urgency_message_key,omitempty"`
	Severity           Severity   `json:"severity"`
	Timing             Timing     `json:"timing"`
	ShowCountdown      bool       `json:"show_countdown"`
	SoftGraceExpiresAt *time.Time `json:"soft_grace_expires_at,omitempty"`
	HoursUntilBlock    int        `json:"hours_until_block,omitempty"`
}

// WarningCheck is the result of the pre-expiry threshold detector.
type WarningCheck struct {
	ShouldWarn     bool
	Timing         Timing
	DaysRemaining  int
	HoursRemaining int
	ExpiryDate     *time.Time
}

// ExpiryCheck is the result of the expiry classifier.
type ExpiryCheck struct {
	ShouldBlock   bool
	Reason        Reason
	ExpiryDate    *time.Time
	DaysRemaining int
}

func daysRemaining(end, now time.Time) int {
	diff := end.Sub(now)
	return int(ceilDiv(diff, 24*time.Hour))
}

func hoursRemaining(end, now time.Time) int {
	diff := end.Sub(now)
	return int(ceilDiv(diff, time.Hour))
}

// ceilDiv divides d by unit rounding toward positive infinity, matching the
// Math.ceil arithmetic the thresholds were tuned against.
func ceilDiv(d, unit time.Duration) int64 {
	q := int64(d) / int64(unit)
	if int64(d)%int64(unit) > 0 {
		q++
	}
	return q
}
