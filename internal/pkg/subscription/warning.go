package subscription

import (
	"time"

	"github.com/ahmedrioueche/gympro-sub000/app/models"
)

// CheckPreExpiryWarning decides whether a scheduled pre-expiry threshold is
// hit at the given instant. Manual subscriptions are never warned before
// their period ends; they are only handled after expiry by the classifier.
func CheckPreExpiryWarning(sub *models.AppSubscription, now time.Time) WarningCheck {
	if sub.AutoRenewType == models.AutoRenewManual {
		return WarningCheck{}
	}

	var endDate *time.Time
	if sub.Status == models.SubscriptionStatusTrialing && sub.TrialEndDate != nil {
		endDate = sub.TrialEndDate
	} else if sub.CurrentPeriodEnd != nil {
		endDate = sub.CurrentPeriodEnd
	}
	if endDate == nil {
		return WarningCheck{}
	}

	days := daysRemaining(*endDate, now)
	hours := hoursRemaining(*endDate, now)

	// Already in expiry territory, handled by the classifier.
	if days <= 0 {
		return WarningCheck{ExpiryDate: endDate}
	}

	check := WarningCheck{
		DaysRemaining:  days,
		HoursRemaining: hours,
		ExpiryDate:     endDate,
	}

	// Exact threshold matches, first hit wins.
	switch days {
	case ThresholdDays7:
		check.ShouldWarn = true
		check.Timing = TimingDays7
		return check
	case ThresholdDays3:
		check.ShouldWarn = true
		check.Timing = TimingDays3
		return check
	case ThresholdDays1:
		check.ShouldWarn = true
		check.Timing = TimingDays1
		return check
	}

	if days == 0 && hours > 0 && hours <= ThresholdHours6 {
		check.ShouldWarn = true
		check.Timing = TimingHours6
		return check
	}

	return check
}

// PreWarningReason maps the subscription state to the reason reported on a
// pre-expiry warning modal.
func PreWarningReason(sub *models.AppSubscription) Reason {
	if sub.Status == models.SubscriptionStatusTrialing {
		return ReasonTrialExpiring
	}
	if sub.CancelAtPeriodEnd {
		return ReasonCancelledEnding
	}
	// Auto-renewing subscription approaching its charge date.
	return ReasonManualRenewalDue
}

// PreWarningAction picks the call-to-action for a pre-expiry warning.
func PreWarningAction(sub *models.AppSubscription) Action {
	if sub.Status == models.SubscriptionStatusTrialing {
		return ActionSubscribe
	}
	if sub.CancelAtPeriodEnd {
		return ActionReactivate
	}
	return ActionRenew
}
