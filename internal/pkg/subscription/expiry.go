package subscription

import (
	"time"

	"github.com/ahmedrioueche/gympro-sub000/app/models"
)

// CheckExpiry classifies whether a subscription is in an expired, blockable
// condition at the given instant. Cases are evaluated in a fixed order and
// the first match wins, so overlapping causes resolve deterministically.
// Missing dates make a case inapplicable rather than an error.
func CheckExpiry(sub *models.AppSubscription, now time.Time) ExpiryCheck {
	// Case 1: trial ran out.
	if sub.Status == models.SubscriptionStatusTrialing && sub.TrialEndDate != nil {
		if daysRemaining(*sub.TrialEndDate, now) <= 0 {
			return ExpiryCheck{
				ShouldBlock: true,
				Reason:      ReasonTrialExpired,
				ExpiryDate:  sub.TrialEndDate,
			}
		}
	}

	// Case 2: manual subscription period ended. Status stays active, the
	// period just stopped being current; nothing upstream flips it.
	if sub.Status == models.SubscriptionStatusActive &&
		sub.AutoRenewType == models.AutoRenewManual &&
		sub.CurrentPeriodEnd != nil {
		if sub.CurrentPeriodEnd.Before(now) {
			return ExpiryCheck{
				ShouldBlock: true,
				Reason:      ReasonManualExpired,
				ExpiryDate:  sub.CurrentPeriodEnd,
			}
		}
	}

	// Case 3: cancelled at period end and the period is over.
	if sub.Status == models.SubscriptionStatusActive &&
		sub.CancelAtPeriodEnd &&
		sub.CurrentPeriodEnd != nil {
		if sub.CurrentPeriodEnd.Before(now) {
			return ExpiryCheck{
				ShouldBlock: true,
				Reason:      ReasonCancelledExpired,
				ExpiryDate:  sub.CurrentPeriodEnd,
			}
		}
	}

	// Case 4: already marked cancelled and past its end date.
	if sub.Status == models.SubscriptionStatusCancelled && sub.EndDate != nil {
		if daysRemaining(*sub.EndDate, now) <= 0 {
			return ExpiryCheck{
				ShouldBlock: true,
				Reason:      ReasonCancelledExpired,
				ExpiryDate:  sub.EndDate,
			}
		}
	}

	// Case 5: terminal, already finalized.
	if sub.Status == models.SubscriptionStatusExpired {
		return ExpiryCheck{
			ShouldBlock: true,
			Reason:      ReasonManualExpired,
			ExpiryDate:  sub.EndDate,
		}
	}

	return ExpiryCheck{}
}
