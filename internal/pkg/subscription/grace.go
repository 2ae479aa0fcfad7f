package subscription

import (
	"time"

	"github.com/ahmedrioueche/gympro-sub000/app/models"
)

// graceWindows returns the end of the soft-grace window and the end of the
// read-only window that follows it.
func graceWindows(sub *models.AppSubscription) (softEnd, readOnlyEnd time.Time) {
	softEnd = *sub.SoftGraceExpiresAt
	readOnlyEnd = softEnd.Add(ReadOnlyGraceDays * 24 * time.Hour)
	return softEnd, readOnlyEnd
}

// GracePhaseAt reports which grace window the subscription is in at the
// given instant. It never mutates state: access-control middleware calls it
// on every protected request, so it must stay a pure read.
func GracePhaseAt(sub *models.AppSubscription, now time.Time) GracePhase {
	if !sub.HasSoftGrace() {
		return PhaseWarning
	}

	softEnd, readOnlyEnd := graceWindows(sub)
	if now.Before(softEnd) {
		return PhaseWarning
	}
	if now.Before(readOnlyEnd) {
		return PhaseReadOnly
	}
	return PhaseExpired
}

func hoursUntilBlock(sub *models.AppSubscription, now time.Time) int {
	h := hoursRemaining(*sub.SoftGraceExpiresAt, now)
	if h < 0 {
		return 0
	}
	return h
}
