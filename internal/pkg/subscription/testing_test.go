package subscription

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ahmedrioueche/gympro-sub000/app/models"
)

// fakeRepo is an in-memory Repository that mirrors the conditional-update
// semantics of the SQL implementation, so concurrency-sensitive paths
// (start-once soft grace, flip-once expiry) behave like the real store.
type fakeRepo struct {
	mu    sync.Mutex
	subs  map[uint]*models.AppSubscription
	users map[uint]*models.User
	plans map[string]string

	startSoftGraceErr error
	markExpiredErr    error
	findUserErr       error

	startSoftGraceCalls int
	markExpiredCalls    int
	markCancelledCalls  int
}

func newFakeRepo(subs ...*models.AppSubscription) *fakeRepo {
	r := &fakeRepo{
		subs:  make(map[uint]*models.AppSubscription),
		users: make(map[uint]*models.User),
		plans: make(map[string]string),
	}
	for _, sub := range subs {
		r.subs[sub.ID] = sub
		r.users[sub.UserID] = &models.User{
			ID:       sub.UserID,
			Name:     "Test User",
			Email:    "user@example.com",
			Status:   models.STATUS_ACTIVE,
			Language: "en",
		}
	}
	return r
}

func copySub(sub *models.AppSubscription) *models.AppSubscription {
	c := *sub
	return &c
}

func (r *fakeRepo) FindByUserID(userID uint) (*models.AppSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		if sub.UserID == userID {
			return copySub(sub), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) FindByUUID(subUUID string) (*models.AppSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		if sub.UUID == subUUID {
			return copySub(sub), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) FindUser(userID uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findUserErr != nil {
		return nil, r.findUserErr
	}
	if user, ok := r.users[userID]; ok {
		c := *user
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) PlanDisplayName(planID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name, ok := r.plans[planID]; ok {
		return name
	}
	return "New plan"
}

func (r *fakeRepo) StartSoftGrace(id uint, startedAt, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startSoftGraceCalls++
	if r.startSoftGraceErr != nil {
		return r.startSoftGraceErr
	}
	sub, ok := r.subs[id]
	if !ok || sub.SoftGraceExpiresAt != nil {
		return nil
	}
	started := startedAt
	expires := expiresAt
	sub.SoftGraceStartedAt = &started
	sub.SoftGraceExpiresAt = &expires
	return nil
}

func (r *fakeRepo) ResetSoftGrace(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub, ok := r.subs[id]; ok {
		sub.SoftGraceStartedAt = nil
		sub.SoftGraceExpiresAt = nil
	}
	return nil
}

func (r *fakeRepo) MarkExpired(id uint, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markExpiredCalls++
	if r.markExpiredErr != nil {
		return r.markExpiredErr
	}
	sub, ok := r.subs[id]
	if !ok {
		return nil
	}
	if sub.Status == models.SubscriptionStatusActive || sub.Status == models.SubscriptionStatusTrialing {
		end := now
		sub.Status = models.SubscriptionStatusExpired
		sub.EndDate = &end
	}
	return nil
}

func (r *fakeRepo) MarkCancelled(id uint, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markCancelledCalls++
	sub, ok := r.subs[id]
	if !ok {
		return nil
	}
	if sub.Status == models.SubscriptionStatusActive {
		end := now
		sub.Status = models.SubscriptionStatusCancelled
		sub.EndDate = &end
	}
	return nil
}

func (r *fakeRepo) ListEndingBy(cutoff time.Time) ([]models.AppSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AppSubscription
	for _, sub := range r.subs {
		if sub.Status == models.SubscriptionStatusActive && sub.CancelAtPeriodEnd &&
			sub.CurrentPeriodEnd != nil && !sub.CurrentPeriodEnd.After(cutoff) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListEndingBetween(from, to time.Time) ([]models.AppSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AppSubscription
	for _, sub := range r.subs {
		if sub.Status == models.SubscriptionStatusActive && sub.CancelAtPeriodEnd &&
			sub.CurrentPeriodEnd != nil &&
			!sub.CurrentPeriodEnd.Before(from) && !sub.CurrentPeriodEnd.After(to) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListEndedBefore(now time.Time) ([]models.AppSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AppSubscription
	for _, sub := range r.subs {
		if sub.Status == models.SubscriptionStatusActive && sub.CancelAtPeriodEnd &&
			sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.Before(now) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListPendingDowngradesBy(cutoff time.Time) ([]models.AppSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AppSubscription
	for _, sub := range r.subs {
		if sub.PendingPlanID != "" && sub.PendingChangeEffectiveDate != nil &&
			!sub.PendingChangeEffectiveDate.After(cutoff) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
