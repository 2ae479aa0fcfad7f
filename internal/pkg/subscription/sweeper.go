package subscription

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ahmedrioueche/gympro-sub000/app/models"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/cache"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/database"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/env"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/notifications"
)

const (
	sweepLockKey     = "subscription_sweep_lock"
	sweepLockTTL     = 10 * time.Minute
	defaultSweepMins = 60
)

const dateLayout = "2006-01-02"

// Sweeper is the periodic subscription sweep. Each run performs four
// independent scans: expiring-in-3-days, expiring-tomorrow, the
// already-expired safety net, and pending-downgrade-tomorrow. One
// subscription's failure never aborts the rest of a scan.
//
// Runs are guarded twice against overlap: an in-process flag for a cadence
// shorter than the slowest scan, and a Redis lock so multiple app instances
// do not sweep concurrently. The guarantee stays one notification per rule
// per run; a subscription sitting in both the 3-day and the tomorrow window
// receives both notifications.
type Sweeper struct {
	repo     Repository
	notifier notifications.Notifier
	now      func() time.Time
	interval time.Duration

	tryLock func(key string, ttl time.Duration) (bool, error)
	unlock  func(key string) error

	ticker   *time.Ticker
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	sweeping bool
}

var (
	globalSweeper *Sweeper
	sweeperOnce   sync.Once
)

// GetSweeper returns the global sweeper (singleton), backed by the shared DB
// handle and the default notifier.
func GetSweeper() *Sweeper {
	sweeperOnce.Do(func() {
		db := database.GetDB()
		globalSweeper = NewSweeper(NewRepository(db), notifications.NewService(db))
	})
	return globalSweeper
}

// NewSweeper creates a sweeper with the configured cadence
// (SUBSCRIPTION_SWEEP_INTERVAL_MINUTES, default 60).
func NewSweeper(repo Repository, notifier notifications.Notifier) *Sweeper {
	interval := defaultSweepMins
	if v, err := strconv.Atoi(env.GetEnv("SUBSCRIPTION_SWEEP_INTERVAL_MINUTES", "")); err == nil && v > 0 {
		interval = v
	}

	return &Sweeper{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
		interval: time.Duration(interval) * time.Minute,
		tryLock:  cache.TryLock,
		unlock:   cache.Unlock,
	}
}

// WithClock overrides the wall clock, for deterministic tests.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Start launches the sweep loop.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.stopCh = make(chan struct{})
	s.running = true
	s.ticker = time.NewTicker(s.interval)

	s.wg.Add(1)
	go s.loop()

	log.Infof("[Subscription Sweeper] Started (interval: %s)", s.interval)
}

// Stop halts the sweep loop and waits for an in-flight run to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	s.ticker.Stop()
	close(s.stopCh)
	s.running = false
	s.mu.Unlock()

	// Wait outside the lock: an in-flight RunOnce takes it to flip the
	// sweeping flag.
	s.wg.Wait()

	log.Info("[Subscription Sweeper] Stopped")
}

// IsRunning reports whether the sweep loop is active.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sweeper) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			log.Info("[Subscription Sweeper] Loop stopping")
			return
		case <-s.ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce performs a single sweep if no other run is in progress, in this
// process or elsewhere. Also usable as a manual admin trigger.
func (s *Sweeper) RunOnce() {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		log.Warn("[Subscription Sweeper] Previous run still in progress, skipping")
		return
	}
	s.sweeping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.mu.Unlock()
	}()

	acquired, err := s.tryLock(sweepLockKey, sweepLockTTL)
	if err != nil {
		log.Errorf("[Subscription Sweeper] Lock error: %v", err)
		return
	}
	if !acquired {
		log.Debug("[Subscription Sweeper] Another instance holds the sweep lock, skipping")
		return
	}
	defer func() {
		if err := s.unlock(sweepLockKey); err != nil {
			log.Errorf("[Subscription Sweeper] Unlock error: %v", err)
		}
	}()

	now := s.now()
	log.Info("[Subscription Sweeper] Sweep started")

	s.notifyExpiringSoon(now.Add(3 * 24 * time.Hour))
	s.notifyExpiringTomorrow(now.Add(24 * time.Hour))
	s.notifyExpired(now)
	s.notifyPendingDowngrades(now.Add(24 * time.Hour))

	log.Info("[Subscription Sweeper] Sweep finished")
}

// notifyExpiringSoon reminds users whose cancelled subscription ends within
// the next three days.
func (s *Sweeper) notifyExpiringSoon(until time.Time) {
	subs, err := s.repo.ListEndingBy(until)
	if err != nil {
		log.Errorf("[Subscription Sweeper] Expiring-soon query failed: %v", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		s.notifySub(sub, notifications.Message{
			Key:  notifications.KeyExpiringSoon,
			Vars: map[string]string{"date": formatPeriodEnd(sub)},
		})
	}
}

// notifyExpiringTomorrow sends the more urgent reminder for subscriptions
// ending on the calendar day exactly 24h ahead.
func (s *Sweeper) notifyExpiringTomorrow(tomorrow time.Time) {
	from := startOfDay(tomorrow)
	to := endOfDay(tomorrow)

	subs, err := s.repo.ListEndingBetween(from, to)
	if err != nil {
		log.Errorf("[Subscription Sweeper] Expiring-tomorrow query failed: %v", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		s.notifySub(sub, notifications.Message{
			Key:  notifications.KeyExpiringTomorrow,
			Vars: map[string]string{"date": formatPeriodEnd(sub)},
		})
	}
}

// notifyExpired is the safety net for subscriptions whose upstream renewal
// or cancellation webhook never arrived: flip them to cancelled, then tell
// the user.
func (s *Sweeper) notifyExpired(now time.Time) {
	subs, err := s.repo.ListEndedBefore(now)
	if err != nil {
		log.Errorf("[Subscription Sweeper] Expired query failed: %v", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		if err := s.repo.MarkCancelled(sub.ID, now); err != nil {
			log.Errorf("[Subscription Sweeper] Cancelling subscription %d failed: %v", sub.ID, err)
			continue
		}
		s.notifySub(sub, notifications.Message{Key: notifications.KeyExpired})
	}
}

// notifyPendingDowngrades warns users whose scheduled plan change takes
// effect within the next day.
func (s *Sweeper) notifyPendingDowngrades(until time.Time) {
	subs, err := s.repo.ListPendingDowngradesBy(until)
	if err != nil {
		log.Errorf("[Subscription Sweeper] Pending-downgrade query failed: %v", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		vars := map[string]string{"planName": s.repo.PlanDisplayName(sub.PendingPlanID)}
		if sub.PendingChangeEffectiveDate != nil {
			vars["date"] = sub.PendingChangeEffectiveDate.Format(dateLayout)
		}
		s.notifySub(sub, notifications.Message{Key: notifications.KeyDowngradeSoon, Vars: vars})
	}
}

func (s *Sweeper) notifySub(sub *models.AppSubscription, msg notifications.Message) {
	user, err := s.repo.FindUser(sub.UserID)
	if err != nil {
		log.Errorf("[Subscription Sweeper] User %d lookup failed for subscription %d: %v", sub.UserID, sub.ID, err)
		return
	}
	if err := s.notifier.Notify(user, msg); err != nil {
		log.Errorf("[Subscription Sweeper] Notification %s to user %d failed: %v", msg.Key, user.ID, err)
	}
}

func formatPeriodEnd(sub *models.AppSubscription) string {
	if sub.CurrentPeriodEnd == nil {
		return ""
	}
	return sub.CurrentPeriodEnd.Format(dateLayout)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
