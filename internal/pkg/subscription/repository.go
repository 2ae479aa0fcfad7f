package subscription

import (
	"time"

	"gorm.io/gorm"

	"github.com/ahmedrioueche/gympro-sub000/app/models"
)

// Repository provides DB operations used by the entitlement services.
type Repository interface {
	FindByUserID(userID uint) (*models.AppSubscription, error)
	FindByUUID(subUUID string) (*models.AppSubscription, error)
	FindUser(userID uint) (*models.User, error)
	PlanDisplayName(planID string) string

	// StartSoftGrace sets the soft-grace marker only if it is absent.
	// Concurrent evaluators may both attempt the write; exactly one row
	// version survives and callers must re-read afterwards.
	StartSoftGrace(id uint, startedAt, expiresAt time.Time) error
	// ResetSoftGrace clears the marker (admin/maintenance use).
	ResetSoftGrace(id uint) error
	// MarkExpired finalizes the status only while it is still active or
	// trialing, so repeated calls and concurrent sweeps cannot double-fire.
	MarkExpired(id uint, now time.Time) error
	// MarkCancelled flips an active subscription to cancelled (sweep safety
	// net for missed upstream webhooks).
	MarkCancelled(id uint, now time.Time) error

	ListEndingBy(cutoff time.Time) ([]models.AppSubscription, error)
	ListEndingBetween(from, to time.Time) ([]models.AppSubscription, error)
	ListEndedBefore(now time.Time) ([]models.AppSubscription, error)
	ListPendingDowngradesBy(cutoff time.Time) ([]models.AppSubscription, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a subscription repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindByUserID(userID uint) (*models.AppSubscription, error) {
	var sub models.AppSubscription
	if err := r.db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) FindByUUID(subUUID string) (*models.AppSubscription, error) {
	return models.FindSubscriptionByUUID(r.db, subUUID)
}

func (r *gormRepository) FindUser(userID uint) (*models.User, error) {
	return models.FindUserByID(r.db, userID)
}

func (r *gormRepository) PlanDisplayName(planID string) string {
	return models.FindPlanDisplayName(r.db, planID)
}

func (r *gormRepository) StartSoftGrace(id uint, startedAt, expiresAt time.Time) error {
	return r.db.Model(&models.AppSubscription{}).
		Where("id = ? AND soft_grace_expires_at IS NULL", id).
		Updates(map[string]interface{}{
			"soft_grace_started_at": startedAt,
			"soft_grace_expires_at": expiresAt,
		}).Error
}

func (r *gormRepository) ResetSoftGrace(id uint) error {
	return r.db.Model(&models.AppSubscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"soft_grace_started_at": nil,
			"soft_grace_expires_at": nil,
		}).Error
}

func (r *gormRepository) MarkExpired(id uint, now time.Time) error {
	return r.db.Model(&models.AppSubscription{}).
		Where("id = ? AND status IN ?", id, []string{
			models.SubscriptionStatusActive,
			models.SubscriptionStatusTrialing,
		}).
		Updates(map[string]interface{}{
			"status":   models.SubscriptionStatusExpired,
			"end_date": now,
		}).Error
}

func (r *gormRepository) MarkCancelled(id uint, now time.Time) error {
	return r.db.Model(&models.AppSubscription{}).
		Where("id = ? AND status = ?", id, models.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"status":   models.SubscriptionStatusCancelled,
			"end_date": now,
		}).Error
}

func (r *gormRepository) ListEndingBy(cutoff time.Time) ([]models.AppSubscription, error) {
	var subs []models.AppSubscription
	err := r.db.
		Where("status = ? AND cancel_at_period_end = ? AND current_period_end <= ?",
			models.SubscriptionStatusActive, true, cutoff).
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) ListEndingBetween(from, to time.Time) ([]models.AppSubscription, error) {
	var subs []models.AppSubscription
	err := r.db.
		Where("status = ? AND cancel_at_period_end = ? AND current_period_end BETWEEN ? AND ?",
			models.SubscriptionStatusActive, true, from, to).
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) ListEndedBefore(now time.Time) ([]models.AppSubscription, error) {
	var subs []models.AppSubscription
	err := r.db.
		Where("status = ? AND cancel_at_period_end = ? AND current_period_end < ?",
			models.SubscriptionStatusActive, true, now).
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) ListPendingDowngradesBy(cutoff time.Time) ([]models.AppSubscription, error) {
	var subs []models.AppSubscription
	err := r.db.
		Where("pending_plan_id IS NOT NULL AND pending_plan_id <> '' AND pending_change_effective_date <= ?", cutoff).
		Find(&subs).Error
	return subs, err
}
