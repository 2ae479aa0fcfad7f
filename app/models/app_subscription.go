package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubscriptionStatusTrialing  = "trialing"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

const (
	AutoRenewManual = "manual"
	AutoRenewAuto   = "auto"
)

// AppSubscription is one user's platform subscription. The entitlement core
// reads it on every evaluation and writes exactly two things: the soft-grace
// marker (once) and the final status flip to expired (once). Everything else
// is owned by the billing/renewal side.
type AppSubscription struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UUID   string `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	UserID uint   `gorm:"not null;uniqueIndex" json:"user_id"`
	PlanID string `gorm:"type:varchar(100);not null;index" json:"plan_id"`

	Status        string `gorm:"type:varchar(32);not null;default:'trialing';index" json:"status" validate:"oneof=trialing active cancelled expired"`
	AutoRenewType string `gorm:"type:varchar(16);not null;default:'auto'" json:"auto_renew_type" validate:"oneof=manual auto"`

	TrialEndDate       *time.Time `gorm:"type:timestamp;default:null" json:"trial_end_date,omitempty"`
	CurrentPeriodStart *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `gorm:"type:timestamp;default:null;index" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `gorm:"default:false" json:"cancel_at_period_end"`

	// Soft-grace marker. Both columns are set together by a single
	// conditional update the first time an expired condition is observed and
	// are never recomputed afterwards (hysteresis).
	SoftGraceStartedAt *time.Time `gorm:"type:timestamp;default:null" json:"soft_grace_started_at,omitempty"`
	SoftGraceExpiresAt *time.Time `gorm:"type:timestamp;default:null" json:"soft_grace_expires_at,omitempty"`

	// Scheduled downgrade not yet applied.
	PendingPlanID              string     `gorm:"type:varchar(100);default:null" json:"pending_plan_id,omitempty"`
	PendingChangeEffectiveDate *time.Time `gorm:"type:timestamp;default:null" json:"pending_change_effective_date,omitempty"`

	// Final cancellation timestamp, set when status becomes cancelled or
	// expired.
	EndDate *time.Time `gorm:"type:timestamp;default:null" json:"end_date,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *AppSubscription) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.New().String()
	}
	return nil
}

// HasSoftGrace reports whether the soft-grace marker has been set.
func (s *AppSubscription) HasSoftGrace() bool {
	return s.SoftGraceExpiresAt != nil
}

// HasPendingDowngrade reports whether a plan change is scheduled but not yet
// applied.
func (s *AppSubscription) HasPendingDowngrade() bool {
	return s.PendingPlanID != "" && s.PendingChangeEffectiveDate != nil
}

// FindSubscriptionByUUID looks up a subscription by its public identifier.
func FindSubscriptionByUUID(db *gorm.DB, subUUID string) (*AppSubscription, error) {
	var sub AppSubscription
	if err := db.Where("uuid = ?", subUUID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}
