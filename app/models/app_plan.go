package models

import (
	"time"

	"gorm.io/gorm"
)

// AppPlan is a purchasable platform plan. The entitlement core only reads it
// to render a display name in downgrade notices.
type AppPlan struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PlanID       string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"plan_id"`
	Name         string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	PriceCents   int       `gorm:"not null;default:0" json:"price_cents"`
	Currency     string    `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Interval     string    `gorm:"type:varchar(16);not null;default:'month'" json:"interval" validate:"oneof=month year"`
	TrialDays    int       `gorm:"not null;default:0" json:"trial_days"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindPlanDisplayName resolves a plan id to its display name. Unknown plans
// fall back to a generic label so notification rendering never fails on a
// missing catalog row.
func FindPlanDisplayName(db *gorm.DB, planID string) string {
	var plan AppPlan
	if err := db.Where("plan_id = ?", planID).First(&plan).Error; err != nil {
		return "New plan"
	}
	return plan.Name
}
