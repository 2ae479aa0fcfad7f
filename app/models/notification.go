package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type      string         `gorm:"type:varchar(50)" json:"type" validate:"oneof=subscription billing system"`
	Key       string         `gorm:"type:varchar(100);index" json:"key"`
	Content   string         `gorm:"type:text" json:"content"`
	IsRead    bool           `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarkAsRead marks a notification as read
func (n *Notification) MarkAsRead(db *gorm.DB) error {
	n.IsRead = true
	return db.Model(n).Update("is_read", true).Error
}

// CreateNotification persists a new notification for a user
func CreateNotification(db *gorm.DB, userID uint, notificationType string, key string, content string) error {
	notification := Notification{
		UserID:  userID,
		Type:    notificationType,
		Key:     key,
		Content: content,
		IsRead:  false,
	}

	return db.Create(&notification).Error
}
