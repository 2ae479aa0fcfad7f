package notifications

import (
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ahmedrioueche/gympro-sub000/app/models"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/mail"
)

// Message is a notification identified by a catalog key plus template vars.
type Message struct {
	Key  string
	Vars map[string]string
}

// Notifier delivers a message to a user through whatever channels are
// configured. Delivery is a side effect of entitlement decisions, never part
// of them; implementations must not fail the caller on channel errors.
type Notifier interface {
	Notify(user *models.User, msg Message) error
}

// Service persists an in-app notification row and emails the user
// best-effort. The returned error covers only persistence; a failed email is
// logged and swallowed.
type Service struct {
	db       *gorm.DB
	sendMail func(to, subject, body string) error
}

// NewService creates a notifier backed by the given DB handle.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, sendMail: mail.SendMail}
}

func (s *Service) Notify(user *models.User, msg Message) error {
	content := Render(msg.Key, user.Language, msg.Vars)

	if err := models.CreateNotification(s.db, user.ID, "subscription", msg.Key, content); err != nil {
		return err
	}

	if err := s.sendMail(user.Email, "GymPro subscription update", content); err != nil {
		log.Errorf("[Notifications] Email to user %d failed: %v", user.ID, err)
	}
	return nil
}
