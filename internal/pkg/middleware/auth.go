package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ahmedrioueche/gympro-sub000/app/models"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/database"
)

// RequireAdmin allows only active admin users through. Must run after
// RequireUser.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := UserIDFromCtx(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing user identity"})
		}

		user, err := models.FindUserByID(database.GetDB(), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Unknown user"})
			}
			log.Errorf("admin check for user %d failed: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "User lookup failed"})
		}

		if !user.IsActive() || user.Role != models.ROLE_ADMIN {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Admin access required"})
		}
		return c.Next()
	}
}
