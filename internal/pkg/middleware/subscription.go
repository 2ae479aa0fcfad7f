package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/database"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/subscription"
)

// UserIDLocal is the fiber locals key carrying the authenticated user id.
const UserIDLocal = "user_id"

// RequireUser resolves the authenticated user from the X-User-ID header set
// by the upstream auth gateway. Authentication itself happens outside this
// service.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get("X-User-ID")
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing user identity"})
		}
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid user identity"})
		}
		c.Locals(UserIDLocal, uint(userID))
		return c.Next()
	}
}

// UserIDFromCtx returns the authenticated user id set by RequireUser.
func UserIDFromCtx(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals(UserIDLocal).(uint)
	return userID, ok
}

// SubscriptionGuard blocks mutating requests for accounts in the read-only
// or expired grace phase. It relies on the pure grace-phase query and never
// writes, so it is safe on every protected request.
func SubscriptionGuard() fiber.Handler {
	return subscriptionGuard(func(userID uint) (subscription.GracePhase, error) {
		return subscription.NewBlockerServiceFromDB(database.GetDB()).GracePhase(userID)
	})
}

func subscriptionGuard(gracePhase func(userID uint) (subscription.GracePhase, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		userID, ok := UserIDFromCtx(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing user identity"})
		}

		phase, err := gracePhase(userID)
		if err != nil {
			log.Errorf("subscription guard: grace phase lookup for user %d failed: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Entitlement check failed"})
		}

		if phase == subscription.PhaseReadOnly || phase == subscription.PhaseExpired {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "subscription_restricted",
				"message": "Subscription is in a restricted grace phase",
				"phase":   phase,
			})
		}
		return c.Next()
	}
}
