package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/database"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/middleware"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/subscription"
)

// HandleGetBlockerConfig returns the subscription modal descriptor for the
// authenticated user. A `show:false` body means fully entitled; clients must
// not cache the response because it depends on wall-clock time.
func HandleGetBlockerConfig(c *fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing user identity"})
	}

	svc := subscription.NewBlockerServiceFromDB(database.GetDB())
	cfg, err := svc.GetBlockerConfig(userID)
	if err != nil {
		log.Errorf("blocker config for user %d failed: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Entitlement evaluation failed"})
	}
	if cfg == nil {
		return c.JSON(fiber.Map{"show": false})
	}
	return c.JSON(cfg)
}

// HandleGetGracePhase exposes the pure grace-phase query for clients that
// only need the access level, not the full modal.
func HandleGetGracePhase(c *fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing user identity"})
	}

	svc := subscription.NewBlockerServiceFromDB(database.GetDB())
	phase, err := svc.GracePhase(userID)
	if err != nil {
		log.Errorf("grace phase for user %d failed: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Entitlement evaluation failed"})
	}
	return c.JSON(fiber.Map{"phase": phase})
}

// HandleResetSoftGrace clears the soft-grace marker on a subscription so the
// next expired observation starts a fresh window. Admin/maintenance only.
func HandleResetSoftGrace(c *fiber.Ctx) error {
	subUUID := c.Params("uuid")
	if subUUID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Subscription uuid missing"})
	}

	svc := subscription.NewBlockerServiceFromDB(database.GetDB())
	if err := svc.ResetSoftGrace(subUUID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Subscription not found"})
		}
		log.Errorf("soft grace reset for subscription %s failed: %v", subUUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Reset failed"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleRunSweep triggers a single notification sweep out of cadence.
// Admin/maintenance only; the sweeper's own guards still apply.
func HandleRunSweep(c *fiber.Ctx) error {
	go subscription.GetSweeper().RunOnce()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "started"})
}
