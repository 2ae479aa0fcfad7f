package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ahmedrioueche/gympro-sub000/app/controllers"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1", middleware.RequireUser())

	sub := v1.Group("/subscription")
	sub.Get("/blocker-config", controllers.HandleGetBlockerConfig)
	sub.Get("/grace-phase", controllers.HandleGetGracePhase)

	admin := v1.Group("/admin", middleware.RequireAdmin())
	admin.Post("/subscriptions/:uuid/reset-grace", controllers.HandleResetSoftGrace)
	admin.Post("/subscriptions/sweep", controllers.HandleRunSweep)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
