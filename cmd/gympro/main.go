package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/cache"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/database"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/env"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/router"
	"github.com/ahmedrioueche/gympro-sub000/internal/pkg/subscription"
)

func main() {
	app := NewApplication()

	sweeper := subscription.GetSweeper()
	sweeper.Start()

	// Graceful shutdown: stop the sweeper before the HTTP server exits so an
	// in-flight sweep finishes its current scan.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		sweeper.Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	app := fiber.New(fiber.Config{
		AppName: "GymPro",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
