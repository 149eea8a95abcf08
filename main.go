package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"shorts_backend/bootstrap"
	"shorts_backend/config"
	"shorts_backend/middleware"
	"shorts_backend/pkg/logging"
	"shorts_backend/routes"
)

func main() {
	// env vars
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
	logging.Init()

	cfg := config.LoadConfig()
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		log.Fatal(err)
	}

	fiberApp := fiber.New(fiber.Config{
		// headroom above the upload cap so the size check in the upload
		// service is what rejects oversized files, not the body limit
		BodyLimit: int(cfg.MaxUploadSize) + 4*1024*1024,
	})
	fiberApp.Use(middleware.Logger())
	fiberApp.Use(middleware.CORS())

	routes.RegisterAPIRoutes(fiberApp, app.Handlers)
	routes.SetupWebSocketRoutes(fiberApp, app.Handlers.WSHandler)

	port := cfg.HttpPort
	if port == "" {
		port = "5000"
	}
	log.Println("Server running on http://localhost:" + port)
	if err := fiberApp.Listen(":" + port); err != nil {
		log.Fatal(err)
	}

	if err := app.Shutdown(); err != nil {
		log.Fatal(err)
	}
}
