package routes

import (
	"github.com/gofiber/fiber/v2"

	"shorts_backend/bootstrap"
)

func RegisterAPIRoutes(app *fiber.App, h *bootstrap.Handlers) {
	api := app.Group("/api")

	api.Post("/upload", h.UploadHandler.Upload)
	api.Post("/generate", h.GenerateHandler.Generate)
	api.Get("/status/:session_id", h.GenerateHandler.Status)

	api.Get("/preview/:session_id/:filename", h.ArtifactHandler.Preview)
	api.Get("/download/:session_id/:filename", h.ArtifactHandler.Download)
	api.Get("/download-all/:session_id", h.ArtifactHandler.DownloadAll)
}
