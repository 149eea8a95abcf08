package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shorts_backend/models"
	"shorts_backend/services"
)

type UploadHandler struct {
	sessionService *services.SessionService
}

func NewUploadHandler(sessionService *services.SessionService) *UploadHandler {
	return &UploadHandler{sessionService: sessionService}
}

// Upload accepts one video file in the "video" form field and opens a
// new session for it.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("video")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"error":   "No video file provided",
		})
	}

	sess, err := h.sessionService.CreateSession(c.Context(), fileHeader)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFileType) || errors.Is(err, services.ErrFileTooLarge) {
			return c.Status(400).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to save uploaded file",
		})
	}

	return c.JSON(models.UploadResp{
		Success:   true,
		SessionID: sess.ID,
		Filename:  sess.Filename,
		FileSize:  sess.FileSize,
	})
}
