package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shorts_backend/models"
	"shorts_backend/repository"
	"shorts_backend/services"
)

type GenerateHandler struct {
	sessionService   *services.SessionService
	generatorService *services.GeneratorService
}

func NewGenerateHandler(sessionService *services.SessionService, generatorService *services.GeneratorService) *GenerateHandler {
	return &GenerateHandler{
		sessionService:   sessionService,
		generatorService: generatorService,
	}
}

// Generate starts the background pipeline for an uploaded session. The
// response only acknowledges admission; progress arrives over the
// session's websocket.
func (h *GenerateHandler) Generate(c *fiber.Ctx) error {
	var req models.GenerateReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request",
		})
	}
	if req.SessionID == "" {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid session ID",
		})
	}

	useGPT := true
	if req.UseGPT != nil {
		useGPT = *req.UseGPT
	}
	settings := models.GenerationSettings{
		MaxShorts: req.MaxShorts,
		UseGPT:    useGPT,
	}

	if err := h.generatorService.Start(c.Context(), req.SessionID, settings); err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			return c.Status(400).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid session ID",
			})
		case errors.Is(err, repository.ErrInvalidState):
			return c.Status(409).JSON(fiber.Map{
				"success": false,
				"error":   "Generation already in progress",
			})
		default:
			return c.Status(500).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to start generation",
			})
		}
	}

	return c.JSON(models.GenerateResp{
		Success:   true,
		Message:   "Generation started",
		SessionID: req.SessionID,
	})
}

// Status is the polling fallback for clients without a websocket.
func (h *GenerateHandler) Status(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")

	sess, err := h.sessionService.GetSession(c.Context(), sessionID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Session not found"})
	}
	return c.JSON(sess)
}
