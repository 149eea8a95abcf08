package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"shorts_backend/handlers"
)

func SetupWebSocketRoutes(app *fiber.App, wsHandler *handlers.WSHandler) {
	ws := app.Group("/ws")

	// WebSocket route
	ws.Use("/session/:session_id", wsHandler.WebSocketUpgrade)
	ws.Get("/session/:session_id", websocket.New(wsHandler.HandleSessionEvents))
}
