package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"shorts_backend/pkg/logging"
	"shorts_backend/platform/events"
)

type WSHandler struct {
	publisher events.Publisher
}

func NewWSHandler(publisher events.Publisher) *WSHandler {
	return &WSHandler{publisher: publisher}
}

func (h *WSHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.Status(400).JSON(fiber.Map{"error": "Not a websocket request"})
}

// HandleSessionEvents streams progress events for one session until the
// client disconnects. Events for other sessions on the shared channel
// are dropped here.
func (h *WSHandler) HandleSessionEvents(c *websocket.Conn) {
	sessionID := c.Params("session_id")

	logging.Logger.Info("WebSocket connected", "sessionID", sessionID)

	// cancelable context, cancels when the function ends
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventChan, err := h.publisher.Subscribe(ctx)
	if err != nil {
		logging.Logger.Error("Failed to subscribe to events", "error", err)
		err := c.WriteMessage(websocket.TextMessage, []byte(`{"error":"Failed to subscribe"}`))
		if err != nil {
			return
		}
		return
	}
	// send back to frontend
	err = c.WriteJSON(fiber.Map{
		"type":       "connected",
		"message":    "WebSocket connected successfully",
		"session_id": sessionID,
	})
	if err != nil {
		return
	}

	for {
		select {
		case event := <-eventChan:
			if event == nil {
				return
			}
			if event.SessionID != sessionID {
				continue
			}
			data, _ := json.Marshal(event)
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Logger.Error("Failed to send WebSocket message", "error", err)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
