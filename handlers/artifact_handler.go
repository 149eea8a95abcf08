package handlers

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"shorts_backend/pkg/logging"
	"shorts_backend/platform/storage"
	"shorts_backend/services"
	"shorts_backend/utils"
)

// ArtifactHandler serves finished clips. Every filename is checked
// against the session's recorded outputs, so one session can never read
// another session's files.
type ArtifactHandler struct {
	sessionService *services.SessionService
	storage        *storage.Service
}

func NewArtifactHandler(sessionService *services.SessionService, storageService *storage.Service) *ArtifactHandler {
	return &ArtifactHandler{
		sessionService: sessionService,
		storage:        storageService,
	}
}

// resolve maps session_id + filename route params to an on-disk path,
// or a 404 when the session does not record that output.
func (h *ArtifactHandler) resolve(c *fiber.Ctx) (string, error) {
	sessionID := c.Params("session_id")
	filename := c.Params("filename")

	sess, err := h.sessionService.GetSession(c.Context(), sessionID)
	if err != nil {
		return "", c.Status(404).JSON(fiber.Map{"error": "File not found"})
	}
	if !sess.HasOutput(filename) {
		return "", c.Status(404).JSON(fiber.Map{"error": "File not found"})
	}
	path, err := h.storage.OutputPath(sessionID, filename)
	if err != nil {
		return "", c.Status(404).JSON(fiber.Map{"error": "File not found"})
	}
	return path, nil
}

// Preview streams a clip for inline playback.
func (h *ArtifactHandler) Preview(c *fiber.Ctx) error {
	path, err := h.resolve(c)
	if path == "" {
		return err
	}
	c.Set(fiber.HeaderContentType, "video/mp4")
	return c.SendFile(path)
}

// Download sends a clip as an attachment.
func (h *ArtifactHandler) Download(c *fiber.Ctx) error {
	path, err := h.resolve(c)
	if path == "" {
		return err
	}
	return c.Download(path, c.Params("filename"))
}

// DownloadAll bundles every recorded output of the session into one ZIP
// built in memory, the clip count and sizes stay small enough for that.
func (h *ArtifactHandler) DownloadAll(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")

	sess, err := h.sessionService.GetSession(c.Context(), sessionID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "No files to download"})
	}
	if len(sess.Outputs) == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "No files to download"})
	}

	var buf bytes.Buffer
	if err := h.storage.WriteArchive(&buf, sessionID, sess.Outputs); err != nil {
		logging.Logger.Error("fail to build archive", "sessionID", sessionID, "error", err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to build archive"})
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, utils.ArchiveName(sessionID)))
	return c.Send(buf.Bytes())
}
