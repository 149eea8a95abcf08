package storage

import (
	"archive/zip"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"shorts_backend/config"
	"shorts_backend/pkg/logging"
	"shorts_backend/utils"
)

// Service owns the upload and output areas on local disk. Every path it
// hands out is namespaced by session id so no two sessions ever share a
// file.
type Service struct {
	uploadDir string
	outputDir string
}

func InitStorageService(cfg *config.Config) (*Service, error) {
	for _, dir := range []string{cfg.UploadDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.Logger.Error("fail InitStorageService", "dir", dir, "error", err)
			return nil, err
		}
	}
	logging.Logger.Info("Storage service initialized",
		"uploadDir", cfg.UploadDir,
		"outputDir", cfg.OutputDir,
	)
	return &Service{uploadDir: cfg.UploadDir, outputDir: cfg.OutputDir}, nil
}

// SaveUpload persists an uploaded file under a session-scoped name and
// returns its path.
func (s *Service) SaveUpload(sessionID string, fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			logging.Logger.Error("fail closing upload", "error", err)
		}
	}()

	path := filepath.Join(s.uploadDir, utils.SessionScopedName(sessionID, fileHeader.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return path, nil
}

// SourceExists reports whether a previously saved upload is still on disk.
func (s *Service) SourceExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// EnsureSessionOutputDir creates and returns the per-session output dir.
func (s *Service) EnsureSessionOutputDir(sessionID string) (string, error) {
	dir := filepath.Join(s.outputDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return dir, nil
}

// OutputPath resolves an output filename inside a session's directory.
// Filenames carrying path separators or traversal are rejected.
func (s *Service) OutputPath(sessionID, filename string) (string, error) {
	if filename == "" ||
		filename != filepath.Base(filename) ||
		strings.Contains(filename, "..") {
		return "", fmt.Errorf("invalid output filename: %q", filename)
	}
	return filepath.Join(s.outputDir, sessionID, filename), nil
}

// WriteArchive writes a ZIP of the listed outputs to w, in order.
// Outputs that vanished from disk are skipped, matching the best-effort
// bulk download behavior.
func (s *Service) WriteArchive(w io.Writer, sessionID string, outputs []string) error {
	zw := zip.NewWriter(w)
	for _, filename := range outputs {
		path, err := s.OutputPath(sessionID, filename)
		if err != nil {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			logging.Logger.Warn("skipping missing output in archive",
				"sessionID", sessionID, "filename", filename)
			continue
		}
		entry, err := zw.Create(filename)
		if err != nil {
			f.Close()
			return fmt.Errorf("create archive entry: %w", err)
		}
		if _, err := io.Copy(entry, f); err != nil {
			f.Close()
			return fmt.Errorf("write archive entry: %w", err)
		}
		f.Close()
	}
	return zw.Close()
}
