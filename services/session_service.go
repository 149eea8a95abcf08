package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"shorts_backend/config"
	"shorts_backend/models"
	"shorts_backend/pkg/logging"
	"shorts_backend/platform/storage"
	"shorts_backend/repository"
)

var ErrInvalidFileType = errors.New("invalid file type. Supported: MP4, AVI, MOV, MKV, WMV, FLV, WebM")
var ErrFileTooLarge = errors.New("file too large")

var allowedExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
}

type SessionService struct {
	repo          repository.SessionRepository
	storage       *storage.Service
	maxUploadSize int64
}

func NewSessionService(repo repository.SessionRepository, storageService *storage.Service, cfg *config.Config) *SessionService {
	return &SessionService{
		repo:          repo,
		storage:       storageService,
		maxUploadSize: cfg.MaxUploadSize,
	}
}

// CreateSession validates an uploaded video, persists it under a fresh
// session id and registers the session. Validation failures create no
// session and touch no disk.
func (s *SessionService) CreateSession(ctx context.Context, fileHeader *multipart.FileHeader) (*models.Session, error) {
	if fileHeader.Filename == "" {
		return nil, ErrInvalidFileType
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		logging.Logger.Warn("rejected upload", "filename", fileHeader.Filename, "reason", "extension")
		return nil, ErrInvalidFileType
	}
	if fileHeader.Size > s.maxUploadSize {
		logging.Logger.Warn("rejected upload", "filename", fileHeader.Filename, "size", fileHeader.Size)
		return nil, fmt.Errorf("%w: max %d bytes", ErrFileTooLarge, s.maxUploadSize)
	}

	sessionID := uuid.New().String()
	path, err := s.storage.SaveUpload(sessionID, fileHeader)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	sess := &models.Session{
		ID:         sessionID,
		Filename:   filepath.Base(path),
		SourcePath: path,
		FileSize:   fileHeader.Size,
		Status:     models.StatusUploaded,
		UploadedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	logging.Logger.Info("session created",
		"sessionID", sessionID,
		"filename", sess.Filename,
		"fileSize", sess.FileSize,
	)
	return sess, nil
}

func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.repo.GetByID(ctx, sessionID)
}
