package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"shorts_backend/models"
)

type postgresSessionRepository struct {
	DB *gorm.DB
}

func NewPostgresSessionRepository(db *gorm.DB) SessionRepository {
	return &postgresSessionRepository{DB: db}
}

func (r *postgresSessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.DB.WithContext(ctx).Create(session).Error
}

func (r *postgresSessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *postgresSessionRepository) ClaimRun(ctx context.Context, id string, settings models.GenerationSettings) (*models.Session, error) {
	startable := []string{models.StatusUploaded, models.StatusCompleted, models.StatusFailed}
	res := r.DB.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND status IN ?", id, startable).
		Updates(map[string]interface{}{
			"status":       models.StatusRunning,
			"max_shorts":   settings.MaxShorts,
			"use_gpt":      settings.UseGPT,
			"outputs":      pq.StringArray(nil),
			"errors":       pq.StringArray(nil),
			"completed_at": nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// either unknown or already running; look up to tell apart
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidState
	}
	return r.GetByID(ctx, id)
}

func (r *postgresSessionRepository) Finish(ctx context.Context, id string, status string, outputs []string, errs []string) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"outputs":      pq.StringArray(outputs),
			"errors":       pq.StringArray(errs),
			"completed_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}
