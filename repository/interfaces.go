package repository

import (
	"context"
	"errors"

	"shorts_backend/models"
)

// ErrSessionNotFound is returned when a session id is unknown (or evicted).
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidState is returned when a generation job tries to claim a
// session that is already running.
var ErrInvalidState = errors.New("session is already running")

// SessionRepository is the session registry. Implementations: in-memory
// with retention-window eviction (default) and postgres.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)

	// ClaimRun atomically moves an uploaded or terminal session to
	// running and records the job settings. It is the only gate that
	// admits a job, so at most one job per session can ever be active.
	ClaimRun(ctx context.Context, id string, settings models.GenerationSettings) (*models.Session, error)

	// Finish moves a running session to its terminal status and records
	// outputs and errors. The job pipeline is its sole caller.
	Finish(ctx context.Context, id string, status string, outputs []string, errs []string) error
}
