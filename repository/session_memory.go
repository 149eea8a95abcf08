package repository

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"shorts_backend/models"
)

// memorySessionRepository keeps sessions in process memory, evicted
// after the retention window. Lost on restart, which is acceptable for
// this system's scope.
type memorySessionRepository struct {
	mu       sync.Mutex
	sessions *cache.Cache
}

func NewMemorySessionRepository(retention time.Duration) SessionRepository {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &memorySessionRepository{
		sessions: cache.New(retention, retention/2),
	}
}

func (r *memorySessionRepository) Create(_ context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions.SetDefault(session.ID, snapshot(session))
	return nil
}

func (r *memorySessionRepository) GetByID(_ context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return snapshot(sess), nil
}

func (r *memorySessionRepository) ClaimRun(_ context.Context, id string, settings models.GenerationSettings) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if !sess.CanStart() {
		return nil, ErrInvalidState
	}

	sess.Status = models.StatusRunning
	sess.MaxShorts = settings.MaxShorts
	sess.UseGPT = settings.UseGPT
	sess.Outputs = nil
	sess.Errors = nil
	sess.CompletedAt = nil
	r.sessions.SetDefault(id, sess)
	return snapshot(sess), nil
}

func (r *memorySessionRepository) Finish(_ context.Context, id string, status string, outputs []string, errs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, err := r.get(id)
	if err != nil {
		return err
	}
	now := time.Now()
	sess.Status = status
	sess.Outputs = append([]string(nil), outputs...)
	sess.Errors = append([]string(nil), errs...)
	sess.CompletedAt = &now
	r.sessions.SetDefault(id, sess)
	return nil
}

// callers hold r.mu
func (r *memorySessionRepository) get(id string) (*models.Session, error) {
	v, ok := r.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return v.(*models.Session), nil
}

// snapshot copies a session so callers never share mutable state with
// the store.
func snapshot(sess *models.Session) *models.Session {
	cp := *sess
	cp.Outputs = append([]string(nil), sess.Outputs...)
	cp.Errors = append([]string(nil), sess.Errors...)
	if sess.CompletedAt != nil {
		t := *sess.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
