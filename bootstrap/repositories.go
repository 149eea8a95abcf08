package bootstrap

import (
	"shorts_backend/config"
	"shorts_backend/repository"
)

type Repositories struct {
	SessionRepository repository.SessionRepository
}

func NewRepositories(cfg *config.Config, infra *Infrastructure) *Repositories {
	var sessions repository.SessionRepository
	if cfg.SessionStore == "postgres" {
		sessions = repository.NewPostgresSessionRepository(infra.DB.GetDatabase())
	} else {
		sessions = repository.NewMemorySessionRepository(cfg.SessionRetention)
	}
	return &Repositories{SessionRepository: sessions}
}
