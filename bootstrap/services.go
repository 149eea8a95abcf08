package bootstrap

import (
	"shorts_backend/config"
	"shorts_backend/services"
)

type Services struct {
	SessionService   *services.SessionService
	GeneratorService *services.GeneratorService
}

func NewServices(cfg *config.Config, repos *Repositories, infra *Infrastructure) *Services {
	res := &Services{}

	sessionService := services.NewSessionService(repos.SessionRepository, infra.Storage, cfg)
	res.SessionService = sessionService

	// pipeline collaborators
	transcriber := services.NewWhisperTranscriber(cfg.WhisperAPIURL)
	var analyzer services.Analyzer
	if cfg.OpenAIAPIKey != "" {
		analyzer = services.NewGPTAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	renderer := services.NewFFmpegRenderer(cfg.FFmpegPath, cfg.FFprobePath)

	generatorService := services.NewGeneratorService(
		repos.SessionRepository,
		infra.Storage,
		infra.EventPublisher,
		transcriber,
		analyzer,
		renderer,
		infra.Mirror,
		cfg,
	)
	res.GeneratorService = generatorService
	return res
}
