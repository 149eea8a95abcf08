package bootstrap

import "shorts_backend/handlers"

type Handlers struct {
	UploadHandler   *handlers.UploadHandler
	GenerateHandler *handlers.GenerateHandler
	ArtifactHandler *handlers.ArtifactHandler
	WSHandler       *handlers.WSHandler
}

func NewHandlers(services *Services, infra *Infrastructure) *Handlers {
	res := &Handlers{}
	u := handlers.NewUploadHandler(services.SessionService)
	res.UploadHandler = u
	g := handlers.NewGenerateHandler(services.SessionService, services.GeneratorService)
	res.GenerateHandler = g
	a := handlers.NewArtifactHandler(services.SessionService, infra.Storage)
	res.ArtifactHandler = a
	w := handlers.NewWSHandler(infra.EventPublisher)
	res.WSHandler = w
	return res
}
