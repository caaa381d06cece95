package generation

import (
	"sd-gallery-server/internal/modules/generation/handler"
	"sd-gallery-server/internal/modules/generation/service"
	"sd-gallery-server/internal/pipeline"
	platformservice "sd-gallery-server/internal/platform/service"
)

type Module struct {
	Service *service.Service
	Handler *handler.Handler
}

func New(appService *platformservice.AppService, cache *pipeline.Cache, gallery service.GalleryWriter) *Module {
	moduleService := service.New(appService, cache, gallery)
	return &Module{
		Service: moduleService,
		Handler: handler.New(moduleService),
	}
}
