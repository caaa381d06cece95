package system

import (
	"sd-gallery-server/internal/modules/system/handler"
	"sd-gallery-server/internal/modules/system/repo"
	"sd-gallery-server/internal/modules/system/service"
	platformservice "sd-gallery-server/internal/platform/service"
)

type Module struct {
	Service *service.Service
	Handler *handler.Handler
}

func New(appService *platformservice.AppService, systemStore repo.SystemStore, pipelines service.PipelineState) *Module {
	moduleService := service.New(appService, systemStore, pipelines)
	moduleHandler := handler.New(moduleService)

	return &Module{
		Service: moduleService,
		Handler: moduleHandler,
	}
}
