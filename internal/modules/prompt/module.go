package prompt

import (
	"sd-gallery-server/internal/modules/prompt/handler"
	"sd-gallery-server/internal/modules/prompt/service"
	platformservice "sd-gallery-server/internal/platform/service"
)

type Module struct {
	Service *service.Service
	Handler *handler.Handler
}

func New(appService *platformservice.AppService, cfg service.ExpanderConfig) *Module {
	moduleService := service.New(appService, cfg)
	return &Module{
		Service: moduleService,
		Handler: handler.New(moduleService),
	}
}
