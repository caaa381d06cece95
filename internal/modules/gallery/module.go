package gallery

import (
	"sd-gallery-server/internal/modules/gallery/handler"
	"sd-gallery-server/internal/modules/gallery/repo"
	"sd-gallery-server/internal/modules/gallery/service"
	platformservice "sd-gallery-server/internal/platform/service"
)

type Module struct {
	Service *service.Service
	Handler *handler.Handler
}

type Options struct {
	Service service.Options
	Handler handler.Options
}

func New(appService *platformservice.AppService, userStore repo.UserStore, imageStore repo.ImageStore, opts Options) *Module {
	moduleService := service.New(appService, userStore, imageStore, opts.Service)
	moduleHandler := handler.New(moduleService, opts.Handler)

	return &Module{
		Service: moduleService,
		Handler: moduleHandler,
	}
}
