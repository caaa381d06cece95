package user

import (
	"sd-gallery-server/internal/modules/user/handler"
	"sd-gallery-server/internal/modules/user/repo"
	"sd-gallery-server/internal/modules/user/service"
	platformservice "sd-gallery-server/internal/platform/service"
)

type Module struct {
	Service *service.Service
	Handler *handler.Handler
}

func New(appService *platformservice.AppService, userStore repo.UserStore) *Module {
	moduleService := service.New(appService, userStore)
	return &Module{
		Service: moduleService,
		Handler: handler.New(moduleService),
	}
}
