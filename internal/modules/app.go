package modules

import (
	"sd-gallery-server/internal/modules/gallery"
	galleryrepo "sd-gallery-server/internal/modules/gallery/repo"
	"sd-gallery-server/internal/modules/generation"
	"sd-gallery-server/internal/modules/prompt"
	promptservice "sd-gallery-server/internal/modules/prompt/service"
	"sd-gallery-server/internal/modules/system"
	systemrepo "sd-gallery-server/internal/modules/system/repo"
	"sd-gallery-server/internal/modules/user"
	userrepo "sd-gallery-server/internal/modules/user/repo"
	"sd-gallery-server/internal/pipeline"
	platformservice "sd-gallery-server/internal/platform/service"
)

type AppModules struct {
	User       *user.Module
	Gallery    *gallery.Module
	Generation *generation.Module
	Prompt     *prompt.Module
	System     *system.Module
}

type Options struct {
	Gallery gallery.Options
	Prompt  promptservice.ExpanderConfig
}

func New(
	appService *platformservice.AppService,
	userStore userrepo.UserStore,
	imageStore galleryrepo.ImageStore,
	systemStore systemrepo.SystemStore,
	cache *pipeline.Cache,
	opts Options,
) *AppModules {
	galleryModule := gallery.New(appService, userStore, imageStore, opts.Gallery)

	return &AppModules{
		User:       user.New(appService, userStore),
		Gallery:    galleryModule,
		Generation: generation.New(appService, cache, galleryModule.Service),
		Prompt:     prompt.New(appService, opts.Prompt),
		System:     system.New(appService, systemStore, cache),
	}
}
