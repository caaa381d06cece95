//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"sd-gallery-server/internal/config"
	"sd-gallery-server/internal/modules"
	galleryrepo "sd-gallery-server/internal/modules/gallery/repo"
	systemrepo "sd-gallery-server/internal/modules/system/repo"
	userrepo "sd-gallery-server/internal/modules/user/repo"
	platformservice "sd-gallery-server/internal/platform/service"
	"sd-gallery-server/internal/router"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func InitializeApplication(ctx context.Context, cfg config.Config, logger *zap.Logger, gormDB *gorm.DB, redisClient *redis.Client) (*Application, error) {
	wire.Build(
		platformservice.NewAppService,
		userrepo.NewUserRepository,
		galleryrepo.NewImageRepository,
		systemrepo.NewSystemRepository,
		ProvidePipelineCache,
		ProvideModuleOptions,
		ProvideRouterOptions,
		modules.New,
		router.NewRouter,
		NewApplication,
	)
	return nil, nil
}
