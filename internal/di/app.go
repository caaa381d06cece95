package di

import (
	"errors"

	"sd-gallery-server/internal/modules"
	"sd-gallery-server/internal/pipeline"
	"sd-gallery-server/internal/platform/redisx"
	"sd-gallery-server/internal/router"

	"github.com/redis/go-redis/v9"
)

type Application struct {
	Router  *router.Router
	Modules *modules.AppModules
	Cache   *pipeline.Cache
	Redis   *redis.Client
}

func NewApplication(r *router.Router, m *modules.AppModules, cache *pipeline.Cache, redisClient *redis.Client) *Application {
	return &Application{
		Router:  r,
		Modules: m,
		Cache:   cache,
		Redis:   redisClient,
	}
}

// Close 释放全部已加载的模型并关闭 Redis 连接
func (a *Application) Close() error {
	return errors.Join(a.Cache.EvictAll(), redisx.Close(a.Redis))
}
