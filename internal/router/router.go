package router

import (
	"sd-gallery-server/internal/middleware"
	"sd-gallery-server/internal/modules"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// uploadRoute 上传接口单独使用上传大小限制
const uploadRoute = "/images/:user_id"

type Options struct {
	BodyLimitBytes   int64
	UploadLimitBytes int64
	GenerateLimit    middleware.RateLimitOptions
	Logger           *zap.Logger
}

type Router struct {
	modules *modules.AppModules
	opts    Options
}

func NewRouter(appModules *modules.AppModules, opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Router{
		modules: appModules,
		opts:    opts,
	}
}

func (rt *Router) Init(r *gin.Engine) {
	r.Use(middleware.RequestLogger(rt.opts.Logger))
	// 注册全局安全标头中间件
	r.Use(middleware.SecurityHeaders())
	// 应用请求体大小限制中间件
	r.Use(middleware.BodyLimitMiddleware(rt.opts.BodyLimitBytes, uploadRoute))

	registerLegacyRoutes(r, rt.modules, rt.opts)

	api := r.Group("/api")
	registerPublicRoutes(api, rt.modules)
	registerUserRoutes(api, rt.modules, rt.opts)
}
