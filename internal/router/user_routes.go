package router

import (
	"sd-gallery-server/internal/middleware"
	"sd-gallery-server/internal/modules"

	"github.com/gin-gonic/gin"
)

func registerUserRoutes(api *gin.RouterGroup, m *modules.AppModules, opts Options) {
	authed := api.Group("")
	authed.Use(middleware.JWTAuth())

	// 生成限流在认证之后执行，按用户计数
	generateLimiter := middleware.RateLimitMiddleware(opts.GenerateLimit)

	authed.GET("/user/profile", m.User.Handler.GetSelfInfo)
	authed.GET("/system/stats", m.System.Handler.GetServerStats)

	authed.POST("/generate", generateLimiter, m.Generation.Handler.Generate)
	authed.DELETE("/models/:model_id", m.Generation.Handler.EvictModel)
	authed.DELETE("/models", m.Generation.Handler.EvictAllModels)

	authed.GET("/gallery", m.Gallery.Handler.GetGallery)
	authed.PATCH("/images/:image_id/favorite", m.Gallery.Handler.SetFavorite)
	authed.PATCH("/images/:image_id/rating", m.Gallery.Handler.SetRating)

	authed.POST("/prompts/expand", m.Prompt.Handler.ExpandPrompt)
	authed.POST("/prompts/chat", m.Prompt.Handler.Chat)
}
