package router

import (
	"sd-gallery-server/internal/middleware"
	"sd-gallery-server/internal/modules"

	"github.com/gin-gonic/gin"
)

// registerLegacyRoutes 早期客户端使用的接口，路径与响应保持不变
func registerLegacyRoutes(r *gin.Engine, m *modules.AppModules, opts Options) {
	r.POST("/users/", m.User.Handler.Register)
	r.POST("/login", m.User.Handler.Login)

	r.POST(uploadRoute, middleware.UploadBodyLimitMiddleware(opts.UploadLimitBytes), m.Gallery.Handler.UploadImage)
	r.GET(uploadRoute, m.Gallery.Handler.ListUserImages)
	r.GET("/image/:image_id", m.Gallery.Handler.GetImage)
	r.DELETE("/image/:image_id", middleware.JWTAuth(), m.Gallery.Handler.DeleteImage)
}
