package router

import (
	"net/http"

	"sd-gallery-server/internal/modules"

	"github.com/gin-gonic/gin"
)

func registerPublicRoutes(api *gin.RouterGroup, m *modules.AppModules) {
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong from gin"})
	})
	api.GET("/health", m.System.Handler.GetHealth)
	api.GET("/models", m.Generation.Handler.ListModels)
	api.GET("/images/:image_id", m.Gallery.Handler.GetImageMeta)
	api.GET("/images/:image_id/thumbnail", m.Gallery.Handler.GetThumbnail)
	api.GET("/prompts/categories", m.Prompt.Handler.GetCategories)
	api.GET("/prompts/suggestions", m.Prompt.Handler.GetSuggestions)
}
