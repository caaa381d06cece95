package handler

import (
	"net/http"
	"strconv"
	"testing"

	"sd-gallery-server/internal/model"
	"sd-gallery-server/internal/modules/gallery/repo"
	galleryservice "sd-gallery-server/internal/modules/gallery/service"
	userrepo "sd-gallery-server/internal/modules/user/repo"
	platformservice "sd-gallery-server/internal/platform/service"
	"sd-gallery-server/internal/testutils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

type testEnv struct {
	router *gin.Engine
	alice  model.User
	bob    model.User
}

// fakeAuth 以 X-User-ID 头模拟 JWT 中间件写入的用户 ID
func fakeAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "需要认证才能访问"})
			return
		}
		id, _ := strconv.ParseUint(raw, 10, 64)
		c.Set("id", uint(id))
		c.Next()
	}
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := testutils.SetupDB(t)
	alice := testutils.CreateUser(t, gdb, "alice", "abc12345")
	bob := testutils.CreateUser(t, gdb, "bob", "abc12345")

	svc := galleryservice.New(
		platformservice.NewAppService(zaptest.NewLogger(t)),
		userrepo.NewUserRepository(gdb),
		repo.NewImageRepository(gdb),
		galleryservice.Options{MaxPageSize: 50, ThumbnailSize: 2},
	)
	h := New(svc, Options{MaxUploadBytes: 1 << 20, DefaultPageSize: 9})

	r := gin.New()
	r.POST("/images/:user_id", h.UploadImage)
	r.GET("/images/:user_id", h.ListUserImages)
	r.GET("/image/:image_id", h.GetImage)
	r.DELETE("/image/:image_id", fakeAuth(), h.DeleteImage)
	r.GET("/api/images/:image_id", h.GetImageMeta)
	r.GET("/api/images/:image_id/thumbnail", h.GetThumbnail)
	api := r.Group("/api", fakeAuth())
	api.GET("/gallery", h.GetGallery)
	api.PATCH("/images/:image_id/favorite", h.SetFavorite)
	api.PATCH("/images/:image_id/rating", h.SetRating)

	return &testEnv{router: r, alice: alice, bob: bob}
}
