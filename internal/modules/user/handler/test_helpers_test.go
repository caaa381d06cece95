package handler

import (
	"testing"

	"sd-gallery-server/internal/config"
	"sd-gallery-server/internal/modules/user/repo"
	userservice "sd-gallery-server/internal/modules/user/service"
	platformservice "sd-gallery-server/internal/platform/service"
	"sd-gallery-server/internal/testutils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	prev := config.Get()
	t.Cleanup(func() { config.Set(prev) })
	config.Set(config.Config{JWT: config.JWTConfig{Secret: "user_handler_secret", ExpirationHours: 1}})

	gdb := testutils.SetupDB(t)
	h := New(userservice.New(platformservice.NewAppService(zaptest.NewLogger(t)), repo.NewUserRepository(gdb)))

	r := gin.New()
	r.POST("/users/", h.Register)
	r.POST("/login", h.Login)
	return r
}
