package service

import (
	"testing"

	"sd-gallery-server/internal/config"
	"sd-gallery-server/internal/modules/user/repo"
	platformservice "sd-gallery-server/internal/platform/service"
	"sd-gallery-server/internal/testutils"

	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	prev := config.Get()
	t.Cleanup(func() { config.Set(prev) })
	config.Set(config.Config{JWT: config.JWTConfig{Secret: "user_service_secret", ExpirationHours: 1}})

	gdb := testutils.SetupDB(t)
	appService := platformservice.NewAppService(zaptest.NewLogger(t))
	return New(appService, repo.NewUserRepository(gdb)), gdb
}
