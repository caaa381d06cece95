package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"sd-gallery-server/internal/config"
	"sd-gallery-server/internal/testutils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

func testConfig() config.Config {
	return config.Config{
		JWT:        config.JWTConfig{Secret: "di_test_secret", ExpirationHours: 1},
		Pipeline:   config.PipelineConfig{Backend: "procedural", Device: "auto", MaxResident: 1},
		Generation: config.GenerationConfig{RateLimitRPS: 1, RateLimitBurst: 2},
		Gallery:    config.GalleryConfig{DefaultPageSize: 9, MaxPageSize: 100, ThumbnailSize: 64},
		Upload:     config.UploadConfig{MaxSizeMB: 10, MaxBodySizeMB: 2, MaxPixels: 2048 * 2048},
	}
}

// 测试内容：验证依赖注入组装出可用的应用，默认后端解析到 cpu 设备。
func TestInitializeApplication(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gdb := testutils.SetupDB(t)

	app, err := InitializeApplication(context.Background(), testConfig(), zaptest.NewLogger(t), gdb, nil)
	if err != nil {
		t.Fatalf("InitializeApplication: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	if app.Cache.Device() != "cpu" {
		t.Fatalf("期望 cpu 设备，实际为 %q", app.Cache.Device())
	}

	r := gin.New()
	app.Router.Init(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/models", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际为 %d", w.Code)
	}
}

// 测试内容：验证未知后端与不可用设备导致组装失败。
func TestInitializeApplication_BadPipelineConfig(t *testing.T) {
	gdb := testutils.SetupDB(t)

	cfg := testConfig()
	cfg.Pipeline.Backend = "tensorflow"
	if _, err := InitializeApplication(context.Background(), cfg, zaptest.NewLogger(t), gdb, nil); err == nil {
		t.Fatalf("期望未知后端返回错误")
	}

	cfg = testConfig()
	cfg.Pipeline.Device = "cuda"
	if _, err := InitializeApplication(context.Background(), cfg, zaptest.NewLogger(t), gdb, nil); err == nil {
		t.Fatalf("期望不可用设备返回错误")
	}
}

// 测试内容：验证配置换算为模块与路由参数。
func TestProvideOptions(t *testing.T) {
	cfg := testConfig()
	mo := ProvideModuleOptions(cfg)
	if mo.Gallery.Handler.MaxUploadBytes != 10<<20 || mo.Gallery.Service.MaxPageSize != 100 || mo.Gallery.Service.MaxPixels != 2048*2048 {
		t.Fatalf("非预期模块参数: %+v", mo)
	}
	ro := ProvideRouterOptions(cfg, zaptest.NewLogger(t), nil)
	if ro.BodyLimitBytes != 2<<20 || ro.GenerateLimit.Burst != 2 || ro.GenerateLimit.Redis != nil {
		t.Fatalf("非预期路由参数: %+v", ro)
	}
}
