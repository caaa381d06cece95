package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sd-gallery-server/internal/config"
	"sd-gallery-server/internal/consts"
	"sd-gallery-server/internal/db"
	"sd-gallery-server/internal/di"
	"sd-gallery-server/internal/logger"
	"sd-gallery-server/internal/platform/redisx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	configDir := flag.String("config", "config", "配置文件目录")
	exportRoutes := flag.Bool("export", false, "导出路由到 routes.json 并退出")
	flag.Parse()

	config.InitConfig(*configDir)
	cfg := config.Get()

	log := logger.New(cfg.Server, cfg.Log)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	gdb, err := db.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("❌ 数据库连接失败", zap.Error(err))
	}

	app, r, err := buildApplication(context.Background(), cfg, log, gdb)
	if err != nil {
		log.Fatal("❌ 应用初始化失败", zap.Error(err))
	}

	// 导出模式
	if *exportRoutes {
		if err := exportAPI(r, "routes.json"); err != nil {
			log.Fatal("❌ 路由导出失败", zap.Error(err))
		}
		log.Info("✅ 路由已成功导出到 routes.json")
		_ = app.Close()
		return
	}

	printWelcomeMessage(cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("🚀 服务启动成功", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("❌ 服务启动失败", zap.Error(err))
		}
	}()

	// 等待中断信号关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("🛑 正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("❌ 服务强制关闭", zap.Error(err))
	}
	if err := app.Close(); err != nil {
		log.Error("❌ 释放模型失败", zap.Error(err))
	}
	if err := db.Close(gdb); err != nil {
		log.Error("❌ 关闭数据库失败", zap.Error(err))
	}
	log.Info("✅ 服务已退出")
}

// buildApplication 连接可选的 Redis 并组装路由。Redis 不可用时降级为内存限流。
func buildApplication(ctx context.Context, cfg config.Config, log *zap.Logger, gdb *gorm.DB) (*di.Application, *gin.Engine, error) {
	redisClient, err := redisx.Connect(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn("⚠️ Redis 不可用，降级为内存模式", zap.Error(err))
		redisClient = nil
	}

	app, err := di.InitializeApplication(ctx, cfg, log, gdb, redisClient)
	if err != nil {
		_ = redisx.Close(redisClient)
		return nil, nil, err
	}

	gin.SetMode(ginMode(cfg.Server.Mode))
	r := gin.New()
	r.Use(gin.Recovery())
	app.Router.Init(r)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API not found"})
	})
	return app, r, nil
}

func ginMode(mode string) string {
	switch mode {
	case gin.ReleaseMode, gin.TestMode:
		return mode
	default:
		return gin.DebugMode
	}
}

func printWelcomeMessage(cfg config.Config) {
	fmt.Println()
	fmt.Println(" ┌───────────────────────────────────────────────────────┐")
	fmt.Printf(" │   🚀  %s\n", consts.ApplicationName)
	fmt.Println(" ├───────────────────────────────────────────────────────┤")
	fmt.Printf(" │   📦  版本     : %s\n", consts.ApplicationVersion)
	fmt.Printf(" │   🧠  生成后端 : %s (%s)\n", cfg.Pipeline.Backend, cfg.Pipeline.Device)
	fmt.Printf(" │   🔥  服务端口 : %s\n", cfg.Server.Port)
	fmt.Println(" └───────────────────────────────────────────────────────┘")
	fmt.Println()
}

func exportAPI(r *gin.Engine, path string) error {
	// 简单的结构体，只留关键信息
	type RouteInfo struct {
		Method  string `json:"method"`
		Path    string `json:"path"`
		Handler string `json:"handler"`
	}

	routes := r.Routes()
	exportList := make([]RouteInfo, 0, len(routes))
	for _, route := range routes {
		exportList = append(exportList, RouteInfo{
			Method:  route.Method,
			Path:    route.Path,
			Handler: route.Handler,
		})
	}

	file, err := json.MarshalIndent(exportList, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, file, 0644)
}
