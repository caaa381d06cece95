package di

import (
	"context"
	"time"

	"sd-gallery-server/internal/config"
	"sd-gallery-server/internal/middleware"
	"sd-gallery-server/internal/modules"
	"sd-gallery-server/internal/modules/gallery"
	galleryhandler "sd-gallery-server/internal/modules/gallery/handler"
	galleryservice "sd-gallery-server/internal/modules/gallery/service"
	promptservice "sd-gallery-server/internal/modules/prompt/service"
	"sd-gallery-server/internal/pipeline"
	"sd-gallery-server/internal/router"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const mb = int64(1) << 20

// ProvidePipelineCache 创建后端并在启动时确定一次计算设备
func ProvidePipelineCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pipeline.Cache, error) {
	pc := cfg.Pipeline
	backend, err := pipeline.NewBackend(pc.Backend, pc.UpstreamURL, time.Duration(pc.RequestTimeout)*time.Second)
	if err != nil {
		return nil, err
	}
	device, err := pipeline.ResolveDevice(ctx, backend, pc.Device)
	if err != nil {
		return nil, err
	}
	logger.Info("🧠 管线设备已确定",
		zap.String("backend", pc.Backend),
		zap.String("device", string(device)),
		zap.Int("max_resident", pc.MaxResident))

	return pipeline.NewCache(pipeline.DefaultRegistry(), backend, device, pipeline.CacheOptions{
		MaxResident: pc.MaxResident,
		Logger:      logger.Named("pipeline"),
	}), nil
}

func ProvideModuleOptions(cfg config.Config) modules.Options {
	return modules.Options{
		Gallery: gallery.Options{
			Service: galleryservice.Options{
				MaxPageSize:   cfg.Gallery.MaxPageSize,
				ThumbnailSize: cfg.Gallery.ThumbnailSize,
				MaxPixels:     cfg.Upload.MaxPixels,
			},
			Handler: galleryhandler.Options{
				MaxUploadBytes:  int64(cfg.Upload.MaxSizeMB) * mb,
				DefaultPageSize: cfg.Gallery.DefaultPageSize,
			},
		},
		Prompt: promptservice.ExpanderConfig{
			Enabled: cfg.Prompt.Enabled,
			BaseURL: cfg.Prompt.BaseURL,
			APIKey:  cfg.Prompt.APIKey,
			Model:   cfg.Prompt.Model,
		},
	}
}

func ProvideRouterOptions(cfg config.Config, logger *zap.Logger, redisClient *redis.Client) router.Options {
	return router.Options{
		BodyLimitBytes:   int64(cfg.Upload.MaxBodySizeMB) * mb,
		UploadLimitBytes: int64(cfg.Upload.MaxSizeMB) * mb,
		GenerateLimit: middleware.RateLimitOptions{
			Scope:       "generate",
			RPS:         cfg.Generation.RateLimitRPS,
			Burst:       cfg.Generation.RateLimitBurst,
			Redis:       redisClient,
			RedisPrefix: cfg.Redis.Prefix,
			Logger:      logger,
		},
		Logger: logger.Named("http"),
	}
}
