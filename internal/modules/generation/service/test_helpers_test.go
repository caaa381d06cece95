package service

import (
	"context"
	"errors"
	"testing"

	galleryrepo "sd-gallery-server/internal/modules/gallery/repo"
	galleryservice "sd-gallery-server/internal/modules/gallery/service"
	"sd-gallery-server/internal/pipeline"
	platformservice "sd-gallery-server/internal/platform/service"

	"go.uber.org/zap/zaptest"
)

// failingLoader 每次加载都返回指定错误
type failingLoader struct {
	err error
}

func (l failingLoader) Load(context.Context, pipeline.ModelSpec, pipeline.Device) (pipeline.Pipeline, error) {
	return nil, l.err
}

var errDeviceFull = errors.New("device full")

type fixture struct {
	svc     *Service
	cache   *pipeline.Cache
	gallery *galleryservice.Service
	store   *galleryrepo.MemoryStore
}

func setupTestService(t *testing.T, loader pipeline.Loader) *fixture {
	t.Helper()

	logger := zaptest.NewLogger(t)
	app := platformservice.NewAppService(logger)
	cache := pipeline.NewCache(pipeline.DefaultRegistry(), loader, pipeline.DeviceCPU, pipeline.CacheOptions{
		MaxResident: 1,
		Logger:      logger,
	})
	t.Cleanup(func() { _ = cache.EvictAll() })

	store := galleryrepo.NewMemoryStore(1)
	gallery := galleryservice.New(app, store, store, galleryservice.Options{})
	return &fixture{
		svc:     New(app, cache, gallery),
		cache:   cache,
		gallery: gallery,
		store:   store,
	}
}
