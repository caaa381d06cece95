package service

import (
	"context"
	"runtime"
	"time"

	"sd-gallery-server/internal/consts"
	moduledto "sd-gallery-server/internal/modules/system/dto"
	"sd-gallery-server/internal/modules/system/repo"
	"sd-gallery-server/internal/pipeline"
	platformservice "sd-gallery-server/internal/platform/service"

	"go.uber.org/zap"
)

// PipelineState 管线缓存的只读视图
type PipelineState interface {
	Device() pipeline.Device
	Resident() []pipeline.ResidentInfo
}

type Service struct {
	*platformservice.AppService
	systemStore repo.SystemStore
	pipelines   PipelineState
}

func New(appService *platformservice.AppService, systemStore repo.SystemStore, pipelines PipelineState) *Service {
	return &Service{
		AppService:  appService,
		systemStore: systemStore,
		pipelines:   pipelines,
	}
}

// ServerStats 汇总图库规模、驻留模型与运行时信息
func (s *Service) ServerStats() (*moduledto.ServerStatsResponse, error) {
	imageCount, err := s.systemStore.CountImages()
	if err != nil {
		return nil, platformservice.Internal("统计图片数据失败", err)
	}
	totalSize, err := s.systemStore.SumImageBytes()
	if err != nil {
		return nil, platformservice.Internal("统计图片数据失败", err)
	}
	userCount, err := s.systemStore.CountUsers()
	if err != nil {
		return nil, platformservice.Internal("统计用户数据失败", err)
	}

	return &moduledto.ServerStatsResponse{
		ImageCount:     imageCount,
		StorageUsage:   totalSize,
		UserCount:      userCount,
		Device:         s.pipelines.Device(),
		ResidentModels: s.pipelines.Resident(),
		SystemInfo: moduledto.SystemInfoResponse{
			OS:           runtime.GOOS,
			Arch:         runtime.GOARCH,
			GoVersion:    runtime.Version(),
			NumCPU:       runtime.NumCPU(),
			NumGoroutine: runtime.NumGoroutine(),
		},
	}, nil
}

// Health 数据库不可达时 ok 为 false
func (s *Service) Health(ctx context.Context) (moduledto.HealthResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp := moduledto.HealthResponse{Status: "ok", Database: "ok", Version: consts.ApplicationVersion}
	if err := s.systemStore.Ping(ctx); err != nil {
		s.Logger().Warn("⚠️ 数据库健康检查失败", zap.Error(err))
		resp.Status = "degraded"
		resp.Database = "unreachable"
		return resp, false
	}
	return resp, true
}
