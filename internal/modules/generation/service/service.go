package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"sd-gallery-server/internal/adjust"
	"sd-gallery-server/internal/model"
	gallerydto "sd-gallery-server/internal/modules/gallery/dto"
	moduledto "sd-gallery-server/internal/modules/generation/dto"
	"sd-gallery-server/internal/pipeline"
	platformservice "sd-gallery-server/internal/platform/service"

	"go.uber.org/zap"
)

// GalleryWriter 生成结果的持久化出口
type GalleryWriter interface {
	Save(ownerID uint, data []byte, prompt string, filename string) (*model.Image, error)
}

type Service struct {
	*platformservice.AppService
	cache   *pipeline.Cache
	gallery GalleryWriter
}

func New(appService *platformservice.AppService, cache *pipeline.Cache, gallery GalleryWriter) *Service {
	return &Service{
		AppService: appService,
		cache:      cache,
		gallery:    gallery,
	}
}

// Generate 用固定种子与采样参数生成一张图片，相同输入得到相同输出。失败不重试。
func (s *Service) Generate(ctx context.Context, modelID string, prompt string, height int, width int) (image.Image, error) {
	if _, ok := s.cache.Registry().Lookup(modelID); !ok {
		return nil, platformservice.Validation(fmt.Errorf("%w: %s", pipeline.ErrUnknownModel, modelID))
	}
	req := pipeline.NewRequest(modelID, strings.TrimSpace(prompt), height, width)
	if err := req.Validate(); err != nil {
		return nil, platformservice.Validation(err)
	}

	start := time.Now()
	handle, err := s.cache.Resolve(ctx, modelID)
	if err != nil {
		return nil, s.generationFailed(modelID, err)
	}
	img, err := handle.Generate(ctx, req)
	if err != nil {
		return nil, s.generationFailed(modelID, err)
	}

	s.Logger().Info("🎨 图片生成完成",
		zap.String("model_id", modelID),
		zap.Int("height", height),
		zap.Int("width", width),
		zap.Duration("elapsed", time.Since(start)))
	return img, nil
}

// GenerateAndProcess 生成、调整并编码为 PNG，需要时保存到用户图库
func (s *Service) GenerateAndProcess(ctx context.Context, ownerID uint, req moduledto.GenerateRequest) (*moduledto.GenerateResult, error) {
	factors := adjust.Factors{
		Brightness: factorOrIdentity(req.Brightness),
		Contrast:   factorOrIdentity(req.Contrast),
		Saturation: factorOrIdentity(req.Saturation),
	}
	if err := factors.Validate(); err != nil {
		return nil, platformservice.Validation(err)
	}

	img, err := s.Generate(ctx, req.ModelID, req.Prompt, req.Height, req.Width)
	if err != nil {
		return nil, err
	}
	if !factors.IsIdentity() {
		if img, err = adjust.Adjust(img, factors.Brightness, factors.Contrast, factors.Saturation); err != nil {
			return nil, platformservice.Validation(err)
		}
	}
	data, err := adjust.EncodePNG(img)
	if err != nil {
		return nil, platformservice.Internal("图片编码失败", err)
	}

	result := &moduledto.GenerateResult{PNG: data}
	if !req.Save {
		return result, nil
	}
	saved, err := s.gallery.Save(ownerID, data, strings.TrimSpace(req.Prompt), req.Filename)
	if err != nil {
		return nil, err
	}
	meta := gallerydto.NewImageMeta(saved)
	result.Image = &meta
	return result, nil
}

func (s *Service) Models() moduledto.ModelsResponse {
	resident := s.cache.Resident()
	loaded := make(map[string]bool, len(resident))
	for _, r := range resident {
		loaded[r.ModelID] = true
	}
	specs := s.cache.Registry().Models()
	models := make([]moduledto.ModelInfo, 0, len(specs))
	for _, spec := range specs {
		models = append(models, moduledto.ModelInfo{ModelSpec: spec, Resident: loaded[spec.ID]})
	}
	return moduledto.ModelsResponse{Device: s.cache.Device(), Models: models, Resident: resident}
}

func (s *Service) Resident() []pipeline.ResidentInfo {
	return s.cache.Resident()
}

func (s *Service) Evict(modelID string) error {
	if err := s.cache.Evict(modelID); err != nil {
		if errors.Is(err, pipeline.ErrUnknownModel) {
			return platformservice.Validation(err)
		}
		return platformservice.Internal("释放模型失败", err)
	}
	return nil
}

func (s *Service) EvictAll() error {
	if err := s.cache.EvictAll(); err != nil {
		return platformservice.Internal("释放模型失败", err)
	}
	return nil
}

// generationFailed 模型加载、推理失败（含显存不足）统一作为资源错误返回
func (s *Service) generationFailed(modelID string, err error) error {
	s.Logger().Error("❌ 图片生成失败", zap.String("model_id", modelID), zap.Error(err))
	return platformservice.Internal("图片生成失败", fmt.Errorf("%w: %w", pipeline.ErrGenerationFailed, err))
}

func factorOrIdentity(v *float64) float64 {
	if v == nil {
		return 1
	}
	return *v
}
