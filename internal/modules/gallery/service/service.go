package service

import (
	"errors"
	"image"
	"path/filepath"
	"strings"

	"sd-gallery-server/internal/adjust"
	"sd-gallery-server/internal/model"
	moduledto "sd-gallery-server/internal/modules/gallery/dto"
	"sd-gallery-server/internal/modules/gallery/repo"
	platformservice "sd-gallery-server/internal/platform/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MaxRating = 5

	defaultMaxPageSize   = 100
	defaultThumbnailSize = 256
	maxThumbnailSize     = 1024
	maxFilenameLength    = 255
)

type Options struct {
	MaxPageSize   int
	ThumbnailSize int
	// MaxPixels 上传与缩略图解码的像素上限
	MaxPixels int
}

type Service struct {
	*platformservice.AppService
	userStore  repo.UserStore
	imageStore repo.ImageStore
	opts       Options
}

func New(appService *platformservice.AppService, userStore repo.UserStore, imageStore repo.ImageStore, opts Options) *Service {
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = defaultMaxPageSize
	}
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = defaultThumbnailSize
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = adjust.DefaultMaxPixels
	}
	return &Service{
		AppService: appService,
		userStore:  userStore,
		imageStore: imageStore,
		opts:       opts,
	}
}

// Save 持久化一张图片，created_at 取持久化时刻
func (s *Service) Save(ownerID uint, data []byte, prompt string, filename string) (*model.Image, error) {
	if len(data) == 0 {
		return nil, platformservice.Validation(ErrEmptyImage)
	}
	if err := s.ensureOwner(ownerID); err != nil {
		return nil, err
	}

	image := &model.Image{
		OwnerID:   ownerID,
		Data:      data,
		Prompt:    prompt,
		Filename:  normalizeFilename(filename),
		CreatedAt: s.Now(),
	}
	if err := s.imageStore.Create(image); err != nil {
		// 校验归属后用户被并发删除
		if isForeignKeyViolation(err) {
			return nil, platformservice.NotFound(ErrOwnerNotFound)
		}
		return nil, platformservice.Internal("保存图片失败", err)
	}

	s.Logger().Info("🖼️ 图片已保存",
		zap.Uint("image_id", image.ID),
		zap.Uint("owner_id", ownerID),
		zap.Int("bytes", len(data)))
	return image, nil
}

// Import 校验并保存上传的图片，非 PNG 转码为 PNG 并修正扩展名
func (s *Service) Import(ownerID uint, data []byte, prompt string, filename string) (*model.Image, error) {
	if len(data) == 0 {
		return nil, platformservice.Validation(ErrEmptyImage)
	}
	img, format, err := s.decode(data)
	if err != nil {
		return nil, err
	}
	if format != "png" {
		if data, err = adjust.EncodePNG(img); err != nil {
			return nil, platformservice.Internal("图片转码失败", err)
		}
		filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".png"
	}
	return s.Save(ownerID, data, prompt, filename)
}

// List 返回用户全部图片的元信息，最新的在前
func (s *Service) List(ownerID uint) ([]moduledto.ImageMeta, error) {
	if err := s.ensureOwner(ownerID); err != nil {
		return nil, err
	}
	images, _, err := s.imageStore.ListByOwner(repo.ListImagesParams{OwnerID: ownerID, Newest: true})
	if err != nil {
		return nil, platformservice.Internal("获取图片列表失败", err)
	}
	return toMetas(images), nil
}

// Page 分页获取图库。没有图片时任何页码都返回空页。
func (s *Service) Page(req moduledto.PageRequest) (*moduledto.GalleryPage, error) {
	var newest bool
	switch req.Sort {
	case moduledto.SortNewest:
		newest = true
	case moduledto.SortOldest:
	default:
		return nil, platformservice.Validation(ErrInvalidSortOrder)
	}
	if req.PageSize < 1 || req.PageSize > s.opts.MaxPageSize {
		return nil, platformservice.Validation(ErrInvalidPageSize)
	}
	if err := s.ensureOwner(req.OwnerID); err != nil {
		return nil, err
	}

	offset := 0
	if req.Page > 1 {
		offset = (req.Page - 1) * req.PageSize
	}
	images, total, err := s.imageStore.ListByOwner(repo.ListImagesParams{
		OwnerID:       req.OwnerID,
		Newest:        newest,
		FavoritesOnly: req.FavoritesOnly,
		Offset:        offset,
		Limit:         req.PageSize,
	})
	if err != nil {
		return nil, platformservice.Internal("获取图库失败", err)
	}

	totalPages := int((total + int64(req.PageSize) - 1) / int64(req.PageSize))
	page := &moduledto.GalleryPage{
		Items:        []moduledto.ImageMeta{},
		PageNumber:   req.Page,
		ItemsPerPage: req.PageSize,
		TotalItems:   total,
		TotalPages:   totalPages,
	}
	if totalPages == 0 {
		return page, nil
	}
	if req.Page < 1 || req.Page > totalPages {
		return nil, platformservice.Validation(ErrInvalidPage)
	}
	page.Items = toMetas(images)
	return page, nil
}

// Fetch 返回单张图片的元信息
func (s *Service) Fetch(imageID uint) (*moduledto.ImageMeta, error) {
	image, err := s.imageStore.FindMetaByID(imageID)
	if err != nil {
		return nil, s.mapFindError(err)
	}
	meta := moduledto.NewImageMeta(image)
	return &meta, nil
}

// FetchBinary 返回原始图片数据
func (s *Service) FetchBinary(imageID uint) ([]byte, error) {
	image, err := s.imageStore.FindByID(imageID)
	if err != nil {
		return nil, s.mapFindError(err)
	}
	return image.Data, nil
}

// Thumbnail 返回等比缩放后的 PNG，size <= 0 时使用默认尺寸
func (s *Service) Thumbnail(imageID uint, size int) ([]byte, error) {
	if size <= 0 {
		size = s.opts.ThumbnailSize
	}
	size = min(size, maxThumbnailSize)

	data, err := s.FetchBinary(imageID)
	if err != nil {
		return nil, err
	}
	img, _, err := s.decode(data)
	if err != nil {
		return nil, err
	}
	out, err := adjust.EncodePNG(adjust.Thumbnail(img, size))
	if err != nil {
		return nil, platformservice.Internal("生成缩略图失败", err)
	}
	return out, nil
}

// Delete 永久删除图片。并发删除同一图片时只有一个调用成功，其余得到 ErrImageNotFound。
func (s *Service) Delete(imageID uint, ownerID uint) error {
	if err := s.checkOwnership(imageID, ownerID); err != nil {
		return err
	}
	affected, err := s.imageStore.DeleteOwned(imageID, ownerID)
	if err != nil {
		return platformservice.Internal("删除失败", err)
	}
	if affected == 0 {
		return platformservice.NotFound(ErrImageNotFound)
	}

	s.Logger().Info("🗑️ 图片已删除", zap.Uint("image_id", imageID), zap.Uint("owner_id", ownerID))
	return nil
}

func (s *Service) SetFavorite(imageID uint, ownerID uint, favorite bool) error {
	if err := s.checkOwnership(imageID, ownerID); err != nil {
		return err
	}
	affected, err := s.imageStore.SetFavorite(imageID, ownerID, favorite)
	if err != nil {
		return platformservice.Internal("更新收藏状态失败", err)
	}
	return s.confirmUpdated(imageID, affected)
}

// SetRating 0 表示取消评分
func (s *Service) SetRating(imageID uint, ownerID uint, rating int) error {
	if rating < 0 || rating > MaxRating {
		return platformservice.Validation(ErrInvalidRating)
	}
	if err := s.checkOwnership(imageID, ownerID); err != nil {
		return err
	}
	affected, err := s.imageStore.SetRating(imageID, ownerID, rating)
	if err != nil {
		return platformservice.Internal("更新评分失败", err)
	}
	return s.confirmUpdated(imageID, affected)
}

// confirmUpdated 部分数据库在值未变化时报告 0 行，需确认记录是否仍存在
func (s *Service) confirmUpdated(imageID uint, affected int64) error {
	if affected > 0 {
		return nil
	}
	if _, err := s.imageStore.FindMetaByID(imageID); err != nil {
		return s.mapFindError(err)
	}
	return nil
}

func (s *Service) checkOwnership(imageID uint, ownerID uint) error {
	image, err := s.imageStore.FindMetaByID(imageID)
	if err != nil {
		return s.mapFindError(err)
	}
	if image.OwnerID != ownerID {
		return platformservice.Forbidden(ErrNotOwner)
	}
	return nil
}

func (s *Service) ensureOwner(ownerID uint) error {
	ok, err := s.userStore.Exists(ownerID)
	if err != nil {
		return platformservice.Internal("查询用户失败", err)
	}
	if !ok {
		return platformservice.NotFound(ErrOwnerNotFound)
	}
	return nil
}

func (s *Service) decode(data []byte) (image.Image, string, error) {
	img, format, err := adjust.DecodeImage(data, s.opts.MaxPixels)
	switch {
	case errors.Is(err, adjust.ErrImageTooLarge):
		s.Logger().Warn("⚠️ 图片尺寸超出限制", zap.Error(err))
		return nil, "", platformservice.Validation(ErrImageTooLarge)
	case err != nil:
		return nil, "", platformservice.Validation(ErrUnsupportedImage)
	}
	return img, format, nil
}

func (s *Service) mapFindError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return platformservice.NotFound(ErrImageNotFound)
	}
	return platformservice.Internal("查询图片失败", err)
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key")
}

func normalizeFilename(filename string) string {
	name := strings.TrimSpace(filepath.Base(strings.ReplaceAll(filename, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return uuid.NewString() + ".png"
	}
	if len(name) > maxFilenameLength {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:maxFilenameLength-len(ext)] + ext
	}
	return name
}

func toMetas(images []model.Image) []moduledto.ImageMeta {
	out := make([]moduledto.ImageMeta, 0, len(images))
	for i := range images {
		out = append(out, moduledto.NewImageMeta(&images[i]))
	}
	return out
}
