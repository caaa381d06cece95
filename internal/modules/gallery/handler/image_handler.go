package handler

import (
	"io"
	"net/http"
	"strconv"

	"sd-gallery-server/internal/common/httpx"
	moduledto "sd-gallery-server/internal/modules/gallery/dto"

	"github.com/gin-gonic/gin"
)

// UploadImage 把上传的图片保存到指定用户的图库，非 PNG 会转码为 PNG
func (h *Handler) UploadImage(c *gin.Context) {
	ownerID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请选择文件"})
		return
	}
	if file.Size > h.opts.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "文件大小超出限制"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取文件失败"})
		return
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, h.opts.MaxUploadBytes+1))
	if err != nil || int64(len(data)) > h.opts.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取文件失败"})
		return
	}

	imageRecord, err := h.galleryService.Import(ownerID, data, c.PostForm("prompt"), file.Filename)
	if err != nil {
		httpx.WriteServiceError(c, err, "上传失败，请稍后重试")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "图片上传成功",
		"id":      imageRecord.ID,
	})
}

// ListUserImages 返回用户全部图片的元信息
func (h *Handler) ListUserImages(c *gin.Context) {
	ownerID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	images, err := h.galleryService.List(ownerID)
	if err != nil {
		httpx.WriteServiceError(c, err, "获取图片列表失败")
		return
	}
	c.JSON(http.StatusOK, images)
}

// GetImage 返回原图
func (h *Handler) GetImage(c *gin.Context) {
	imageID, ok := parseIDParam(c, "image_id")
	if !ok {
		return
	}
	data, err := h.galleryService.FetchBinary(imageID)
	if err != nil {
		httpx.WriteServiceError(c, err, "获取图片失败")
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// GetImageMeta 返回单张图片的元信息
func (h *Handler) GetImageMeta(c *gin.Context) {
	imageID, ok := parseIDParam(c, "image_id")
	if !ok {
		return
	}
	meta, err := h.galleryService.Fetch(imageID)
	if err != nil {
		httpx.WriteServiceError(c, err, "获取图片失败")
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (h *Handler) GetThumbnail(c *gin.Context) {
	imageID, ok := parseIDParam(c, "image_id")
	if !ok {
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "0"))
	if err != nil || size < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "size 参数错误"})
		return
	}
	data, err := h.galleryService.Thumbnail(imageID, size)
	if err != nil {
		httpx.WriteServiceError(c, err, "获取缩略图失败")
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", data)
}

// DeleteImage 删除当前用户自己的图片
func (h *Handler) DeleteImage(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	imageID, ok := parseIDParam(c, "image_id")
	if !ok {
		return
	}
	if err := h.galleryService.Delete(imageID, uid); err != nil {
		httpx.WriteServiceError(c, err, "删除失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "图片已删除"})
}

// GetGallery 分页获取当前用户的图库
func (h *Handler) GetGallery(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page 参数错误"})
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.opts.DefaultPageSize)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page_size 参数错误"})
		return
	}
	favoritesOnly, err := strconv.ParseBool(c.DefaultQuery("favorites", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "favorites 参数错误"})
		return
	}

	result, err := h.galleryService.Page(moduledto.PageRequest{
		OwnerID:       uid,
		Page:          page,
		PageSize:      pageSize,
		Sort:          moduledto.SortOrder(c.DefaultQuery("sort", string(moduledto.SortNewest))),
		FavoritesOnly: favoritesOnly,
	})
	if err != nil {
		httpx.WriteServiceError(c, err, "获取图库失败")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) SetFavorite(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	imageID, ok := parseIDParam(c, "image_id")
	if !ok {
		return
	}
	var req moduledto.FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}
	if err := h.galleryService.SetFavorite(imageID, uid, *req.Favorite); err != nil {
		httpx.WriteServiceError(c, err, "更新收藏状态失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "更新成功"})
}

func (h *Handler) SetRating(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	imageID, ok := parseIDParam(c, "image_id")
	if !ok {
		return
	}
	var req moduledto.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}
	if err := h.galleryService.SetRating(imageID, uid, *req.Rating); err != nil {
		httpx.WriteServiceError(c, err, "更新评分失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "更新成功"})
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " 参数错误"})
		return 0, false
	}
	return uint(id), true
}

// currentUserID 从 JWT 中间件写入的上下文中读取用户 ID
func currentUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户信息"})
		return 0, false
	}
	uid, ok := userID.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无效的用户ID类型"})
		return 0, false
	}
	return uid, true
}
