package handler

import (
	"net/http"

	"sd-gallery-server/internal/common/httpx"
	moduledto "sd-gallery-server/internal/modules/generation/dto"

	"github.com/gin-gonic/gin"
)

// Generate 生成图片。save=true 时保存到当前用户图库并返回元信息，否则直接返回 PNG。
func (h *Handler) Generate(c *gin.Context) {
	userID, exists := c.Get("id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户信息"})
		return
	}
	uid, ok := userID.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无效的用户ID类型"})
		return
	}

	var req moduledto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	result, err := h.generationService.GenerateAndProcess(c.Request.Context(), uid, req)
	if err != nil {
		httpx.WriteServiceError(c, err, "图片生成失败")
		return
	}

	if result.Image != nil {
		c.JSON(http.StatusOK, result.Image)
		return
	}
	c.Header("X-Model-ID", req.ModelID)
	c.Data(http.StatusOK, "image/png", result.PNG)
}

// ListModels 列出可用模型与驻留状态
func (h *Handler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, h.generationService.Models())
}

func (h *Handler) EvictModel(c *gin.Context) {
	if err := h.generationService.Evict(c.Param("model_id")); err != nil {
		httpx.WriteServiceError(c, err, "释放模型失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "模型已释放"})
}

func (h *Handler) EvictAllModels(c *gin.Context) {
	if err := h.generationService.EvictAll(); err != nil {
		httpx.WriteServiceError(c, err, "释放模型失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "全部模型已释放"})
}
