package handler

import (
	"net/http"

	"sd-gallery-server/internal/common/httpx"
	systemservice "sd-gallery-server/internal/modules/system/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	systemService *systemservice.Service
}

func New(systemService *systemservice.Service) *Handler {
	return &Handler{systemService: systemService}
}

// GetServerStats 获取服务器概览统计信息
func (h *Handler) GetServerStats(c *gin.Context) {
	stats, err := h.systemService.ServerStats()
	if err != nil {
		httpx.WriteServiceError(c, err, "统计数据失败")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetHealth(c *gin.Context) {
	resp, ok := h.systemService.Health(c.Request.Context())
	if !ok {
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
