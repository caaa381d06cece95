package handler

import (
	"net/http"

	"sd-gallery-server/internal/common/httpx"
	moduledto "sd-gallery-server/internal/modules/user/dto"

	"github.com/gin-gonic/gin"
)

// Register 创建账号
func (h *Handler) Register(c *gin.Context) {
	var req moduledto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	user, err := h.userService.Register(req)
	if err != nil {
		httpx.WriteServiceError(c, err, "注册失败")
		return
	}

	c.JSON(http.StatusOK, moduledto.UserResponse{ID: user.ID, Username: user.Username})
}

func (h *Handler) Login(c *gin.Context) {
	var req moduledto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	resp, err := h.userService.Login(req)
	if err != nil {
		httpx.WriteServiceError(c, err, "登录失败")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSelfInfo 获取当前用户信息
func (h *Handler) GetSelfInfo(c *gin.Context) {
	userID, exists := c.Get("id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "获取用户ID失败"})
		return
	}
	uid, ok := userID.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "获取用户ID失败"})
		return
	}

	profile, err := h.userService.Profile(uid)
	if err != nil {
		httpx.WriteServiceError(c, err, "获取用户信息失败")
		return
	}

	c.JSON(http.StatusOK, profile)
}
