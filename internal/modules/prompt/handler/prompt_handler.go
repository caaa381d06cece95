package handler

import (
	"net/http"

	"sd-gallery-server/internal/common/httpx"
	moduledto "sd-gallery-server/internal/modules/prompt/dto"
	promptservice "sd-gallery-server/internal/modules/prompt/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, moduledto.CategoriesResponse{Categories: h.promptService.Categories()})
}

func (h *Handler) GetSuggestions(c *gin.Context) {
	category := c.Query("category")
	prompts, err := h.promptService.Suggestions(category)
	if err != nil {
		httpx.WriteServiceError(c, err, "获取提示词失败")
		return
	}
	c.JSON(http.StatusOK, moduledto.SuggestionsResponse{Category: category, Prompts: prompts})
}

func (h *Handler) ExpandPrompt(c *gin.Context) {
	var req moduledto.ExpandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}
	expanded, err := h.promptService.Expand(c.Request.Context(), req.Prompt)
	if err != nil {
		httpx.WriteServiceError(c, err, "提示词扩写失败")
		return
	}
	c.JSON(http.StatusOK, moduledto.ExpandResponse{Prompt: req.Prompt, Expanded: expanded})
}

// Chat 与聊天助手对话
func (h *Handler) Chat(c *gin.Context) {
	var req moduledto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}
	history := make([]promptservice.ChatTurn, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, promptservice.ChatTurn{Role: m.Role, Content: m.Content})
	}

	reply, err := h.promptService.Chat(c.Request.Context(), history, req.Message)
	if err != nil {
		httpx.WriteServiceError(c, err, "聊天助手暂时不可用")
		return
	}

	out := append(make([]moduledto.ChatMessage, 0, len(req.History)+2), req.History...)
	out = append(out,
		moduledto.ChatMessage{Role: "user", Content: req.Message},
		moduledto.ChatMessage{Role: "assistant", Content: reply},
	)
	c.JSON(http.StatusOK, moduledto.ChatResponse{Reply: reply, History: out})
}
