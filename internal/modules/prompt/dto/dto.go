package dto

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

type SuggestionsResponse struct {
	Category string   `json:"category"`
	Prompts  []string `json:"prompts"`
}

type ExpandRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type ExpandResponse struct {
	Prompt   string `json:"prompt"`
	Expanded string `json:"expanded"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string        `json:"message" binding:"required"`
	History []ChatMessage `json:"history"`
}

// ChatResponse History 为追加本轮问答后的完整历史，客户端下次请求原样带回
type ChatResponse struct {
	Reply   string        `json:"reply"`
	History []ChatMessage `json:"history"`
}
