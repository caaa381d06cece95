package service

import (
	"context"
	"errors"
	"strings"

	platformservice "sd-gallery-server/internal/platform/service"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var (
	ErrUnknownCategory   = errors.New("未知的提示词分类")
	ErrEmptyPrompt       = errors.New("提示词不能为空")
	ErrExpansionDisabled = errors.New("提示词扩写未启用")
	ErrEmptyCompletion   = errors.New("扩写服务返回为空")
	ErrChatDisabled      = errors.New("聊天助手未启用")
	ErrEmptyMessage      = errors.New("消息不能为空")
	ErrInvalidChatRole   = errors.New("历史消息角色只能是 user 或 assistant")
)

const (
	expandInstruction = "You rewrite short image ideas into a single detailed Stable Diffusion prompt. " +
		"Keep the subject, add style, lighting and composition keywords, and reply with the prompt only."
	chatInstruction = "You are a friendly assistant inside an image generation app. " +
		"Help users brainstorm subjects and styles for Stable Diffusion prompts and keep answers short."

	// MaxChatHistory 发送给上游的历史消息条数上限，超出时丢弃最早的消息
	MaxChatHistory = 20
)

// ChatTurn 一条对话消息，Role 为 user 或 assistant
type ChatTurn struct {
	Role    string
	Content string
}

// ExpanderConfig OpenAI 兼容接口的连接参数
type ExpanderConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Model   string
}

type Service struct {
	*platformservice.AppService
	client *openai.Client
	model  string
}

func New(appService *platformservice.AppService, cfg ExpanderConfig) *Service {
	s := &Service{AppService: appService, model: cfg.Model}
	if !cfg.Enabled {
		return s
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	s.client = openai.NewClientWithConfig(clientConfig)
	if s.model == "" {
		s.model = openai.GPT4oMini
	}
	return s
}

// Categories 按固定顺序返回分类名
func (s *Service) Categories() []string {
	names := make([]string, 0, len(catalog))
	for _, c := range catalog {
		names = append(names, c.Name)
	}
	return names
}

// Suggestions 返回分类下的提示词建议，分类名不区分大小写
func (s *Service) Suggestions(category string) ([]string, error) {
	category = strings.TrimSpace(category)
	for _, c := range catalog {
		if strings.EqualFold(c.Name, category) {
			return append([]string(nil), c.Prompts...), nil
		}
	}
	return nil, platformservice.Validation(ErrUnknownCategory)
}

func (s *Service) ExpansionEnabled() bool {
	return s.client != nil
}

// Expand 调用聊天补全接口把简短提示词扩写为完整提示词
func (s *Service) Expand(ctx context.Context, prompt string) (string, error) {
	if s.client == nil {
		return "", platformservice.Validation(ErrExpansionDisabled)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", platformservice.Validation(ErrEmptyPrompt)
	}

	expanded, err := s.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: expandInstruction},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
	if err != nil {
		s.Logger().Warn("⚠️ 提示词扩写失败", zap.Error(err))
		return "", platformservice.Internal("提示词扩写失败", err)
	}
	return expanded, nil
}

// Chat 多轮对话，历史由客户端保存并随请求带上
func (s *Service) Chat(ctx context.Context, history []ChatTurn, message string) (string, error) {
	if s.client == nil {
		return "", platformservice.Validation(ErrChatDisabled)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", platformservice.Validation(ErrEmptyMessage)
	}
	if len(history) > MaxChatHistory {
		history = history[len(history)-MaxChatHistory:]
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: chatInstruction})
	for _, turn := range history {
		switch turn.Role {
		case openai.ChatMessageRoleUser, openai.ChatMessageRoleAssistant:
		default:
			return "", platformservice.Validation(ErrInvalidChatRole)
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	reply, err := s.complete(ctx, messages)
	if err != nil {
		s.Logger().Warn("⚠️ 聊天请求失败", zap.Int("history", len(history)), zap.Error(err))
		return "", platformservice.Internal("聊天助手暂时不可用", err)
	}
	return reply, nil
}

func (s *Service) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
