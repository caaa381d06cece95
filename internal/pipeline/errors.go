// Package pipeline 管理按模型加载、驻留在计算设备上的生成管线。
package pipeline

import "errors"

var (
	ErrUnknownModel       = errors.New("未知的模型")
	ErrModelLoadFailed    = errors.New("模型加载失败")
	ErrGenerationFailed   = errors.New("图片生成失败")
	ErrOutOfMemory        = errors.New("设备内存不足")
	ErrPipelineEvicted    = errors.New("管线已被释放")
	ErrDeviceUnavailable  = errors.New("计算设备不可用")
	ErrEmptyPrompt        = errors.New("提示词不能为空")
	ErrInvalidDimension   = errors.New("宽高必须在 128 到 1024 之间且为 128 的倍数")
	ErrUnsupportedBackend = errors.New("不支持的管线后端")
)
