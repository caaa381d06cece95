package pipeline

import (
	"context"
	"image"
)

// Loader 把模型加载到指定设备上，内部实现对调用方不透明
type Loader interface {
	Load(ctx context.Context, spec ModelSpec, device Device) (Pipeline, error)
}

// Pipeline 已加载的生成管线。Close 释放设备内存，之后不可再使用。
type Pipeline interface {
	Generate(ctx context.Context, req Request) (image.Image, error)
	Close() error
}
