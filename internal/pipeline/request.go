package pipeline

import (
	"fmt"
	"strings"
)

const (
	DefaultNegativePrompt = "lowres, bad anatomy, extra digit, fewer digits, cropped, worst quality, low quality"
	DefaultSeed           = 10
	DefaultSteps          = 20
	DefaultGuidanceScale  = 7.5

	MinDimension  = 128
	MaxDimension  = 1024
	DimensionStep = 128
)

// Request 一次生成的完整参数。除提示词和宽高外其余参数固定，相同请求产生相同图片。
type Request struct {
	ModelID        string  `json:"-"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Height         int     `json:"height"`
	Width          int     `json:"width"`
	Steps          int     `json:"num_inference_steps"`
	GuidanceScale  float64 `json:"guidance_scale"`
	Seed           int64   `json:"seed"`
}

// NewRequest 按固定的负面提示词、种子、步数和引导系数构造请求
func NewRequest(modelID, prompt string, height, width int) Request {
	return Request{
		ModelID:        modelID,
		Prompt:         prompt,
		NegativePrompt: DefaultNegativePrompt,
		Height:         height,
		Width:          width,
		Steps:          DefaultSteps,
		GuidanceScale:  DefaultGuidanceScale,
		Seed:           DefaultSeed,
	}
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if err := ValidateDimension(r.Height); err != nil {
		return err
	}
	return ValidateDimension(r.Width)
}

func ValidateDimension(v int) error {
	if v < MinDimension || v > MaxDimension || v%DimensionStep != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDimension, v)
	}
	return nil
}
