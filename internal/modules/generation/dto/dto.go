package dto

import (
	gallerydto "sd-gallery-server/internal/modules/gallery/dto"
	"sd-gallery-server/internal/pipeline"
)

// GenerateRequest 生成参数。调整系数缺省为 1.0。
type GenerateRequest struct {
	ModelID    string   `json:"model_id" binding:"required"`
	Prompt     string   `json:"prompt"`
	Height     int      `json:"height"`
	Width      int      `json:"width"`
	Brightness *float64 `json:"brightness"`
	Contrast   *float64 `json:"contrast"`
	Saturation *float64 `json:"saturation"`
	Save       bool     `json:"save"`
	Filename   string   `json:"filename"`
}

// GenerateResult Save 为 true 时 Image 为保存后的元信息，否则只有 PNG
type GenerateResult struct {
	PNG   []byte
	Image *gallerydto.ImageMeta
}

type ModelInfo struct {
	pipeline.ModelSpec
	Resident bool `json:"resident"`
}

type ModelsResponse struct {
	Device   pipeline.Device         `json:"device"`
	Models   []ModelInfo             `json:"models"`
	Resident []pipeline.ResidentInfo `json:"resident"`
}
