// Package adjust 提供无状态的图片后处理：亮度、对比度、饱和度调整，以及编码、解码和缩略图。
package adjust

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	// 支持上传 JPEG / WebP 原图
	_ "image/jpeg"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	MinFactor = 0.0
	MaxFactor = 2.0

	// DefaultMaxPixels 解码前允许的最大像素数
	DefaultMaxPixels = 4096 * 4096
)

var (
	ErrFactorOutOfRange = errors.New("调整系数必须在 0 到 2 之间")
	ErrNilImage         = errors.New("图片为空")
	ErrDecodeFailed     = errors.New("无法解析图片数据")
	ErrImageTooLarge    = errors.New("图片尺寸超出限制")
)

// Factors 三项调整系数，1.0 表示不变
type Factors struct {
	Brightness float64
	Contrast   float64
	Saturation float64
}

func (f Factors) IsIdentity() bool {
	return f.Brightness == 1 && f.Contrast == 1 && f.Saturation == 1
}

func (f Factors) Validate() error {
	for _, v := range []float64{f.Brightness, f.Contrast, f.Saturation} {
		if math.IsNaN(v) || v < MinFactor || v > MaxFactor {
			return fmt.Errorf("%w: %v", ErrFactorOutOfRange, v)
		}
	}
	return nil
}

// Adjust 依次应用亮度、对比度、饱和度，返回新图片，输入不会被修改。
// 三步均为与退化图像的线性混合 out = d + f*(src-d)：
// 亮度的退化图像为纯黑，对比度为整图平均灰度，饱和度为逐像素灰度。透明通道保持不变。
func Adjust(img image.Image, brightness, contrast, saturation float64) (*image.NRGBA, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	f := Factors{Brightness: brightness, Contrast: contrast, Saturation: saturation}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	out := ToNRGBA(img)
	if brightness != 1 {
		applyBrightness(out, brightness)
	}
	if contrast != 1 {
		applyContrast(out, contrast)
	}
	if saturation != 1 {
		applySaturation(out, saturation)
	}
	return out, nil
}

// ToNRGBA 复制为独立的 NRGBA 图片，原点归零
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func applyBrightness(img *image.NRGBA, factor float64) {
	eachPixel(img, func(p []uint8) {
		p[0] = blend(0, p[0], factor)
		p[1] = blend(0, p[1], factor)
		p[2] = blend(0, p[2], factor)
	})
}

func applyContrast(img *image.NRGBA, factor float64) {
	mean := meanLuminance(img)
	eachPixel(img, func(p []uint8) {
		p[0] = blend(mean, p[0], factor)
		p[1] = blend(mean, p[1], factor)
		p[2] = blend(mean, p[2], factor)
	})
}

func applySaturation(img *image.NRGBA, factor float64) {
	eachPixel(img, func(p []uint8) {
		l := luminance(p[0], p[1], p[2])
		p[0] = blend(l, p[0], factor)
		p[1] = blend(l, p[1], factor)
		p[2] = blend(l, p[2], factor)
	})
}

func eachPixel(img *image.NRGBA, fn func(p []uint8)) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			fn(row[x : x+4 : x+4])
		}
	}
}

// luminance ITU-R 601-2 灰度
func luminance(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

func meanLuminance(img *image.NRGBA) uint8 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	var sum uint64
	eachPixel(img, func(p []uint8) {
		sum += uint64(luminance(p[0], p[1], p[2]))
	})
	n := uint64(w * h)
	return uint8((sum + n/2) / n)
}

func blend(degenerate, src uint8, factor float64) uint8 {
	v := float64(degenerate) + factor*(float64(src)-float64(degenerate))
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// EncodePNG 编码为 PNG
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeImage 解析 PNG/JPEG/WebP 数据，返回图片与格式名。
// 先读取头部尺寸，像素数超过 maxPixels 时不解码像素，maxPixels <= 0 使用 DefaultMaxPixels。
func DecodeImage(data []byte, maxPixels int) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrDecodeFailed
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", ErrDecodeFailed
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return img, format, nil
}

// Thumbnail 等比缩放到最长边不超过 maxSide，小图不放大
func Thumbnail(img image.Image, maxSide int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return ToNRGBA(img)
	}
	tw, th := maxSide, maxSide
	if w >= h {
		th = max(1, h*maxSide/w)
	} else {
		tw = max(1, w*maxSide/h)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
