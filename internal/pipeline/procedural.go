package pipeline

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"sync"
)

// ProceduralLoader 进程内的确定性渲染后端，不依赖模型权重，用于离线运行与测试。
// 同一请求总是得到逐像素一致的图片。
type ProceduralLoader struct {
	// Available 报告的设备列表，为空时只有 cpu
	Available []Device
}

func NewProceduralLoader(devices ...Device) *ProceduralLoader {
	return &ProceduralLoader{Available: devices}
}

func (l *ProceduralLoader) Devices(context.Context) ([]Device, error) {
	if len(l.Available) == 0 {
		return []Device{DeviceCPU}, nil
	}
	return append([]Device(nil), l.Available...), nil
}

func (l *ProceduralLoader) Load(_ context.Context, spec ModelSpec, device Device) (Pipeline, error) {
	return &proceduralPipeline{spec: spec, device: device}, nil
}

type proceduralPipeline struct {
	spec   ModelSpec
	device Device

	mu     sync.Mutex
	closed bool
}

func (p *proceduralPipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *proceduralPipeline) Generate(_ context.Context, req Request) (image.Image, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPipelineEvicted
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(uint64(req.Seed), p.digest(req)))
	from := randomColor(rng)
	to := randomColor(rng)
	angle := rng.Float64() * 2 * math.Pi
	freq := 2 + rng.Float64()*float64(req.Steps)/4
	noise := 12 + req.GuidanceScale*2
	dx, dy := math.Cos(angle), math.Sin(angle)

	img := image.NewNRGBA(image.Rect(0, 0, req.Width, req.Height))
	w, h := float64(req.Width), float64(req.Height)
	for y := 0; y < req.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < req.Width; x++ {
			u, v := float64(x)/w-0.5, float64(y)/h-0.5
			t := clamp01(0.5 + u*dx + v*dy)
			band := 0.5 + 0.5*math.Sin(freq*(u*dy-v*dx)*math.Pi)
			n := (rng.Float64() - 0.5) * noise
			i := x * 4
			row[i+0] = channel(from.R, to.R, t, band, n)
			row[i+1] = channel(from.G, to.G, t, band, n)
			row[i+2] = channel(from.B, to.B, t, band, n)
			row[i+3] = 255
		}
	}
	return img, nil
}

// digest 把模型与请求文本混入种子，不同提示词得到不同图片
func (p *proceduralPipeline) digest(req Request) uint64 {
	hs := fnv.New64a()
	_, _ = hs.Write([]byte(p.spec.ID))
	_, _ = hs.Write([]byte{0})
	_, _ = hs.Write([]byte(req.Prompt))
	_, _ = hs.Write([]byte{0})
	_, _ = hs.Write([]byte(req.NegativePrompt))
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(req.Steps))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(req.GuidanceScale))
	_, _ = hs.Write(buf[:])
	return hs.Sum64()
}

func randomColor(rng *rand.Rand) color.NRGBA {
	return color.NRGBA{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256)), A: 255}
}

func channel(a, b uint8, t, band, n float64) uint8 {
	v := (float64(a)*(1-t)+float64(b)*t)*(0.75+0.25*band) + n
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
