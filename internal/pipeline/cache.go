package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Handle 一个已驻留的模型管线。所有对底层 Pipeline 的调用都在 mu 保护下进行。
type Handle struct {
	spec     ModelSpec
	device   Device
	loadedAt time.Time
	lastUsed atomic.Int64

	mu       sync.Mutex
	pipeline Pipeline
	closed   bool

	runMu *sync.Mutex
	now   func() time.Time
}

func (h *Handle) Spec() ModelSpec     { return h.spec }
func (h *Handle) Device() Device      { return h.device }
func (h *Handle) LoadedAt() time.Time { return h.loadedAt }

// Generate 在设备级运行锁下执行一次推理
func (h *Handle) Generate(ctx context.Context, req Request) (image.Image, error) {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrPipelineEvicted
	}
	h.touch()
	return h.pipeline.Generate(ctx, req)
}

func (h *Handle) touch() {
	h.lastUsed.Store(h.now().UnixNano())
}

// close 等待进行中的推理结束后释放管线
func (h *Handle) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.pipeline.Close()
}

// ResidentInfo 已加载模型的状态快照
type ResidentInfo struct {
	ModelID  string    `json:"model_id"`
	Device   Device    `json:"device"`
	LoadedAt time.Time `json:"loaded_at"`
	LastUsed time.Time `json:"last_used"`
}

type CacheOptions struct {
	// MaxResident 同时驻留的模型上限，0 表示不限制
	MaxResident int
	Logger      *zap.Logger
	Now         func() time.Time
}

// Cache 按 model_id 缓存已加载的管线。同一模型的并发首次加载只执行一次。
type Cache struct {
	registry    *Registry
	loader      Loader
	device      Device
	maxResident int
	logger      *zap.Logger
	now         func() time.Time

	mu      sync.Mutex
	handles map[string]*Handle
	// loading 进行中的加载，加载结果写入 handles 后关闭对应 channel
	loading map[string]chan struct{}
	group   singleflight.Group

	// loadMu 在设置了驻留上限时串行化不同模型的加载
	loadMu sync.Mutex
	// runMu 同一设备上同一时刻只允许一个管线推理
	runMu sync.Mutex
}

func NewCache(registry *Registry, loader Loader, device Device, opts CacheOptions) *Cache {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxResident < 0 {
		opts.MaxResident = 0
	}
	return &Cache{
		registry:    registry,
		loader:      loader,
		device:      device,
		maxResident: opts.MaxResident,
		logger:      opts.Logger,
		now:         opts.Now,
		handles:     make(map[string]*Handle),
		loading:     make(map[string]chan struct{}),
	}
}

func (c *Cache) Registry() *Registry { return c.registry }
func (c *Cache) Device() Device      { return c.device }

// Resolve 返回模型对应的管线，首次请求时加载。
// 加载在与调用方取消解耦的 context 上运行，调用方放弃等待不会中断其他等待者共享的加载。
func (c *Cache) Resolve(ctx context.Context, modelID string) (*Handle, error) {
	spec, ok := c.registry.Lookup(modelID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
	}

	if h := c.lookup(modelID); h != nil {
		return h, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(modelID, func() (any, error) {
		return c.load(loadCtx, spec)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Handle), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) lookup(modelID string) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.handles[modelID]
	if h != nil {
		h.touch()
	}
	return h
}

func (c *Cache) load(ctx context.Context, spec ModelSpec) (*Handle, error) {
	if c.maxResident > 0 {
		c.loadMu.Lock()
		defer c.loadMu.Unlock()
	}

	// 上一轮 singleflight 刚完成时可能已写入
	if h := c.lookup(spec.ID); h != nil {
		return h, nil
	}

	if c.maxResident > 0 {
		if err := c.evictForRoom(); err != nil {
			c.logger.Warn("⚠️ 释放旧模型失败", zap.Error(err))
		}
	}

	done := c.beginLoad(spec.ID)
	defer c.endLoad(spec.ID, done)

	start := c.now()
	p, err := c.loader.Load(ctx, spec, c.device)
	if err != nil {
		c.logger.Error("❌ 模型加载失败",
			zap.String("model_id", spec.ID),
			zap.String("device", string(c.device)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoadFailed, spec.ID, err)
	}

	loadedAt := c.now()
	h := &Handle{
		spec:     spec,
		device:   c.device,
		loadedAt: loadedAt,
		pipeline: p,
		runMu:    &c.runMu,
		now:      c.now,
	}
	h.lastUsed.Store(loadedAt.UnixNano())

	c.mu.Lock()
	c.handles[spec.ID] = h
	c.mu.Unlock()

	c.logger.Info("✅ 模型已加载",
		zap.String("model_id", spec.ID),
		zap.String("repository", spec.Repository),
		zap.String("device", string(c.device)),
		zap.Duration("elapsed", loadedAt.Sub(start)))
	return h, nil
}

func (c *Cache) beginLoad(modelID string) chan struct{} {
	done := make(chan struct{})
	c.mu.Lock()
	c.loading[modelID] = done
	c.mu.Unlock()
	return done
}

func (c *Cache) endLoad(modelID string, done chan struct{}) {
	c.mu.Lock()
	if c.loading[modelID] == done {
		delete(c.loading, modelID)
	}
	c.mu.Unlock()
	close(done)
}

// evictForRoom 按最近最少使用淘汰，直到能容纳一个新模型
func (c *Cache) evictForRoom() error {
	var errs []error
	for {
		c.mu.Lock()
		if len(c.handles) < c.maxResident {
			c.mu.Unlock()
			return errors.Join(errs...)
		}
		var victim *Handle
		for _, h := range c.handles {
			if victim == nil || h.lastUsed.Load() < victim.lastUsed.Load() {
				victim = h
			}
		}
		delete(c.handles, victim.spec.ID)
		c.mu.Unlock()

		c.logger.Info("♻️ 淘汰最久未使用的模型", zap.String("model_id", victim.spec.ID))
		if err := victim.close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", victim.spec.ID, err))
		}
	}
}

// Evict 释放指定模型。正在加载时先等待加载结束再释放，未驻留时为空操作。
func (c *Cache) Evict(modelID string) error {
	if _, ok := c.registry.Lookup(modelID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
	}
	c.mu.Lock()
	done := c.loading[modelID]
	c.mu.Unlock()
	if done != nil {
		<-done
	}

	c.mu.Lock()
	h := c.handles[modelID]
	delete(c.handles, modelID)
	c.mu.Unlock()

	if h == nil {
		return nil
	}
	c.logger.Info("♻️ 释放模型", zap.String("model_id", modelID))
	if err := h.close(); err != nil {
		return fmt.Errorf("close %s: %w", modelID, err)
	}
	return nil
}

// EvictAll 等待进行中的加载结束后释放全部模型，返回所有关闭错误的合并
func (c *Cache) EvictAll() error {
	c.mu.Lock()
	pending := make([]chan struct{}, 0, len(c.loading))
	for _, done := range c.loading {
		pending = append(pending, done)
	}
	c.mu.Unlock()
	for _, done := range pending {
		<-done
	}

	c.mu.Lock()
	handles := c.handles
	c.handles = make(map[string]*Handle)
	c.mu.Unlock()

	var errs []error
	for id, h := range handles {
		if err := h.close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	if len(handles) > 0 {
		c.logger.Info("♻️ 已释放全部模型", zap.Int("count", len(handles)))
	}
	return errors.Join(errs...)
}

// Resident 按 model_id 排序返回当前驻留的模型
func (c *Cache) Resident() []ResidentInfo {
	c.mu.Lock()
	out := make([]ResidentInfo, 0, len(c.handles))
	for id, h := range c.handles {
		out = append(out, ResidentInfo{
			ModelID:  id,
			Device:   h.device,
			LoadedAt: h.loadedAt,
			LastUsed: time.Unix(0, h.lastUsed.Load()).UTC(),
		})
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ModelID < out[j].ModelID })
	return out
}
