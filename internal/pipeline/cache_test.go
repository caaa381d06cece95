package pipeline

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fakePipeline struct {
	id     string
	closed atomic.Bool
}

func (p *fakePipeline) Generate(context.Context, Request) (image.Image, error) {
	if p.closed.Load() {
		return nil, ErrPipelineEvicted
	}
	return image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (p *fakePipeline) Close() error {
	p.closed.Store(true)
	return nil
}

type countingLoader struct {
	mu      sync.Mutex
	loads   map[string]int
	created []*fakePipeline
	gate    chan struct{}
	entered chan string
	failOn  string
}

func newCountingLoader() *countingLoader {
	return &countingLoader{loads: map[string]int{}}
}

func (l *countingLoader) Load(ctx context.Context, spec ModelSpec, _ Device) (Pipeline, error) {
	if l.entered != nil {
		l.entered <- spec.ID
	}
	if l.gate != nil {
		<-l.gate
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads[spec.ID]++
	if spec.ID == l.failOn {
		return nil, ErrOutOfMemory
	}
	p := &fakePipeline{id: spec.ID}
	l.created = append(l.created, p)
	return p, nil
}

func (l *countingLoader) count(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads[id]
}

// tickingClock 每次调用前进一秒，使最近使用时间可区分
func tickingClock() func() time.Time {
	var mu sync.Mutex
	cur := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func newTestCache(t *testing.T, loader Loader, maxResident int) *Cache {
	return NewCache(DefaultRegistry(), loader, DeviceCPU, CacheOptions{
		MaxResident: maxResident,
		Logger:      zaptest.NewLogger(t),
		Now:         tickingClock(),
	})
}

// 测试内容：验证未知模型返回 ErrUnknownModel 且不触发加载。
func TestCache_ResolveUnknownModel(t *testing.T) {
	loader := newCountingLoader()
	c := newTestCache(t, loader, 0)
	if _, err := c.Resolve(context.Background(), "SD XL"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("期望 ErrUnknownModel，实际为 %v", err)
	}
	if err := c.Evict("SD XL"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("期望 Evict 未知模型返回 ErrUnknownModel，实际为 %v", err)
	}
}

// 测试内容：验证同一模型第二次解析复用缓存，不同模型不共享句柄。
func TestCache_ResolveReusesHandle(t *testing.T) {
	loader := newCountingLoader()
	c := newTestCache(t, loader, 0)
	ctx := context.Background()

	h1, err := c.Resolve(ctx, "SD V1.5")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	h2, _ := c.Resolve(ctx, "SD V1.5")
	if h1 != h2 {
		t.Fatalf("期望返回同一句柄")
	}
	h3, _ := c.Resolve(ctx, "SD Pokemon")
	if h3 == h1 {
		t.Fatalf("期望不同模型使用不同句柄")
	}
	if loader.count("SD V1.5") != 1 || loader.count("SD Pokemon") != 1 {
		t.Fatalf("期望每个模型只加载一次，实际为 %v", loader.loads)
	}
	if h1.Spec().Repository != "runwayml/stable-diffusion-v1-5" || h1.Spec().Scheduler != SchedulerPNDM {
		t.Fatalf("非预期模型描述: %+v", h1.Spec())
	}
}

// 测试内容：验证 N 个并发解析同一未缓存模型只触发一次加载。
func TestCache_SingleFlight(t *testing.T) {
	loader := newCountingLoader()
	loader.gate = make(chan struct{})
	c := newTestCache(t, loader, 0)

	const n = 16
	var wg sync.WaitGroup
	handles := make([]*Handle, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = c.Resolve(context.Background(), "SD Dogs")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(loader.gate)
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("第 %d 个解析失败: %v", i, errs[i])
		}
		if handles[i] != handles[0] {
			t.Fatalf("期望所有调用方共享同一句柄")
		}
	}
	if got := loader.count("SD Dogs"); got != 1 {
		t.Fatalf("期望只加载 1 次，实际为 %d", got)
	}
}

// 测试内容：验证调用方取消不会中断共享的加载，加载结果仍被缓存。
func TestCache_ResolveCallerCancelDoesNotAbortLoad(t *testing.T) {
	loader := newCountingLoader()
	loader.gate = make(chan struct{})
	c := newTestCache(t, loader, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Resolve(ctx, "SD V1.5")
		done <- err
	}()
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("期望 context.Canceled，实际为 %v", err)
	}
	close(loader.gate)

	h, err := c.Resolve(context.Background(), "SD V1.5")
	if err != nil || h == nil {
		t.Fatalf("期望加载成功，实际为 %v", err)
	}
	if got := loader.count("SD V1.5"); got != 1 {
		t.Fatalf("期望只加载 1 次，实际为 %d", got)
	}
}

// 测试内容：验证加载失败不会被缓存，错误链同时包含 ErrModelLoadFailed 与底层原因。
func TestCache_FailedLoadNotCached(t *testing.T) {
	loader := newCountingLoader()
	loader.failOn = "SD Pokemon"
	c := newTestCache(t, loader, 0)

	_, err := c.Resolve(context.Background(), "SD Pokemon")
	if !errors.Is(err, ErrModelLoadFailed) || !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("期望 ErrModelLoadFailed 与 ErrOutOfMemory，实际为 %v", err)
	}
	_, _ = c.Resolve(context.Background(), "SD Pokemon")
	if got := loader.count("SD Pokemon"); got != 2 {
		t.Fatalf("期望失败后重试加载，实际加载次数 %d", got)
	}
	if len(c.Resident()) != 0 {
		t.Fatalf("期望没有驻留模型")
	}
}

// 测试内容：验证 Evict 调用 Close，旧句柄失效，再次解析会重新加载。
func TestCache_EvictClosesAndReloads(t *testing.T) {
	loader := newCountingLoader()
	c := newTestCache(t, loader, 0)
	ctx := context.Background()

	h, _ := c.Resolve(ctx, "SD V1.5")
	if err := c.Evict("SD V1.5"); err != nil {
		t.Fatalf("释放失败: %v", err)
	}
	if !loader.created[0].closed.Load() {
		t.Fatalf("期望底层管线被关闭")
	}
	if _, err := h.Generate(ctx, NewRequest("SD V1.5", "A cat", 128, 128)); !errors.Is(err, ErrPipelineEvicted) {
		t.Fatalf("期望旧句柄返回 ErrPipelineEvicted，实际为 %v", err)
	}
	if err := c.Evict("SD V1.5"); err != nil {
		t.Fatalf("期望重复释放为空操作，实际为 %v", err)
	}

	h2, _ := c.Resolve(ctx, "SD V1.5")
	if h2 == h {
		t.Fatalf("期望重新加载得到新句柄")
	}
	if got := loader.count("SD V1.5"); got != 2 {
		t.Fatalf("期望加载 2 次，实际为 %d", got)
	}
}

// 测试内容：验证 EvictAll 关闭所有驻留模型。
func TestCache_EvictAll(t *testing.T) {
	loader := newCountingLoader()
	c := newTestCache(t, loader, 0)
	ctx := context.Background()
	for _, spec := range DefaultRegistry().Models() {
		if _, err := c.Resolve(ctx, spec.ID); err != nil {
			t.Fatalf("解析 %s 失败: %v", spec.ID, err)
		}
	}
	if len(c.Resident()) != 3 {
		t.Fatalf("期望 3 个驻留模型，实际为 %d", len(c.Resident()))
	}
	if err := c.EvictAll(); err != nil {
		t.Fatalf("释放失败: %v", err)
	}
	for _, p := range loader.created {
		if !p.closed.Load() {
			t.Fatalf("期望 %s 被关闭", p.id)
		}
	}
	if len(c.Resident()) != 0 {
		t.Fatalf("期望没有驻留模型")
	}
}

// 测试内容：验证加载进行中调用 Evict / EvictAll 会等待加载结束并关闭刚加载的管线。
func TestCache_EvictWaitsForInFlightLoad(t *testing.T) {
	evictors := map[string]func(c *Cache) error{
		"EvictAll": func(c *Cache) error { return c.EvictAll() },
		"Evict":    func(c *Cache) error { return c.Evict("SD V1.5") },
	}
	for name, evict := range evictors {
		t.Run(name, func(t *testing.T) {
			loader := newCountingLoader()
			loader.gate = make(chan struct{})
			loader.entered = make(chan string, 1)
			c := newTestCache(t, loader, 0)

			resolved := make(chan error, 1)
			go func() {
				_, err := c.Resolve(context.Background(), "SD V1.5")
				resolved <- err
			}()
			<-loader.entered

			evicted := make(chan error, 1)
			go func() { evicted <- evict(c) }()
			select {
			case err := <-evicted:
				t.Fatalf("期望释放等待进行中的加载，实际提前返回: %v", err)
			case <-time.After(50 * time.Millisecond):
			}

			close(loader.gate)
			if err := <-evicted; err != nil {
				t.Fatalf("释放失败: %v", err)
			}
			if err := <-resolved; err != nil {
				t.Fatalf("解析失败: %v", err)
			}
			if r := c.Resident(); len(r) != 0 {
				t.Fatalf("期望没有驻留模型，实际为 %+v", r)
			}
			if len(loader.created) != 1 || !loader.created[0].closed.Load() {
				t.Fatalf("期望加载完成的管线被关闭")
			}
		})
	}
}

// 测试内容：验证达到驻留上限时加载新模型会淘汰最久未使用的模型。
func TestCache_MaxResidentEvictsLRU(t *testing.T) {
	loader := newCountingLoader()
	c := newTestCache(t, loader, 2)
	ctx := context.Background()

	_, _ = c.Resolve(ctx, "SD V1.5")
	_, _ = c.Resolve(ctx, "SD Pokemon")
	// 再次使用 V1.5，使 Pokemon 成为最久未使用
	_, _ = c.Resolve(ctx, "SD V1.5")
	_, _ = c.Resolve(ctx, "SD Dogs")

	resident := c.Resident()
	if len(resident) != 2 {
		t.Fatalf("期望 2 个驻留模型，实际为 %d", len(resident))
	}
	if resident[0].ModelID != "SD Dogs" || resident[1].ModelID != "SD V1.5" {
		t.Fatalf("期望淘汰 SD Pokemon，实际驻留 %+v", resident)
	}

	single := newTestCache(t, newCountingLoader(), 1)
	_, _ = single.Resolve(ctx, "SD V1.5")
	_, _ = single.Resolve(ctx, "SD Dogs")
	if r := single.Resident(); len(r) != 1 || r[0].ModelID != "SD Dogs" {
		t.Fatalf("期望只驻留 SD Dogs，实际为 %+v", r)
	}
}

type blockingPipeline struct {
	fakePipeline
	started chan struct{}
	release chan struct{}
}

func (p *blockingPipeline) Generate(ctx context.Context, req Request) (image.Image, error) {
	close(p.started)
	<-p.release
	return p.fakePipeline.Generate(ctx, req)
}

type staticLoader struct{ p Pipeline }

func (l staticLoader) Load(context.Context, ModelSpec, Device) (Pipeline, error) { return l.p, nil }

// 测试内容：验证释放会等待进行中的推理完成后再关闭管线。
func TestCache_EvictWaitsForInflightGeneration(t *testing.T) {
	bp := &blockingPipeline{started: make(chan struct{}), release: make(chan struct{})}
	c := newTestCache(t, staticLoader{p: bp}, 0)
	ctx := context.Background()
	h, _ := c.Resolve(ctx, "SD V1.5")

	genDone := make(chan error, 1)
	go func() {
		_, err := h.Generate(ctx, NewRequest("SD V1.5", "A cat", 128, 128))
		genDone <- err
	}()
	<-bp.started

	evictDone := make(chan struct{})
	go func() {
		_ = c.Evict("SD V1.5")
		close(evictDone)
	}()

	select {
	case <-evictDone:
		t.Fatalf("期望释放等待推理结束")
	case <-time.After(50 * time.Millisecond):
	}
	close(bp.release)
	if err := <-genDone; err != nil {
		t.Fatalf("期望进行中的推理成功，实际为 %v", err)
	}
	<-evictDone
	if !bp.closed.Load() {
		t.Fatalf("期望管线被关闭")
	}
}
