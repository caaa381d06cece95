package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"sd-gallery-server/internal/platform/redisx"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 3 * time.Minute
	limiterSweepTick = time.Minute
)

// KeyedRateLimiter 按调用方（用户或 IP）维护令牌桶
type KeyedRateLimiter struct {
	keys sync.Map
	mu   sync.Mutex
	r    rate.Limit
	b    int
}

type client struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	l := &KeyedRateLimiter{r: r, b: b}
	go l.cleanupLoop()
	return l
}

func (l *KeyedRateLimiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

func (l *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := l.keys.Load(key); ok {
		c := v.(*client)
		c.lastSeen.Store(now)
		return c.limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double check
	if v, ok := l.keys.Load(key); ok {
		c := v.(*client)
		c.lastSeen.Store(now)
		return c.limiter
	}

	c := &client{limiter: rate.NewLimiter(l.r, l.b)}
	c.lastSeen.Store(now)
	l.keys.Store(key, c)
	return c.limiter
}

func (l *KeyedRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterSweepTick)
	defer ticker.Stop()
	for range ticker.C {
		l.sweep(time.Now())
	}
}

func (l *KeyedRateLimiter) sweep(now time.Time) {
	l.keys.Range(func(key, value any) bool {
		c := value.(*client)
		if now.Sub(time.Unix(0, c.lastSeen.Load())) > limiterIdleTTL {
			l.keys.Delete(key)
		}
		return true
	})
}

type RateLimitOptions struct {
	// Scope 区分不同接口组的计数
	Scope string
	RPS   float64
	Burst int
	// Redis 非 nil 时使用固定窗口计数，多实例共享配额
	Redis       *redis.Client
	RedisPrefix string
	Logger      *zap.Logger
}

// RateLimitMiddleware 已认证请求按用户限流，否则按 IP。Burst <= 0 时不限流。
func RateLimitMiddleware(opts RateLimitOptions) gin.HandlerFunc {
	if opts.Burst <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	local := NewKeyedRateLimiter(rate.Limit(opts.RPS), opts.Burst)

	return func(c *gin.Context) {
		key := limiterKey(c)

		allowed := false
		if opts.Redis != nil {
			redisKey := redisx.Key(opts.RedisPrefix, "rate", opts.Scope, key)
			ok, err := allowByRedisRateLimit(c.Request.Context(), opts.Redis, redisKey, opts.RPS, opts.Burst)
			if err != nil {
				// Redis 不可用时降级为本地限流
				opts.Logger.Warn("⚠️ Redis 限流失败，降级为内存限流", zap.Error(err))
				allowed = local.Allow(key)
			} else {
				allowed = ok
			}
		} else {
			allowed = local.Allow(key)
		}

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "请求过于频繁，请稍后再试"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func limiterKey(c *gin.Context) string {
	if id, ok := c.Get("id"); ok {
		if uid, ok := id.(uint); ok {
			return "user:" + strconv.FormatUint(uint64(uid), 10)
		}
	}
	return "ip:" + c.ClientIP()
}

// allowByRedisRateLimit 固定窗口计数：窗口长度为 burst/rps 秒，窗口内最多 burst 次
func allowByRedisRateLimit(ctx context.Context, client *redis.Client, key string, rps float64, burst int) (bool, error) {
	if rps <= 0 || burst <= 0 {
		return true, nil
	}
	window := time.Duration(math.Ceil(float64(burst)/rps)) * time.Second
	if window < time.Second {
		window = time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	var incr *redis.IntCmd
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}
	return incr.Val() <= int64(burst), nil
}
