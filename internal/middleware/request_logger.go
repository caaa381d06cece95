package middleware

import (
	"time"

	"sd-gallery-server/internal/common/httpx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger 为每个请求挂载带路由信息的 logger，并在结束时记录状态码与耗时
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := logger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
		)
		c.Set(httpx.LoggerKey, reqLogger)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
		}
		if id, ok := c.Get("id"); ok {
			if uid, ok := id.(uint); ok {
				fields = append(fields, zap.Uint("user_id", uid))
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			reqLogger.Error("请求失败", fields...)
		case status >= 400:
			reqLogger.Warn("请求被拒绝", fields...)
		default:
			reqLogger.Info("请求完成", fields...)
		}
	}
}
