package httpx

import (
	"net/http"

	platformservice "sd-gallery-server/internal/platform/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WriteServiceError writes a standardized HTTP error response for service-layer errors.
// Non-service errors are logged and rendered as 500 with the fallback message.
func WriteServiceError(c *gin.Context, err error, fallbackMessage string) {
	if serviceErr, ok := platformservice.AsServiceError(err); ok {
		status := serviceErrorStatus(serviceErr.Code)
		if status == http.StatusInternalServerError {
			logFor(c).Error("服务内部错误", zap.String("path", c.FullPath()), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": serviceErr.Message})
		return
	}
	logFor(c).Error(fallbackMessage, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMessage})
}

// LoggerKey 请求日志中间件把 *zap.Logger 存入 gin.Context 时使用的键
const LoggerKey = "logger"

func logFor(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(LoggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.L()
}

func serviceErrorStatus(code platformservice.ErrorCode) int {
	switch code {
	case platformservice.ErrorCodeValidation:
		return http.StatusBadRequest
	case platformservice.ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case platformservice.ErrorCodeForbidden:
		return http.StatusForbidden
	case platformservice.ErrorCodeConflict:
		return http.StatusConflict
	case platformservice.ErrorCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
