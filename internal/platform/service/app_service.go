package service

import (
	"time"

	"go.uber.org/zap"
)

// AppService 各业务模块共享的运行时依赖：日志与时钟。
type AppService struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewAppService(logger *zap.Logger) *AppService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppService{logger: logger, now: time.Now}
}

func (s *AppService) Logger() *zap.Logger {
	return s.logger
}

// Now 返回当前时间（UTC），持久化时间戳统一从这里取。
func (s *AppService) Now() time.Time {
	return s.now().UTC()
}

// SetClock 替换时钟，主要用于测试
func (s *AppService) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}
