package logger

import (
	"os"
	"strings"

	"sd-gallery-server/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New 按配置构建 zap 日志：debug 模式输出彩色控制台格式，release 模式输出 JSON；
// 配置了 log.file 时额外写入按大小滚动的日志文件。
func New(serverCfg config.ServerConfig, logCfg config.LogConfig) *zap.Logger {
	isDev := serverCfg.Mode != "release"
	level := parseLevel(logCfg.Level, isDev)

	var consoleEncoder zapcore.Encoder
	if isDev {
		consoleEncoder = zapcore.NewConsoleEncoder(consoleEncoderConfig())
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(jsonEncoderConfig())
	}
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level),
	}

	if path := strings.TrimSpace(logCfg.File); path != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(jsonEncoderConfig()),
			NewFileWriter(path, logCfg),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// NewFileWriter 返回基于 lumberjack 的滚动文件输出
func NewFileWriter(path string, logCfg config.LogConfig) zapcore.WriteSyncer {
	maxSize := logCfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	maxBackups := logCfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 5
	}
	maxAge := logCfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 30
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   logCfg.Compress,
	})
}

func parseLevel(raw string, isDev bool) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(raw)))); err == nil && raw != "" {
		return level
	}
	if isDev {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	return cfg
}
