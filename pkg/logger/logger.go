// Package logger 基于zap构建结构化日志
//
// 日志级别、编码格式、输出位置全部来自配置(log段)：
//
//	log:
//	  level: info          # debug | info | warn | error
//	  format: console      # console | json
//	  output: stderr       # stdout | stderr | /path/to/file
//	  enable_caller: false
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日志配置
// 与config.LogConfig字段一致,避免pkg依赖internal
type Config struct {
	Level        string
	Format       string
	Output       string
	EnableCaller bool
}

// New 创建Logger
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(defaultString(cfg.Level, "info")))
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	encoding := defaultString(cfg.Format, "console")
	if encoding == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	output := defaultString(cfg.Output, "stderr")

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: level > zapcore.DebugLevel,
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return logger, nil
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
