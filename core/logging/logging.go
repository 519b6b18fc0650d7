package logging

import (
	"strings"

	"github.com/dnslin/printdash/core/httpclient"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 按级别与格式创建 zap 日志，format 为 json 时输出结构化日志。
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil || level == "" {
		lvl = zapcore.InfoLevel
	}
	var cfg zap.Config
	if strings.EqualFold(format, "json") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Adapter 将 zap 适配为 httpclient.Logger，供 core 层注入。
type Adapter struct {
	s *zap.SugaredLogger
}

var _ httpclient.Logger = (*Adapter)(nil)

// NewAdapter 包装 logger，nil 时返回空日志。
func NewAdapter(logger *zap.Logger) httpclient.Logger {
	if logger == nil {
		return httpclient.NopLogger{}
	}
	return &Adapter{s: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (a *Adapter) Debugf(format string, args ...any) {
	a.s.Debugf(format, args...)
}

func (a *Adapter) Errorf(format string, args ...any) {
	a.s.Errorf(format, args...)
}
