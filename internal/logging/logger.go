package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log bundles the service logger with its flush hook.
type Log struct {
	Base   *zap.Logger
	Closer func()
}

// Init builds the process logger. A level it cannot parse falls back to
// info rather than failing startup; prod selects the JSON encoder.
func Init(level, env string) (*Log, error) {
	lvl := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(strings.ToLower(level)); err == nil {
		lvl = parsed
	}

	var cfg zap.Config
	if strings.ToLower(env) == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	base = base.With(zap.String("service", "evidence-mp"))
	return &Log{Base: base, Closer: func() { _ = base.Sync() }}, nil
}
