package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global *zap.Logger
	once   sync.Once
)

// Init initializes the global logger for the given environment.
// Production uses JSON encoding at info level, everything else uses
// console encoding at debug level.
func Init(environment string) (*zap.Logger, error) {
	var err error
	once.Do(func() {
		var cfg zap.Config
		if environment == "production" {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		} else {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		global, err = cfg.Build(zap.AddCallerSkip(0))
	})
	if err != nil {
		return nil, err
	}
	return global, nil
}

// Get returns the global logger. If Init was never called a no-op
// logger is returned so library code can log unconditionally.
func Get() *zap.Logger {
	if global == nil {
		return zap.NewNop()
	}
	return global
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	if global != nil {
		_ = global.Sync()
	}
}
