// Package logger holds the process-wide zap logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log *zap.Logger
)

// InitProduction installs a JSON production logger.
func InitProduction() error {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// InitDevelopment installs a console logger with debug level enabled.
func InitDevelopment() error {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set replaces the package logger and zap's globals with l.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()

	zap.ReplaceGlobals(l)
	if log != nil {
		_ = log.Sync()
	}
	log = l
}

// L returns the package logger. Before initialisation this is zap's global,
// which is a no-op logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if log != nil {
		return log
	}
	return zap.L()
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if log != nil {
		_ = log.Sync()
	}
}
