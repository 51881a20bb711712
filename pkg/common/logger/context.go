package logger

import (
	"context"
	"sync"
)

// LoggerContext accumulates key/value attributes over the course of an
// operation so repeated log calls within the operation carry the same
// context without rebuilding the attribute list each time.
type LoggerContext struct {
	mu     sync.Mutex
	logger *Logger
}

// NewLoggerContext constructs a LoggerContext around the provided logger.
func NewLoggerContext(logger *Logger) *LoggerContext {
	return &LoggerContext{logger: logger}
}

// Add attaches additional attributes to all subsequent log calls made
// through this context.
func (lc *LoggerContext) Add(args ...any) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.logger = lc.logger.With(args...)
}

// Debug logs at LevelDebug with the accumulated attributes.
func (lc *LoggerContext) Debug(ctx context.Context, msg string, args ...any) {
	lc.mu.Lock()
	log := lc.logger
	lc.mu.Unlock()
	log.Debugc(ctx, 3, msg, args...)
}

// Info logs at LevelInfo with the accumulated attributes.
func (lc *LoggerContext) Info(ctx context.Context, msg string, args ...any) {
	lc.mu.Lock()
	log := lc.logger
	lc.mu.Unlock()
	log.Infoc(ctx, 3, msg, args...)
}

// Warn logs at LevelWarn with the accumulated attributes.
func (lc *LoggerContext) Warn(ctx context.Context, msg string, args ...any) {
	lc.mu.Lock()
	log := lc.logger
	lc.mu.Unlock()
	log.Warnc(ctx, 3, msg, args...)
}

// Error logs at LevelError with the accumulated attributes.
func (lc *LoggerContext) Error(ctx context.Context, msg string, args ...any) {
	lc.mu.Lock()
	log := lc.logger
	lc.mu.Unlock()
	log.Errorc(ctx, 3, msg, args...)
}
