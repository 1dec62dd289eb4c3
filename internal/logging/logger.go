// Package logging provides categorized run logging for spritegg.
// Each subsystem logs under its own category; all categories share one zap
// core that writes to the configured log file. Until Initialize is called
// every category is a no-op, so library code can log unconditionally.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup, config loading
	CategoryScan    Category = "scan"    // Entity discovery and classification
	CategoryResolve Category = "resolve" // Action folder resolution
	CategoryPlan    Category = "plan"    // Frame layout planning
	CategoryStitch  Category = "stitch"  // Stitch engine
	CategoryBackend Category = "backend" // Compositing backend / child processes
	CategoryPublish Category = "publish" // Rebuild decisions and distribution
	CategoryServer  Category = "server"  // HTTP bridge
	CategoryWatch   Category = "watch"   // Filesystem watcher
)

// Config controls where and how logs are written.
type Config struct {
	File   string // Log file path; empty disables logging
	Level  string // debug, info, warn, error
	Format string // json or text
}

// Logger is a category-scoped logger with printf-style methods.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	loggers = make(map[Category]*Logger)
)

// Initialize builds the shared zap logger. Calling it again replaces the
// previous logger after syncing it.
func Initialize(cfg Config) error {
	if cfg.File == "" {
		Reset()
		return nil
	}

	if dir := filepath.Dir(cfg.File); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{cfg.File}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.Sampling = nil
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if strings.EqualFold(cfg.Format, "text") {
		zcfg.Encoding = "console"
	}

	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mu.Lock()
	_ = base.Sync()
	base = logger
	loggers = make(map[Category]*Logger)
	mu.Unlock()

	Get(CategoryBoot).Info("logging initialized: file=%s level=%s", cfg.File, level)
	return nil
}

// UseLogger installs an existing zap logger, mainly for tests.
func UseLogger(logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = logger
	loggers = make(map[Category]*Logger)
}

// Reset returns every category to the no-op logger.
func Reset() {
	UseLogger(zap.NewNop())
}

// ParseLevel maps a level name onto a zap level. Empty means info.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", name)
	}
}

// Get returns (or creates) the logger for the given category.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{
		category: category,
		sugar:    base.Named(string(category)).Sugar(),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// With returns a logger carrying structured key-value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// CloseAll flushes buffered entries (call at shutdown).
func CloseAll() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debug(format, args...)
}

// Scan logs to the scan category
func Scan(format string, args ...interface{}) {
	Get(CategoryScan).Info(format, args...)
}

// ScanDebug logs debug to the scan category
func ScanDebug(format string, args ...interface{}) {
	Get(CategoryScan).Debug(format, args...)
}

// ScanError logs an error to the scan category
func ScanError(format string, args ...interface{}) {
	Get(CategoryScan).Error(format, args...)
}

// ResolveDebug logs debug to the resolve category
func ResolveDebug(format string, args ...interface{}) {
	Get(CategoryResolve).Debug(format, args...)
}

// PlanDebug logs debug to the plan category
func PlanDebug(format string, args ...interface{}) {
	Get(CategoryPlan).Debug(format, args...)
}

// Stitch logs to the stitch category
func Stitch(format string, args ...interface{}) {
	Get(CategoryStitch).Info(format, args...)
}

// StitchDebug logs debug to the stitch category
func StitchDebug(format string, args ...interface{}) {
	Get(CategoryStitch).Debug(format, args...)
}

// StitchWarn logs a warning to the stitch category
func StitchWarn(format string, args ...interface{}) {
	Get(CategoryStitch).Warn(format, args...)
}

// Backend logs to the backend category
func Backend(format string, args ...interface{}) {
	Get(CategoryBackend).Info(format, args...)
}

// BackendDebug logs debug to the backend category
func BackendDebug(format string, args ...interface{}) {
	Get(CategoryBackend).Debug(format, args...)
}

// BackendWarn logs a warning to the backend category
func BackendWarn(format string, args ...interface{}) {
	Get(CategoryBackend).Warn(format, args...)
}

// BackendError logs an error to the backend category
func BackendError(format string, args ...interface{}) {
	Get(CategoryBackend).Error(format, args...)
}

// Publish logs to the publish category
func Publish(format string, args ...interface{}) {
	Get(CategoryPublish).Info(format, args...)
}

// PublishDebug logs debug to the publish category
func PublishDebug(format string, args ...interface{}) {
	Get(CategoryPublish).Debug(format, args...)
}

// Server logs to the server category
func Server(format string, args ...interface{}) {
	Get(CategoryServer).Info(format, args...)
}

// ServerError logs an error to the server category
func ServerError(format string, args ...interface{}) {
	Get(CategoryServer).Error(format, args...)
}

// Watch logs to the watch category
func Watch(format string, args ...interface{}) {
	Get(CategoryWatch).Info(format, args...)
}

// WatchDebug logs debug to the watch category
func WatchDebug(format string, args ...interface{}) {
	Get(CategoryWatch).Debug(format, args...)
}

// WatchError logs an error to the watch category
func WatchError(format string, args ...interface{}) {
	Get(CategoryWatch).Error(format, args...)
}

// =============================================================================
// TIMERS
// =============================================================================

// Timer measures an operation and logs its duration on Stop.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer starts timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithInfo ends the timer and logs at info level
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Info("%s completed in %v", t.op, elapsed)
	return elapsed
}
