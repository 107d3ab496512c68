// Package logging provides module-tagged slog loggers for the application.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	moduleLoggers = make(map[string]*slog.Logger)
	levelVar      = &slog.LevelVar{}
	format        = "text"
)

// Initialize sets up the logging system. Safe to call before any GetLogger;
// loggers created earlier keep working at the default level.
func Initialize(level, logFormat string) {
	mu.Lock()
	defer mu.Unlock()

	levelVar.Set(parseLevel(level))
	if logFormat != "" {
		format = logFormat
	}

	handler := newHandler()
	for module := range moduleLoggers {
		moduleLoggers[module] = slog.New(handler).With("module", module)
	}
	slog.SetDefault(slog.New(handler))
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	if logger, exists := moduleLoggers[module]; exists {
		mu.RUnlock()
		return logger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if logger, exists := moduleLoggers[module]; exists {
		return logger
	}
	logger := slog.New(newHandler()).With("module", module)
	moduleLoggers[module] = logger
	return logger
}

func newHandler() slog.Handler {
	opts := &slog.HandlerOptions{Level: levelVar}
	if format == "json" {
		return slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.NewTextHandler(os.Stderr, opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
