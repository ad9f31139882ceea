// Package logging configures the logrus logger shared by the server and the CLI
// and carries request-scoped entries through context.Context.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type contextKey struct{}

var (
	loggerKey       = contextKey{}
	defaultLogger   *logrus.Logger
	defaultLoggerMu sync.RWMutex
)

func init() {
	defaultLogger = New("info", "text", os.Stderr)
}

// parseLevel converts a level name to a logrus level, falling back to info.
func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// New creates a logger writing to w.
// Accepts levels "debug", "info", "warn", "error" (case-insensitive) and
// formats "text" or "json".
func New(level, format string, w io.Writer) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(parseLevel(level))

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return logger
}

// Default returns the process-wide logger.
func Default() *logrus.Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger *logrus.Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}

// WithContext returns a new context carrying entry.
func WithContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey, entry)
}

// From returns the entry stored in ctx, or an entry on the default logger.
func From(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(loggerKey).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(Default())
}
