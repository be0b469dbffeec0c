// Package logging provides structured logging for the admin console.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type traceIDKey struct{}

// Logger wraps logrus with a fixed component field.
type Logger struct {
	*logrus.Logger
	component string
}

// New creates a logger for component with the given level and format ("json" or "text").
func New(component, level, format string) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}

	return &Logger{Logger: l, component: component}
}

// NewDefault creates a logger configured from LOG_LEVEL and LOG_FORMAT.
func NewDefault(component string) *Logger {
	return New(component, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// NewDiscard returns a logger that drops everything. Used by tests.
func NewDiscard(component string) *Logger {
	l := New(component, "panic", "json")
	l.SetOutput(io.Discard)
	return l
}

// Component returns the component name attached to every entry.
func (l *Logger) Component() string {
	return l.component
}

// Entry returns a base entry tagged with the component.
func (l *Logger) Entry() *logrus.Entry {
	return l.Logger.WithField("component", l.component)
}

// WithContext returns an entry carrying the trace id stored in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Entry().WithContext(ctx)
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	return entry
}

// WithField returns a component entry with one extra field.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Entry().WithField(key, value)
}

// WithFields returns a component entry with extra fields.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.Entry().WithFields(logrus.Fields(fields))
}

// WithError returns a component entry carrying err.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Entry().WithError(err)
}

// LogRequest logs a completed HTTP request. extra may be nil.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration, extra map[string]interface{}) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields(extra)).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})
	switch {
	case status >= 500:
		entry.Error("request failed")
	case status >= 400:
		entry.Warn("request rejected")
	default:
		entry.Info("request completed")
	}
}

// LogSecurityEvent logs an event relevant to access control.
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, fields map[string]interface{}) {
	l.WithContext(ctx).WithFields(logrus.Fields(fields)).WithField("security_event", event).Warn("security event")
}

// NewTraceID generates a new trace id.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores traceID in ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext returns the trace id stored in ctx, or "".
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey{}).(string); ok {
		return id
	}
	return ""
}
