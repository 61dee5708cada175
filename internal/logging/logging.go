// Package logging builds the process logger and carries request ids through
// request contexts.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey struct{}

// New returns a logger for the given level and format ("text" or "json").
// An unknown level falls back to info.
func New(level, format string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}

	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func NewRequestID() string {
	return uuid.NewString()
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// FromContext tags log with the request id stored in ctx, if any.
func FromContext(ctx context.Context, log logrus.FieldLogger) logrus.FieldLogger {
	if id := RequestID(ctx); id != "" {
		return log.WithField("request_id", id)
	}
	return log
}
