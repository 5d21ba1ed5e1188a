// Package logging provides the named zap loggers shared across the
// server and the batch commands, plus request-id plumbing through
// context so every log line emitted while serving a request carries it.
package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

// NewLogger builds a production logger under the given name.
func NewLogger(name string) *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger.Named(name)
}

// One base logger per layer, shared by all requests.
var (
	APILog     = NewLogger("api")
	ServiceLog = NewLogger("service")
	IndexerLog = NewLogger("indexer")
	SystemLog  = NewLogger("system")
)

// WithRequestID enriches the logger with the request_id carried in ctx,
// if any.
func WithRequestID(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if reqID, ok := ctx.Value(requestIDKey).(string); ok && reqID != "" {
		return logger.With(zap.String("request_id", reqID))
	}
	return logger
}

// SetRequestID stores the request id in ctx. The HTTP middleware calls
// this once per request.
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request id carried in ctx, or "".
func GetRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		return reqID
	}
	return ""
}

// Log emits one event on the base logger for a layer, enriched with the
// request id from ctx:
//
//	logging.Log(ctx, logging.ServiceLog, zapcore.WarnLevel, "listing degraded", zap.Error(err))
func Log(ctx context.Context, base *zap.Logger, level zapcore.Level, message string, fields ...zap.Field) {
	WithRequestID(ctx, base).Log(level, message, fields...)
}
