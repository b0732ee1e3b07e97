package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	loggerKey      contextKey = "loresync.logger"
	operationIDKey contextKey = "loresync.operation_id"
	subsystemKey   contextKey = "loresync.subsystem"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the context logger, or Default when none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithOperationID tags the context with a propagation operation id.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operationIDKey, id)
}

// OperationIDFromContext returns the operation id, if any.
func OperationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(operationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithSubsystem tags the context with the subsystem being worked on.
func WithSubsystem(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, subsystemKey, id)
}

// SubsystemFromContext returns the subsystem id, if any.
func SubsystemFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(subsystemKey).(string); ok {
		return id
	}
	return ""
}

// L returns the context logger enriched with the operation id,
// subsystem id and trace id found in ctx.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if id := OperationIDFromContext(ctx); id != "" {
		l = l.With("operation_id", id)
	}
	if id := SubsystemFromContext(ctx); id != "" {
		l = l.With("subsystem", id)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.With("trace_id", sc.TraceID().String())
	}
	return l
}
