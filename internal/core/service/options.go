package service

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/yndnr/loresync/internal/core/domain"
	"github.com/yndnr/loresync/internal/storage/memory"
	"github.com/yndnr/loresync/internal/telemetry/logger"
	"github.com/yndnr/loresync/internal/telemetry/metric"
	"github.com/yndnr/loresync/internal/telemetry/tracer"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. Defaults to logger.Default().
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics sets the instruments. Without it nothing is recorded.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithTracerProvider sets where spans go. Defaults to the global
// OpenTelemetry provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Coordinator) {
		if tp != nil {
			c.tracer = tracer.Tracer(tp)
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithHistory sets the store Rollback restores from. The coordinator
// never writes to it.
func WithHistory(h *memory.History) Option {
	return func(c *Coordinator) {
		if h != nil {
			c.history = h
		}
	}
}

// PropagateOption configures a single Propagate call.
type PropagateOption func(*propagateConfig)

type propagateConfig struct {
	operationID  string
	successHooks []domain.Hook
	errorHooks   []domain.Hook
}

// WithOperationID uses id instead of a generated operation id.
func WithOperationID(id string) PropagateOption {
	return func(p *propagateConfig) {
		p.operationID = id
	}
}

// OnSuccess attaches a hook run after every target accepted the change.
// It receives an operation event payload (see Coordinator.Propagate).
func OnSuccess(h domain.Hook) PropagateOption {
	return func(p *propagateConfig) {
		if h != nil {
			p.successHooks = append(p.successHooks, h)
		}
	}
}

// OnError attaches a hook run when the operation fails.
func OnError(h domain.Hook) PropagateOption {
	return func(p *propagateConfig) {
		if h != nil {
			p.errorHooks = append(p.errorHooks, h)
		}
	}
}
