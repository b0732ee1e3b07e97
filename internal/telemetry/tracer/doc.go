// Package tracer configures OpenTelemetry tracing.
//
// Tracing is opt-in. Without Setup the global provider is the
// OpenTelemetry no-op and spans cost next to nothing; Setup with an
// endpoint installs an OTLP/HTTP exporter as the global provider.
package tracer
