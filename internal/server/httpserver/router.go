package httpserver

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/yndnr/loresync/internal/server/httpserver/handler"
	"github.com/yndnr/loresync/internal/telemetry/logger"
)

// RouterConfig holds what NewRouter wires together.
type RouterConfig struct {
	// Coordinator backs the /v1 inspection API and /healthz.
	Coordinator handler.Coordinator

	// Metrics serves Prometheus exposition. Nil disables the route.
	Metrics http.Handler

	// MetricsPath is where Metrics is mounted. Defaults to /metrics.
	MetricsPath string

	// Logger for access and panic logs.
	Logger logger.Logger

	// TracerProvider receives request spans. Nil means the global
	// provider.
	TracerProvider trace.TracerProvider

	// RateLimit caps requests per second per client address. Zero
	// disables limiting.
	RateLimit int
}

// NewRouter builds the server's handler.
// Order: Recover -> RequestID -> Trace -> AccessLog -> RateLimit -> route.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "http")

	h := handler.New(cfg.Coordinator, log)

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", h)
	mux.Handle("GET /v1/", h)

	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, cfg.Metrics)
	}

	return Chain(mux, Recover(log), RequestID(), Trace(cfg.TracerProvider), AccessLog(log), RateLimit(cfg.RateLimit))
}
