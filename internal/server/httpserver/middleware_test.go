package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/yndnr/loresync/internal/core/service"
	"github.com/yndnr/loresync/internal/telemetry/logger"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.HasPrefix(seen, "req-") {
		t.Errorf("generated id = %q", seen)
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("header = %q, context = %q", rec.Header().Get("X-Request-ID"), seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "client-42" {
		t.Errorf("client id not kept: %q", seen)
	}
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recover(logger.Discard()), RequestID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if rec.Header().Get("X-Error-Code") != "LS-SYS-5000" {
		t.Errorf("X-Error-Code = %q", rec.Header().Get("X-Error-Code"))
	}
}

func TestAccessLog_CapturesStatus(t *testing.T) {
	var status int
	capture := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			status = w.(*responseWriter).statusCode
		})
	}
	h := Chain(http.NotFoundHandler(), AccessLog(logger.Discard()), capture)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	if status != http.StatusNotFound {
		t.Errorf("captured status = %d, want 404", status)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), mark("a"), mark("b"), mark("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, "") != "abc" {
		t.Errorf("order = %v", order)
	}
}

func TestNewRouter_Routes(t *testing.T) {
	c := service.NewCoordinator(service.WithLogger(logger.Discard()))
	router := NewRouter(&RouterConfig{
		Coordinator: c,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("metrics"))
		}),
		MetricsPath: "/internal/metrics",
		Logger:      logger.Discard(),
	})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/v1/subsystems", http.StatusOK},
		{http.MethodGet, "/v1/operations/none", http.StatusNotFound},
		{http.MethodGet, "/internal/metrics", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusNotFound},
		{http.MethodPost, "/v1/subsystems", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if got := do("10.0.0.1:4000"); got != http.StatusNoContent {
			t.Fatalf("request %d: status %d", i, got)
		}
	}
	if got := do("10.0.0.1:4001"); got != http.StatusTooManyRequests {
		t.Errorf("third request: status %d, want 429", got)
	}
	if got := do("10.0.0.2:4000"); got != http.StatusNoContent {
		t.Errorf("other client: status %d", got)
	}
}

func TestLimiters_SweepsIdleBuckets(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := newLimiters(5)
	l.now = func() time.Time { return clock }
	l.lastSweep.Store(clock.UnixNano())

	l.get("10.0.0.1")
	l.get("10.0.0.2")

	clock = clock.Add(2 * time.Minute)
	l.get("10.0.0.2")
	if n := l.buckets.Len(); n != 2 {
		t.Fatalf("buckets before idle timeout = %d, want 2", n)
	}

	clock = clock.Add(2 * time.Minute)
	first := l.get("10.0.0.3")
	if l.buckets.Has("10.0.0.1") {
		t.Error("idle bucket for 10.0.0.1 was not swept")
	}
	if !l.buckets.Has("10.0.0.2") || !l.buckets.Has("10.0.0.3") {
		t.Errorf("active buckets swept, have %v", l.buckets.Keys())
	}
	if l.get("10.0.0.3") != first {
		t.Error("get returned a new bucket for a known client")
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
}

func TestTrace(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTextMapPropagator(propagation.TraceContext{})

	var traced bool
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traced = trace.SpanContextFromContext(r.Context()).IsValid()
		w.WriteHeader(http.StatusNotFound)
	}), RequestID(), Trace(tp))

	req := httptest.NewRequest(http.MethodGet, "/v1/operations/x", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !traced {
		t.Error("handler context carries no span")
	}
	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans", len(spans))
	}
	s := spans[0]
	if s.Name() != "GET /v1/operations/x" || s.SpanKind() != trace.SpanKindServer {
		t.Errorf("span = %q kind %v", s.Name(), s.SpanKind())
	}
	if got := s.SpanContext().TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace id = %s, want the client's", got)
	}
	if s.Status().Code == codes.Error {
		t.Error("404 marked as span error")
	}
}
