package httpserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/loresync/internal/core/domain"
	"github.com/yndnr/loresync/internal/core/service"
	"github.com/yndnr/loresync/internal/telemetry/logger"
	"github.com/yndnr/loresync/internal/telemetry/metric"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metric.New(reg)
	c := service.NewCoordinator(service.WithLogger(logger.Discard()), service.WithMetrics(m))
	reg.MustRegister(metric.NewCollector(c))
	c.Register(context.Background(), "world", domain.Payload{"day": 1})

	router := NewRouter(&RouterConfig{
		Coordinator: c,
		Metrics:     metric.Handler(reg),
		Logger:      logger.Discard(),
	})
	s := New("127.0.0.1:0", router, WithReadTimeout(time.Second))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	base := "http://" + ln.Addr().String()

	resp, err := http.Get(base + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/healthz status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	resp, err = http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "loresync_subsystems_registered 1") {
		t.Errorf("/metrics body lacks the subsystem gauge:\n%s", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve returned %v after Shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Serve did not return after Shutdown")
	}
}

func TestServer_ListenAndServeBadAddr(t *testing.T) {
	s := New("256.0.0.1:99999", http.NotFoundHandler())
	if err := s.ListenAndServe(); err == nil {
		t.Error("ListenAndServe succeeded on an invalid address")
	}
}
