package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/yndnr/loresync/internal/core/domain"
	"github.com/yndnr/loresync/internal/core/hook"
	"github.com/yndnr/loresync/internal/core/service"
	"github.com/yndnr/loresync/internal/infra/buildinfo"
	"github.com/yndnr/loresync/internal/infra/confloader"
	"github.com/yndnr/loresync/internal/infra/shutdown"
	"github.com/yndnr/loresync/internal/server/config"
	"github.com/yndnr/loresync/internal/server/httpserver"
	"github.com/yndnr/loresync/internal/telemetry/logger"
	"github.com/yndnr/loresync/internal/telemetry/metric"
	"github.com/yndnr/loresync/internal/telemetry/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("loresync-server " + buildinfo.String())
		return nil
	}

	loader, cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	info := buildinfo.Get()
	log.Info("starting loresync-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", loader.FilePath())
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	ctx := context.Background()
	shutdownTracing, err := tracer.Setup(ctx, tracer.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: "loresync-server",
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	coord := service.NewCoordinator(
		service.WithLogger(log),
		service.WithMetrics(metric.New(reg)),
	)
	reg.MustRegister(metric.NewCollector(coord))

	if err := seed(ctx, coord, cfg.Subsystems, log); err != nil {
		return err
	}

	routerCfg := &httpserver.RouterConfig{
		Coordinator: coord,
		Logger:      log,
		RateLimit:   cfg.HTTP.RateLimit,
	}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = metric.Handler(reg)
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	srv := httpserver.New(cfg.HTTP.Addr, httpserver.NewRouter(routerCfg),
		httpserver.WithReadTimeout(cfg.HTTP.ReadTimeout))

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	shutdownHandler := shutdown.NewHandler(cfg.HTTP.ShutdownTimeout)
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		return shutdownTracing(ctx)
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return srv.Shutdown(ctx)
	})

	if path := loader.FilePath(); path != "" {
		w, err := watchConfig(path, log)
		if err != nil {
			log.Warn("config watch disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error { return w.Stop() })
		}
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil {
			log.Error("HTTP server error", "error", err)
			serveErr <- err
			cancel()
		}
	}()

	log.Info("server started, press Ctrl+C to stop", "subsystems", coord.SubsystemCount())
	if err := shutdownHandler.Wait(waitCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	select {
	case err := <-serveErr:
		return err
	default:
	}
	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads defaults, the optional file and LORESYNC_* variables,
// then verifies the result.
func loadConfig(configFile string) (*confloader.Loader, *config.ServerConfig, error) {
	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)

	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return loader, cfg, nil
}

func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// seed registers the configured subsystems. Each gets a change hook
// that logs new versions at debug, and a validator when Require is set.
func seed(ctx context.Context, coord *service.Coordinator, subs []config.SubsystemConfig, log logger.Logger) error {
	for _, sub := range subs {
		id := sub.ID
		opts := []service.RegisterOption{
			service.WithChangeHook(hook.Notify(func(_ context.Context, p domain.Payload) error {
				log.Debug("subsystem changed", "subsystem", id, "keys", len(p))
				return nil
			})),
		}
		if len(sub.Require) > 0 {
			opts = append(opts, service.WithValidator(hook.RequireKeys(sub.Require...)))
		}
		if !coord.Register(ctx, id, domain.Payload(sub.Payload), opts...) {
			return errors.New("register subsystem " + id)
		}
	}
	return nil
}

// watchConfig re-reads the file on change and applies log.level. Other
// settings need a restart.
func watchConfig(path string, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		_, cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if !strings.EqualFold(cfg.Log.Level, logger.GetLevel()) {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w, nil
}
