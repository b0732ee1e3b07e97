package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"json", "text", "console"}
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyHTTP(&cfg.HTTP); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if err := verifyTracing(&cfg.Tracing); err != nil {
		return err
	}
	return verifySubsystems(cfg.Subsystems)
}

func verifyHTTP(cfg *HTTPSection) error {
	if cfg.Addr == "" {
		return errors.New("http.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("http.addr %q: %w", cfg.Addr, err)
	}
	if cfg.ReadTimeout < 0 || cfg.ShutdownTimeout < 0 {
		return errors.New("http timeouts must not be negative")
	}
	if cfg.RateLimit < 0 {
		return errors.New("http.rate_limit must not be negative")
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if !cfg.Enabled {
		return nil
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return fmt.Errorf("metrics.path %q must start with /", cfg.Path)
	}
	if strings.HasPrefix(cfg.Path, "/v1/") || cfg.Path == "/healthz" {
		return fmt.Errorf("metrics.path %q collides with an inspection route", cfg.Path)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !contains(validLevels, strings.ToLower(cfg.Level)) {
		return fmt.Errorf("log.level %q must be one of %s", cfg.Level, strings.Join(validLevels, ", "))
	}
	if !contains(validFormats, strings.ToLower(cfg.Format)) {
		return fmt.Errorf("log.format %q must be one of %s", cfg.Format, strings.Join(validFormats, ", "))
	}
	return nil
}

func verifyTracing(cfg *TracingSection) error {
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio %v must be within [0, 1]", cfg.SampleRatio)
	}
	if !cfg.Enabled {
		return nil
	}
	if cfg.Endpoint == "" {
		return errors.New("tracing.endpoint is required when tracing is enabled")
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("tracing.endpoint %q must be an http(s) URL", cfg.Endpoint)
	}
	return nil
}

func verifySubsystems(subs []SubsystemConfig) error {
	seen := make(map[string]bool, len(subs))
	for i, s := range subs {
		if s.ID == "" {
			return fmt.Errorf("subsystems[%d].id is required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("subsystems[%d]: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
		for _, key := range s.Require {
			if key == "" {
				return fmt.Errorf("subsystems[%d] (%s): empty require key", i, s.ID)
			}
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
