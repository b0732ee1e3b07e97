package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5180"
	DefaultReadTimeout     = 5 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRateLimit       = 50

	DefaultMetricsPath = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultSampleRatio = 1.0
)

// Default returns the default server configuration. No subsystems are
// seeded.
func Default() *ServerConfig {
	return &ServerConfig{
		HTTP: HTTPSection{
			Addr:            DefaultHTTPAddr,
			ReadTimeout:     DefaultReadTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			RateLimit:       DefaultRateLimit,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Tracing: TracingSection{
			SampleRatio: DefaultSampleRatio,
		},
	}
}
