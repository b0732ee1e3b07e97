package config

import "time"

// ServerConfig is the root configuration for loresync-server.
type ServerConfig struct {
	HTTP       HTTPSection       `koanf:"http"`
	Metrics    MetricsSection    `koanf:"metrics"`
	Log        LogSection        `koanf:"log"`
	Tracing    TracingSection    `koanf:"tracing"`
	Subsystems []SubsystemConfig `koanf:"subsystems"`
}

// HTTPSection configures the inspection server.
type HTTPSection struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit caps requests per second per client address; 0 turns
	// limiting off.
	RateLimit int `koanf:"rate_limit"`
}

// MetricsSection configures the Prometheus endpoint. It is served by
// the inspection server.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// LogSection configures logging. Level is reloaded when the config file
// changes; Format only at startup.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TracingSection configures OpenTelemetry export over OTLP/HTTP.
type TracingSection struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

// SubsystemConfig seeds one subsystem at startup.
type SubsystemConfig struct {
	// ID is the subsystem name ("world", "combat", ...).
	ID string `koanf:"id"`

	// Payload is the version-0 state.
	Payload map[string]any `koanf:"payload"`

	// Require lists payload keys every propagated payload must carry.
	// When non-empty the subsystem gets a validator enforcing them.
	Require []string `koanf:"require"`
}
