package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	HTTP struct {
		Addr    string `koanf:"addr"`
		Enabled bool   `koanf:"enabled"`
	} `koanf:"http"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loresync.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/loresync.yaml"))
	if l.envPrefix != "TEST_" || l.FilePath() != "/etc/loresync.yaml" {
		t.Errorf("options not applied: prefix=%q file=%q", l.envPrefix, l.FilePath())
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeFile(t, `
http:
  addr: "0.0.0.0:5180"
  enabled: true
`)
	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if addr := l.GetString("http.addr"); addr != "0.0.0.0:5180" {
		t.Errorf("http.addr = %q", addr)
	}

	if err := l.LoadFile("/nonexistent/loresync.yaml"); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") = %v", err)
	}
}

func TestLoader_Priority(t *testing.T) {
	path := writeFile(t, `
http:
  addr: "from-file:5180"
log:
  level: info
`)
	t.Setenv("LORESYNC_HTTP_ADDR", "from-env:8080")
	t.Setenv("LORESYNC_LOG_LEVEL", "warn")

	l := NewLoader(WithConfigFile(path), WithOverrides(map[string]any{"log.level": "debug"}))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != "from-env:8080" {
		t.Errorf("Addr = %q, want env over file", cfg.HTTP.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want override over env", cfg.Log.Level)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false after Load")
	}
}

func TestLoader_KeepsDefaults(t *testing.T) {
	path := writeFile(t, "log:\n  level: error\n")

	var cfg testConfig
	cfg.HTTP.Addr = "127.0.0.1:5180"
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != "127.0.0.1:5180" {
		t.Errorf("Addr = %q, want default kept", cfg.HTTP.Addr)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
}

func TestLoader_Reload(t *testing.T) {
	path := writeFile(t, "log:\n  level: info\n")
	l := NewLoader(WithConfigFile(path))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var next testConfig
	if err := l.Reload(&next); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if next.Log.Level != "debug" {
		t.Errorf("Level after reload = %q", next.Log.Level)
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"http.addr": "localhost:3000", "http.enabled": true}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	var cfg testConfig
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.HTTP.Addr != "localhost:3000" || !cfg.HTTP.Enabled {
		t.Errorf("cfg.HTTP = %+v", cfg.HTTP)
	}
	if len(l.Keys()) != 2 {
		t.Errorf("Keys() = %v", l.Keys())
	}
}
