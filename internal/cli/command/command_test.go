package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/loresync/internal/core/domain"
	"github.com/yndnr/loresync/internal/core/hook"
	"github.com/yndnr/loresync/internal/core/service"
	"github.com/yndnr/loresync/internal/server/httpserver"
	"github.com/yndnr/loresync/internal/telemetry/logger"
)

// newServer starts an inspection server over a coordinator holding one
// completed and one failed operation.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	c := service.NewCoordinator(service.WithLogger(logger.Discard()))
	c.Register(ctx, "world", domain.Payload{"day": 1})
	c.Register(ctx, "combat", domain.Payload{"active": false}, service.WithValidator(hook.RequireKeys("active")))
	c.Register(ctx, "vault", domain.Payload{"secret_door": "hunter2"})

	if _, err := c.Propagate(ctx, "world", []string{"combat"}, domain.Payload{"active": true}, service.WithOperationID("op-ok")); err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if _, err := c.Propagate(ctx, "vault", []string{"combat"}, domain.Payload{}, service.WithOperationID("op-bad")); err == nil {
		t.Fatal("Propagate without required key succeeded")
	}

	srv := httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		Coordinator: c,
		Logger:      logger.Discard(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

// run executes the CLI with args and returns stdout and the error.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"loresync-cli"}, args...))
	return stdout.String(), err
}

func exitCode(err error) int {
	if ec, ok := err.(cli.ExitCoder); ok {
		return ec.ExitCode()
	}
	return -1
}

func TestApp_Commands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range App().Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"simulate", "status", "subsystems", "operations", "version"} {
		if !names[want] {
			t.Errorf("missing command %q", want)
		}
	}
}

func TestApp_RejectsUnknownOutput(t *testing.T) {
	if _, err := run(t, "-o", "xml", "version"); err == nil {
		t.Fatal("unknown output format accepted")
	}
}

func TestVersion_JSON(t *testing.T) {
	out, err := run(t, "-o", "json", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var info struct {
		Version   string `json:"version"`
		GoVersion string `json:"go_version"`
	}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if info.Version == "" || !strings.HasPrefix(info.GoVersion, "go") {
		t.Errorf("info = %+v", info)
	}
}

func TestStatus(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, "--server", srv.URL, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"healthy", "SUBSYSTEMS", "operations:", "completed", "failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	out, err = run(t, "--server", srv.URL, "-o", "json", "status")
	if err != nil {
		t.Fatalf("status json: %v", err)
	}
	var v statusView
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Stats.Subsystems != 3 || v.Stats.Operations[domain.StatusFailed] != 1 {
		t.Errorf("stats = %+v", v.Stats)
	}
}

func TestSubsystems(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, "--server", srv.URL, "subsystems", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[0], "ID") {
		t.Fatalf("list output:\n%s", out)
	}
	if strings.Contains(lines[0], "FINGERPRINT") {
		t.Error("fingerprint shown without --wide")
	}

	out, err = run(t, "--server", srv.URL, "--wide", "sub", "list")
	if err != nil {
		t.Fatalf("list --wide: %v", err)
	}
	if !strings.Contains(out, "FINGERPRINT") {
		t.Errorf("wide list:\n%s", out)
	}

	out, err = run(t, "--server", srv.URL, "-o", "yaml", "subsystems", "get", "vault")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if strings.Contains(out, "hunter2") || !strings.Contains(out, "id: vault") {
		t.Errorf("get output:\n%s", out)
	}

	if _, err := run(t, "--server", srv.URL, "subsystems", "get", "ghost"); err == nil || !strings.Contains(err.Error(), "LS-SYNC-4040") {
		t.Errorf("get ghost err = %v", err)
	}
	if _, err := run(t, "--server", srv.URL, "subsystems", "get"); exitCode(err) != 1 {
		t.Errorf("get without id err = %v", err)
	}
}

func TestSubsystemsValidate(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, "--server", srv.URL, "subsystems", "validate", "combat")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "true") {
		t.Errorf("validate output:\n%s", out)
	}
}

func TestOperations(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, "--server", srv.URL, "operations", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "op-ok") || !strings.Contains(out, "op-bad") {
		t.Errorf("list output:\n%s", out)
	}

	out, err = run(t, "--server", srv.URL, "ops", "list", "--source", "vault")
	if err != nil {
		t.Fatalf("list --source: %v", err)
	}
	if strings.Contains(out, "op-ok") || !strings.Contains(out, "op-bad") {
		t.Errorf("filtered output:\n%s", out)
	}

	out, err = run(t, "--server", srv.URL, "-o", "json", "operations", "get", "op-bad")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var op struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal([]byte(out), &op); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if op.Status != "failed" || !strings.Contains(op.Error, "LS-SYNC-4220") {
		t.Errorf("op = %+v", op)
	}

	if _, err := run(t, "--server", srv.URL, "operations", "get", "nope"); err == nil || !strings.Contains(err.Error(), "LS-OPER-4040") {
		t.Errorf("get nope err = %v", err)
	}
}

func writeScenario(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const brawl = `
name: brawl
subsystems:
  - id: world
  - id: combat
    require: [active]
steps:
  - op: propagate
    name: start
    source: world
    targets: [combat]
    payload: {active: true}
    expect: ok
  - op: rollback
    ref: start
    expect: ignored
`

func TestSimulate(t *testing.T) {
	path := writeScenario(t, brawl)

	out, err := run(t, "simulate", path)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	for _, want := range []string{"steps:", "subsystems:", "SCENARIO", "brawl", "ignored"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	out, err = run(t, "-o", "json", "simulate", "--metrics", path)
	if err != nil {
		t.Fatalf("simulate json: %v", err)
	}
	var sim struct {
		Name       string `json:"name"`
		Mismatches int    `json:"mismatches"`
		Steps      []struct {
			Outcome string `json:"outcome"`
		} `json:"steps"`
		Metrics []metricSample `json:"metrics"`
	}
	if err := json.Unmarshal([]byte(out), &sim); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sim.Name != "brawl" || sim.Mismatches != 0 || len(sim.Steps) != 2 {
		t.Errorf("sim = %+v", sim)
	}

	var propagated float64
	for _, m := range sim.Metrics {
		if m.Name == "loresync_propagations_total" && m.Labels == "status=completed" {
			propagated = m.Value
		}
	}
	if propagated != 1 {
		t.Errorf("metrics = %+v", sim.Metrics)
	}
}

func TestSimulate_Mismatch(t *testing.T) {
	path := writeScenario(t, strings.Replace(brawl, "expect: ignored", "expect: applied", 1))

	_, err := run(t, "simulate", path)
	if exitCode(err) != 1 || !strings.Contains(err.Error(), "1 step(s)") {
		t.Errorf("err = %v", err)
	}

	if _, err := run(t, "simulate", "--fail-on-mismatch=false", path); err != nil {
		t.Errorf("--fail-on-mismatch=false: %v", err)
	}
}

func TestSimulate_BadFile(t *testing.T) {
	if _, err := run(t, "simulate", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
	if _, err := run(t, "simulate", writeScenario(t, "steps:\n  - op: explode\n")); err == nil {
		t.Error("invalid scenario accepted")
	}
}
