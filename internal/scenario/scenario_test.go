package scenario

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/loresync/internal/core/domain"
	"github.com/yndnr/loresync/internal/telemetry/metric"
)

func TestLoad(t *testing.T) {
	s, err := Load("testdata/tavern-brawl.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "tavern brawl" {
		t.Errorf("Name = %q", s.Name)
	}
	if len(s.Subsystems) != 3 || len(s.Steps) != 7 {
		t.Fatalf("got %d subsystems, %d steps", len(s.Subsystems), len(s.Steps))
	}
	if !s.Subsystems[2].Deferred {
		t.Error("tension should be deferred")
	}
	if got := s.Steps[0].Targets; len(got) != 1 || got[0] != "combat" {
		t.Errorf("Targets = %v", got)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "empty document"},
		{"unknown field", "name: x\ncolour: red\n", "colour"},
		{"subsystem without id", "subsystems:\n  - payload: {a: 1}\n", "id is required"},
		{"unknown op", "steps:\n  - op: explode\n", "unknown op"},
		{"bad expectation", "steps:\n  - op: validate\n    subsystem: a\n    expect: applied\n", "cannot expect"},
		{"propagate without source", "steps:\n  - op: propagate\n", "needs a source"},
		{"rollback without ref", "steps:\n  - op: rollback\n", "needs ref"},
		{"forward ref", "steps:\n  - op: rollback\n    ref: later\n  - op: propagate\n    name: later\n    source: a\n", "earlier step"},
		{"duplicate name", "steps:\n  - op: validate\n    name: v\n    subsystem: a\n  - op: validate\n    name: v\n    subsystem: a\n", "duplicate name"},
		{"tamper without subsystem", "steps:\n  - op: tamper\n", "needs a subsystem"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("Parse succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestRun_TavernBrawl(t *testing.T) {
	s, err := Load("testdata/tavern-brawl.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	reg := prometheus.NewRegistry()
	rep, err := Run(context.Background(), s, WithMetrics(metric.New(reg)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rep.Mismatches != 0 {
		for _, st := range rep.Steps {
			if !st.Matched {
				t.Errorf("step %d (%s): outcome %s, want %s (%s)", st.Index, st.Op, st.Outcome, st.Expect, st.Error)
			}
		}
	}

	if !strings.HasPrefix(rep.Steps[0].OperationID, "world-") {
		t.Errorf("operation id = %q", rep.Steps[0].OperationID)
	}
	if !strings.Contains(rep.Steps[1].Error, "LS-SYNC-4220") {
		t.Errorf("bad-mood error = %q", rep.Steps[1].Error)
	}

	states := make(map[string]SubsystemState)
	for _, st := range rep.Subsystems {
		states[st.ID] = st
	}
	if got := states["combat"]; got.Version != 1 || got.Changes != 1 || got.Valid {
		t.Errorf("combat = %+v", got)
	}
	if got := states["tension"]; got.Version != 0 || got.Changes != 0 || !got.Valid {
		t.Errorf("tension = %+v", got)
	}
	if got := states["world"]; got.Version != 0 || !got.Valid {
		t.Errorf("world = %+v", got)
	}

	if rep.Stats.Subsystems != 3 {
		t.Errorf("Stats.Subsystems = %d", rep.Stats.Subsystems)
	}
	if rep.Stats.Operations[domain.StatusCompleted] != 1 || rep.Stats.Operations[domain.StatusRolledBack] != 1 {
		t.Errorf("Stats.Operations = %v", rep.Stats.Operations)
	}

	want := `
# HELP loresync_rollbacks_total Rollback requests by result (applied or ignored).
# TYPE loresync_rollbacks_total counter
loresync_rollbacks_total{result="applied"} 1
loresync_rollbacks_total{result="ignored"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "loresync_rollbacks_total"); err != nil {
		t.Error(err)
	}
}

func TestRun_DeferredValidatorAndRegisterStep(t *testing.T) {
	doc := `
subsystems:
  - id: world
  - id: quest
    require: [stage]
    deferred: true
steps:
  - op: propagate
    source: world
    targets: [quest]
    payload: {stage: 2}
    operation_id: quest-advance
    expect: ok
  - op: propagate
    source: world
    targets: [quest]
    payload: {stage: 3}
    operation_id: quest-advance
    expect: error
  - op: register
    subsystem: weather
    payload: {rain: true}
  - op: propagate
    source: weather
    targets: [quest, world]
    payload: {stage: 4}
    expect: ok
  - op: tamper
    subsystem: ghost
    set: {x: 1}
    expect: error
  - op: rollback
    operation_id: nope
    expect: ignored
`
	s, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rep, err := Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, st := range rep.Steps {
		if !st.Matched {
			t.Errorf("step %d (%s): outcome %s, want %s (%s)", st.Index, st.Op, st.Outcome, st.Expect, st.Error)
		}
	}
	if rep.Steps[1].OperationID != "" {
		t.Errorf("conflicting propagate returned id %q", rep.Steps[1].OperationID)
	}

	versions := make(map[string]uint64)
	for _, st := range rep.Subsystems {
		versions[st.ID] = st.Version
	}
	if versions["quest"] != 2 || versions["world"] != 1 || versions["weather"] != 0 {
		t.Errorf("versions = %v", versions)
	}
}

func TestRun_CountsMismatches(t *testing.T) {
	s := &Scenario{
		Subsystems: []Subsystem{{ID: "world"}},
		Steps: []Step{
			{Op: OpValidate, Subsystem: "world", Expect: ExpectInvalid},
			{Op: OpValidate, Subsystem: "world"},
		},
	}
	rep, err := Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Mismatches != 1 {
		t.Errorf("Mismatches = %d, want 1", rep.Mismatches)
	}
	if !rep.Steps[1].Matched {
		t.Error("step without expectation should match")
	}
}

func TestRun_RegisterFailure(t *testing.T) {
	s := &Scenario{Subsystems: []Subsystem{{ID: "bad", Payload: map[string]any{"ch": make(chan int)}}}}
	if _, err := Run(context.Background(), s); err == nil {
		t.Fatal("Run succeeded with an unencodable payload")
	}
}
