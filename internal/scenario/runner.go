package scenario

import (
	"context"
	"fmt"
	"sort"

	"github.com/yndnr/loresync/internal/core/domain"
	"github.com/yndnr/loresync/internal/core/hook"
	"github.com/yndnr/loresync/internal/core/service"
	"github.com/yndnr/loresync/internal/telemetry/logger"
	"github.com/yndnr/loresync/internal/telemetry/metric"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Index       int    `json:"index"`
	Op          string `json:"op"`
	Name        string `json:"name,omitempty"`
	Target      string `json:"target"`
	Outcome     string `json:"outcome"`
	Expect      string `json:"expect,omitempty"`
	Matched     bool   `json:"matched"`
	OperationID string `json:"operation_id,omitempty" table:"wide"`
	Error       string `json:"error,omitempty" table:"wide"`
}

// SubsystemState is a subsystem as it stands after the last step.
type SubsystemState struct {
	ID          string         `json:"id"`
	Version     uint64         `json:"version"`
	Changes     int            `json:"changes"`
	Valid       bool           `json:"valid"`
	Fingerprint string         `json:"fingerprint" table:"wide"`
	Payload     domain.Payload `json:"payload" table:"wide"`
}

// Report collects everything a run produced.
type Report struct {
	Name       string           `json:"name"`
	Steps      []StepResult     `json:"steps"`
	Subsystems []SubsystemState `json:"subsystems"`
	Stats      service.Stats    `json:"stats"`
	Mismatches int              `json:"mismatches"`
}

// Option configures a run.
type Option func(*runner)

// WithLogger sets the coordinator logger. Runs are silent by default.
func WithLogger(l logger.Logger) Option {
	return func(r *runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics records coordinator metrics during the run.
func WithMetrics(m *metric.Metrics) Option {
	return func(r *runner) { r.metrics = m }
}

type runner struct {
	log     logger.Logger
	metrics *metric.Metrics
	coord   *service.Coordinator
	changes map[string]int
	ops     map[string]string
}

// Run executes s against a fresh coordinator. Failed expectations are
// counted in the report, not returned as errors; an error means the
// scenario could not be set up.
func Run(ctx context.Context, s *Scenario, opts ...Option) (*Report, error) {
	r := &runner{
		log:     logger.Discard(),
		changes: make(map[string]int),
		ops:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.coord = service.NewCoordinator(service.WithLogger(r.log), service.WithMetrics(r.metrics))

	for _, sub := range s.Subsystems {
		if !r.register(ctx, sub) {
			return nil, fmt.Errorf("scenario: register %q failed", sub.ID)
		}
	}

	rep := &Report{Name: s.Name}
	for i, st := range s.Steps {
		res := r.step(ctx, st)
		res.Index = i + 1
		res.Op = st.Op
		res.Name = st.Name
		res.Expect = st.Expect
		res.Matched = st.Expect == "" || st.Expect == res.Outcome
		if !res.Matched {
			rep.Mismatches++
		}
		rep.Steps = append(rep.Steps, res)
	}

	ids := r.coord.Subsystems()
	sort.Strings(ids)
	for _, id := range ids {
		snap, ok := r.coord.CurrentSnapshot(id)
		if !ok {
			continue
		}
		rep.Subsystems = append(rep.Subsystems, SubsystemState{
			ID:          id,
			Version:     snap.Version(),
			Changes:     r.changes[id],
			Valid:       r.coord.Validate(ctx, id),
			Fingerprint: snap.Fingerprint(),
			Payload:     snap.Payload().Clone(),
		})
	}
	rep.Stats = r.coord.Stats()
	return rep, nil
}

func (r *runner) register(ctx context.Context, sub Subsystem) bool {
	id := sub.ID
	opts := []service.RegisterOption{
		service.WithChangeHook(hook.Notify(func(context.Context, domain.Payload) error {
			r.changes[id]++
			return nil
		})),
	}
	if len(sub.Require) > 0 {
		opts = append(opts, service.WithValidator(validator(sub.Require, sub.Deferred)))
	}
	return r.coord.Register(ctx, id, domain.Payload(sub.Payload), opts...)
}

func validator(keys []string, deferred bool) domain.Hook {
	check := hook.RequireKeys(keys...)
	if !deferred {
		return check
	}
	return hook.Async(func(ctx context.Context, p domain.Payload) (bool, error) {
		return check(ctx, p)
	})
}

func (r *runner) step(ctx context.Context, st Step) StepResult {
	switch st.Op {
	case OpRegister:
		res := StepResult{Target: st.Subsystem, Outcome: ExpectOK}
		if !r.register(ctx, Subsystem{ID: st.Subsystem, Payload: st.Payload}) {
			res.Outcome = ExpectError
		}
		return res

	case OpPropagate:
		var opts []service.PropagateOption
		if st.OperationID != "" {
			opts = append(opts, service.WithOperationID(st.OperationID))
		}
		id, err := r.coord.Propagate(ctx, st.Source, st.Targets, domain.Payload(st.Payload), opts...)
		if st.Name != "" && id != "" {
			r.ops[st.Name] = id
		}
		res := StepResult{Target: st.Source, Outcome: ExpectOK, OperationID: id}
		if err != nil {
			res.Outcome = ExpectError
			res.Error = err.Error()
		}
		return res

	case OpRollback:
		id := st.OperationID
		if id == "" {
			id = r.ops[st.Ref]
		}
		res := StepResult{Target: id, OperationID: id, Outcome: ExpectIgnored}
		if id != "" && r.coord.Rollback(ctx, id) {
			res.Outcome = ExpectApplied
		}
		return res

	case OpValidate:
		res := StepResult{Target: st.Subsystem, Outcome: ExpectInvalid}
		if r.coord.Validate(ctx, st.Subsystem) {
			res.Outcome = ExpectValid
		}
		return res

	case OpTamper:
		res := StepResult{Target: st.Subsystem, Outcome: ExpectOK}
		snap, ok := r.coord.CurrentSnapshot(st.Subsystem)
		if !ok {
			res.Outcome = ExpectError
			res.Error = domain.ErrUnregisteredSystem.Error()
			return res
		}
		// Writes into the stored payload on purpose; only Validate
		// should notice.
		stored := snap.Payload()
		for k, v := range st.Set {
			stored[k] = v
		}
		return res
	}
	return StepResult{Outcome: ExpectError, Error: "unknown op " + st.Op}
}
