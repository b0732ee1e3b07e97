package service

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yndnr/loresync/internal/core/domain"
	"github.com/yndnr/loresync/internal/core/hook"
	"github.com/yndnr/loresync/internal/storage/memory"
	"github.com/yndnr/loresync/internal/telemetry/logger"
	"github.com/yndnr/loresync/internal/telemetry/metric"
	"github.com/yndnr/loresync/internal/telemetry/tracer"
)

// Coordinator propagates state changes between registered subsystems.
// Build one per process with NewCoordinator and pass it by handle.
type Coordinator struct {
	// mu serializes every mutating call, hooks included.
	mu sync.Mutex

	registry   *registry
	snapshots  *memory.Snapshots
	operations *memory.Operations
	history    *memory.History

	log     logger.Logger
	metrics *metric.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Stats summarizes the coordinator tables.
type Stats struct {
	Subsystems int                   `json:"subsystems"`
	Operations map[domain.Status]int `json:"operations"`
}

// NewCoordinator creates a coordinator with empty tables.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		snapshots:  memory.NewSnapshots(),
		operations: memory.NewOperations(),
		history:    memory.NewHistory(),
		log:        logger.Default(),
		tracer:     tracer.Tracer(nil),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "coordinator")
	c.registry = newRegistry(c.snapshots, c.log, c.now)
	return c
}

// Register creates or replaces the registration of id with payload as
// its version-0 snapshot. It reports false instead of failing.
func (c *Coordinator) Register(ctx context.Context, id string, payload domain.Payload, opts ...RegisterOption) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.register(ctx, id, payload, opts...)
}

// Subscribe adds a change hook to an already registered subsystem.
func (c *Coordinator) Subscribe(_ context.Context, id string, h domain.Hook) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.subscribe(id, h)
}

// Lookup returns the registration of id.
func (c *Coordinator) Lookup(id string) (*Registration, bool) {
	return c.registry.lookup(id)
}

// Subsystems returns the registered ids, sorted.
func (c *Coordinator) Subsystems() []string {
	return c.registry.ids()
}

// Propagate installs payload in every target, in order, on behalf of
// source, and returns the operation id.
//
// The source is not modified: a snapshot of payload at the source's
// next version is only attached to the operation record. Every id must
// be registered or the call fails with domain.ErrUnregisteredSystem
// before any target changes. A target whose validator rejects the
// payload (or fails) stops the fan-out with domain.ErrValidationFailed;
// targets already processed keep the new state.
//
// Success and error hooks receive an operation event payload with the
// keys operation_id, source, targets, status and payload, plus error on
// failure.
//
// The operation id is returned on failure too, so the caller can
// inspect or roll back the operation. It is empty only when the record
// could not be created (for example a reused WithOperationID).
func (c *Coordinator) Propagate(ctx context.Context, source string, targets []string, payload domain.Payload, opts ...PropagateOption) (string, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.Propagate", trace.WithAttributes(
		attribute.String("loresync.source", source),
		attribute.StringSlice("loresync.targets", targets),
	))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	var cfg propagateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	started := c.now()
	id := cfg.operationID
	if id == "" {
		var err error
		if id, err = domain.GenerateOperationID(source, started); err != nil {
			return "", err
		}
	}

	op := domain.NewOperation(id, source, targets, started)
	op.SuccessHooks = cfg.successHooks
	op.ErrorHooks = cfg.errorHooks
	if err := c.operations.Create(op); err != nil {
		c.log.Warn("propagation refused", "operation_id", id, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("loresync.operation_id", id))

	ctx = logger.WithLogger(logger.WithOperationID(ctx, id), c.log)
	log := logger.L(ctx).With("source", source)

	op = c.store(ctx, op, domain.StatusInProgress)
	log.Debug("propagation started", "targets", targets)

	snap, err := c.capture(source, targets, payload)
	if err != nil {
		return id, c.fail(ctx, op, payload, started, err)
	}
	op = op.WithSnapshot(snap)
	c.replace(ctx, op)

	for _, target := range targets {
		if err := c.apply(ctx, target, payload); err != nil {
			return id, c.fail(ctx, op, payload, started, err)
		}
	}

	op = c.store(ctx, op, domain.StatusCompleted)
	span.SetAttributes(attribute.Int64("loresync.version", int64(snap.Version())))
	c.metrics.ObservePropagation(string(domain.StatusCompleted), c.now().Sub(started))
	log.Debug("propagation completed", "version", snap.Version())

	event := operationEvent(op, payload, nil)
	for _, h := range op.SuccessHooks {
		c.invoke(ctx, metric.HookSuccess, h, event)
	}
	return id, nil
}

// capture checks the preconditions and snapshots payload for the source
// at its next version. Nothing is written.
func (c *Coordinator) capture(source string, targets []string, payload domain.Payload) (*domain.Snapshot, error) {
	version, ok := c.snapshots.Version(source)
	if !ok {
		return nil, domain.UnregisteredSystem(source)
	}
	if missing := c.registry.missing(targets); len(missing) > 0 {
		return nil, domain.UnregisteredSystem(missing...)
	}
	return domain.NewSnapshot(source, payload, version+1, c.now())
}

// apply validates payload for target and, if accepted, installs it as
// the target's next version and notifies the target's change hooks.
func (c *Coordinator) apply(ctx context.Context, target string, payload domain.Payload) error {
	reg, ok := c.registry.lookup(target)
	if !ok {
		return domain.UnregisteredSystem(target)
	}
	tctx := logger.WithSubsystem(ctx, target)

	if reg.Validator != nil {
		accepted := c.invoke(tctx, metric.HookValidation, reg.Validator, payload.Clone())
		if !accepted {
			logger.L(tctx).Info("payload rejected by validator")
			return domain.ValidationFailed(target)
		}
	}

	version, _ := c.snapshots.Version(target)
	snap, err := domain.NewSnapshot(target, payload, version+1, c.now())
	if err != nil {
		return err
	}
	c.snapshots.Put(snap)
	c.notifyChange(tctx, reg, snap)
	return nil
}

// Rollback restores the targets of a failed operation from the history
// at the version preceding the operation's snapshot. Targets with no
// history entry are left as they are. It returns false without changing
// anything unless the operation exists and has failed; otherwise the
// operation becomes rolled_back and Rollback returns true, whether or
// not any target was restored.
func (c *Coordinator) Rollback(ctx context.Context, opID string) (applied bool) {
	ctx, span := c.tracer.Start(ctx, "coordinator.Rollback", trace.WithAttributes(
		attribute.String("loresync.operation_id", opID),
	))
	defer func() {
		span.SetAttributes(attribute.Bool("loresync.applied", applied))
		span.End()
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx = logger.WithLogger(logger.WithOperationID(ctx, opID), c.log)
	log := logger.L(ctx)

	op, ok := c.operations.Get(opID)
	if !ok {
		log.Warn("rollback ignored: unknown operation")
		c.metrics.RollbackRequested(false)
		return false
	}
	if op.Status != domain.StatusFailed {
		log.Warn("rollback ignored: operation not failed", "status", op.Status)
		c.metrics.RollbackRequested(false)
		return false
	}

	restored := 0
	if op.Snapshot != nil && op.Snapshot.Version() > 0 {
		previous := op.Snapshot.Version() - 1
		for _, target := range op.Targets {
			snap, found := c.history.Find(target, previous)
			if !found {
				continue
			}
			c.snapshots.Put(snap)
			restored++
			if reg, ok := c.registry.lookup(target); ok {
				c.notifyChange(logger.WithSubsystem(ctx, target), reg, snap)
			}
		}
	}

	c.store(ctx, op, domain.StatusRolledBack)
	c.metrics.RollbackRequested(true)
	log.Info("operation rolled back", "restored_targets", restored)
	return true
}

// Validate reports whether the current snapshot of id still matches its
// fingerprint and, when id has a validator, whether the validator
// accepts it.
func (c *Coordinator) Validate(ctx context.Context, id string) (valid bool) {
	ctx, span := c.tracer.Start(ctx, "coordinator.Validate", trace.WithAttributes(
		attribute.String("loresync.subsystem", id),
	))
	defer func() {
		span.SetAttributes(attribute.Bool("loresync.valid", valid))
		span.End()
	}()

	ctx = logger.WithLogger(logger.WithSubsystem(ctx, id), c.log)
	log := logger.L(ctx)

	snap, ok := c.snapshots.Get(id)
	if !ok {
		log.Warn("validate: subsystem not registered")
		c.metrics.Validated(false)
		return false
	}

	fp, err := snap.RecomputeFingerprint()
	if err != nil || fp != snap.Fingerprint() {
		log.Warn("fingerprint mismatch",
			"stored", snap.Fingerprint(),
			"computed", fp,
			"version", snap.Version(),
		)
		c.metrics.Validated(false)
		return false
	}

	if reg, ok := c.registry.lookup(id); ok && reg.Validator != nil {
		if !c.invoke(ctx, metric.HookValidation, reg.Validator, snap.Payload().Clone()) {
			log.Info("validate: validator rejected current state")
			c.metrics.Validated(false)
			return false
		}
	}

	c.metrics.Validated(true)
	return true
}

// Status returns a copy of the operation record.
func (c *Coordinator) Status(opID string) (*domain.Operation, bool) {
	op, ok := c.operations.Get(opID)
	if !ok {
		return nil, false
	}
	return op.Clone(), true
}

// Operations returns copies of every operation record, oldest first.
func (c *Coordinator) Operations() []*domain.Operation {
	return cloneAll(c.operations.List())
}

// OperationsFrom returns copies of the operations started by source.
func (c *Coordinator) OperationsFrom(source string) []*domain.Operation {
	return cloneAll(c.operations.ListBySource(source))
}

// CurrentPayload returns a copy of the current payload of id.
func (c *Coordinator) CurrentPayload(id string) (domain.Payload, bool) {
	snap, ok := c.snapshots.Get(id)
	if !ok {
		return nil, false
	}
	return snap.Payload().Clone(), true
}

// CurrentVersion returns the current version of id.
func (c *Coordinator) CurrentVersion(id string) (uint64, bool) {
	return c.snapshots.Version(id)
}

// CurrentSnapshot returns the current snapshot of id. Callers must not
// write to its payload.
func (c *Coordinator) CurrentSnapshot(id string) (*domain.Snapshot, bool) {
	return c.snapshots.Get(id)
}

// Stats returns table sizes.
func (c *Coordinator) Stats() Stats {
	return Stats{
		Subsystems: c.registry.len(),
		Operations: c.operations.CountByStatus(),
	}
}

// SubsystemCount implements metric.StatsSource.
func (c *Coordinator) SubsystemCount() int {
	return c.registry.len()
}

// OperationCounts implements metric.StatsSource.
func (c *Coordinator) OperationCounts() map[string]int {
	counts := c.operations.CountByStatus()
	out := make(map[string]int, len(counts))
	for s, n := range counts {
		out[string(s)] = n
	}
	return out
}

// fail records cause on op, runs its error hooks and returns cause.
func (c *Coordinator) fail(ctx context.Context, op *domain.Operation, payload domain.Payload, started time.Time, cause error) error {
	failed, err := op.Fail(cause, c.now())
	if err != nil {
		logger.L(ctx).Error("operation status not updated", "error", err)
		failed = op
	} else {
		c.replace(ctx, failed)
	}

	c.metrics.ObservePropagation(string(domain.StatusFailed), c.now().Sub(started))
	logger.L(ctx).Warn("propagation failed", "error", cause)

	span := trace.SpanFromContext(ctx)
	span.RecordError(cause)
	span.SetStatus(codes.Error, domain.GetErrorCode(cause))

	event := operationEvent(failed, payload, cause)
	for _, h := range failed.ErrorHooks {
		c.invoke(ctx, metric.HookError, h, event)
	}
	return cause
}

// store moves op to status and saves it. On a refused transition the
// unchanged record is returned.
func (c *Coordinator) store(ctx context.Context, op *domain.Operation, status domain.Status) *domain.Operation {
	next, err := op.Transition(status, c.now())
	if err != nil {
		logger.L(ctx).Error("operation status not updated", "error", err)
		return op
	}
	c.replace(ctx, next)
	return next
}

func (c *Coordinator) replace(ctx context.Context, op *domain.Operation) {
	if err := c.operations.Replace(op); err != nil {
		logger.L(ctx).Error("operation record not saved", "error", err)
	}
}

func (c *Coordinator) notifyChange(ctx context.Context, reg *Registration, snap *domain.Snapshot) {
	for _, h := range reg.ChangeHooks {
		c.invoke(ctx, metric.HookChange, h, snap.Payload().Clone())
	}
}

// invoke runs h, logging and counting any failure. It returns the
// hook's verdict, false on failure. Hooks keep the caller's context
// values but not its cancellation: a deferred hook is awaited until it
// yields.
func (c *Coordinator) invoke(ctx context.Context, kind string, h domain.Hook, payload domain.Payload) bool {
	ok, err := hook.Call(context.WithoutCancel(ctx), h, payload)
	if err != nil {
		c.metrics.HookFailed(kind)
		logger.L(ctx).Warn("hook failed", "kind", kind, "error", err)
		return false
	}
	return ok
}

func operationEvent(op *domain.Operation, payload domain.Payload, cause error) domain.Payload {
	targets := make([]any, len(op.Targets))
	for i, t := range op.Targets {
		targets[i] = t
	}
	event := domain.Payload{
		"operation_id": op.ID,
		"source":       op.Source,
		"targets":      targets,
		"status":       string(op.Status),
		"payload":      payload.Clone(),
	}
	if op.Snapshot != nil {
		event["version"] = op.Snapshot.Version()
	}
	if cause != nil {
		event["error"] = cause.Error()
	}
	return event
}

func cloneAll(ops []*domain.Operation) []*domain.Operation {
	out := make([]*domain.Operation, len(ops))
	for i, op := range ops {
		out[i] = op.Clone()
	}
	return out
}
