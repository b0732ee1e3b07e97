package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yndnr/loresync/internal/core/domain"
	"github.com/yndnr/loresync/internal/storage/memory"
	"github.com/yndnr/loresync/internal/telemetry/logger"
	"github.com/yndnr/loresync/pkg/cmap"
)

// Registration is the coordinator's metadata about one subsystem.
type Registration struct {
	SubsystemID  string        `json:"subsystem_id"`
	ChangeHooks  []domain.Hook `json:"-"`
	Validator    domain.Hook   `json:"-"`
	RegisteredAt time.Time     `json:"registered_at"`
}

// RegisterOption configures a registration.
type RegisterOption func(*Registration)

// WithChangeHook adds a hook invoked each time the subsystem's snapshot
// is replaced. May be given more than once.
func WithChangeHook(h domain.Hook) RegisterOption {
	return func(r *Registration) {
		if h != nil {
			r.ChangeHooks = append(r.ChangeHooks, h)
		}
	}
}

// WithValidator sets the hook that must approve a payload before it is
// installed in this subsystem.
func WithValidator(h domain.Hook) RegisterOption {
	return func(r *Registration) {
		r.Validator = h
	}
}

// registry is the registration table. Writers are serialized by the
// coordinator mutex; entries are replaced, never edited, so readers
// need no lock beyond the map's own.
type registry struct {
	entries   *cmap.Map[string, *Registration]
	snapshots *memory.Snapshots
	log       logger.Logger
	now       func() time.Time
}

func newRegistry(snapshots *memory.Snapshots, log logger.Logger, now func() time.Time) *registry {
	return &registry{
		entries:   cmap.New[string, *Registration](),
		snapshots: snapshots,
		log:       log,
		now:       now,
	}
}

// register stores a fresh entry and a version-0 snapshot for id,
// replacing whatever was there. Failures are logged and reported as false.
func (r *registry) register(ctx context.Context, id string, payload domain.Payload, opts ...RegisterOption) (ok bool) {
	log := r.log.WithContext(logger.WithSubsystem(ctx, id)).With("subsystem", id)

	defer func() {
		if p := recover(); p != nil {
			log.Error("registration panicked", "panic", fmt.Sprint(p))
			ok = false
		}
	}()

	at := r.now()
	snap, err := domain.NewSnapshot(id, payload, 0, at)
	if err != nil {
		log.Warn("registration rejected", "error", err)
		return false
	}

	reg := &Registration{SubsystemID: id, RegisteredAt: at}
	for _, opt := range opts {
		opt(reg)
	}

	r.entries.Set(id, reg)
	r.snapshots.Put(snap)

	log.Info("subsystem registered",
		"fingerprint", snap.Fingerprint(),
		"change_hooks", len(reg.ChangeHooks),
		"validator", reg.Validator != nil,
	)
	return true
}

func (r *registry) lookup(id string) (*Registration, bool) {
	return r.entries.Get(id)
}

// subscribe appends a change hook to an existing entry.
func (r *registry) subscribe(id string, h domain.Hook) error {
	if h == nil {
		return domain.ErrInvalidArgument.WithDetails("hook is required")
	}
	reg, ok := r.entries.Get(id)
	if !ok {
		return domain.UnregisteredSystem(id)
	}
	next := *reg
	next.ChangeHooks = append(append([]domain.Hook(nil), reg.ChangeHooks...), h)
	r.entries.Set(id, &next)
	return nil
}

// missing returns the ids with no entry, in order and without repeats.
func (r *registry) missing(ids []string) []string {
	var out []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] || r.entries.Has(id) {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (r *registry) ids() []string {
	return r.entries.Keys()
}

func (r *registry) len() int {
	return r.entries.Len()
}
