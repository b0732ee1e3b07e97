package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Status is the lifecycle state of a propagation operation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRolledBack Status = "rolled_back"
)

// transitions lists the allowed next states. pending is transient and
// rolled_back is reachable only from failed.
var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusRolledBack},
}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted, StatusFailed, StatusRolledBack}
}

// CanTransition reports whether the state machine allows s -> to.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Operation is the record of one propagation attempt.
//
// Records are copy-on-write: Transition and Fail return a new record and
// leave the receiver untouched, so a stored record can be read without
// locking while a newer one is being prepared.
type Operation struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Targets     []string   `json:"targets"`
	Snapshot    *Snapshot  `json:"snapshot,omitempty"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	SuccessHooks []Hook `json:"-"`
	ErrorHooks   []Hook `json:"-"`
}

// NewOperation creates a pending record.
func NewOperation(id, source string, targets []string, at time.Time) *Operation {
	return &Operation{
		ID:        id,
		Source:    source,
		Targets:   append([]string(nil), targets...),
		Status:    StatusPending,
		StartedAt: at,
	}
}

// GenerateOperationID derives an operation id from the source subsystem
// and the current time: {source}-{ulid_lowercase}.
func GenerateOperationID(source string, at time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(at), entropy)
	if err != nil {
		return "", ErrInvalidArgument.WithCause(err)
	}
	return source + "-" + strings.ToLower(id.String()), nil
}

// Clone returns a copy whose slices can be changed independently.
func (o *Operation) Clone() *Operation {
	c := *o
	c.Targets = append([]string(nil), o.Targets...)
	c.SuccessHooks = append([]Hook(nil), o.SuccessHooks...)
	c.ErrorHooks = append([]Hook(nil), o.ErrorHooks...)
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// WithSnapshot returns a copy carrying snap.
func (o *Operation) WithSnapshot(snap *Snapshot) *Operation {
	c := o.Clone()
	c.Snapshot = snap
	return c
}

// Transition returns a copy moved to status to.
func (o *Operation) Transition(to Status, at time.Time) (*Operation, error) {
	if !o.Status.CanTransition(to) {
		return nil, ErrInvalidTransition.WithDetails(string(o.Status) + " -> " + string(to))
	}
	c := o.Clone()
	c.Status = to
	if to == StatusCompleted || to == StatusFailed {
		c.CompletedAt = &at
	}
	return c, nil
}

// Fail returns a copy moved to failed with cause recorded.
func (o *Operation) Fail(cause error, at time.Time) (*Operation, error) {
	c, err := o.Transition(StatusFailed, at)
	if err != nil {
		return nil, err
	}
	if cause != nil {
		c.Error = cause.Error()
	}
	return c, nil
}

// Duration returns the time between start and completion, or zero while
// the operation is still running.
func (o *Operation) Duration() time.Duration {
	if o.CompletedAt == nil {
		return 0
	}
	return o.CompletedAt.Sub(o.StartedAt)
}
