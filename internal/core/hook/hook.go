// Package hook provides the two Hook implementations the coordinator
// accepts and the single entry point it uses to invoke them.
//
// A Func runs to completion on the caller's goroutine. A Deferred
// starts work and hands back a channel; Invoke suspends until the
// result arrives or the context ends. The coordinator never tells the
// two apart: it always goes through Call.
package hook

import (
	"context"
	"fmt"

	"github.com/yndnr/loresync/internal/core/domain"
)

// Result is what a Deferred hook eventually delivers.
type Result struct {
	OK  bool
	Err error
}

// Func is a hook invoked directly.
type Func func(ctx context.Context, payload domain.Payload) (bool, error)

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, payload domain.Payload) (bool, error) {
	return f(ctx, payload)
}

// Deferred is a hook whose result arrives later on a channel.
type Deferred func(ctx context.Context, payload domain.Payload) <-chan Result

// Invoke starts d and waits for its result.
func (d Deferred) Invoke(ctx context.Context, payload domain.Payload) (bool, error) {
	ch := d(ctx, payload)
	if ch == nil {
		return false, fmt.Errorf("deferred hook returned a nil channel")
	}
	select {
	case r, ok := <-ch:
		if !ok {
			return false, fmt.Errorf("deferred hook closed without a result")
		}
		return r.OK, r.Err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Notify adapts a notification callback (change, success or error hook).
func Notify(fn func(ctx context.Context, payload domain.Payload) error) Func {
	return func(ctx context.Context, payload domain.Payload) (bool, error) {
		if err := fn(ctx, payload); err != nil {
			return false, err
		}
		return true, nil
	}
}

// Check adapts a predicate into a validation hook.
func Check(fn func(ctx context.Context, payload domain.Payload) bool) Func {
	return func(ctx context.Context, payload domain.Payload) (bool, error) {
		return fn(ctx, payload), nil
	}
}

// Async runs fn on its own goroutine and exposes it as a Deferred hook.
func Async(fn func(ctx context.Context, payload domain.Payload) (bool, error)) Deferred {
	return func(ctx context.Context, payload domain.Payload) <-chan Result {
		ch := make(chan Result, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					ch <- Result{Err: domain.ErrHookPanic.WithDetails(fmt.Sprint(r))}
				}
			}()
			ok, err := fn(ctx, payload)
			ch <- Result{OK: ok, Err: err}
		}()
		return ch
	}
}

// Call invokes h. Errors come back wrapped in domain.ErrHookFailure and
// panics are recovered into domain.ErrHookPanic, so a misbehaving hook
// can never unwind the caller. A nil hook succeeds.
func Call(ctx context.Context, h domain.Hook, payload domain.Payload) (ok bool, err error) {
	if h == nil {
		return true, nil
	}

	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = domain.ErrHookPanic.WithDetails(fmt.Sprint(r))
		}
	}()

	ok, err = h.Invoke(ctx, payload)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrHookPanic.Code) {
			return false, err
		}
		return false, domain.ErrHookFailure.WithCause(err)
	}
	return ok, nil
}

// RequireKeys is a validation hook accepting payloads that carry every
// key in keys at the top level.
func RequireKeys(keys ...string) Func {
	keys = append([]string(nil), keys...)
	return Check(func(_ context.Context, payload domain.Payload) bool {
		return len(MissingKeys(payload, keys)) == 0
	})
}

// MissingKeys returns the keys absent from payload, in order.
func MissingKeys(payload domain.Payload, keys []string) []string {
	var missing []string
	for _, k := range keys {
		if _, ok := payload[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
