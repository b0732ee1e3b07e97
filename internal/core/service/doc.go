// Package service implements the state synchronization coordinator.
//
// A Coordinator propagates a payload originating in one named subsystem
// ("world", "combat", "tension", ...) to other registered subsystems.
// Each accepted change installs a new versioned, fingerprinted snapshot
// in the target and notifies the target's change hooks.
//
// Locking:
//
// Register, Subscribe, Propagate and Rollback share one mutex and hold
// it for their whole run, hooks included. A hook that blocks stalls
// every other mutating call; cancelling the caller's context does not
// release it, since hooks run detached from that cancellation. Readers (Validate, Status, CurrentPayload,
// CurrentVersion, Operations, Stats) never take that mutex and can see
// a target already bumped while its change hooks are still running.
//
// Failure model:
//
// Unregistered subsystems are rejected before anything changes. A
// validator rejecting a target stops the fan-out there: earlier targets
// keep the new state and nothing compensates for them. Hook errors and
// panics are logged and counted, never returned.
package service
