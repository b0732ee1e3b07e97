// Package domain defines the core domain models for loresync.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Payload: opaque nested subsystem state, its canonical encoding and fingerprint
//   - Snapshot: immutable capture of one subsystem's payload at a version
//   - Operation: lifecycle record of one propagation attempt and its status machine
//   - Hook: the single capability interface every caller-supplied callback satisfies
//   - Errors: domain-specific error definitions
package domain
