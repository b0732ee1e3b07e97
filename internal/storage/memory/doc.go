// Package memory provides the in-memory tables behind the coordinator.
//
// Tables:
//
//   - Snapshots: the current snapshot slot of every subsystem
//   - Operations: every propagation record ever started, with a
//     secondary index by source subsystem
//   - History: superseded snapshots addressable by subsystem and version
//
// Thread Safety:
//
// Every table is backed by pkg/cmap, so reads are safe while the
// coordinator writes. Stored values are immutable (snapshots) or
// replaced wholesale (operation records), never modified in place.
// Nothing here is persisted.
package memory
