// Package cmap provides a sharded, string-keyed concurrent map.
//
// Every table the coordinator reads without holding its own lock
// (snapshot slots, registrations, operation records) lives in a Map so
// that lock-free readers never race with writers:
//
//   - Sharding: keys are spread over a power-of-two number of shards
//     using murmur3
//   - Fine-grained locking: one RWMutex per shard
//   - Iteration: Range visits shard by shard, so it is not a point-in-time view
//
// Usage:
//
//	m := cmap.New[string, *domain.Snapshot]()
//	m.Set("world", snap)
//	snap, ok := m.Get("world")
package cmap
