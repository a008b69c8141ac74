// Package cmap provides the concurrent map behind each MemKV database.
//
// The map is split into shards, each guarded by its own RWMutex, and keys
// are routed to shards with murmur3:
//
//   - Sharding: power-of-two shard count, default 32
//   - Fine-grained Locking: a shard lock is held only for one map access
//   - Atomic helpers: GetOrCompute, RemoveIf, SetIfAbsent, Pop
//   - Iteration: shard-by-shard under read locks
//
// Usage:
//
//	m := cmap.New[domain.Value]()
//	v, loaded := m.GetOrCompute("key", newHash)
//
// Thread Safety:
//
// All operations are safe for concurrent use. Operations on keys in
// different shards never contend. Callbacks passed to GetOrCompute and
// RemoveIf run with the shard lock held and must not call back into the
// map.
package cmap
