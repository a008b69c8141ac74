// Package memory holds the in-memory keyspace.
//
// A Keyspace is a fixed array of numbered Databases created at startup.
// Each Database maps string keys to domain values over a sharded
// concurrent map:
//
//   - Operations on different keys contend only on a shard lock, and only
//     for the duration of one map access.
//   - Value contents are guarded by the value's own lock.
//   - Lock order is shard, then value. Nothing takes a shard lock while
//     holding a value lock.
//
// A collection leaves its Database either by Delete/Set/Flush or through
// RemoveIfEmpty. In every case it is detached first, so a writer that still
// holds the pointer gets domain.ErrValueRemoved and retries.
package memory
