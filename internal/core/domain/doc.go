// Package domain defines the typed values stored in a MemKV keyspace.
//
// Each value type owns its data and serializes its own mutations with an
// internal lock, so contention only arises between operations on the same
// key. This package contains:
//
//   - Value/Type: the polymorphic value and its type tag
//   - String, Hash, List, Set, SortedSet: concrete values
//   - Errors: command-level error definitions with their RESP prefixes
//
// Values never see the wire format. The dispatcher checks a value's type
// before calling a type-specific operation.
package domain
