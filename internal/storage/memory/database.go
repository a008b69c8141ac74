package memory

import (
	"sort"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/pkg/cmap"
)

// Database is one numbered key space.
type Database struct {
	index int
	data  *cmap.Map[domain.Value]
}

// NewDatabase creates an empty database with the given index.
func NewDatabase(index int) *Database {
	return &Database{
		index: index,
		data:  cmap.New[domain.Value](),
	}
}

// Index returns the database number.
func (d *Database) Index() int {
	return d.index
}

// Get returns the value stored at key.
func (d *Database) Get(key string) (domain.Value, bool) {
	return d.data.Get(key)
}

// GetOrCreate returns the value at key, installing factory() when the key
// is absent. Under a race exactly one factory result is installed and every
// caller receives it; created is true only for the caller that installed it.
// The installed value is visible before the caller writes to it; commands
// use Create so a new key appears with its first write applied.
func (d *Database) GetOrCreate(key string, factory func() domain.Value) (v domain.Value, created bool) {
	v, loaded := d.data.GetOrCompute(key, factory)
	return v, !loaded
}

// Create installs the value returned by build when key is absent and
// returns the current value otherwise. build runs under the shard lock and
// must not block or touch the database. The key stays absent when build
// fails or yields an empty collection, so readers only ever see a value
// once its first write is complete.
func (d *Database) Create(key string, build func() (domain.Value, error)) (existing domain.Value, created bool, err error) {
	d.data.Compute(key, func(old domain.Value, loaded bool) (domain.Value, bool) {
		if loaded {
			existing = old
			return old, false
		}
		v, berr := build()
		if berr != nil {
			err = berr
			return nil, true
		}
		if isEmptyCollection(v) {
			return nil, true
		}
		created = true
		return v, false
	})
	return existing, created, err
}

// Set stores v at key, replacing any previous value of any type.
func (d *Database) Set(key string, v domain.Value) {
	d.data.Compute(key, func(old domain.Value, loaded bool) (domain.Value, bool) {
		if loaded && old != v {
			detach(old)
		}
		return v, false
	})
}

// SetWith stores the value chosen by fn. fn sees the current entry and
// returns the new value, or ok=false to leave the key untouched. It runs
// under the shard lock and must not block or touch the database.
func (d *Database) SetWith(key string, fn func(old domain.Value, exists bool) (v domain.Value, ok bool)) bool {
	stored := false
	d.data.Compute(key, func(old domain.Value, loaded bool) (domain.Value, bool) {
		v, ok := fn(old, loaded)
		if !ok {
			return old, !loaded
		}
		if loaded && old != v {
			detach(old)
		}
		stored = true
		return v, false
	})
	return stored
}

// SetIfAbsent stores v only when key is absent.
func (d *Database) SetIfAbsent(key string, v domain.Value) bool {
	return d.data.SetIfAbsent(key, v)
}

// SetIfPresent replaces the value at key only when key exists.
func (d *Database) SetIfPresent(key string, v domain.Value) bool {
	replaced := false
	d.data.Compute(key, func(old domain.Value, loaded bool) (domain.Value, bool) {
		if !loaded {
			return nil, true
		}
		if old != v {
			detach(old)
		}
		replaced = true
		return v, false
	})
	return replaced
}

// Delete removes key and reports whether it existed.
func (d *Database) Delete(key string) bool {
	return d.data.RemoveIf(key, func(v domain.Value) bool {
		detach(v)
		return true
	})
}

// Exists reports whether key is present.
func (d *Database) Exists(key string) bool {
	return d.data.Has(key)
}

// Len returns the number of keys.
func (d *Database) Len() int {
	return d.data.Count()
}

// Flush removes every key.
func (d *Database) Flush() {
	for _, key := range d.data.Keys() {
		d.Delete(key)
	}
}

// Keys returns the keys matching a Redis glob pattern, sorted.
func (d *Database) Keys(pattern string) []string {
	var keys []string
	d.data.Range(func(key string, _ domain.Value) bool {
		if pattern == "*" || MatchPattern(pattern, key) {
			keys = append(keys, key)
		}
		return true
	})
	sort.Strings(keys)
	return keys
}

// RandomKey returns an arbitrary key.
func (d *Database) RandomKey() (string, bool) {
	return d.data.RandomKey()
}

// RemoveIfEmpty removes key when it still maps to v and v is an empty
// collection. v is detached under its own lock while the shard lock is
// held, so no write can land between the emptiness check and the removal.
//
// Strings are never removed for being empty.
func (d *Database) RemoveIfEmpty(key string, v domain.Value) bool {
	c, ok := v.(domain.Collection)
	if !ok || v.Type() == domain.TypeString {
		return false
	}
	return d.data.RemoveIf(key, func(cur domain.Value) bool {
		return cur == v && c.Detach(true)
	})
}

// Rename moves the value at src to dst, replacing dst. Renaming a key to
// itself is a no-op. The move is not atomic across the two keys: a reader
// may briefly see neither.
func (d *Database) Rename(src, dst string) error {
	if src == dst {
		if !d.data.Has(src) {
			return domain.ErrNoSuchKey
		}
		return nil
	}
	v, ok := d.data.Pop(src)
	if !ok {
		return domain.ErrNoSuchKey
	}
	d.Set(dst, v)
	return nil
}

func isEmptyCollection(v domain.Value) bool {
	c, ok := v.(domain.Collection)
	return ok && v.Type() != domain.TypeString && c.Len() == 0
}

// detach marks a value that left the database. It runs under the shard
// lock so a writer holding the old pointer either lands before the
// removal or sees ErrValueRemoved.
func detach(v domain.Value) {
	if dv, ok := v.(domain.Detachable); ok {
		dv.Detach(false)
	}
}
