package domain

import (
	"math"
	"sort"
	"strconv"
	"sync"
)

// Hash maps field names to values.
//
// Every operation runs under the hash's own lock. SetField decides whether
// the field is new and writes it in the same critical section, so the
// creation flag is exact under concurrent callers.
type Hash struct {
	mu      sync.RWMutex
	fields  map[string][]byte
	removed bool
}

// NewHash creates an empty hash.
func NewHash() *Hash {
	return &Hash{fields: make(map[string][]byte)}
}

// Type implements Value.
func (h *Hash) Type() Type { return TypeHash }

// SetField stores value under field. created is true iff the field did
// not exist immediately before the call.
func (h *Hash) SetField(field, value []byte) (created bool, err error) {
	if field == nil {
		return false, ErrInvalidArgument
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.removed {
		return false, ErrValueRemoved
	}
	k := string(field)
	_, exists := h.fields[k]
	h.fields[k] = cloneBytes(value)
	return !exists, nil
}

// SetFields stores field/value pairs atomically and returns how many
// fields were created. pairs must have even length.
func (h *Hash) SetFields(pairs [][]byte) (int, error) {
	if len(pairs)%2 != 0 {
		return 0, ErrInvalidArgument
	}
	for i := 0; i < len(pairs); i += 2 {
		if pairs[i] == nil {
			return 0, ErrInvalidArgument
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.removed {
		return 0, ErrValueRemoved
	}
	created := 0
	for i := 0; i < len(pairs); i += 2 {
		k := string(pairs[i])
		if _, exists := h.fields[k]; !exists {
			created++
		}
		h.fields[k] = cloneBytes(pairs[i+1])
	}
	return created, nil
}

// SetFieldIfAbsent stores value only when field is missing.
func (h *Hash) SetFieldIfAbsent(field, value []byte) (bool, error) {
	if field == nil {
		return false, ErrInvalidArgument
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.removed {
		return false, ErrValueRemoved
	}
	k := string(field)
	if _, exists := h.fields[k]; exists {
		return false, nil
	}
	h.fields[k] = cloneBytes(value)
	return true, nil
}

// GetField returns a copy of the value of field. ok is false when the
// field does not exist, which is distinct from an empty value.
func (h *Hash) GetField(field []byte) (value []byte, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	v, ok := h.fields[string(field)]
	if !ok {
		return nil, false
	}
	return cloneBytes(v), true
}

// Exists reports whether field is present.
func (h *Hash) Exists(field []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.fields[string(field)]
	return ok
}

// RemoveField deletes field and reports whether it existed.
func (h *Hash) RemoveField(field []byte) bool {
	return h.RemoveFields(field) == 1
}

// RemoveFields deletes the given fields and returns how many existed.
func (h *Hash) RemoveFields(fields ...[]byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for _, f := range fields {
		k := string(f)
		if _, ok := h.fields[k]; ok {
			delete(h.fields, k)
			removed++
		}
	}
	return removed
}

// FieldCount returns the number of fields.
func (h *Hash) FieldCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.fields)
}

// Len implements Collection.
func (h *Hash) Len() int {
	return h.FieldCount()
}

// GetAll returns [field, value, field, value, ...] ordered by field name.
func (h *Hash) GetAll() [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := h.sortedKeysLocked()
	out := make([][]byte, 0, 2*len(keys))
	for _, k := range keys {
		out = append(out, []byte(k), cloneBytes(h.fields[k]))
	}
	return out
}

// Fields returns the field names in order.
func (h *Hash) Fields() [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := h.sortedKeysLocked()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out
}

// Values returns the values ordered by field name.
func (h *Hash) Values() [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := h.sortedKeysLocked()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = cloneBytes(h.fields[k])
	}
	return out
}

// IncrBy adds delta to the integer stored in field, creating it as 0.
func (h *Hash) IncrBy(field []byte, delta int64) (int64, error) {
	if field == nil {
		return 0, ErrInvalidArgument
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.removed {
		return 0, ErrValueRemoved
	}
	k := string(field)
	var cur int64
	if raw, ok := h.fields[k]; ok {
		v, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, ErrNotInteger.WithMessage("hash value is not an integer")
		}
		cur = v
	}
	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		return 0, ErrOverflow
	}
	cur += delta
	h.fields[k] = strconv.AppendInt(nil, cur, 10)
	return cur, nil
}

// Detach implements Collection.
func (h *Hash) Detach(onlyIfEmpty bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if onlyIfEmpty && len(h.fields) > 0 {
		return false
	}
	h.removed = true
	return true
}

func (h *Hash) sortedKeysLocked() []string {
	keys := make([]string, 0, len(h.fields))
	for k := range h.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
