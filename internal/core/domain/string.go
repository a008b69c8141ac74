package domain

import (
	"math"
	"strconv"
	"sync"
)

// String is a binary-safe string value.
type String struct {
	mu      sync.RWMutex
	data    []byte
	removed bool
}

// NewString creates a String holding a copy of b.
func NewString(b []byte) *String {
	return &String{data: cloneBytes(b)}
}

// Type implements Value.
func (s *String) Type() Type { return TypeString }

// Get returns a copy of the current bytes.
func (s *String) Get() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBytes(s.data)
}

// Set replaces the contents.
func (s *String) Set(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return ErrValueRemoved
	}
	s.data = cloneBytes(b)
	return nil
}

// Len returns the length in bytes.
func (s *String) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Append appends b and returns the new length.
func (s *String) Append(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return 0, ErrValueRemoved
	}
	s.data = append(s.data, b...)
	return len(s.data), nil
}

// IncrBy interprets the value as a base-10 int64, adds delta and stores
// the result. The value is left unchanged on error.
func (s *String) IncrBy(delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removed {
		return 0, ErrValueRemoved
	}
	cur, err := strconv.ParseInt(string(s.data), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		return 0, ErrOverflow
	}
	cur += delta
	s.data = strconv.AppendInt(s.data[:0], cur, 10)
	return cur, nil
}

// Detach implements Detachable.
func (s *String) Detach(onlyIfEmpty bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if onlyIfEmpty && len(s.data) > 0 {
		return false
	}
	s.removed = true
	return true
}
