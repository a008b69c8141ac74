package domain

import (
	"sort"
	"sync"
)

// Set is an unordered collection of unique byte strings.
type Set struct {
	mu      sync.RWMutex
	members map[string]struct{}
	removed bool
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{members: make(map[string]struct{})}
}

// Type implements Value.
func (s *Set) Type() Type { return TypeSet }

// Add inserts members and returns how many were new.
func (s *Set) Add(members ...[]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removed {
		return 0, ErrValueRemoved
	}
	added := 0
	for _, m := range members {
		k := string(m)
		if _, ok := s.members[k]; !ok {
			s.members[k] = struct{}{}
			added++
		}
	}
	return added, nil
}

// Remove deletes members and returns how many existed.
func (s *Set) Remove(members ...[]byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, m := range members {
		k := string(m)
		if _, ok := s.members[k]; ok {
			delete(s.members, k)
			removed++
		}
	}
	return removed
}

// IsMember reports whether m is in the set.
func (s *Set) IsMember(m []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[string(m)]
	return ok
}

// Members returns all members in lexical order.
func (s *Set) Members() [][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.members))
	for k := range s.members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out
}

// Card returns the number of members.
func (s *Set) Card() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// Len implements Collection.
func (s *Set) Len() int { return s.Card() }

// Detach implements Collection.
func (s *Set) Detach(onlyIfEmpty bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if onlyIfEmpty && len(s.members) > 0 {
		return false
	}
	s.removed = true
	return true
}
