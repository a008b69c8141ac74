package domain

import (
	"sync"

	"github.com/google/btree"
)

// ScoredMember is one sorted set entry.
type ScoredMember struct {
	Member string
	Score  float64
}

func lessScored(a, b ScoredMember) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Member < b.Member
}

// SortedSet orders unique members by (score, member).
//
// The btree holds the ordering and the map holds the current score of
// each member; both are updated together under mu.
type SortedSet struct {
	mu      sync.RWMutex
	tree    *btree.BTreeG[ScoredMember]
	scores  map[string]float64
	removed bool
}

// NewSortedSet creates an empty sorted set.
func NewSortedSet() *SortedSet {
	return &SortedSet{
		tree:   btree.NewG(16, lessScored),
		scores: make(map[string]float64),
	}
}

// Type implements Value.
func (z *SortedSet) Type() Type { return TypeSortedSet }

// Add inserts or updates members and returns how many were new.
func (z *SortedSet) Add(entries ...ScoredMember) (int, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.removed {
		return 0, ErrValueRemoved
	}
	added := 0
	for _, e := range entries {
		if old, ok := z.scores[e.Member]; ok {
			if old == e.Score {
				continue
			}
			z.tree.Delete(ScoredMember{Member: e.Member, Score: old})
		} else {
			added++
		}
		z.scores[e.Member] = e.Score
		z.tree.ReplaceOrInsert(e)
	}
	return added, nil
}

// Score returns the score of member.
func (z *SortedSet) Score(member string) (float64, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	s, ok := z.scores[member]
	return s, ok
}

// Remove deletes members and returns how many existed.
func (z *SortedSet) Remove(members ...string) int {
	z.mu.Lock()
	defer z.mu.Unlock()

	removed := 0
	for _, m := range members {
		s, ok := z.scores[m]
		if !ok {
			continue
		}
		delete(z.scores, m)
		z.tree.Delete(ScoredMember{Member: m, Score: s})
		removed++
	}
	return removed
}

// Card returns the number of members.
func (z *SortedSet) Card() int {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return len(z.scores)
}

// Len implements Collection.
func (z *SortedSet) Len() int { return z.Card() }

// Rank returns the zero-based position of member in ascending order.
func (z *SortedSet) Rank(member string) (int, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	s, ok := z.scores[member]
	if !ok {
		return 0, false
	}
	rank := 0
	z.tree.AscendLessThan(ScoredMember{Member: member, Score: s}, func(ScoredMember) bool {
		rank++
		return true
	})
	return rank, true
}

// Range returns entries start..stop inclusive in ascending order, with
// ZRANGE index semantics.
func (z *SortedSet) Range(start, stop int) []ScoredMember {
	z.mu.RLock()
	defer z.mu.RUnlock()

	lo, hi := normalizeRange(start, stop, z.tree.Len())
	out := make([]ScoredMember, 0, hi-lo)
	i := 0
	z.tree.Ascend(func(e ScoredMember) bool {
		if i >= hi {
			return false
		}
		if i >= lo {
			out = append(out, e)
		}
		i++
		return true
	})
	return out
}

// Detach implements Collection.
func (z *SortedSet) Detach(onlyIfEmpty bool) bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	if onlyIfEmpty && len(z.scores) > 0 {
		return false
	}
	z.removed = true
	return true
}
