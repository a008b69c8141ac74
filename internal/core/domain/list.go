package domain

import (
	"container/list"
	"sync"
)

// List is a doubly linked list of byte strings.
type List struct {
	mu      sync.RWMutex
	items   *list.List
	removed bool
}

// NewList creates an empty list.
func NewList() *List {
	return &List{items: list.New()}
}

// Type implements Value.
func (l *List) Type() Type { return TypeList }

// PushLeft prepends values in argument order, so the last one ends up at
// the head, and returns the new length.
func (l *List) PushLeft(values ...[]byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.removed {
		return 0, ErrValueRemoved
	}
	for _, v := range values {
		l.items.PushFront(cloneBytes(v))
	}
	return l.items.Len(), nil
}

// PushRight appends values and returns the new length.
func (l *List) PushRight(values ...[]byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.removed {
		return 0, ErrValueRemoved
	}
	for _, v := range values {
		l.items.PushBack(cloneBytes(v))
	}
	return l.items.Len(), nil
}

// PopLeft removes and returns the head.
func (l *List) PopLeft() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.items.Front()
	if e == nil {
		return nil, false
	}
	return l.items.Remove(e).([]byte), true
}

// PopRight removes and returns the tail.
func (l *List) PopRight() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.items.Back()
	if e == nil {
		return nil, false
	}
	return l.items.Remove(e).([]byte), true
}

// Len implements Collection.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.items.Len()
}

// Index returns the element at index; negative indices count from the tail.
func (l *List) Index(index int) ([]byte, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := l.items.Len()
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return nil, false
	}
	if index < n/2 {
		e := l.items.Front()
		for i := 0; i < index; i++ {
			e = e.Next()
		}
		return cloneBytes(e.Value.([]byte)), true
	}
	e := l.items.Back()
	for i := n - 1; i > index; i-- {
		e = e.Prev()
	}
	return cloneBytes(e.Value.([]byte)), true
}

// Range returns elements start..stop inclusive with LRANGE semantics.
func (l *List) Range(start, stop int) [][]byte {
	l.mu.RLock()
	defer l.mu.RUnlock()

	lo, hi := normalizeRange(start, stop, l.items.Len())
	out := make([][]byte, 0, hi-lo)
	i := 0
	for e := l.items.Front(); e != nil && i < hi; e = e.Next() {
		if i >= lo {
			out = append(out, cloneBytes(e.Value.([]byte)))
		}
		i++
	}
	return out
}

// Detach implements Collection.
func (l *List) Detach(onlyIfEmpty bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if onlyIfEmpty && l.items.Len() > 0 {
		return false
	}
	l.removed = true
	return true
}
