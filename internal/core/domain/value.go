package domain

// Type is the type tag of a stored value.
type Type uint8

const (
	TypeString Type = iota + 1
	TypeHash
	TypeList
	TypeSet
	TypeSortedSet
)

// String returns the name reported by the TYPE command.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeHash:
		return "hash"
	case TypeList:
		return "list"
	case TypeSet:
		return "set"
	case TypeSortedSet:
		return "zset"
	default:
		return "none"
	}
}

// Value is one stored entry. It is owned by exactly one key in one
// database.
type Value interface {
	Type() Type
}

// Detachable is a value that can be cut off from its database.
//
// Detach marks the value as removed so that later writes fail with
// ErrValueRemoved. With onlyIfEmpty it detaches only an empty value and
// reports whether it did. The check and the mark happen under the value's
// own lock.
type Detachable interface {
	Detach(onlyIfEmpty bool) bool
}

// Collection is a Value that holds elements.
type Collection interface {
	Value
	Len() int
	Detachable
}

// cloneBytes copies b and never returns nil, so stored values stay
// distinguishable from "not found".
func cloneBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// normalizeRange converts Redis-style inclusive indices (negative counts
// from the end) into a half-open [lo, hi) range over n elements.
func normalizeRange(start, stop, n int) (lo, hi int) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0
	}
	return start, stop + 1
}
