package resp

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the RESP type of an Element.
type Kind uint8

const (
	KindSimpleString Kind = iota + 1
	KindError
	KindInteger
	KindBulkString
	KindArray
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSimpleString:
		return "simple-string"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulkString:
		return "bulk-string"
	case KindArray:
		return "array"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Element is one decoded protocol unit.
//
// Only the fields that belong to Kind are meaningful. Null applies to
// bulk strings and arrays: a Null element was sent with length -1 and is
// distinct from a zero-length one.
type Element struct {
	Kind  Kind
	Str   string    // SimpleString, Error
	Int   int64     // Integer
	Bulk  []byte    // BulkString
	Elems []Element // Array
	Null  bool      // BulkString, Array
}

// SimpleString returns a "+" element.
func SimpleString(s string) Element {
	return Element{Kind: KindSimpleString, Str: s}
}

// Error returns a "-" element.
func Error(s string) Element {
	return Element{Kind: KindError, Str: s}
}

// Errorf returns a "-" element with a formatted message.
func Errorf(format string, args ...any) Element {
	return Error(fmt.Sprintf(format, args...))
}

// Integer returns a ":" element.
func Integer(n int64) Element {
	return Element{Kind: KindInteger, Int: n}
}

// Bulk returns a "$" element. A nil slice yields a null bulk string.
func Bulk(b []byte) Element {
	if b == nil {
		return NullBulk()
	}
	return Element{Kind: KindBulkString, Bulk: b}
}

// BulkString returns a "$" element holding s.
func BulkString(s string) Element {
	return Element{Kind: KindBulkString, Bulk: []byte(s)}
}

// NullBulk returns the "$-1" element.
func NullBulk() Element {
	return Element{Kind: KindBulkString, Null: true}
}

// Array returns a "*" element. A nil slice yields an empty, non-null array.
func Array(elems ...Element) Element {
	if elems == nil {
		elems = []Element{}
	}
	return Element{Kind: KindArray, Elems: elems}
}

// NullArray returns the "*-1" element.
func NullArray() Element {
	return Element{Kind: KindArray, Null: true}
}

// BulkArray returns an array of bulk strings. nil entries become null bulks.
func BulkArray(items [][]byte) Element {
	elems := make([]Element, len(items))
	for i, it := range items {
		elems[i] = Bulk(it)
	}
	return Element{Kind: KindArray, Elems: elems}
}

// StringArray returns an array of bulk strings built from strs.
func StringArray(strs []string) Element {
	elems := make([]Element, len(strs))
	for i, s := range strs {
		elems[i] = BulkString(s)
	}
	return Element{Kind: KindArray, Elems: elems}
}

// OK returns the "+OK" element.
func OK() Element {
	return SimpleString("OK")
}

// IsNull reports whether e is a null bulk string or a null array.
func (e Element) IsNull() bool {
	return e.Null && (e.Kind == KindBulkString || e.Kind == KindArray)
}

// IsError reports whether e is an error element.
func (e Element) IsError() bool {
	return e.Kind == KindError
}

// Text returns the textual payload of a simple string, error or bulk
// string, and the decimal form of an integer.
func (e Element) Text() string {
	switch e.Kind {
	case KindSimpleString, KindError:
		return e.Str
	case KindInteger:
		return strconv.FormatInt(e.Int, 10)
	case KindBulkString:
		return string(e.Bulk)
	default:
		return ""
	}
}

// Equal reports whether e and o encode to the same bytes.
func (e Element) Equal(o Element) bool {
	if e.Kind != o.Kind {
		return false
	}
	switch e.Kind {
	case KindSimpleString, KindError:
		return e.Str == o.Str
	case KindInteger:
		return e.Int == o.Int
	case KindBulkString:
		if e.Null || o.Null {
			return e.Null == o.Null
		}
		return bytes.Equal(e.Bulk, o.Bulk)
	case KindArray:
		if e.Null || o.Null {
			return e.Null == o.Null
		}
		if len(e.Elems) != len(o.Elems) {
			return false
		}
		for i := range e.Elems {
			if !e.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders e for logs and test failures.
func (e Element) String() string {
	var sb strings.Builder
	e.render(&sb)
	return sb.String()
}

func (e Element) render(sb *strings.Builder) {
	switch e.Kind {
	case KindSimpleString:
		sb.WriteString(e.Str)
	case KindError:
		sb.WriteString("(error) ")
		sb.WriteString(e.Str)
	case KindInteger:
		sb.WriteString("(integer) ")
		sb.WriteString(strconv.FormatInt(e.Int, 10))
	case KindBulkString:
		if e.Null {
			sb.WriteString("(nil)")
			return
		}
		sb.WriteString(strconv.Quote(string(e.Bulk)))
	case KindArray:
		if e.Null {
			sb.WriteString("(nil array)")
			return
		}
		sb.WriteByte('[')
		for i, c := range e.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			c.render(sb)
		}
		sb.WriteByte(']')
	default:
		sb.WriteString("(invalid)")
	}
}
