package redisserver

import (
	"time"

	"github.com/yndnr/memkv-go/pkg/resp"
)

// EventKind tags an Event.
type EventKind uint8

const (
	EventConnected EventKind = iota + 1
	EventDisconnected
	EventSimpleString
	EventError
	EventInteger
	EventBulkString
	EventArray
	EventNull
)

// String returns the name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventSimpleString:
		return "simple-string"
	case EventError:
		return "error"
	case EventInteger:
		return "integer"
	case EventBulkString:
		return "bulk-string"
	case EventArray:
		return "array"
	case EventNull:
		return "null"
	default:
		return "unknown"
	}
}

// Event is raised for session lifecycle changes and for every top-level
// element decoded from a client.
type Event struct {
	Kind      EventKind
	SessionID string
	Remote    string
	// Element is set for element events.
	Element resp.Element
	// Err is set on Disconnected when the session faulted.
	Err  error
	Time time.Time
}

// Observer receives events. OnEvent runs synchronously on the session's
// goroutine, in decode order, so it must not block.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// elementEventKind classifies a decoded element. Null-flagged bulk
// strings and arrays are reported as EventNull.
func elementEventKind(e resp.Element) EventKind {
	if e.IsNull() {
		return EventNull
	}
	switch e.Kind {
	case resp.KindSimpleString:
		return EventSimpleString
	case resp.KindError:
		return EventError
	case resp.KindInteger:
		return EventInteger
	case resp.KindBulkString:
		return EventBulkString
	default:
		return EventArray
	}
}
