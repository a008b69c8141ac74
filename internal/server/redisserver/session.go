package redisserver

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/memkv-go/pkg/resp"
)

// State is a session lifecycle state.
type State int32

const (
	StateConnecting State = iota
	StateEstablished
	StateClosing
	StateFaulted
	StateClosed
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateEstablished:
		return "established"
	case StateClosing:
		return "closing"
	case StateFaulted:
		return "faulted"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// validTransitions lists the states each state may move to.
var validTransitions = map[State][]State{
	StateConnecting:  {StateEstablished, StateClosed},
	StateEstablished: {StateClosing, StateFaulted},
	StateClosing:     {StateClosed},
	StateFaulted:     {StateClosed},
}

// Session is the per-client state of one connection.
//
// Fields without atomics are owned by the session goroutine.
type Session struct {
	id      string
	conn    net.Conn
	remote  string
	created time.Time

	state   atomic.Int32
	db      atomic.Int32
	cmds    atomic.Int64
	lastCmd atomic.Int64 // unix nanos

	dec     resp.Decoder
	w       *resp.Writer
	limiter *rate.Limiter
}

func newSession(conn net.Conn, rateLimit int) *Session {
	s := &Session{
		id:      ulid.Make().String(),
		conn:    conn,
		remote:  conn.RemoteAddr().String(),
		created: time.Now(),
		w:       resp.NewWriter(conn),
	}
	if rateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
	}
	s.state.Store(int32(StateConnecting))
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// RemoteAddr returns the client address.
func (s *Session) RemoteAddr() string { return s.remote }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// DB returns the selected database index.
func (s *Session) DB() int { return int(s.db.Load()) }

// CreatedAt returns the time the connection was accepted.
func (s *Session) CreatedAt() time.Time { return s.created }

// Commands returns the number of commands executed.
func (s *Session) Commands() int64 { return s.cmds.Load() }

// Idle returns the time since the last command, or since accept.
func (s *Session) Idle() time.Duration {
	last := s.lastCmd.Load()
	if last == 0 {
		return time.Since(s.created)
	}
	return time.Since(time.Unix(0, last))
}

func (s *Session) selectDB(i int) {
	s.db.Store(int32(i))
}

// transition moves the session to next if that is a valid step from the
// current state.
func (s *Session) transition(next State) bool {
	for {
		cur := State(s.state.Load())
		allowed := false
		for _, st := range validTransitions[cur] {
			if st == next {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
		if s.state.CompareAndSwap(int32(cur), int32(next)) {
			return true
		}
	}
}

// allow applies the rate limit to one command.
func (s *Session) allow() bool {
	return s.limiter == nil || s.limiter.Allow()
}

func (s *Session) markCommand() {
	s.cmds.Add(1)
	s.lastCmd.Store(time.Now().UnixNano())
}
