package redisserver

import (
	"errors"
	"math"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/internal/storage/memory"
	"github.com/yndnr/memkv-go/internal/telemetry/logger"
	"github.com/yndnr/memkv-go/pkg/resp"
)

// cmdFlag describes a command for COMMAND INFO.
type cmdFlag uint8

const (
	flagWrite cmdFlag = 1 << iota
	flagReadOnly
	flagFast
	flagAdmin
)

func (f cmdFlag) names() []string {
	var out []string
	for _, fl := range []struct {
		flag cmdFlag
		name string
	}{
		{flagWrite, "write"},
		{flagReadOnly, "readonly"},
		{flagFast, "fast"},
		{flagAdmin, "admin"},
	} {
		if f&fl.flag != 0 {
			out = append(out, fl.name)
		}
	}
	return out
}

type handlerFunc func(c *cmdContext) (resp.Element, error)

// command is one entry of the command table.
//
// arity counts the command name. A positive arity is exact; a negative
// arity -n means at least n.
type command struct {
	name    string
	arity   int
	flags   cmdFlag
	handler handlerFunc
}

func (c *command) checkArity(argc int) bool {
	if c.arity >= 0 {
		return argc == c.arity
	}
	return argc >= -c.arity
}

// cmdContext carries one command invocation to its handler.
type cmdContext struct {
	srv  *Server
	sess *Session
	name string
	args [][]byte // arguments after the command name
	db   *memory.Database
	quit bool
}

func (c *cmdContext) arg(i int) string { return string(c.args[i]) }

func newCommandTable() map[string]*command {
	t := make(map[string]*command)
	groups := [][]*command{
		connectionCommands(),
		serverCommands(),
		keyCommands(),
		stringCommands(),
		hashCommands(),
		listCommands(),
		setCommands(),
		zsetCommands(),
	}
	for _, group := range groups {
		for _, c := range group {
			t[c.name] = c
		}
	}
	return t
}

// dispatch executes one decoded element and returns the reply. quit is
// true when the session should close after the reply.
func (s *Server) dispatch(sess *Session, el resp.Element) (reply resp.Element, quit bool) {
	args, err := commandArgs(el)
	if err != nil {
		return errorReply(err), false
	}

	name := strings.ToUpper(string(args[0]))
	cmd, ok := s.commands[name]
	if !ok {
		return errorReply(domain.UnknownCommand(string(args[0]))), false
	}
	if !cmd.checkArity(len(args)) {
		return errorReply(domain.WrongArgs(name)), false
	}
	if !sess.allow() {
		return errorReply(domain.ErrRateLimited), false
	}

	db, err := s.keyspace.DB(sess.DB())
	if err != nil {
		return errorReply(err), false
	}

	c := &cmdContext{srv: s, sess: sess, name: name, args: args[1:], db: db}
	start := time.Now()
	reply, err = s.execute(cmd, c)
	sess.markCommand()
	s.totalCmds.Add(1)
	s.metrics.ObserveCommand(name, time.Since(start), err != nil)
	if err != nil {
		return errorReply(err), c.quit
	}
	return reply, c.quit
}

// execute runs the handler, turning a panic into ErrInternal.
func (s *Server) execute(cmd *command, c *cmdContext) (reply resp.Element, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("command panicked",
				logger.Session(c.sess.id, c.sess.remote),
				logger.Command(cmd.name, c.args),
				"panic", r,
				"stack", string(debug.Stack()))
			err = domain.ErrInternal
		}
	}()
	return cmd.handler(c)
}

// commandArgs extracts the arguments of a command element. Commands are
// non-empty arrays of non-null bulk strings.
func commandArgs(el resp.Element) ([][]byte, error) {
	if el.Kind != resp.KindArray || el.Null {
		return nil, domain.ErrInvalidArgument.WithMessage("invalid command").
			WithDetails("expected array of bulk strings")
	}
	if len(el.Elems) == 0 {
		return nil, domain.ErrInvalidArgument.WithMessage("no command")
	}
	args := make([][]byte, len(el.Elems))
	for i, e := range el.Elems {
		if e.Kind != resp.KindBulkString {
			return nil, domain.ErrInvalidArgument.WithDetails("expected bulk string argument")
		}
		if e.Null {
			return nil, domain.ErrInvalidArgument.WithDetails("null bulk string argument")
		}
		args[i] = e.Bulk
	}
	return args, nil
}

// errorReply converts an error into a RESP error reply.
func errorReply(err error) resp.Element {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return resp.Error(de.Reply())
	}
	return resp.Error(domain.ErrInternal.Reply())
}

// ============================================================================
// Keyspace access helpers
// ============================================================================

// lookup returns the value at key as T. ok is false for a missing key; a
// value of another type yields ErrWrongType.
func lookup[T domain.Value](db *memory.Database, key []byte) (T, bool, error) {
	var zero T
	v, ok := db.Get(string(key))
	if !ok {
		return zero, false, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, false, domain.ErrWrongType
	}
	return t, true, nil
}

// update runs fn on the value at key. An absent key gets a value from
// factory that is installed only after fn succeeds on it; a collection
// fn leaves empty is not installed. A value removed concurrently is
// fetched again. When fn fails on an existing value it left empty, the
// key is removed.
func update[T domain.Value](db *memory.Database, key []byte, factory func() T, fn func(T) error) error {
	k := string(key)
	for {
		v, ok := db.Get(k)
		if !ok {
			var (
				created bool
				err     error
			)
			v, created, err = db.Create(k, func() (domain.Value, error) {
				t := factory()
				if err := fn(t); err != nil {
					return nil, err
				}
				return t, nil
			})
			if created || err != nil {
				return err
			}
			if v == nil {
				// fn succeeded without writing anything.
				return nil
			}
		}
		t, ok := v.(T)
		if !ok {
			return domain.ErrWrongType
		}
		err := fn(t)
		if errors.Is(err, domain.ErrValueRemoved) {
			continue
		}
		if err != nil {
			db.RemoveIfEmpty(k, v)
		}
		return err
	}
}

// shrink runs fn on an existing value and removes the key if fn emptied
// it. ok is false when the key is missing.
func shrink[T domain.Collection](db *memory.Database, key []byte, fn func(T)) (ok bool, err error) {
	t, ok, err := lookup[T](db, key)
	if err != nil || !ok {
		return false, err
	}
	fn(t)
	db.RemoveIfEmpty(string(key), t)
	return true, nil
}

// ============================================================================
// Argument parsing
// ============================================================================

func parseInt(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, domain.ErrNotInteger
	}
	return n, nil
}

func parseIndex(b []byte) (int, error) {
	n, err := parseInt(b)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	} else if n < math.MinInt32 {
		n = math.MinInt32
	}
	return int(n), nil
}

func parseFloat(b []byte) (float64, error) {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) {
		return 0, domain.ErrNotFloat
	}
	return f, nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func boolInt(b bool) resp.Element {
	if b {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

// sortedNames returns the command names in order.
func sortedNames(t map[string]*command) []string {
	names := make([]string, 0, len(t))
	for n := range t {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
