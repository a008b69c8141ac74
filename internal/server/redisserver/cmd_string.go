package redisserver

import (
	"strings"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/internal/storage/memory"
	"github.com/yndnr/memkv-go/pkg/resp"
)

func stringCommands() []*command {
	return []*command{
		{name: "GET", arity: 2, flags: flagReadOnly | flagFast, handler: cmdGet},
		{name: "SET", arity: -3, flags: flagWrite, handler: cmdSet},
		{name: "SETNX", arity: 3, flags: flagWrite | flagFast, handler: cmdSetNX},
		{name: "GETSET", arity: 3, flags: flagWrite | flagFast, handler: cmdGetSet},
		{name: "MGET", arity: -2, flags: flagReadOnly | flagFast, handler: cmdMGet},
		{name: "MSET", arity: -3, flags: flagWrite, handler: cmdMSet},
		{name: "APPEND", arity: 3, flags: flagWrite | flagFast, handler: cmdAppend},
		{name: "STRLEN", arity: 2, flags: flagReadOnly | flagFast, handler: cmdStrlen},
		{name: "INCR", arity: 2, flags: flagWrite | flagFast, handler: cmdIncr},
		{name: "DECR", arity: 2, flags: flagWrite | flagFast, handler: cmdDecr},
		{name: "INCRBY", arity: 3, flags: flagWrite | flagFast, handler: cmdIncrBy},
		{name: "DECRBY", arity: 3, flags: flagWrite | flagFast, handler: cmdDecrBy},
	}
}

func newEmptyString() *domain.String { return domain.NewString(nil) }

// GET key
func cmdGet(c *cmdContext) (resp.Element, error) {
	s, ok, err := lookup[*domain.String](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.NullBulk(), nil
	}
	return resp.Bulk(s.Get()), nil
}

type setOptions struct {
	nx, xx, get bool
}

func parseSetOptions(args [][]byte) (setOptions, error) {
	var o setOptions
	for _, a := range args {
		switch strings.ToUpper(string(a)) {
		case "NX":
			o.nx = true
		case "XX":
			o.xx = true
		case "GET":
			o.get = true
		default:
			return o, domain.ErrSyntax
		}
	}
	if o.nx && o.xx {
		return o, domain.ErrSyntax
	}
	return o, nil
}

// setString stores value at key under opts. It returns the previous
// value (when it existed) and whether the write happened. With opts.get
// a previous value of another type aborts with ErrWrongType.
func setString(db *memory.Database, key, value []byte, opts setOptions) (prev domain.Value, stored bool, err error) {
	nv := domain.NewString(value)
	stored = db.SetWith(string(key), func(old domain.Value, exists bool) (domain.Value, bool) {
		if exists {
			prev = old
		}
		if opts.get && exists && old.Type() != domain.TypeString {
			err = domain.ErrWrongType
			return nil, false
		}
		if (opts.nx && exists) || (opts.xx && !exists) {
			return nil, false
		}
		return nv, true
	})
	return prev, stored, err
}

// SET key value [NX | XX] [GET]
func cmdSet(c *cmdContext) (resp.Element, error) {
	opts, err := parseSetOptions(c.args[2:])
	if err != nil {
		return resp.Element{}, err
	}
	prev, stored, err := setString(c.db, c.args[0], c.args[1], opts)
	if err != nil {
		return resp.Element{}, err
	}
	if opts.get {
		if prev == nil {
			return resp.NullBulk(), nil
		}
		return resp.Bulk(prev.(*domain.String).Get()), nil
	}
	if !stored {
		return resp.NullBulk(), nil
	}
	return resp.OK(), nil
}

// SETNX key value
func cmdSetNX(c *cmdContext) (resp.Element, error) {
	return boolInt(c.db.SetIfAbsent(c.arg(0), domain.NewString(c.args[1]))), nil
}

// GETSET key value
func cmdGetSet(c *cmdContext) (resp.Element, error) {
	prev, _, err := setString(c.db, c.args[0], c.args[1], setOptions{get: true})
	if err != nil {
		return resp.Element{}, err
	}
	if prev == nil {
		return resp.NullBulk(), nil
	}
	return resp.Bulk(prev.(*domain.String).Get()), nil
}

// MGET key [key ...]
//
// Missing keys and keys of other types read as nil.
func cmdMGet(c *cmdContext) (resp.Element, error) {
	out := make([]resp.Element, len(c.args))
	for i, k := range c.args {
		s, ok, err := lookup[*domain.String](c.db, k)
		if err != nil || !ok {
			out[i] = resp.NullBulk()
			continue
		}
		out[i] = resp.Bulk(s.Get())
	}
	return resp.Array(out...), nil
}

// MSET key value [key value ...]
func cmdMSet(c *cmdContext) (resp.Element, error) {
	if len(c.args)%2 != 0 {
		return resp.Element{}, domain.WrongArgs(c.name)
	}
	for i := 0; i < len(c.args); i += 2 {
		c.db.Set(c.arg(i), domain.NewString(c.args[i+1]))
	}
	return resp.OK(), nil
}

// APPEND key value
func cmdAppend(c *cmdContext) (resp.Element, error) {
	var n int
	err := update(c.db, c.args[0], newEmptyString, func(s *domain.String) error {
		var err error
		n, err = s.Append(c.args[1])
		return err
	})
	if err != nil {
		return resp.Element{}, err
	}
	return resp.Integer(int64(n)), nil
}

// STRLEN key
func cmdStrlen(c *cmdContext) (resp.Element, error) {
	s, ok, err := lookup[*domain.String](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(s.Len())), nil
}

func incrBy(c *cmdContext, delta int64) (resp.Element, error) {
	var n int64
	err := update(c.db, c.args[0], func() *domain.String { return domain.NewString([]byte("0")) },
		func(s *domain.String) error {
			var err error
			n, err = s.IncrBy(delta)
			return err
		})
	if err != nil {
		return resp.Element{}, err
	}
	return resp.Integer(n), nil
}

// INCR key
func cmdIncr(c *cmdContext) (resp.Element, error) { return incrBy(c, 1) }

// DECR key
func cmdDecr(c *cmdContext) (resp.Element, error) { return incrBy(c, -1) }

// INCRBY key increment
func cmdIncrBy(c *cmdContext) (resp.Element, error) {
	d, err := parseInt(c.args[1])
	if err != nil {
		return resp.Element{}, err
	}
	return incrBy(c, d)
}

// DECRBY key decrement
func cmdDecrBy(c *cmdContext) (resp.Element, error) {
	d, err := parseInt(c.args[1])
	if err != nil {
		return resp.Element{}, err
	}
	if d == -1<<63 {
		return resp.Element{}, domain.ErrOverflow
	}
	return incrBy(c, -d)
}
