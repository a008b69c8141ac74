package redisserver

import (
	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/pkg/resp"
)

func listCommands() []*command {
	return []*command{
		{name: "LPUSH", arity: -3, flags: flagWrite | flagFast, handler: cmdLPush},
		{name: "RPUSH", arity: -3, flags: flagWrite | flagFast, handler: cmdRPush},
		{name: "LPOP", arity: -2, flags: flagWrite | flagFast, handler: cmdLPop},
		{name: "RPOP", arity: -2, flags: flagWrite | flagFast, handler: cmdRPop},
		{name: "LLEN", arity: 2, flags: flagReadOnly | flagFast, handler: cmdLLen},
		{name: "LINDEX", arity: 3, flags: flagReadOnly, handler: cmdLIndex},
		{name: "LRANGE", arity: 4, flags: flagReadOnly, handler: cmdLRange},
	}
}

func push(c *cmdContext, left bool) (resp.Element, error) {
	var n int
	err := update(c.db, c.args[0], domain.NewList, func(l *domain.List) error {
		var err error
		if left {
			n, err = l.PushLeft(c.args[1:]...)
		} else {
			n, err = l.PushRight(c.args[1:]...)
		}
		return err
	})
	if err != nil {
		return resp.Element{}, err
	}
	return resp.Integer(int64(n)), nil
}

// LPUSH key element [element ...]
func cmdLPush(c *cmdContext) (resp.Element, error) { return push(c, true) }

// RPUSH key element [element ...]
func cmdRPush(c *cmdContext) (resp.Element, error) { return push(c, false) }

// pop implements LPOP/RPOP key [count]. Without count it replies with one
// bulk string; with count, with an array.
func pop(c *cmdContext, left bool) (resp.Element, error) {
	if len(c.args) > 2 {
		return resp.Element{}, domain.ErrSyntax
	}
	count, withCount := 1, false
	if len(c.args) == 2 {
		n, err := parseInt(c.args[1])
		if err != nil || n < 0 {
			return resp.Element{}, domain.ErrNotInteger.WithMessage("value is out of range, must be positive")
		}
		count, withCount = int(n), true
	}

	var popped [][]byte
	found, err := shrink(c.db, c.args[0], func(l *domain.List) {
		for i := 0; i < count; i++ {
			var v []byte
			var ok bool
			if left {
				v, ok = l.PopLeft()
			} else {
				v, ok = l.PopRight()
			}
			if !ok {
				break
			}
			popped = append(popped, v)
		}
	})
	if err != nil {
		return resp.Element{}, err
	}

	if withCount {
		if !found {
			return resp.NullArray(), nil
		}
		return resp.BulkArray(popped), nil
	}
	if len(popped) == 0 {
		return resp.NullBulk(), nil
	}
	return resp.Bulk(popped[0]), nil
}

// LPOP key [count]
func cmdLPop(c *cmdContext) (resp.Element, error) { return pop(c, true) }

// RPOP key [count]
func cmdRPop(c *cmdContext) (resp.Element, error) { return pop(c, false) }

// LLEN key
func cmdLLen(c *cmdContext) (resp.Element, error) {
	l, ok, err := lookup[*domain.List](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(l.Len())), nil
}

// LINDEX key index
func cmdLIndex(c *cmdContext) (resp.Element, error) {
	idx, err := parseIndex(c.args[1])
	if err != nil {
		return resp.Element{}, err
	}
	l, ok, err := lookup[*domain.List](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.NullBulk(), nil
	}
	v, ok := l.Index(idx)
	if !ok {
		return resp.NullBulk(), nil
	}
	return resp.Bulk(v), nil
}

// LRANGE key start stop
func cmdLRange(c *cmdContext) (resp.Element, error) {
	start, err := parseIndex(c.args[1])
	if err != nil {
		return resp.Element{}, err
	}
	stop, err := parseIndex(c.args[2])
	if err != nil {
		return resp.Element{}, err
	}
	l, ok, err := lookup[*domain.List](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.Array(), nil
	}
	return resp.BulkArray(l.Range(start, stop)), nil
}
