package redisserver

import (
	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/pkg/resp"
)

func hashCommands() []*command {
	return []*command{
		{name: "HSET", arity: -4, flags: flagWrite | flagFast, handler: cmdHSet},
		{name: "HMSET", arity: -4, flags: flagWrite | flagFast, handler: cmdHMSet},
		{name: "HSETNX", arity: 4, flags: flagWrite | flagFast, handler: cmdHSetNX},
		{name: "HGET", arity: 3, flags: flagReadOnly | flagFast, handler: cmdHGet},
		{name: "HMGET", arity: -3, flags: flagReadOnly | flagFast, handler: cmdHMGet},
		{name: "HDEL", arity: -3, flags: flagWrite | flagFast, handler: cmdHDel},
		{name: "HGETALL", arity: 2, flags: flagReadOnly, handler: cmdHGetAll},
		{name: "HLEN", arity: 2, flags: flagReadOnly | flagFast, handler: cmdHLen},
		{name: "HEXISTS", arity: 3, flags: flagReadOnly | flagFast, handler: cmdHExists},
		{name: "HKEYS", arity: 2, flags: flagReadOnly, handler: cmdHKeys},
		{name: "HVALS", arity: 2, flags: flagReadOnly, handler: cmdHVals},
		{name: "HINCRBY", arity: 4, flags: flagWrite | flagFast, handler: cmdHIncrBy},
	}
}

func hsetPairs(c *cmdContext) (int, error) {
	pairs := c.args[1:]
	if len(pairs)%2 != 0 {
		return 0, domain.WrongArgs(c.name)
	}
	var created int
	err := update(c.db, c.args[0], domain.NewHash, func(h *domain.Hash) error {
		var err error
		created, err = h.SetFields(pairs)
		return err
	})
	return created, err
}

// HSET key field value [field value ...]
func cmdHSet(c *cmdContext) (resp.Element, error) {
	n, err := hsetPairs(c)
	if err != nil {
		return resp.Element{}, err
	}
	return resp.Integer(int64(n)), nil
}

// HMSET key field value [field value ...]
func cmdHMSet(c *cmdContext) (resp.Element, error) {
	if _, err := hsetPairs(c); err != nil {
		return resp.Element{}, err
	}
	return resp.OK(), nil
}

// HSETNX key field value
func cmdHSetNX(c *cmdContext) (resp.Element, error) {
	var set bool
	err := update(c.db, c.args[0], domain.NewHash, func(h *domain.Hash) error {
		var err error
		set, err = h.SetFieldIfAbsent(c.args[1], c.args[2])
		return err
	})
	if err != nil {
		return resp.Element{}, err
	}
	return boolInt(set), nil
}

// HGET key field
func cmdHGet(c *cmdContext) (resp.Element, error) {
	h, ok, err := lookup[*domain.Hash](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.NullBulk(), nil
	}
	v, ok := h.GetField(c.args[1])
	if !ok {
		return resp.NullBulk(), nil
	}
	return resp.Bulk(v), nil
}

// HMGET key field [field ...]
func cmdHMGet(c *cmdContext) (resp.Element, error) {
	h, ok, err := lookup[*domain.Hash](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	out := make([]resp.Element, len(c.args)-1)
	for i, f := range c.args[1:] {
		out[i] = resp.NullBulk()
		if !ok {
			continue
		}
		if v, found := h.GetField(f); found {
			out[i] = resp.Bulk(v)
		}
	}
	return resp.Array(out...), nil
}

// HDEL key field [field ...]
func cmdHDel(c *cmdContext) (resp.Element, error) {
	var n int
	_, err := shrink(c.db, c.args[0], func(h *domain.Hash) {
		n = h.RemoveFields(c.args[1:]...)
	})
	if err != nil {
		return resp.Element{}, err
	}
	return resp.Integer(int64(n)), nil
}

// HGETALL key
func cmdHGetAll(c *cmdContext) (resp.Element, error) {
	h, ok, err := lookup[*domain.Hash](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.Array(), nil
	}
	return resp.BulkArray(h.GetAll()), nil
}

// HLEN key
func cmdHLen(c *cmdContext) (resp.Element, error) {
	h, ok, err := lookup[*domain.Hash](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(h.FieldCount())), nil
}

// HEXISTS key field
func cmdHExists(c *cmdContext) (resp.Element, error) {
	h, ok, err := lookup[*domain.Hash](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	return boolInt(ok && h.Exists(c.args[1])), nil
}

// HKEYS key
func cmdHKeys(c *cmdContext) (resp.Element, error) {
	h, ok, err := lookup[*domain.Hash](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.Array(), nil
	}
	return resp.BulkArray(h.Fields()), nil
}

// HVALS key
func cmdHVals(c *cmdContext) (resp.Element, error) {
	h, ok, err := lookup[*domain.Hash](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.Array(), nil
	}
	return resp.BulkArray(h.Values()), nil
}

// HINCRBY key field increment
func cmdHIncrBy(c *cmdContext) (resp.Element, error) {
	delta, err := parseInt(c.args[2])
	if err != nil {
		return resp.Element{}, err
	}
	var n int64
	err = update(c.db, c.args[0], domain.NewHash, func(h *domain.Hash) error {
		var err error
		n, err = h.IncrBy(c.args[1], delta)
		return err
	})
	if err != nil {
		return resp.Element{}, err
	}
	return resp.Integer(n), nil
}
