package redisserver

import (
	"github.com/yndnr/memkv-go/pkg/resp"
)

func keyCommands() []*command {
	return []*command{
		{name: "DEL", arity: -2, flags: flagWrite, handler: cmdDel},
		{name: "EXISTS", arity: -2, flags: flagReadOnly | flagFast, handler: cmdExists},
		{name: "TYPE", arity: 2, flags: flagReadOnly | flagFast, handler: cmdType},
		{name: "KEYS", arity: 2, flags: flagReadOnly, handler: cmdKeys},
		{name: "RENAME", arity: 3, flags: flagWrite, handler: cmdRename},
		{name: "RANDOMKEY", arity: 1, flags: flagReadOnly, handler: cmdRandomKey},
	}
}

// DEL key [key ...]
func cmdDel(c *cmdContext) (resp.Element, error) {
	var n int64
	for _, k := range c.args {
		if c.db.Delete(string(k)) {
			n++
		}
	}
	return resp.Integer(n), nil
}

// EXISTS key [key ...]
//
// A key named several times is counted each time.
func cmdExists(c *cmdContext) (resp.Element, error) {
	var n int64
	for _, k := range c.args {
		if c.db.Exists(string(k)) {
			n++
		}
	}
	return resp.Integer(n), nil
}

// TYPE key
func cmdType(c *cmdContext) (resp.Element, error) {
	v, ok := c.db.Get(c.arg(0))
	if !ok {
		return resp.SimpleString("none"), nil
	}
	return resp.SimpleString(v.Type().String()), nil
}

// KEYS pattern
func cmdKeys(c *cmdContext) (resp.Element, error) {
	return resp.StringArray(c.db.Keys(c.arg(0))), nil
}

// RENAME key newkey
func cmdRename(c *cmdContext) (resp.Element, error) {
	if err := c.db.Rename(c.arg(0), c.arg(1)); err != nil {
		return resp.Element{}, err
	}
	return resp.OK(), nil
}

// RANDOMKEY
func cmdRandomKey(c *cmdContext) (resp.Element, error) {
	k, ok := c.db.RandomKey()
	if !ok {
		return resp.NullBulk(), nil
	}
	return resp.BulkString(k), nil
}
