package redisserver

import (
	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/pkg/resp"
)

func setCommands() []*command {
	return []*command{
		{name: "SADD", arity: -3, flags: flagWrite | flagFast, handler: cmdSAdd},
		{name: "SREM", arity: -3, flags: flagWrite | flagFast, handler: cmdSRem},
		{name: "SMEMBERS", arity: 2, flags: flagReadOnly, handler: cmdSMembers},
		{name: "SISMEMBER", arity: 3, flags: flagReadOnly | flagFast, handler: cmdSIsMember},
		{name: "SCARD", arity: 2, flags: flagReadOnly | flagFast, handler: cmdSCard},
	}
}

// SADD key member [member ...]
func cmdSAdd(c *cmdContext) (resp.Element, error) {
	var n int
	err := update(c.db, c.args[0], domain.NewSet, func(s *domain.Set) error {
		var err error
		n, err = s.Add(c.args[1:]...)
		return err
	})
	if err != nil {
		return resp.Element{}, err
	}
	return resp.Integer(int64(n)), nil
}

// SREM key member [member ...]
func cmdSRem(c *cmdContext) (resp.Element, error) {
	var n int
	_, err := shrink(c.db, c.args[0], func(s *domain.Set) {
		n = s.Remove(c.args[1:]...)
	})
	if err != nil {
		return resp.Element{}, err
	}
	return resp.Integer(int64(n)), nil
}

// SMEMBERS key
func cmdSMembers(c *cmdContext) (resp.Element, error) {
	s, ok, err := lookup[*domain.Set](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.Array(), nil
	}
	return resp.BulkArray(s.Members()), nil
}

// SISMEMBER key member
func cmdSIsMember(c *cmdContext) (resp.Element, error) {
	s, ok, err := lookup[*domain.Set](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	return boolInt(ok && s.IsMember(c.args[1])), nil
}

// SCARD key
func cmdSCard(c *cmdContext) (resp.Element, error) {
	s, ok, err := lookup[*domain.Set](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(s.Card())), nil
}
