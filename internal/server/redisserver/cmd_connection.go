package redisserver

import (
	"strconv"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/pkg/resp"
)

func connectionCommands() []*command {
	return []*command{
		{name: "PING", arity: -1, flags: flagFast, handler: cmdPing},
		{name: "ECHO", arity: 2, flags: flagFast, handler: cmdEcho},
		{name: "QUIT", arity: 1, flags: flagFast, handler: cmdQuit},
		{name: "SELECT", arity: 2, flags: flagFast, handler: cmdSelect},
	}
}

// PING [message]
func cmdPing(c *cmdContext) (resp.Element, error) {
	switch len(c.args) {
	case 0:
		return resp.SimpleString("PONG"), nil
	case 1:
		return resp.Bulk(c.args[0]), nil
	default:
		return resp.Element{}, domain.WrongArgs(c.name)
	}
}

// ECHO message
func cmdEcho(c *cmdContext) (resp.Element, error) {
	return resp.Bulk(c.args[0]), nil
}

// QUIT
func cmdQuit(c *cmdContext) (resp.Element, error) {
	c.quit = true
	return resp.OK(), nil
}

// SELECT index
func cmdSelect(c *cmdContext) (resp.Element, error) {
	i, err := strconv.Atoi(c.arg(0))
	if err != nil {
		return resp.Element{}, domain.ErrInvalidDBIndex
	}
	if _, err := c.srv.keyspace.DB(i); err != nil {
		return resp.Element{}, err
	}
	c.sess.selectDB(i)
	return resp.OK(), nil
}
