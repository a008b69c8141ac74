package repl

import (
	"slices"
	"strings"
)

// builtins are handled by the REPL itself.
var builtins = []string{"CLEAR", "EXIT", "HELP"}

// defaultCommands is used until the server reports its own table.
var defaultCommands = []string{
	"APPEND", "COMMAND", "DBSIZE", "DECR", "DECRBY", "DEL", "ECHO", "EXISTS",
	"FLUSHALL", "FLUSHDB", "GET", "GETSET", "HDEL", "HEXISTS", "HGET",
	"HGETALL", "HINCRBY", "HKEYS", "HLEN", "HMGET", "HMSET", "HSET", "HSETNX",
	"HVALS", "INCR", "INCRBY", "INFO", "KEYS", "LINDEX", "LLEN", "LPOP",
	"LPUSH", "LRANGE", "MGET", "MSET", "PING", "QUIT", "RANDOMKEY", "RENAME",
	"RPOP", "RPUSH", "SADD", "SCARD", "SELECT", "SET", "SETNX", "SISMEMBER",
	"SMEMBERS", "SREM", "STRLEN", "TIME", "TYPE", "ZADD", "ZCARD", "ZRANGE",
	"ZRANK", "ZREM", "ZSCORE",
}

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the built-in command list.
func NewCompleter() *Completer {
	c := &Completer{}
	c.SetCommands(defaultCommands)
	return c
}

// SetCommands replaces the known server commands.
func (c *Completer) SetCommands(names []string) {
	cmds := make([]string, 0, len(names)+len(builtins))
	for _, n := range names {
		cmds = append(cmds, strings.ToUpper(n))
	}
	cmds = append(cmds, builtins...)
	slices.Sort(cmds)
	c.commands = slices.Compact(cmds)
}

// Complete returns the commands that start with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToUpper(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
