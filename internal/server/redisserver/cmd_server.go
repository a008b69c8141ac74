package redisserver

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/pkg/resp"
)

func serverCommands() []*command {
	return []*command{
		{name: "DBSIZE", arity: 1, flags: flagReadOnly | flagFast, handler: cmdDBSize},
		{name: "FLUSHDB", arity: -1, flags: flagWrite, handler: cmdFlushDB},
		{name: "FLUSHALL", arity: -1, flags: flagWrite, handler: cmdFlushAll},
		{name: "INFO", arity: -1, flags: flagReadOnly, handler: cmdInfo},
		{name: "COMMAND", arity: -1, flags: flagReadOnly, handler: cmdCommand},
		{name: "TIME", arity: 1, flags: flagReadOnly | flagFast, handler: cmdTime},
	}
}

// DBSIZE
func cmdDBSize(c *cmdContext) (resp.Element, error) {
	return resp.Integer(int64(c.db.Len())), nil
}

// checkFlushMode accepts the optional ASYNC|SYNC argument. Flushing is
// always synchronous.
func checkFlushMode(c *cmdContext) error {
	switch len(c.args) {
	case 0:
		return nil
	case 1:
		switch strings.ToUpper(c.arg(0)) {
		case "ASYNC", "SYNC":
			return nil
		}
		return domain.ErrSyntax
	default:
		return domain.ErrSyntax
	}
}

// FLUSHDB [ASYNC|SYNC]
func cmdFlushDB(c *cmdContext) (resp.Element, error) {
	if err := checkFlushMode(c); err != nil {
		return resp.Element{}, err
	}
	c.db.Flush()
	return resp.OK(), nil
}

// FLUSHALL [ASYNC|SYNC]
func cmdFlushAll(c *cmdContext) (resp.Element, error) {
	if err := checkFlushMode(c); err != nil {
		return resp.Element{}, err
	}
	c.srv.keyspace.FlushAll()
	return resp.OK(), nil
}

// TIME
func cmdTime(_ *cmdContext) (resp.Element, error) {
	now := time.Now()
	return resp.Array(
		resp.BulkString(strconv.FormatInt(now.Unix(), 10)),
		resp.BulkString(strconv.Itoa(now.Nanosecond()/1000)),
	), nil
}

// COMMAND [COUNT | LIST | INFO name...]
func cmdCommand(c *cmdContext) (resp.Element, error) {
	table := c.srv.commands
	if len(c.args) == 0 {
		names := sortedNames(table)
		out := make([]resp.Element, len(names))
		for i, n := range names {
			out[i] = commandInfo(table[n])
		}
		return resp.Array(out...), nil
	}

	switch strings.ToUpper(c.arg(0)) {
	case "COUNT":
		if len(c.args) != 1 {
			return resp.Element{}, domain.WrongArgs("command|count")
		}
		return resp.Integer(int64(len(table))), nil
	case "LIST":
		names := sortedNames(table)
		for i := range names {
			names[i] = strings.ToLower(names[i])
		}
		return resp.StringArray(names), nil
	case "INFO":
		out := make([]resp.Element, 0, len(c.args)-1)
		for _, a := range c.args[1:] {
			cmd, ok := table[strings.ToUpper(string(a))]
			if !ok {
				out = append(out, resp.NullArray())
				continue
			}
			out = append(out, commandInfo(cmd))
		}
		return resp.Array(out...), nil
	default:
		return resp.Element{}, domain.UnknownSubcommand("COMMAND", c.arg(0))
	}
}

func commandInfo(cmd *command) resp.Element {
	flags := cmd.flags.names()
	fl := make([]resp.Element, len(flags))
	for i, f := range flags {
		fl[i] = resp.SimpleString(f)
	}
	return resp.Array(
		resp.BulkString(strings.ToLower(cmd.name)),
		resp.Integer(int64(cmd.arity)),
		resp.Array(fl...),
	)
}

var infoSections = []string{"server", "clients", "memory", "stats", "replication", "keyspace"}

// INFO [section ...]
func cmdInfo(c *cmdContext) (resp.Element, error) {
	want := make(map[string]bool)
	for _, a := range c.args {
		want[strings.ToLower(string(a))] = true
	}
	all := len(want) == 0 || want["all"] || want["everything"] || want["default"]

	var sb strings.Builder
	for _, section := range infoSections {
		if !all && !want[section] {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\r\n")
		}
		c.srv.writeInfoSection(&sb, section)
	}
	return resp.BulkString(sb.String()), nil
}

func (s *Server) writeInfoSection(sb *strings.Builder, section string) {
	field := func(k string, v any) {
		fmt.Fprintf(sb, "%s:%v\r\n", k, v)
	}

	switch section {
	case "server":
		sb.WriteString("# Server\r\n")
		uptime := time.Since(s.started)
		port := 0
		if addr := s.Addr(); addr != nil {
			if p, err := ParseHostPort(addr.String()); err == nil {
				port = p
			}
		}
		field("memkv_version", s.version)
		field("os", runtime.GOOS+" "+runtime.GOARCH)
		field("go_version", runtime.Version())
		field("process_id", os.Getpid())
		field("run_id", s.runID)
		field("tcp_port", port)
		field("uptime_in_seconds", int64(uptime.Seconds()))
		field("uptime_in_days", int64(uptime.Hours()/24))
	case "clients":
		sb.WriteString("# Clients\r\n")
		field("connected_clients", s.SessionCount())
		field("maxclients", s.cfg.MaxClients)
	case "memory":
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		sb.WriteString("# Memory\r\n")
		field("used_memory", ms.HeapAlloc)
		field("used_memory_human", humanize.IBytes(ms.HeapAlloc))
		field("used_memory_sys", ms.Sys)
		field("used_memory_sys_human", humanize.IBytes(ms.Sys))
	case "stats":
		sb.WriteString("# Stats\r\n")
		field("total_connections_received", s.totalConns.Load())
		field("total_commands_processed", s.totalCmds.Load())
		field("rejected_connections", s.rejected.Load())
		field("protocol_errors", s.protoErrors.Load())
	case "replication":
		sb.WriteString("# Replication\r\n")
		if host, port, err := ParseReplicaOf(s.cfg.ReplicaOf); err == nil {
			field("role", "slave")
			field("master_host", host)
			field("master_port", port)
			field("master_link_status", "down")
		} else {
			field("role", "master")
			field("connected_slaves", 0)
		}
		field("master_replid", s.runID)
		field("repl_backlog_active", 0)
		field("repl_backlog_size", s.cfg.BacklogSize)
		field("repl_backlog_size_human", humanize.IBytes(s.cfg.BacklogSize))
	case "keyspace":
		sb.WriteString("# Keyspace\r\n")
		for _, st := range s.keyspace.Stats() {
			field("db"+strconv.Itoa(st.Index), fmt.Sprintf("keys=%d,expires=0,avg_ttl=0", st.Keys))
		}
	}
}
