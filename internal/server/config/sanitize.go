package config

import (
	"log/slog"

	"github.com/yndnr/memkv-go/internal/telemetry/logger"
)

// LogValue renders the effective configuration for the startup log.
// Unset optional fields are omitted and masterauth is masked.
func (c *ServerConfig) LogValue() slog.Value {
	server := []slog.Attr{
		slog.String("bind", c.Server.Bind),
		slog.Int("port", c.Server.Port),
		slog.Int("databases", c.Server.Databases),
		slog.Int("max_clients", c.Server.MaxClients),
		slog.Int("rate_limit", c.Server.RateLimit),
		slog.Duration("idle_timeout", c.Server.IdleTimeout),
	}
	if c.Server.UnixSocket != "" {
		server = append(server,
			slog.String("unix_socket", c.Server.UnixSocket),
			slog.String("unix_socket_perm", c.Server.UnixSocketPerm))
	}

	attrs := []slog.Attr{
		{Key: "server", Value: slog.GroupValue(server...)},
		slog.Bool("tls", c.TLS.Enabled),
	}
	if c.Admin.Addr != "" {
		attrs = append(attrs, slog.Group("admin",
			slog.String("addr", c.Admin.Addr),
			slog.Any("allow_list", c.Admin.AllowList),
			slog.Bool("audit", c.Admin.Audit)))
	}
	if c.Replication.ReplicaOf != "" {
		attrs = append(attrs, slog.Group("replication",
			slog.String("replicaof", c.Replication.ReplicaOf),
			slog.String("masterauth_masked", logger.MaskSecret(c.Replication.MasterAuth)),
			slog.String("backlog_size", c.Replication.BacklogSize)))
	}
	attrs = append(attrs, slog.Group("log",
		slog.String("level", c.Log.Level),
		slog.String("format", c.Log.Format)))
	return slog.GroupValue(attrs...)
}
