package config

import "time"

// Default configuration values.
const (
	DefaultBind         = "127.0.0.1"
	DefaultPort         = 6379
	DefaultDatabases    = 16
	DefaultWriteTimeout = 30 * time.Second
	DefaultMaxClients   = 10000

	DefaultUnixSocketPerm = "0700"

	DefaultBacklogSize = "1mb"

	DefaultLogLevel  = "notice"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Bind:         DefaultBind,
			Port:         DefaultPort,
			Databases:    DefaultDatabases,
			WriteTimeout: DefaultWriteTimeout,
			MaxClients:   DefaultMaxClients,
		},
		Replication: ReplicationSection{
			BacklogSize: DefaultBacklogSize,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
