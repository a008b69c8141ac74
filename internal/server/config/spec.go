package config

import "time"

// ServerConfig is the root configuration for memkv-server.
type ServerConfig struct {
	Server      ServerSection      `koanf:"server"`
	TLS         TLSSection         `koanf:"tls"`
	Admin       AdminSection       `koanf:"admin"`
	Replication ReplicationSection `koanf:"replication"`
	Log         LogSection         `koanf:"log"`
}

// ServerSection configures the RESP listener and keyspace.
type ServerSection struct {
	// Bind is the listen host.
	Bind string `koanf:"bind"`
	// Port is the listen port (0-65535, 0 picks a free port).
	Port int `koanf:"port"`
	// Databases is the number of logical databases.
	Databases int `koanf:"databases"`
	// RunID identifies the instance. Generated when empty.
	RunID string `koanf:"run_id"`

	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// RateLimit is the per-connection command rate (commands/s, 0 disables).
	RateLimit int `koanf:"rate_limit"`
	// MaxClients caps concurrent connections (0 = unlimited).
	MaxClients int `koanf:"max_clients"`

	// UnixSocket additionally serves RESP on this socket path when set.
	UnixSocket string `koanf:"unix_socket"`
	// UnixSocketPerm is the octal file mode of the socket, e.g. "0700".
	UnixSocketPerm string `koanf:"unix_socket_perm"`
}

// TLSSection configures TLS on the RESP listener.
type TLSSection struct {
	Enabled  bool   `koanf:"enabled"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
	// CAFile verifies client certificates when AuthClients is set.
	CAFile      string `koanf:"ca_file"`
	AuthClients bool   `koanf:"auth_clients"`
}

// AdminSection configures the HTTP listener serving /metrics, health
// checks and the admin API.
type AdminSection struct {
	// Addr enables the listener when non-empty.
	Addr string `koanf:"addr"`
	// AllowList restricts /admin/ paths to these IPs or CIDRs (empty = any).
	AllowList []string `koanf:"allow_list"`
	// RateLimit is the per-client request rate (requests/s, 0 disables).
	RateLimit int `koanf:"rate_limit"`
	// Audit logs every admin request.
	Audit bool `koanf:"audit"`
}

// ReplicationSection holds replication settings. They are reported by
// INFO; no replication traffic is exchanged.
type ReplicationSection struct {
	// ReplicaOf is "host port" of a master, empty for a master.
	ReplicaOf string `koanf:"replicaof"`
	// MasterAuth is the password for the master.
	MasterAuth string `koanf:"masterauth"`
	// BacklogSize is a human byte size such as "1mb".
	BacklogSize string `koanf:"backlog_size"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
