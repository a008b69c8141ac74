package config

import (
	"net"
	"strconv"
	"time"
)

// CLIConfig is the configuration for memkv-cli.
type CLIConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	DB      int           `koanf:"db"`
	Output  string        `koanf:"output"` // text, raw, json, yaml
	Timeout time.Duration `koanf:"timeout"`

	TLS     TLSConfig     `koanf:"tls"`
	History HistoryConfig `koanf:"history"`
}

// TLSConfig controls the client side of an encrypted connection.
type TLSConfig struct {
	Enabled    bool   `koanf:"enabled"`
	CAFile     string `koanf:"ca_file"`
	CertFile   string `koanf:"cert_file"`
	KeyFile    string `koanf:"key_file"`
	ServerName string `koanf:"server_name"`
	Insecure   bool   `koanf:"insecure"`
}

// HistoryConfig controls REPL history persistence.
type HistoryConfig struct {
	File string `koanf:"file"` // empty disables persistence
	Size int    `koanf:"size"`
}

// Addr returns the server address as host:port.
func (c *CLIConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
