package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/yndnr/memkv-go/internal/server/redisserver"
	"github.com/yndnr/memkv-go/internal/telemetry/logger"
)

// ErrInvalid is wrapped by every Verify failure.
var ErrInvalid = errors.New("invalid configuration")

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalid)
	}
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyTLS(&cfg.TLS); err != nil {
		return err
	}
	if err := verifyAdmin(&cfg.Admin); err != nil {
		return err
	}
	if err := verifyReplication(&cfg.Replication); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Bind == "" {
		return fmt.Errorf("%w: server.bind is required", ErrInvalid)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range 0-65535", ErrInvalid, cfg.Port)
	}
	if cfg.Databases < 1 {
		return fmt.Errorf("%w: server.databases must be at least 1", ErrInvalid)
	}
	if cfg.IdleTimeout < 0 || cfg.WriteTimeout < 0 {
		return fmt.Errorf("%w: server timeouts must not be negative", ErrInvalid)
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("%w: server.rate_limit must not be negative", ErrInvalid)
	}
	if cfg.MaxClients < 0 {
		return fmt.Errorf("%w: server.max_clients must not be negative", ErrInvalid)
	}
	if _, err := socketPerm(cfg.UnixSocketPerm); err != nil {
		return fmt.Errorf("%w: server.unix_socket_perm: %v", ErrInvalid, err)
	}
	return nil
}

func verifyTLS(cfg *TLSSection) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return fmt.Errorf("%w: tls.cert_file and tls.key_file are required", ErrInvalid)
	}
	if cfg.AuthClients && cfg.CAFile == "" {
		return fmt.Errorf("%w: tls.auth_clients requires tls.ca_file", ErrInvalid)
	}
	return nil
}

func verifyAdmin(cfg *AdminSection) error {
	if cfg.Addr == "" {
		return nil
	}
	if _, err := redisserver.ParseHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("%w: admin.addr: %v", ErrInvalid, err)
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("%w: admin.rate_limit must be >= 0", ErrInvalid)
	}
	for _, entry := range cfg.AllowList {
		if _, _, err := net.ParseCIDR(entry); err == nil {
			continue
		}
		if net.ParseIP(entry) == nil {
			return fmt.Errorf("%w: admin.allow_list: %q is not an IP or CIDR", ErrInvalid, entry)
		}
	}
	return nil
}

func verifyReplication(cfg *ReplicationSection) error {
	if cfg.ReplicaOf != "" {
		if _, _, err := redisserver.ParseReplicaOf(cfg.ReplicaOf); err != nil {
			return fmt.Errorf("%w: replication.replicaof: %v", ErrInvalid, err)
		}
	}
	if _, err := backlogBytes(cfg.BacklogSize); err != nil {
		return fmt.Errorf("%w: replication.backlog_size: %v", ErrInvalid, err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("%w: log.level %q", ErrInvalid, cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	}
	return fmt.Errorf("%w: log.format %q", ErrInvalid, cfg.Format)
}

// backlogBytes parses a backlog size. Empty means the default.
func backlogBytes(s string) (uint64, error) {
	if s == "" {
		s = DefaultBacklogSize
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("must be greater than zero")
	}
	return n, nil
}

// socketPerm parses an octal file mode. Empty means the default.
func socketPerm(s string) (os.FileMode, error) {
	if s == "" {
		s = DefaultUnixSocketPerm
	}
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not an octal mode", s)
	}
	if n > 0o777 {
		return 0, fmt.Errorf("%q has bits outside 0777", s)
	}
	return os.FileMode(n), nil
}

// listenAddr joins the bind host and port.
func listenAddr(cfg *ServerSection) string {
	return net.JoinHostPort(cfg.Bind, fmt.Sprint(cfg.Port))
}
