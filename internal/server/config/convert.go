package config

import (
	"fmt"

	"github.com/yndnr/memkv-go/internal/infra/tlsroots"
	"github.com/yndnr/memkv-go/internal/server/localserver"
	"github.com/yndnr/memkv-go/internal/server/redisserver"
	"github.com/yndnr/memkv-go/internal/telemetry/logger"
)

// ToRedisConfig converts ServerConfig to redisserver.Config.
func ToRedisConfig(cfg *ServerConfig) (*redisserver.Config, error) {
	if err := Verify(cfg); err != nil {
		return nil, err
	}
	backlog, err := backlogBytes(cfg.Replication.BacklogSize)
	if err != nil {
		return nil, err
	}
	return &redisserver.Config{
		Address:      listenAddr(&cfg.Server),
		Databases:    cfg.Server.Databases,
		RunID:        cfg.Server.RunID,
		IdleTimeout:  cfg.Server.IdleTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		RateLimit:    cfg.Server.RateLimit,
		MaxClients:   cfg.Server.MaxClients,
		ReplicaOf:    cfg.Replication.ReplicaOf,
		BacklogSize:  backlog,
	}, nil
}

// ToLoggerConfig converts the log section to logger.Config.
func ToLoggerConfig(cfg *ServerConfig) logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.Format = cfg.Log.Format
	return lc
}

// ToTLSOptions converts the TLS section. ok is false when TLS is disabled.
func ToTLSOptions(cfg *ServerConfig) (opts tlsroots.ServerOptions, ok bool) {
	if !cfg.TLS.Enabled {
		return tlsroots.ServerOptions{}, false
	}
	return tlsroots.ServerOptions{
		CertFile:    cfg.TLS.CertFile,
		KeyFile:     cfg.TLS.KeyFile,
		CAFile:      cfg.TLS.CAFile,
		AuthClients: cfg.TLS.AuthClients,
	}, true
}

// ToLocalConfig converts the unix socket settings. ok is false when no
// socket path is configured.
func ToLocalConfig(cfg *ServerConfig) (lc localserver.Config, ok bool, err error) {
	if cfg.Server.UnixSocket == "" {
		return localserver.Config{}, false, nil
	}
	perm, err := socketPerm(cfg.Server.UnixSocketPerm)
	if err != nil {
		return localserver.Config{}, false, fmt.Errorf("%w: server.unix_socket_perm: %v", ErrInvalid, err)
	}
	return localserver.Config{Path: cfg.Server.UnixSocket, Perm: perm}, true, nil
}
