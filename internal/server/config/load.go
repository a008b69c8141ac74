package config

import (
	"github.com/yndnr/memkv-go/internal/infra/confloader"
)

// Load builds a verified ServerConfig from the defaults, the YAML file at
// path (optional), MEMKV_ environment variables and flags, in that order
// of precedence. flags keys use dotted paths such as "server.port".
func Load(path string, flags map[string]any) (*ServerConfig, error) {
	cfg := Default()
	l := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithFlags(flags),
	)
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
