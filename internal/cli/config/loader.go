package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/yndnr/memkv-go/internal/infra/confloader"
)

// EnvPrefix is the environment variable prefix for CLI settings.
const EnvPrefix = "MEMKV_CLI_"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid cli config")

// Load builds a CLIConfig from the defaults, the YAML file at path,
// MEMKV_CLI_ environment variables and flags.
//
// An empty path means DefaultConfigPath, which may be absent. An explicit
// path must exist.
func Load(path string, flags map[string]any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg := Default()
	l := confloader.NewLoader(
		confloader.WithEnvPrefix(EnvPrefix),
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

// Verify checks cfg for values the CLI cannot use.
func Verify(cfg *CLIConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}
	if cfg.Host == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalid)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalid, cfg.Port)
	}
	if cfg.DB < 0 {
		return fmt.Errorf("%w: db %d is negative", ErrInvalid, cfg.DB)
	}
	switch cfg.Output {
	case "text", "raw", "json", "yaml":
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrInvalid, cfg.Output)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalid)
	}
	if cfg.History.Size < 0 {
		return fmt.Errorf("%w: negative history size", ErrInvalid)
	}
	if (cfg.TLS.CertFile == "") != (cfg.TLS.KeyFile == "") {
		return fmt.Errorf("%w: tls cert_file and key_file must be set together", ErrInvalid)
	}
	return nil
}
