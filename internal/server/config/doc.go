// Package config provides the memkv-server configuration.
//
// This package defines the configuration structure and its validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation run before any socket is opened
//   - sanitize.go: LogValue for the startup log, with masterauth masked
//   - convert.go: Mapping to the RESP, local socket, TLS and logger configs
//   - load.go: Loading through internal/infra/confloader
//
// Sources are applied in order: defaults, YAML file, MEMKV_ environment
// variables, command-line flags.
package config
