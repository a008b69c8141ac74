// Package config holds the memkv-cli configuration.
//
// Settings come from ~/.memkv/cli.yaml, MEMKV_CLI_ environment variables
// and command-line flags, with later sources taking precedence.
package config
