package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = 6379
	DefaultOutput      = "text"
	DefaultTimeout     = 5 * time.Second
	DefaultHistorySize = 1000
)

// DefaultConfigPath returns ~/.memkv/cli.yaml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".memkv", "cli.yaml")
}

// DefaultHistoryFile returns ~/.memkv_history, or "" when the home
// directory is unknown.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".memkv_history")
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Host:    DefaultHost,
		Port:    DefaultPort,
		Output:  DefaultOutput,
		Timeout: DefaultTimeout,
		History: HistoryConfig{
			File: DefaultHistoryFile(),
			Size: DefaultHistorySize,
		},
	}
}
