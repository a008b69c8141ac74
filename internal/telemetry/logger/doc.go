// Package logger configures log/slog for memkv-server.
//
// New builds JSON, text or console handlers that share one process-wide
// level, so a config reload can change verbosity with SetLevel. Level
// names follow both slog (debug, info, warn, error) and redis.conf
// (verbose, notice, warning).
//
// Session and Command build the attributes the RESP server attaches to
// client records. Attributes whose key names a credential are redacted by
// every handler.
package logger
