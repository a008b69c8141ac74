// Package main provides the entry point for memkv-server.
//
// memkv-server is an in-memory key-value server speaking the Redis
// serialization protocol. It loads configuration, builds the keyspace
// and serves RESP clients until it receives SIGINT or SIGTERM.
//
// Usage:
//
//	memkv-server [flags]
//	memkv-server --config /etc/memkv/server.yaml
//
// Optional listeners serve Prometheus metrics over HTTP. TLS certificates
// and the log level are reloaded when their files change.
package main
