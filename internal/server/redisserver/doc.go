// Package redisserver serves the MemKV keyspace over RESP2 on TCP.
//
//   - server.go: Config, accept loop, per-connection read loop, shutdown
//   - session.go: per-client state and its lifecycle state machine
//   - event.go: lifecycle and per-element events for observers
//   - command.go: the command table and dispatcher
//   - cmd_*.go: command handlers grouped by value type
//
// Each connection is served by its own goroutine. Commands run
// synchronously in that goroutine against the shared Keyspace, so replies
// on one connection keep command order while connections proceed in
// parallel.
package redisserver
