// Package localserver serves RESP on a Unix domain socket.
//
// The socket shares the keyspace and session table of the TCP server, so
// local tools can reach the same data without a network port. Listen
// replaces a stale socket left by a crashed process but refuses to touch
// a path that is not a socket or that another process is serving.
package localserver
