// Package connection speaks RESP to a memkv server for memkv-cli.
//
//   - client.go: a single connection with request/reply round trips
//   - manager.go: lazy dialing, reconnection and database tracking
package connection
