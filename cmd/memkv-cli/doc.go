// Package main provides the entry point for memkv-cli.
//
// memkv-cli sends a single command when given arguments and otherwise
// starts an interactive session:
//
//	memkv-cli -h 127.0.0.1 -p 6379 SET greeting hello
//	memkv-cli -n 2
package main
