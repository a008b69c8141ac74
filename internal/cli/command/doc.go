// Package command defines the memkv-cli application.
//
// With trailing arguments the CLI sends them as one command and prints the
// reply; without them it starts the interactive REPL. Flags mirror
// redis-cli where they overlap, so -h names the host and help is only
// available as --help.
package command
