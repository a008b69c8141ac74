// Package repl provides the interactive mode of memkv-cli.
//
//   - repl.go: the read-eval-print loop and its builtins
//   - split.go: quote-aware splitting of input lines into arguments
//   - completer.go: command name lookup for help and completion
//   - history.go: line history, credential lines skipped, atomic save
package repl
