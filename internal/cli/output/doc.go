// Package output renders server replies for memkv-cli.
//
//   - text.go: human-readable replies in the familiar redis-cli layout
//   - raw.go: bare values, one per line, for scripting
//   - json.go, yaml.go: structured documents
//   - table.go: array replies as an index/value table
//
// Text output colors error replies when the terminal supports it.
package output
