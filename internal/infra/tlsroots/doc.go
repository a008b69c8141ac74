// Package tlsroots builds TLS configurations for the RESP listener and
// client.
//
//   - roots.go: trusted CA pools and tls.Config construction
//   - watcher.go: certificate hot-reload via fsnotify
//
// The server certificate is served through CertWatcher.GetCertificate, so
// a renewed key pair is picked up by new connections without a restart.
package tlsroots
