package logger

import (
	"log/slog"
	"strings"
)

// Attribute key fragments that mark a credential. Stored keys and values
// are not credentials and are logged through Args instead.
var secretKeyFragments = []string{
	"pass", // password, requirepass
	"secret",
	"masterauth",
	"credential",
}

const redacted = "[redacted]"

// redactSensitive replaces non-empty string values of credential keys,
// descending into groups.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redacted)
		}
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = redactSensitive(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// IsSensitiveKey reports whether the last dotted segment of key names a
// credential, e.g. "replication.masterauth".
func IsSensitiveKey(key string) bool {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	key = strings.ToLower(key)
	for _, frag := range secretKeyFragments {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}

// MaskSecret keeps the first and last two bytes of s so operators can
// tell configured secrets apart. Values of eight bytes or fewer are fully
// masked.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
