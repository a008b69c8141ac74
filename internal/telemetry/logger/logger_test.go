package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, level, format string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: format, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { SetLevel("info") })
	return l, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	return entry
}

// ============================================================================
// Construction and levels
// ============================================================================

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"default config", DefaultConfig()},
		{"text format", Config{Level: "debug", Format: "text"}},
		{"console format", Config{Level: "notice", Format: "console"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if l == nil || l.Slog() == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
	SetLevel("info")
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newBufferLogger(t, "debug", "json")

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("client connected", "db", 3)

			entry := decodeLine(t, buf)
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["msg"] != "client connected" {
				t.Errorf("msg = %v", entry["msg"])
			}
			if entry["db"] != float64(3) {
				t.Errorf("db = %v", entry["db"])
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	l, buf := newBufferLogger(t, "notice", "json")

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at notice level: %s", buf.String())
	}

	SetLevel("verbose")
	if GetLevel() != "debug" {
		t.Errorf("GetLevel() = %q, want debug", GetLevel())
	}
	l.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug should be logged after SetLevel(verbose)")
	}

	SetLevel("warning")
	if GetLevel() != "warn" {
		t.Errorf("GetLevel() = %q, want warn", GetLevel())
	}

	SetLevel("bogus")
	if GetLevel() != "info" {
		t.Errorf("unknown level should fall back to info, got %q", GetLevel())
	}
}

func TestValidLevel(t *testing.T) {
	for _, lv := range []string{"debug", "verbose", "INFO", "notice", "warn", "warning", "error"} {
		if !ValidLevel(lv) {
			t.Errorf("ValidLevel(%q) = false", lv)
		}
	}
	for _, lv := range []string{"", "trace", "fatal", "nothing"} {
		if ValidLevel(lv) {
			t.Errorf("ValidLevel(%q) = true", lv)
		}
	}
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	l, buf := newBufferLogger(t, "info", "json")
	SetDefault(l)

	slog.Info("via slog default")
	if !strings.Contains(buf.String(), "via slog default") {
		t.Errorf("slog default not replaced, got %q", buf.String())
	}
	if Default().Slog() != l.Slog() {
		t.Error("Default() should return the installed logger")
	}
}

// ============================================================================
// Attributes
// ============================================================================

func TestLogger_With(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")

	l.With("component", "redisserver").Info("started")
	entry := decodeLine(t, buf)
	if entry["component"] != "redisserver" {
		t.Errorf("component = %v", entry["component"])
	}
}

func TestSessionAndCommand(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")

	args := [][]byte{[]byte("user:1"), []byte("hello world")}
	l.With(Session("01J0", "127.0.0.1:50412")).Error("command panicked", Command("SET", args))

	entry := decodeLine(t, buf)
	sess, _ := entry["session"].(map[string]any)
	if sess["id"] != "01J0" || sess["remote"] != "127.0.0.1:50412" {
		t.Errorf("session = %v", entry["session"])
	}
	cmd, _ := entry["command"].(map[string]any)
	if cmd["name"] != "SET" || cmd["argc"] != float64(2) {
		t.Errorf("command = %v", entry["command"])
	}
	if cmd["args"] != `"user:1" "hello world"` {
		t.Errorf("args = %v", cmd["args"])
	}
}

func TestArgs_Truncation(t *testing.T) {
	long := bytes.Repeat([]byte("x"), maxLoggedArgLen+10)
	tests := []struct {
		name string
		args Args
		want string
	}{
		{"empty", nil, ""},
		{"binary", Args{{0x00, 0xff}}, `"\x00\xff"`},
		{"long arg", Args{long}, `"` + strings.Repeat("x", maxLoggedArgLen) + `"...`},
		{"many args", make(Args, maxLoggedArgs+2), strings.TrimSpace(strings.Repeat(`"" `, maxLoggedArgs)) + " (+2 more)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.args.LogValue().String(); got != tt.want {
				t.Errorf("LogValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================================
// Console format
// ============================================================================

func TestConsole(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "console")

	l.With(Session("01J0", "127.0.0.1:1")).Warn("protocol error", "error", "bad length", "masterauth", "pw")
	line := buf.String()

	for _, want := range []string{
		"WARN  protocol error",
		"session.id=01J0",
		"session.remote=127.0.0.1:1",
		`error="bad length"`,
		"masterauth=" + redacted,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Errorf("non-terminal output must not be colored: %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Errorf("line not terminated: %q", line)
	}

	buf.Reset()
	l.Debug("filtered")
	if buf.Len() != 0 {
		t.Errorf("debug written at info level: %q", buf.String())
	}
}

func TestConsole_Groups(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelInfo, false)
	slog.New(h).WithGroup("repl").Info("linked", "offset", 42)

	if !strings.Contains(buf.String(), "repl.offset=42") {
		t.Errorf("grouped key missing: %q", buf.String())
	}
}

func TestConsole_Colored(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelInfo, true)
	slog.New(h).Error("boom")

	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("colored output expected: %q", buf.String())
	}
}
