package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the logging surface handed to components. Packages that take
// a *slog.Logger get it from Slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	Slog() *slog.Logger
}

// Config holds logger configuration.
type Config struct {
	// Level accepts the Go names (debug, info, warn, error) and the
	// redis.conf loglevel names (verbose, notice, warning).
	Level string
	// Format is json, text or console. Console is colored when Output is
	// a terminal.
	Format string
	// Output defaults to os.Stderr.
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns the logger configuration used before the config
// file is loaded.
func DefaultConfig() Config {
	return Config{
		Level:  "notice",
		Format: "json",
		Output: os.Stderr,
	}
}

// level is shared by every logger built by New so SetLevel applies to
// handlers already handed out.
var level = new(slog.LevelVar)

type slogLogger struct {
	*slog.Logger
}

// New builds a logger and sets the process-wide level from cfg.Level.
func New(cfg Config) (Logger, error) {
	level.Set(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "console":
		h = newConsoleHandler(out, level, isTerminal(out))
	case "text":
		h = slog.NewTextHandler(out, handlerOptions(cfg))
	default:
		h = slog.NewJSONHandler(out, handlerOptions(cfg))
	}
	return slogLogger{slog.New(h)}, nil
}

func handlerOptions(cfg Config) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}
}

func (l slogLogger) With(args ...any) Logger { return slogLogger{l.Logger.With(args...)} }

func (l slogLogger) Slog() *slog.Logger { return l.Logger }

// SetLevel changes the level of every logger built by New.
func SetLevel(name string) {
	level.Set(parseLevel(name))
}

// GetLevel returns the canonical name of the current level.
func GetLevel() string {
	switch l := level.Level(); {
	case l <= slog.LevelDebug:
		return "debug"
	case l >= slog.LevelError:
		return "error"
	case l >= slog.LevelWarn:
		return "warn"
	default:
		return "info"
	}
}

// ValidLevel reports whether name is an accepted level name.
func ValidLevel(name string) bool {
	_, ok := levelNames[strings.ToLower(name)]
	return ok
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"verbose": slog.LevelDebug,
	"info":    slog.LevelInfo,
	"notice":  slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// parseLevel maps unknown names to info; config validation rejects them
// before they get here.
func parseLevel(name string) slog.Level {
	if l, ok := levelNames[strings.ToLower(name)]; ok {
		return l
	}
	return slog.LevelInfo
}

var std atomic.Pointer[slogLogger]

func init() {
	l, _ := New(DefaultConfig())
	sl := l.(slogLogger)
	std.Store(&sl)
}

// SetDefault replaces the package logger and the slog default.
func SetDefault(l Logger) {
	sl := slogLogger{l.Slog()}
	std.Store(&sl)
	slog.SetDefault(sl.Logger)
}

// Default returns the package logger.
func Default() Logger {
	return *std.Load()
}
