package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

const (
	maxLoggedArgs   = 8
	maxLoggedArgLen = 64
)

// Session identifies a client connection in log records.
func Session(id, remote string) slog.Attr {
	return slog.Group("session", slog.String("id", id), slog.String("remote", remote))
}

// Command describes one command invocation. Arguments are rendered
// lazily, so the cost is only paid when the record is written.
func Command(name string, args [][]byte) slog.Attr {
	return slog.Group("command",
		slog.String("name", name),
		slog.Int("argc", len(args)),
		slog.Any("args", Args(args)))
}

// Args renders command arguments as quoted strings. Only the first few
// arguments are kept and each is cut to a bounded length, so a large
// value cannot flood the log.
type Args [][]byte

func (a Args) LogValue() slog.Value {
	n := min(len(a), maxLoggedArgs)
	var b strings.Builder
	for i := range n {
		if i > 0 {
			b.WriteByte(' ')
		}
		arg := a[i]
		if len(arg) > maxLoggedArgLen {
			b.WriteString(strconv.Quote(string(arg[:maxLoggedArgLen])))
			b.WriteString("...")
			continue
		}
		b.WriteString(strconv.Quote(string(arg)))
	}
	if rest := len(a) - n; rest > 0 {
		b.WriteString(" (+")
		b.WriteString(strconv.Itoa(rest))
		b.WriteString(" more)")
	}
	return slog.StringValue(b.String())
}
