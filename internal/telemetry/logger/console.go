package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// consoleHandler writes one human-readable line per record:
//
//	15:04:05.000 INFO  client connected session.id=01J... session.remote=127.0.0.1:50412
type consoleHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	colors map[slog.Level]*color.Color
	key    *color.Color
	prefix string
	attrs  []byte
}

func newConsoleHandler(out io.Writer, level slog.Leveler, colored bool) *consoleHandler {
	h := &consoleHandler{
		mu:    new(sync.Mutex),
		out:   out,
		level: level,
		colors: map[slog.Level]*color.Color{
			slog.LevelDebug: color.New(color.FgMagenta),
			slog.LevelInfo:  color.New(color.FgGreen),
			slog.LevelWarn:  color.New(color.FgYellow),
			slog.LevelError: color.New(color.FgRed, color.Bold),
		},
		key: color.New(color.Faint),
	}
	for _, c := range h.colors {
		setColor(c, colored)
	}
	setColor(h.key, colored)
	return h
}

// setColor overrides fatih/color's global stdout detection, which says
// nothing about the writer we were given.
func setColor(c *color.Color, on bool) {
	if on {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (h *consoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	if !r.Time.IsZero() {
		buf = r.Time.AppendFormat(buf, "15:04:05.000")
		buf = append(buf, ' ')
	}
	buf = append(buf, h.levelLabel(r.Level)...)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)
	buf = append(buf, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, h.prefix, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	c.attrs = append([]byte(nil), h.attrs...)
	for _, a := range attrs {
		c.attrs = h.appendAttr(c.attrs, h.prefix, a)
	}
	return &c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

// levelLabel pads to five columns so messages line up.
func (h *consoleHandler) levelLabel(l slog.Level) string {
	base := slog.LevelError
	switch {
	case l < slog.LevelInfo:
		base = slog.LevelDebug
	case l < slog.LevelWarn:
		base = slog.LevelInfo
	case l < slog.LevelError:
		base = slog.LevelWarn
	}
	label := l.String()
	for len(label) < 5 {
		label += " "
	}
	return h.colors[base].Sprint(label)
}

func (h *consoleHandler) appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	a = redactSensitive(a)

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			buf = h.appendAttr(buf, prefix, ga)
		}
		return buf
	}

	buf = append(buf, ' ')
	buf = append(buf, h.key.Sprint(prefix+a.Key+"=")...)
	s := a.Value.String()
	if q := strconv.Quote(s); s == "" || q[1:len(q)-1] != s || containsSpace(s) {
		buf = append(buf, q...)
	} else {
		buf = append(buf, s...)
	}
	return buf
}

func containsSpace(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '=' {
			return true
		}
	}
	return false
}
