package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/yndnr/memkv-go/pkg/resp"
)

// TextFormatter prints replies the way redis-cli does in a terminal:
// quoted bulk strings, typed scalars and numbered nested arrays.
type TextFormatter struct {
	Color bool
}

// Format writes reply followed by a newline.
func (f *TextFormatter) Format(w io.Writer, reply resp.Element) error {
	lines := f.lines(reply)
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func (f *TextFormatter) lines(e resp.Element) []string {
	switch e.Kind {
	case resp.KindSimpleString:
		return []string{e.Str}
	case resp.KindError:
		return []string{f.errorText("(error) " + e.Str)}
	case resp.KindInteger:
		return []string{"(integer) " + strconv.FormatInt(e.Int, 10)}
	case resp.KindBulkString:
		if e.Null {
			return []string{"(nil)"}
		}
		return []string{Quote(e.Bulk)}
	case resp.KindArray:
		if e.Null {
			return []string{"(nil)"}
		}
		if len(e.Elems) == 0 {
			return []string{"(empty array)"}
		}
		return f.arrayLines(e.Elems)
	default:
		return []string{fmt.Sprintf("(unknown %s)", e.Kind)}
	}
}

// arrayLines numbers each element. Continuation lines of a nested
// element are indented to line up under its first line.
func (f *TextFormatter) arrayLines(elems []resp.Element) []string {
	width := len(strconv.Itoa(len(elems)))
	var out []string
	for i, el := range elems {
		prefix := fmt.Sprintf("%*d) ", width, i+1)
		pad := strings.Repeat(" ", len(prefix))
		for j, line := range f.lines(el) {
			if j == 0 {
				out = append(out, prefix+line)
			} else {
				out = append(out, pad+line)
			}
		}
	}
	return out
}

func (f *TextFormatter) errorText(s string) string {
	c := color.New(color.FgRed)
	if f.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

// Quote renders b as a double-quoted string with C-style escapes for
// quotes, backslashes, control characters and non-printable bytes.
func Quote(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) + 2)
	sb.WriteByte('"')
	for _, c := range b {
		switch c {
		case '\\', '"':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\a':
			sb.WriteString(`\a`)
		case '\b':
			sb.WriteString(`\b`)
		default:
			if c >= 0x20 && c < 0x7f {
				sb.WriteByte(c)
			} else {
				fmt.Fprintf(&sb, `\x%02x`, c)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
