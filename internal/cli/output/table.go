package output

import (
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/yndnr/memkv-go/pkg/resp"
)

// TableFormatter renders array replies as an index/value table. Other
// replies fall back to text output.
type TableFormatter struct {
	NoHeaders bool
}

// Format formats reply as a table.
func (f *TableFormatter) Format(w io.Writer, reply resp.Element) error {
	if reply.Kind != resp.KindArray || reply.Null || len(reply.Elems) == 0 {
		return (&TextFormatter{}).Format(w, reply)
	}
	return toTable(reply).RenderWithOptions(w, f.NoHeaders)
}

func toTable(reply resp.Element) *Table {
	t := &Table{Headers: []string{"#", "VALUE"}}
	for i, el := range reply.Elems {
		t.AddRow(strconv.Itoa(i+1), cell(el))
	}
	return t
}

// cell renders one element on a single line.
func cell(e resp.Element) string {
	switch e.Kind {
	case resp.KindSimpleString:
		return e.Str
	case resp.KindError:
		return "(error) " + e.Str
	case resp.KindInteger:
		return strconv.FormatInt(e.Int, 10)
	case resp.KindBulkString:
		if e.Null {
			return "-"
		}
		return string(e.Bulk)
	case resp.KindArray:
		if e.Null {
			return "-"
		}
		parts := make([]string, len(e.Elems))
		for i, el := range e.Elems {
			parts[i] = cell(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		io.WriteString(tw, strings.Join(t.Headers, "\t")+"\n")
	}
	for _, row := range t.Rows {
		io.WriteString(tw, strings.Join(row, "\t")+"\n")
	}
	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}
