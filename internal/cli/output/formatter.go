package output

import (
	"fmt"
	"io"

	"github.com/yndnr/memkv-go/pkg/resp"
)

// Format represents the output format.
type Format string

const (
	FormatText  Format = "text"
	FormatRaw   Format = "raw"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// Formatter writes one reply.
type Formatter interface {
	Format(w io.Writer, reply resp.Element) error
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatRaw, FormatJSON, FormatYAML, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// NewFormatter creates a formatter for the given format. color only
// affects text output.
func NewFormatter(format Format, color bool) Formatter {
	switch format {
	case FormatRaw:
		return &RawFormatter{}
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatTable:
		return &TableFormatter{}
	default:
		return &TextFormatter{Color: color}
	}
}

// toValue converts a reply into plain Go values for the document
// encoders. Error replies become {"error": text}.
func toValue(e resp.Element) any {
	switch e.Kind {
	case resp.KindSimpleString:
		return e.Str
	case resp.KindError:
		return map[string]string{"error": e.Str}
	case resp.KindInteger:
		return e.Int
	case resp.KindBulkString:
		if e.Null {
			return nil
		}
		return string(e.Bulk)
	case resp.KindArray:
		if e.Null {
			return nil
		}
		out := make([]any, len(e.Elems))
		for i, el := range e.Elems {
			out[i] = toValue(el)
		}
		return out
	default:
		return nil
	}
}
