package output

import (
	"encoding/json"
	"io"

	"github.com/yndnr/memkv-go/pkg/resp"
)

// JSONFormatter formats replies as JSON.
type JSONFormatter struct{}

// Format formats reply as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, reply resp.Element) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(toValue(reply))
}
