package output

import (
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/yndnr/memkv-go/pkg/resp"
)

// YAMLFormatter formats replies as YAML.
type YAMLFormatter struct{}

// Format formats reply as a YAML document.
func (f *YAMLFormatter) Format(w io.Writer, reply resp.Element) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toValue(reply)); err != nil {
		return err
	}
	return enc.Close()
}
