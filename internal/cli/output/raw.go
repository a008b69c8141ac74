package output

import (
	"bufio"
	"io"
	"strconv"

	"github.com/yndnr/memkv-go/pkg/resp"
)

// RawFormatter prints bare values without quoting or type tags. Array
// elements are flattened one per line.
type RawFormatter struct{}

// Format writes reply.
func (f *RawFormatter) Format(w io.Writer, reply resp.Element) error {
	bw := bufio.NewWriter(w)
	writeRaw(bw, reply)
	return bw.Flush()
}

func writeRaw(bw *bufio.Writer, e resp.Element) {
	switch e.Kind {
	case resp.KindSimpleString, resp.KindError:
		bw.WriteString(e.Str)
		bw.WriteByte('\n')
	case resp.KindInteger:
		bw.WriteString(strconv.FormatInt(e.Int, 10))
		bw.WriteByte('\n')
	case resp.KindBulkString:
		bw.Write(e.Bulk)
		bw.WriteByte('\n')
	case resp.KindArray:
		if e.Null {
			bw.WriteByte('\n')
			return
		}
		for _, el := range e.Elems {
			writeRaw(bw, el)
		}
	}
}
