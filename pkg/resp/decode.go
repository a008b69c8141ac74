package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Protocol limits to prevent DoS attacks.
const (
	// MaxLineLen limits a simple string, error, integer or length header line.
	MaxLineLen = 64 * 1024

	// MaxBulkLen limits the size of a single bulk string (512MB, as Redis).
	MaxBulkLen = 512 * 1024 * 1024

	// MaxArrayLen limits the number of elements in a RESP array.
	MaxArrayLen = 1 << 20

	// MaxDepth limits array nesting.
	MaxDepth = 32
)

var (
	// ErrProtocol reports malformed bytes. It is connection fatal.
	ErrProtocol = errors.New("resp: protocol error")

	// ErrLimitExceeded reports input beyond one of the protocol limits.
	// It is connection fatal.
	ErrLimitExceeded = errors.New("resp: limit exceeded")

	// ErrIncomplete reports that the buffer ends before a whole element.
	// It is not a failure: feed more bytes and retry.
	ErrIncomplete = errors.New("resp: incomplete element")
)

var crlf = []byte("\r\n")

// IsProtocolError reports whether err means the peer sent bad framing.
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrProtocol) || errors.Is(err, ErrLimitExceeded)
}

// Parse decodes the first element of buf.
//
// It returns the element and the number of bytes it occupies. When buf
// holds only a prefix of an element, Parse returns ErrIncomplete and
// consumes nothing. Returned elements never alias buf.
func Parse(buf []byte) (Element, int, error) {
	return parse(buf, 0)
}

func parse(buf []byte, depth int) (Element, int, error) {
	if len(buf) == 0 {
		return Element{}, 0, ErrIncomplete
	}

	switch buf[0] {
	case '+':
		line, n, err := readLine(buf)
		if err != nil {
			return Element{}, 0, err
		}
		return SimpleString(string(line)), n, nil
	case '-':
		line, n, err := readLine(buf)
		if err != nil {
			return Element{}, 0, err
		}
		return Error(string(line)), n, nil
	case ':':
		line, n, err := readLine(buf)
		if err != nil {
			return Element{}, 0, err
		}
		v, err := strconv.ParseInt(string(line), 10, 64)
		if err != nil {
			return Element{}, 0, fmt.Errorf("%w: invalid integer %q", ErrProtocol, line)
		}
		return Integer(v), n, nil
	case '$':
		return parseBulk(buf)
	case '*':
		return parseArray(buf, depth)
	default:
		return Element{}, 0, fmt.Errorf("%w: unknown type byte %q", ErrProtocol, buf[0])
	}
}

func parseBulk(buf []byte) (Element, int, error) {
	size, n, err := readLength(buf)
	if err != nil {
		return Element{}, 0, err
	}
	if size == -1 {
		return NullBulk(), n, nil
	}
	if size < 0 {
		return Element{}, 0, fmt.Errorf("%w: invalid bulk length %d", ErrProtocol, size)
	}
	if size > MaxBulkLen {
		return Element{}, 0, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, size, MaxBulkLen)
	}

	end := n + int(size)
	if len(buf) < end+2 {
		return Element{}, 0, ErrIncomplete
	}
	if buf[end] != '\r' || buf[end+1] != '\n' {
		return Element{}, 0, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}

	payload := make([]byte, size)
	copy(payload, buf[n:end])
	return Element{Kind: KindBulkString, Bulk: payload}, end + 2, nil
}

func parseArray(buf []byte, depth int) (Element, int, error) {
	if depth >= MaxDepth {
		return Element{}, 0, fmt.Errorf("%w: nesting deeper than %d", ErrLimitExceeded, MaxDepth)
	}

	count, n, err := readLength(buf)
	if err != nil {
		return Element{}, 0, err
	}
	if count == -1 {
		return NullArray(), n, nil
	}
	if count < 0 {
		return Element{}, 0, fmt.Errorf("%w: invalid array length %d", ErrProtocol, count)
	}
	if count > MaxArrayLen {
		return Element{}, 0, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, count, MaxArrayLen)
	}

	// Grow as elements arrive; the declared count is untrusted.
	elems := make([]Element, 0, min(int(count), 64))
	pos := n
	for i := int64(0); i < count; i++ {
		e, used, err := parse(buf[pos:], depth+1)
		if err != nil {
			return Element{}, 0, err
		}
		elems = append(elems, e)
		pos += used
	}
	return Element{Kind: KindArray, Elems: elems}, pos, nil
}

// readLength parses a "$<n>\r\n" or "*<n>\r\n" header.
func readLength(buf []byte) (int64, int, error) {
	line, n, err := readLine(buf)
	if err != nil {
		return 0, 0, err
	}
	v, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid length %q", ErrProtocol, line)
	}
	return v, n, nil
}

// readLine returns the payload between the type byte and CRLF, and the
// number of bytes up to and including CRLF.
func readLine(buf []byte) ([]byte, int, error) {
	idx := bytes.Index(buf, crlf)
	if idx < 0 {
		if len(buf) > MaxLineLen {
			return nil, 0, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, MaxLineLen)
		}
		return nil, 0, ErrIncomplete
	}
	if idx > MaxLineLen {
		return nil, 0, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, MaxLineLen)
	}
	return buf[1:idx], idx + 2, nil
}

// Decoder buffers a byte stream and yields complete elements in order.
//
// Element boundaries are found by a scanner that resumes where the
// previous Next stopped, so an element delivered in many small reads is
// scanned once and parsed once.
//
// The zero value is ready to use. A Decoder is not safe for concurrent use.
type Decoder struct {
	buf  []byte
	off  int
	scan frameScanner
}

// Feed appends p to the pending input.
func (d *Decoder) Feed(p []byte) {
	if len(p) == 0 {
		return
	}
	// Reclaim consumed space before growing.
	if d.off > 0 && d.off >= len(d.buf)/2 {
		n := copy(d.buf, d.buf[d.off:])
		d.buf = d.buf[:n]
		d.off = 0
	}
	d.buf = append(d.buf, p...)
}

// Next decodes the next buffered element.
//
// It returns ErrIncomplete when the buffered bytes do not hold a whole
// element; nothing is consumed in that case.
func (d *Decoder) Next() (Element, error) {
	if d.off == len(d.buf) {
		return Element{}, ErrIncomplete
	}
	size, err := d.scan.advance(d.buf[d.off:])
	if err != nil {
		if !errors.Is(err, ErrIncomplete) {
			d.scan.reset()
		}
		return Element{}, err
	}
	d.scan.reset()

	e, n, err := Parse(d.buf[d.off : d.off+size])
	if err != nil {
		return Element{}, err
	}
	d.off += n
	if d.off == len(d.buf) {
		d.buf = d.buf[:0]
		d.off = 0
	}
	return e, nil
}

// Buffered returns the number of bytes fed but not yet consumed.
func (d *Decoder) Buffered() int {
	return len(d.buf) - d.off
}

// Reset drops all pending input.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.off = 0
	d.scan.reset()
}

// frameScanner finds where the pending element ends without building it.
// pos is the offset of the first unscanned header and open holds the
// number of elements still expected by each enclosing array.
type frameScanner struct {
	pos  int
	open []int64
}

func (s *frameScanner) reset() {
	s.pos = 0
	s.open = s.open[:0]
}

// advance scans buf, the pending input starting at the element, from
// where the last call stopped. It returns the element size once every
// byte of it is buffered. It applies the same checks as Parse so a bad
// frame fails as soon as its header arrives.
func (s *frameScanner) advance(buf []byte) (int, error) {
	for {
		if s.pos >= len(buf) {
			return 0, ErrIncomplete
		}
		rest := buf[s.pos:]
		switch rest[0] {
		case '+', '-':
			_, n, err := readLine(rest)
			if err != nil {
				return 0, err
			}
			s.pos += n
		case ':':
			line, n, err := readLine(rest)
			if err != nil {
				return 0, err
			}
			if _, err := strconv.ParseInt(string(line), 10, 64); err != nil {
				return 0, fmt.Errorf("%w: invalid integer %q", ErrProtocol, line)
			}
			s.pos += n
		case '$':
			n, err := scanBulk(rest)
			if err != nil {
				return 0, err
			}
			s.pos += n
		case '*':
			if len(s.open) >= MaxDepth {
				return 0, fmt.Errorf("%w: nesting deeper than %d", ErrLimitExceeded, MaxDepth)
			}
			count, n, err := readLength(rest)
			if err != nil {
				return 0, err
			}
			if count < -1 {
				return 0, fmt.Errorf("%w: invalid array length %d", ErrProtocol, count)
			}
			if count > MaxArrayLen {
				return 0, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, count, MaxArrayLen)
			}
			s.pos += n
			if count > 0 {
				s.open = append(s.open, count)
				continue
			}
		default:
			return 0, fmt.Errorf("%w: unknown type byte %q", ErrProtocol, rest[0])
		}

		// One element finished; close every array it completes.
		for len(s.open) > 0 {
			top := len(s.open) - 1
			s.open[top]--
			if s.open[top] > 0 {
				break
			}
			s.open = s.open[:top]
		}
		if len(s.open) == 0 {
			return s.pos, nil
		}
	}
}

// scanBulk returns the size of the bulk string at the start of buf.
func scanBulk(buf []byte) (int, error) {
	size, n, err := readLength(buf)
	if err != nil {
		return 0, err
	}
	if size == -1 {
		return n, nil
	}
	if size < 0 {
		return 0, fmt.Errorf("%w: invalid bulk length %d", ErrProtocol, size)
	}
	if size > MaxBulkLen {
		return 0, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, size, MaxBulkLen)
	}
	end := n + int(size)
	if len(buf) < end+2 {
		return 0, ErrIncomplete
	}
	if buf[end] != '\r' || buf[end+1] != '\n' {
		return 0, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return end + 2, nil
}
