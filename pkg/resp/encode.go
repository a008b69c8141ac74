package resp

import "strconv"

// Append appends the wire form of e to dst.
func Append(dst []byte, e Element) []byte {
	switch e.Kind {
	case KindSimpleString:
		dst = appendLine(append(dst, '+'), e.Str)
	case KindError:
		dst = appendLine(append(dst, '-'), e.Str)
	case KindInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, e.Int, 10)
	case KindBulkString:
		if e.Null {
			return append(dst, "$-1\r\n"...)
		}
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(e.Bulk)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, e.Bulk...)
	case KindArray:
		if e.Null {
			return append(dst, "*-1\r\n"...)
		}
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(e.Elems)), 10)
		dst = append(dst, crlf...)
		for _, c := range e.Elems {
			dst = Append(dst, c)
		}
		return dst
	default:
		// An invalid element still produces a well-formed reply.
		dst = append(dst, "-ERR invalid reply"...)
	}
	return append(dst, crlf...)
}

// appendLine appends a simple string or error payload. CR and LF would
// end the line early, so they are written as spaces.
func appendLine(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\r' || c == '\n' {
			c = ' '
		}
		dst = append(dst, c)
	}
	return dst
}

// Encode returns the wire form of e.
func Encode(e Element) []byte {
	return Append(nil, e)
}

// Command builds the array-of-bulk-strings form clients send.
func Command(name string, args ...string) Element {
	elems := make([]Element, 0, len(args)+1)
	elems = append(elems, BulkString(name))
	for _, a := range args {
		elems = append(elems, BulkString(a))
	}
	return Array(elems...)
}
