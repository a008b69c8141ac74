// Package resp implements the RESP2 wire format used by MemKV.
//
// The package is transport agnostic: it converts between bytes and
// Element values and never touches a socket on its own.
//
//   - element.go: the Element sum type and its constructors
//   - decode.go: Parse and the resumable Decoder
//   - encode.go: Append/Encode
//   - stream.go: Reader and Writer helpers over io.Reader/io.Writer
//
// Decoding is resumable. Parse reports ErrIncomplete when the buffer ends
// before a whole element, so callers can feed more bytes and try again.
// TCP may split or merge elements arbitrarily and pipelined clients send
// several commands in one packet; the Decoder handles both.
//
// Usage:
//
//	var d resp.Decoder
//	d.Feed(chunk)
//	for {
//		e, err := d.Next()
//		if errors.Is(err, resp.ErrIncomplete) {
//			break // read more
//		}
//		...
//	}
package resp
