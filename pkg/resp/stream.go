package resp

import (
	"bufio"
	"errors"
	"io"
)

const readChunk = 4096

// Reader decodes elements from an io.Reader.
type Reader struct {
	rd      io.Reader
	dec     Decoder
	scratch []byte
	err     error
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{rd: r, scratch: make([]byte, readChunk)}
}

// ReadElement blocks until one whole element is available.
//
// A stream that ends in the middle of an element yields
// io.ErrUnexpectedEOF; a stream that ends cleanly yields io.EOF.
func (r *Reader) ReadElement() (Element, error) {
	for {
		e, err := r.dec.Next()
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, ErrIncomplete) {
			return Element{}, err
		}
		if r.err != nil {
			if errors.Is(r.err, io.EOF) && r.dec.Buffered() > 0 {
				return Element{}, io.ErrUnexpectedEOF
			}
			return Element{}, r.err
		}

		n, err := r.rd.Read(r.scratch)
		r.dec.Feed(r.scratch[:n])
		if err != nil {
			r.err = err
		}
	}
}

// Writer encodes elements onto a buffered io.Writer.
type Writer struct {
	bw  *bufio.Writer
	buf []byte
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// WriteElement buffers the wire form of e.
func (w *Writer) WriteElement(e Element) error {
	w.buf = Append(w.buf[:0], e)
	_, err := w.bw.Write(w.buf)
	return err
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Buffered returns the number of bytes waiting for Flush.
func (w *Writer) Buffered() int {
	return w.bw.Buffered()
}
