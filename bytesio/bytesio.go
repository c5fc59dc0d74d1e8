// Package bytesio provides typed, endian-explicit binary reads and
// writes over a seekable byte source or sink. Every on-disk structure
// in this module is packed and read field-by-field through this
// package -- never via an unsafe cast -- because host layout, padding,
// and endianness differ from the wire format.
package bytesio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/jddeal/radarvolume/raderr"
)

// Reader wraps an io.ReadSeeker with a fixed byte order.
type Reader struct {
	R     io.ReadSeeker
	Order binary.ByteOrder
}

// NewReader returns a Reader that decodes fields using order.
func NewReader(r io.ReadSeeker, order binary.ByteOrder) *Reader {
	return &Reader{R: r, Order: order}
}

// Read decodes a fixed-size value (or struct of fixed-size fields) from
// the reader. A short read at a position where a complete record was
// required is reported as raderr.ErrMalformedHeader.
func (r *Reader) Read(v interface{}) error {
	if err := binary.Read(r.R, r.Order, v); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
		}
		return fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}
	return nil
}

// ReadFull reads exactly len(buf) bytes.
func (r *Reader) ReadFull(buf []byte) error {
	if _, err := io.ReadFull(r.R, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
		}
		return fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}
	return nil
}

// ReadFixedString reads an n-byte character field and trims trailing
// zero bytes.
func (r *Reader) ReadFixedString(n int) (string, error) {
	buf := make([]byte, n)
	if err := r.ReadFull(buf); err != nil {
		return "", err
	}
	return TrimFixedString(buf), nil
}

// Peek returns the next n bytes without advancing the reader's
// position.
func (r *Reader) Peek(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.ReadFull(buf); err != nil {
		return nil, err
	}
	if _, err := r.R.Seek(-int64(n), io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}
	return buf, nil
}

// PeekIdentifier peeks the 4-byte block identifier without consuming it.
func (r *Reader) PeekIdentifier() (string, error) {
	id, err := r.Peek(4)
	if err != nil {
		return "", err
	}
	return string(id), nil
}

// Seek advances the reader by delta bytes relative to the current
// position (delta may be negative).
func (r *Reader) Seek(delta int64) error {
	if _, err := r.R.Seek(delta, io.SeekCurrent); err != nil {
		return fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}
	return nil
}

// Writer wraps an io.Writer with a fixed byte order.
type Writer struct {
	W     io.Writer
	Order binary.ByteOrder
}

// NewWriter returns a Writer that encodes fields using order.
func NewWriter(w io.Writer, order binary.ByteOrder) *Writer {
	return &Writer{W: w, Order: order}
}

// Write encodes a fixed-size value (or struct of fixed-size fields) to
// the writer.
func (w *Writer) Write(v interface{}) error {
	if err := binary.Write(w.W, w.Order, v); err != nil {
		return fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}
	return nil
}

// WriteFixedString uppercases s (radar identifiers are conventionally
// uppercase), truncates it to n bytes, and right-pads the remainder
// with zero bytes.
func (w *Writer) WriteFixedString(s string, n int) error {
	buf := PadFixedString(s, n)
	_, err := w.W.Write(buf)
	if err != nil {
		return fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}
	return nil
}

// TrimFixedString strips trailing zero bytes from a fixed-length
// character field.
func TrimFixedString(buf []byte) string {
	return string(bytes.TrimRight(buf, "\x00"))
}

// PadFixedString uppercases, truncates to n bytes, and zero-pads s to
// exactly n bytes.
func PadFixedString(s string, n int) []byte {
	upper := []byte(strings.ToUpper(s))
	if len(upper) > n {
		upper = upper[:n]
	}
	buf := make([]byte, n)
	copy(buf, upper)
	return buf
}
