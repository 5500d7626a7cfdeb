package binary

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// Writer provides buffered writing utilities for NRBF encoding.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteBool writes a one-byte boolean.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// WriteU16 writes a little-endian uint16.
func (w *Writer) WriteU16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteU32 writes a little-endian uint32.
func (w *Writer) WriteU32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteU64 writes a little-endian uint64.
func (w *Writer) WriteU64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteS16 writes a little-endian int16.
func (w *Writer) WriteS16(v int16) { w.WriteU16(uint16(v)) }

// WriteS32 writes a little-endian int32.
func (w *Writer) WriteS32(v int32) { w.WriteU32(uint32(v)) }

// WriteS64 writes a little-endian int64.
func (w *Writer) WriteS64(v int64) { w.WriteU64(uint64(v)) }

// WriteF32 writes an IEEE 754 single.
func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }

// WriteF64 writes an IEEE 754 double.
func (w *Writer) WriteF64(v float64) { w.WriteU64(math.Float64bits(v)) }

// Write7BitLength writes a non-negative length in 7-bit groups.
func (w *Writer) Write7BitLength(n int) {
	v := uint32(n)
	for v >= 0x80 {
		w.buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	w.buf.WriteByte(byte(v))
}

// WriteString writes a length-prefixed string.
func (w *Writer) WriteString(s string) {
	w.Write7BitLength(len(s))
	w.buf.WriteString(s)
}

// WriteRune writes one UTF-8 encoded character.
func (w *Writer) WriteRune(c rune) {
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], c)
	w.buf.Write(buf[:n])
}
