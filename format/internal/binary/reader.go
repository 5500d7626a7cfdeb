package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// ErrOverflow is returned when a 7-bit encoded length exceeds five bytes
// or does not fit in an int32.
var ErrOverflow = errors.New("7-bit length: overflow")

// ErrInvalidRune is returned when a char value is not a single valid
// UTF-8 sequence.
var ErrInvalidRune = errors.New("invalid UTF-8 char")

// ChunkSize bounds how much ReadBytes allocates ahead of data actually
// arriving from the underlying reader.
const ChunkSize = 64 << 10

// Reader wraps an io.ByteReader with position tracking and NRBF-specific
// read methods. All fixed-width integers are little-endian.
type Reader struct {
	r   io.ByteReader
	pos int
}

// NewReader creates a new Reader wrapping the given io.ByteReader.
func NewReader(r io.ByteReader) *Reader {
	return &Reader{r: r, pos: 0}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining reports how many unread bytes are left when the underlying
// reader knows its length. ok is false otherwise.
func (r *Reader) Remaining() (n int, ok bool) {
	if br, isBytes := r.r.(*bytes.Reader); isBytes {
		return br.Len(), true
	}
	return 0, false
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes. The initial capacity is capped at
// ChunkSize; the slice grows only as bytes arrive.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, r.wrapError(fmt.Errorf("negative length %d", n))
	}
	if rem, ok := r.Remaining(); ok && n > rem {
		return nil, r.wrapError(fmt.Errorf("need %d bytes, %d remaining: %w", n, rem, io.ErrUnexpectedEOF))
	}
	buf := make([]byte, 0, min(n, ChunkSize))
	for i := 0; i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b)
	}
	return buf, nil
}

// ReadBool reads a one-byte boolean. Any non-zero byte is true, so a
// byte other than 0 or 1 does not survive re-encoding.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (r *Reader) readFixed(buf []byte) error {
	for i := range buf {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		buf[i] = b
	}
	return nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	var buf [2]byte
	if err := r.readFixed(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	var buf [4]byte
	if err := r.readFixed(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	var buf [8]byte
	if err := r.readFixed(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// ReadS16 reads a little-endian int16.
func (r *Reader) ReadS16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadS32 reads a little-endian int32.
func (r *Reader) ReadS32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadS64 reads a little-endian int64.
func (r *Reader) ReadS64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

// ReadF32 reads an IEEE 754 single.
func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return math.Float32frombits(v), err
}

// ReadF64 reads an IEEE 754 double.
func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	return math.Float64frombits(v), err
}

// Read7BitLength reads a 7-bit encoded length: little-endian groups of
// seven bits, high bit set on every byte but the last, at most five bytes.
func (r *Reader) Read7BitLength() (int, error) {
	var result uint32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if shift == 28 && b > 0x07 {
			return 0, r.wrapError(ErrOverflow)
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift > 28 {
			return 0, r.wrapError(ErrOverflow)
		}
	}
	if result > math.MaxInt32 {
		return 0, r.wrapError(ErrOverflow)
	}
	return int(result), nil
}

// ReadString reads a length-prefixed string. The bytes are kept verbatim
// so re-encoding reproduces them exactly.
func (r *Reader) ReadString() (string, error) {
	length, err := r.Read7BitLength()
	if err != nil {
		return "", err
	}
	data, err := r.ReadBytes(length)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadRune reads one UTF-8 encoded character.
func (r *Reader) ReadRune() (rune, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	var size int
	switch {
	case first < 0x80:
		return rune(first), nil
	case first&0xE0 == 0xC0:
		size = 2
	case first&0xF0 == 0xE0:
		size = 3
	case first&0xF8 == 0xF0:
		size = 4
	default:
		return 0, r.wrapError(ErrInvalidRune)
	}
	var buf [4]byte
	buf[0] = first
	if err := r.readFixed(buf[1:size]); err != nil {
		return 0, err
	}
	c, n := utf8.DecodeRune(buf[:size])
	if c == utf8.RuneError || n != size {
		return 0, r.wrapError(ErrInvalidRune)
	}
	return c, nil
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at position %d: %w", r.pos, err)
}
