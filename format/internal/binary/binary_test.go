package binary

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(bytes.NewReader(data))

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	if r.Position() != 3 {
		t.Errorf("final position: got %d, want 3", r.Position())
	}

	_, err := r.ReadByte()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReaderReadBytes(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	r := NewReader(bytes.NewReader(data))

	got, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadBytes: got %v, want [1 2 3]", got)
	}

	if r.Position() != 3 {
		t.Errorf("position: got %d, want 3", r.Position())
	}

	_, err = r.ReadBytes(10)
	if err == nil {
		t.Error("expected error for reading past EOF")
	}
}

func TestReaderReadBytesHugeLength(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2, 3}))
	_, err := r.ReadBytes(math.MaxInt32)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
	if r.Position() != 0 {
		t.Errorf("known-length reader should fail before consuming, position %d", r.Position())
	}

	// Without a known length the read fails once the data runs out.
	br := NewReader(bufio.NewReader(strings.NewReader("abc")))
	if _, err := br.ReadBytes(math.MaxInt32); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReaderFixedWidth(t *testing.T) {
	w := NewWriter()
	w.WriteBool(true)
	w.WriteU16(0xBEEF)
	w.WriteS16(-2)
	w.WriteU32(0xDEADBEEF)
	w.WriteS32(-123456)
	w.WriteU64(0x0102030405060708)
	w.WriteS64(math.MinInt64)
	w.WriteF32(3.5)
	w.WriteF64(-0.25)

	r := NewReader(bytes.NewReader(w.Bytes()))
	if v, err := r.ReadBool(); err != nil || !v {
		t.Errorf("ReadBool: %v %v", v, err)
	}
	if v, err := r.ReadU16(); err != nil || v != 0xBEEF {
		t.Errorf("ReadU16: %x %v", v, err)
	}
	if v, err := r.ReadS16(); err != nil || v != -2 {
		t.Errorf("ReadS16: %d %v", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 0xDEADBEEF {
		t.Errorf("ReadU32: %x %v", v, err)
	}
	if v, err := r.ReadS32(); err != nil || v != -123456 {
		t.Errorf("ReadS32: %d %v", v, err)
	}
	if v, err := r.ReadU64(); err != nil || v != 0x0102030405060708 {
		t.Errorf("ReadU64: %x %v", v, err)
	}
	if v, err := r.ReadS64(); err != nil || v != math.MinInt64 {
		t.Errorf("ReadS64: %d %v", v, err)
	}
	if v, err := r.ReadF32(); err != nil || v != 3.5 {
		t.Errorf("ReadF32: %v %v", v, err)
	}
	if v, err := r.ReadF64(); err != nil || v != -0.25 {
		t.Errorf("ReadF64: %v %v", v, err)
	}
	if rem, ok := r.Remaining(); !ok || rem != 0 {
		t.Errorf("Remaining: %d %v", rem, ok)
	}
}

func TestLittleEndianLayout(t *testing.T) {
	w := NewWriter()
	w.WriteS32(1)
	if !bytes.Equal(w.Bytes(), []byte{1, 0, 0, 0}) {
		t.Errorf("WriteS32(1) = %x", w.Bytes())
	}
}

func TestRead7BitLength(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    int
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0x01}, 255},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x07}, math.MaxInt32},
	}

	for _, tt := range tests {
		r := NewReader(bytes.NewReader(tt.encoded))
		got, err := r.Read7BitLength()
		if err != nil {
			t.Errorf("Read7BitLength(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Read7BitLength(%v): got %d, want %d", tt.encoded, got, tt.want)
		}

		w := NewWriter()
		w.Write7BitLength(tt.want)
		if !bytes.Equal(w.Bytes(), tt.encoded) {
			t.Errorf("Write7BitLength(%d): got %x, want %x", tt.want, w.Bytes(), tt.encoded)
		}
	}
}

func TestRead7BitLengthOverflow(t *testing.T) {
	for _, data := range [][]byte{
		{0x80, 0x80, 0x80, 0x80, 0x80, 0x01},
		{0xff, 0xff, 0xff, 0xff, 0x0f},
	} {
		r := NewReader(bytes.NewReader(data))
		_, err := r.Read7BitLength()
		if !errors.Is(err, ErrOverflow) {
			t.Errorf("%x: expected ErrOverflow, got %v", data, err)
		}
	}
}

func TestReadStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "Point", "System.Collections.Generic.List`1", "héllo wörld", strings.Repeat("x", 300)} {
		w := NewWriter()
		w.WriteString(s)
		r := NewReader(bytes.NewReader(w.Bytes()))
		got, err := r.ReadString()
		if err != nil {
			t.Fatalf("ReadString(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("ReadString: got %q, want %q", got, s)
		}
	}
}

func TestReadRune(t *testing.T) {
	for _, c := range []rune{'a', 'é', '€', '𝄞'} {
		w := NewWriter()
		w.WriteRune(c)
		r := NewReader(bytes.NewReader(w.Bytes()))
		got, err := r.ReadRune()
		if err != nil {
			t.Fatalf("ReadRune(%q): %v", c, err)
		}
		if got != c {
			t.Errorf("ReadRune: got %q, want %q", got, c)
		}
	}

	for _, bad := range [][]byte{{0xff}, {0x80}, {0xC3, 0x28}} {
		r := NewReader(bytes.NewReader(bad))
		if _, err := r.ReadRune(); !errors.Is(err, ErrInvalidRune) {
			t.Errorf("ReadRune(%x): expected ErrInvalidRune, got %v", bad, err)
		}
	}
}
