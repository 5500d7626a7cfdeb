package payload

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/wippyai/nrbf/errors"
)

var sample = bytes.Repeat([]byte{0x00, 0x01, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}, 64)

func TestReadRoundTrip(t *testing.T) {
	for _, c := range []Compression{None, Zstd, LZ4} {
		t.Run(string(c), func(t *testing.T) {
			packed, err := Compress(sample, c)
			if err != nil {
				t.Fatalf("Compress() error = %v", err)
			}
			if got := Sniff(packed); got != c {
				t.Errorf("Sniff() = %q, want %q", got, c)
			}
			for _, mode := range []Compression{c, Auto} {
				got, err := Read(bytes.NewReader(packed), mode)
				if err != nil {
					t.Fatalf("Read(%s) error = %v", mode, err)
				}
				if !bytes.Equal(got, sample) {
					t.Errorf("Read(%s) returned %d bytes, want %d", mode, len(got), len(sample))
				}
			}
		})
	}
}

func TestReadCorrupt(t *testing.T) {
	corrupt := append(bytes.Clone(zstdMagic), 0xDE, 0xAD, 0xBE, 0xEF)
	_, err := Read(bytes.NewReader(corrupt), Auto)
	if err == nil {
		t.Fatal("expected error")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Phase != errors.PhaseLoad {
		t.Errorf("error = %v, want load phase", err)
	}
}

func TestReadTooLarge(t *testing.T) {
	big := bytes.NewReader(make([]byte, MaxSize+1))
	_, err := Read(big, None)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindOverflow {
		t.Errorf("error = %v, want overflow", err)
	}
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    Compression
		wantErr bool
	}{
		{"", None, false},
		{"none", None, false},
		{"zstd", Zstd, false},
		{"lz4", LZ4, false},
		{"auto", Auto, false},
		{"gzip", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCompression(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestSum(t *testing.T) {
	a := Sum([]byte("stream"))
	if a != Sum([]byte("stream")) {
		t.Error("digest is not deterministic")
	}
	if a == Sum([]byte("stream!")) {
		t.Error("different inputs share a digest")
	}
	if len(a.String()) != 64 || a.Short() != a.String()[:12] {
		t.Errorf("String() = %q, Short() = %q", a.String(), a.Short())
	}
}
