// Package payload acquires stream bytes for the command line tool:
// optional decompression, a hard size bound, and a content digest for
// reporting.
package payload

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/blake3"

	"github.com/wippyai/nrbf/errors"
)

// MaxSize bounds both the raw input and its decompressed form.
const MaxSize = 64 << 20

// Compression names a payload wrapping.
type Compression string

const (
	None Compression = "none"
	Zstd Compression = "zstd"
	LZ4  Compression = "lz4"
	Auto Compression = "auto"
)

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// ParseCompression validates a compression name. The empty string means
// None.
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(name); c {
	case "":
		return None, nil
	case None, Zstd, LZ4, Auto:
		return c, nil
	}
	return "", errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Detail("unknown compression %q (want none, zstd, lz4 or auto)", name).
		Build()
}

var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("payload: zstd encoder initialization failed: " + err.Error())
	}
}

// Read returns the stream bytes from r, decompressing per c. Inputs or
// outputs larger than MaxSize fail.
func Read(r io.Reader, c Compression) ([]byte, error) {
	raw, err := readBounded(r, "input")
	if err != nil {
		return nil, err
	}
	if c == Auto {
		c = Sniff(raw)
	}

	switch c {
	case None, "":
		return raw, nil
	case Zstd:
		dec, err := zstd.NewReader(bytes.NewReader(raw), zstd.WithDecoderMaxMemory(MaxSize))
		if err != nil {
			return nil, errors.Load("zstd reader", err)
		}
		defer dec.Close()
		return readBounded(dec, "zstd payload")
	case LZ4:
		return readBounded(lz4.NewReader(bytes.NewReader(raw)), "lz4 payload")
	}
	return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("unknown compression %q", c))
}

// Sniff reports the compression of data from its magic number.
func Sniff(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return Zstd
	case bytes.HasPrefix(data, lz4Magic):
		return LZ4
	}
	return None
}

func readBounded(r io.Reader, what string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, errors.Load("read "+what, err)
	}
	if len(data) > MaxSize {
		return nil, errors.New(errors.PhaseLoad, errors.KindOverflow).
			Detail("%s exceeds %d bytes", what, MaxSize).
			Build()
	}
	return data, nil
}

// Compress wraps data per c. Auto is treated as None.
func Compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case None, Auto, "":
		return bytes.Clone(data), nil
	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("unknown compression %q", c))
}

// Digest is a 32-byte BLAKE3 keyed hash of a payload.
type Digest [32]byte

// digestKey separates payload digests from any other BLAKE3 use. It is
// the ASCII domain name, zero-padded.
var digestKey = [32]byte{
	'n', 'r', 'b', 'f', '.', 'p', 'a', 'y', 'l', 'o', 'a', 'd',
}

// Sum returns the digest of data.
func Sum(data []byte) Digest {
	h, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		panic("payload: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	h.Write(data)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short is the first 12 hex characters, for log lines.
func (d Digest) Short() string {
	return hex.EncodeToString(d[:6])
}
