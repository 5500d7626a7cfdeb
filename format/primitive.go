package format

import (
	"fmt"
	"io"

	"github.com/wippyai/nrbf/errors"
	"github.com/wippyai/nrbf/format/internal/binary"
)

// ReadPrimitive decodes one value of kind t from r. Strings are never
// primitive values; they are always their own record.
func ReadPrimitive(r io.ByteReader, t PrimitiveType) (any, error) {
	return readPrimitive(binary.NewReader(r), t)
}

// WritePrimitive encodes v as kind t. The Go type of v must match t
// exactly; there is no coercion.
func WritePrimitive(w io.Writer, t PrimitiveType, v any) error {
	bw := binary.NewWriter()
	if err := writePrimitive(bw, t, v); err != nil {
		return err
	}
	_, err := w.Write(bw.Bytes())
	return err
}

// primitiveSize returns the minimum encoded size of kind t, used to
// reject declared lengths the remaining input cannot satisfy.
func primitiveSize(t PrimitiveType) int {
	switch t {
	case PrimitiveBoolean, PrimitiveByte, PrimitiveSByte, PrimitiveChar, PrimitiveDecimal:
		return 1
	case PrimitiveInt16, PrimitiveUInt16:
		return 2
	case PrimitiveInt32, PrimitiveUInt32, PrimitiveSingle:
		return 4
	default:
		return 8
	}
}

func readPrimitive(r *binary.Reader, t PrimitiveType) (any, error) {
	switch t {
	case PrimitiveBoolean:
		return r.ReadBool()
	case PrimitiveByte:
		return r.ReadByte()
	case PrimitiveChar:
		c, err := r.ReadRune()
		return Char(c), err
	case PrimitiveDecimal:
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		d, err := ParseDecimal(s)
		if err != nil {
			return nil, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
				Offset(r.Position()).
				Detail("decimal value").
				Cause(err).
				Build()
		}
		return d, nil
	case PrimitiveDouble:
		return r.ReadF64()
	case PrimitiveInt16:
		return r.ReadS16()
	case PrimitiveInt32:
		return r.ReadS32()
	case PrimitiveInt64:
		return r.ReadS64()
	case PrimitiveSByte:
		b, err := r.ReadByte()
		return int8(b), err
	case PrimitiveSingle:
		return r.ReadF32()
	case PrimitiveTimeSpan:
		v, err := r.ReadS64()
		return TimeSpan(v), err
	case PrimitiveDateTime:
		v, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		d, err := DateTimeFromBinary(v)
		if err != nil {
			return nil, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
				Offset(r.Position()).
				Cause(err).
				Build()
		}
		return d, nil
	case PrimitiveUInt16:
		return r.ReadU16()
	case PrimitiveUInt32:
		return r.ReadU32()
	case PrimitiveUInt64:
		return r.ReadU64()
	default:
		return nil, errors.UnsupportedPrimitive(errors.PhaseDecode, t)
	}
}

func writePrimitive(w *binary.Writer, t PrimitiveType, v any) error {
	if !t.IsValue() {
		return errors.UnsupportedPrimitive(errors.PhaseEncode, t)
	}
	if got := primitiveTypeOfValue(v); got != t {
		return errors.TypeMismatch(errors.PhaseEncode, nil, fmt.Sprintf("%T", v), t.String())
	}
	switch val := v.(type) {
	case bool:
		w.WriteBool(val)
	case uint8:
		w.Byte(val)
	case Char:
		w.WriteRune(rune(val))
	case Decimal:
		w.WriteString(val.String())
	case float64:
		w.WriteF64(val)
	case int16:
		w.WriteS16(val)
	case int32:
		w.WriteS32(val)
	case int64:
		w.WriteS64(val)
	case int8:
		w.Byte(byte(val))
	case float32:
		w.WriteF32(val)
	case TimeSpan:
		w.WriteS64(int64(val))
	case DateTime:
		w.WriteU64(val.Binary())
	case uint16:
		w.WriteU16(val)
	case uint32:
		w.WriteU32(val)
	case uint64:
		w.WriteU64(val)
	}
	return nil
}

// byteReader adapts an io.Reader for the decoder. Readers without
// ReadByte are read one byte at a time so nothing past MessageEnd is
// consumed.
func byteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return &singleByteReader{r: r}
}

type singleByteReader struct {
	r   io.Reader
	buf [1]byte
}

func (s *singleByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, err
	}
	return s.buf[0], nil
}
