package format

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"
)

// Primitive is the set of Go types that carry primitive values. A
// member or element value is either nil, one of these, or a Record.
type Primitive interface {
	bool | uint8 | Char | Decimal | float64 | int16 | int32 | int64 |
		int8 | float32 | TimeSpan | DateTime | uint16 | uint32 | uint64
}

// Char is a single character value. It is distinct from int32 so the
// two primitive kinds never collide in a type switch.
type Char rune

func (c Char) String() string { return string(rune(c)) }

// TimeSpan is a duration in 100-nanosecond ticks.
type TimeSpan int64

// Duration converts the span to a time.Duration, saturating at the
// representable range.
func (s TimeSpan) Duration() time.Duration {
	const perTick = 100
	if int64(s) > math.MaxInt64/perTick {
		return time.Duration(math.MaxInt64)
	}
	if int64(s) < math.MinInt64/perTick {
		return time.Duration(math.MinInt64)
	}
	return time.Duration(s) * perTick
}

// TimeSpanOf converts a duration to ticks, truncating sub-tick precision.
func TimeSpanOf(d time.Duration) TimeSpan {
	return TimeSpan(d / 100)
}

// DateTimeKind is the two-bit kind stored beside DateTime ticks.
type DateTimeKind uint8

const (
	DateTimeUnspecified DateTimeKind = 0
	DateTimeUTC         DateTimeKind = 1
	DateTimeLocal       DateTimeKind = 2
)

// Tick constants for DateTime conversion.
const (
	MaxDateTimeTicks int64 = 3155378975999999999 // 9999-12-31T23:59:59.9999999
	unixEpochTicks   int64 = 621355968000000000
	ticksPerSecond   int64 = 10_000_000
)

// DateTime is a point in time as 100ns ticks since 0001-01-01 plus kind.
type DateTime struct {
	Ticks int64
	Kind  DateTimeKind
}

// DateTimeOf converts t, keeping tick precision. Times outside the
// representable range are clamped.
func DateTimeOf(t time.Time, kind DateTimeKind) DateTime {
	const (
		minSec = -unixEpochTicks / ticksPerSecond
		maxSec = (MaxDateTimeTicks - unixEpochTicks) / ticksPerSecond
	)
	sec := t.Unix()
	switch {
	case sec < minSec:
		return DateTime{Ticks: 0, Kind: kind}
	case sec > maxSec:
		return DateTime{Ticks: MaxDateTimeTicks, Kind: kind}
	}
	ticks := sec*ticksPerSecond + int64(t.Nanosecond())/100 + unixEpochTicks
	return DateTime{Ticks: min(ticks, MaxDateTimeTicks), Kind: kind}
}

// Time converts the value to a UTC time.Time. The kind is not applied.
func (d DateTime) Time() time.Time {
	rel := d.Ticks - unixEpochTicks
	sec := rel / ticksPerSecond
	rem := rel % ticksPerSecond
	if rem < 0 {
		sec--
		rem += ticksPerSecond
	}
	return time.Unix(sec, rem*100).UTC()
}

func (d DateTime) String() string {
	return d.Time().Format("2006-01-02T15:04:05.0000000")
}

// Binary returns the 64-bit wire form: ticks in the low 62 bits, kind in
// the top two.
func (d DateTime) Binary() uint64 {
	return uint64(d.Ticks)&0x3FFFFFFFFFFFFFFF | uint64(d.Kind&0x3)<<62
}

// DateTimeFromBinary splits the 64-bit wire form, rejecting tick counts
// past the end of year 9999.
func DateTimeFromBinary(v uint64) (DateTime, error) {
	d := DateTime{
		Ticks: int64(v & 0x3FFFFFFFFFFFFFFF),
		Kind:  DateTimeKind(v >> 62),
	}
	if d.Ticks > MaxDateTimeTicks {
		return DateTime{}, fmt.Errorf("DateTime ticks %d out of range", d.Ticks)
	}
	return d, nil
}

// Limits of the 96-bit decimal representation.
const (
	MaxDecimalScale = 28
	decimalBits     = 96
)

// Decimal is a 96-bit scaled decimal carried as its culture-invariant
// text. The text is kept verbatim so values round-trip byte for byte.
type Decimal struct {
	text string
}

// ParseDecimal validates s as an invariant-culture decimal: an optional
// leading '-', digits, and an optional fraction. The value must fit the
// 96-bit mantissa with a scale of at most 28.
func ParseDecimal(s string) (Decimal, error) {
	if _, _, _, err := splitDecimal(s); err != nil {
		return Decimal{}, err
	}
	d := Decimal{text: s}
	if _, _, _, _, err := d.Bits(); err != nil {
		return Decimal{}, err
	}
	return d, nil
}

// MustDecimal is ParseDecimal that panics on error, for literals.
func MustDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) String() string {
	if d.text == "" {
		return "0"
	}
	return d.text
}

// Rat returns the exact value.
func (d Decimal) Rat() *big.Rat {
	r, ok := new(big.Rat).SetString(d.String())
	if !ok {
		return new(big.Rat)
	}
	return r
}

func splitDecimal(s string) (negative bool, intPart, frac string, err error) {
	body, negative := strings.CutPrefix(s, "-")
	intPart, frac, hasPoint := strings.Cut(body, ".")
	if intPart == "" || (hasPoint && frac == "") {
		return false, "", "", fmt.Errorf("invalid decimal %q", s)
	}
	for _, c := range intPart + frac {
		if c < '0' || c > '9' {
			return false, "", "", fmt.Errorf("invalid decimal %q", s)
		}
	}
	return negative, intPart, frac, nil
}

// Bits returns the 96-bit mantissa words and the flags word (scale in
// bits 16-23, sign in bit 31).
func (d Decimal) Bits() (lo, mid, hi uint32, flags int32, err error) {
	negative, intPart, frac, err := splitDecimal(d.String())
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if len(frac) > MaxDecimalScale {
		return 0, 0, 0, 0, fmt.Errorf("decimal %q: scale %d exceeds %d", d.text, len(frac), MaxDecimalScale)
	}
	mantissa, ok := new(big.Int).SetString(intPart+frac, 10)
	if !ok {
		return 0, 0, 0, 0, fmt.Errorf("invalid decimal %q", d.text)
	}
	if mantissa.BitLen() > decimalBits {
		return 0, 0, 0, 0, fmt.Errorf("decimal %q overflows 96 bits", d.text)
	}
	words := make([]byte, 12)
	mantissa.FillBytes(words)
	hi = uint32(words[0])<<24 | uint32(words[1])<<16 | uint32(words[2])<<8 | uint32(words[3])
	mid = uint32(words[4])<<24 | uint32(words[5])<<16 | uint32(words[6])<<8 | uint32(words[7])
	lo = uint32(words[8])<<24 | uint32(words[9])<<16 | uint32(words[10])<<8 | uint32(words[11])
	flags = int32(len(frac)) << 16
	if negative && mantissa.Sign() != 0 {
		flags |= math.MinInt32
	}
	return lo, mid, hi, flags, nil
}

// DecimalFromBits builds a Decimal from its 96-bit mantissa and flags.
func DecimalFromBits(lo, mid, hi uint32, flags int32) (Decimal, error) {
	scale := int(flags>>16) & 0xFF
	if flags&0x7F00FFFF != 0 || scale > MaxDecimalScale {
		return Decimal{}, fmt.Errorf("invalid decimal flags 0x%08x", uint32(flags))
	}
	mantissa := new(big.Int).SetUint64(uint64(hi))
	mantissa.Lsh(mantissa, 32).Or(mantissa, new(big.Int).SetUint64(uint64(mid)))
	mantissa.Lsh(mantissa, 32).Or(mantissa, new(big.Int).SetUint64(uint64(lo)))

	digits := mantissa.String()
	if scale > 0 {
		if len(digits) <= scale {
			digits = strings.Repeat("0", scale-len(digits)+1) + digits
		}
		digits = digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
	}
	if flags < 0 && mantissa.Sign() != 0 {
		digits = "-" + digits
	}
	return Decimal{text: digits}, nil
}

// primitiveTypeOf maps a Go primitive type to its wire kind.
func primitiveTypeOf[T Primitive]() PrimitiveType {
	var zero T
	return primitiveTypeOfValue(any(zero))
}

func primitiveTypeOfValue(v any) PrimitiveType {
	switch v.(type) {
	case bool:
		return PrimitiveBoolean
	case uint8:
		return PrimitiveByte
	case Char:
		return PrimitiveChar
	case Decimal:
		return PrimitiveDecimal
	case float64:
		return PrimitiveDouble
	case int16:
		return PrimitiveInt16
	case int32:
		return PrimitiveInt32
	case int64:
		return PrimitiveInt64
	case int8:
		return PrimitiveSByte
	case float32:
		return PrimitiveSingle
	case TimeSpan:
		return PrimitiveTimeSpan
	case DateTime:
		return PrimitiveDateTime
	case uint16:
		return PrimitiveUInt16
	case uint32:
		return PrimitiveUInt32
	case uint64:
		return PrimitiveUInt64
	default:
		return 0
	}
}

// PrimitiveTypeOf reports the wire kind of a Go primitive value, or
// false if v is not one of the Primitive types.
func PrimitiveTypeOf(v any) (PrimitiveType, bool) {
	t := primitiveTypeOfValue(v)
	return t, t != 0
}
