package build

import (
	"github.com/wippyai/nrbf/errors"
	"github.com/wippyai/nrbf/extract"
	"github.com/wippyai/nrbf/format"
)

// String builds a graph whose root is a single string record.
func String(s string) (*format.Graph, error) {
	return format.NewGraph(rootID, &format.BinaryObjectString{ObjectID: rootID, Value: s})
}

// Primitive builds a graph whose root is the core library class of v's
// kind, e.g. System.Int32 with its m_value member.
func Primitive[T format.Primitive](v T) (*format.Graph, error) {
	return single(primitiveClass(rootID, v))
}

func primitiveClass(id format.ObjectID, v any) (format.Record, error) {
	pt, ok := format.PrimitiveTypeOf(v)
	if !ok {
		return nil, unsupported(v)
	}
	c := &format.SystemClassWithMembersAndTypes{
		Class: format.ClassInfo{ObjectID: id, Name: pt.SystemTypeName()},
	}
	add := func(name string, t format.PrimitiveType, value any) {
		c.Class.MemberNames = append(c.Class.MemberNames, name)
		c.Types = append(c.Types, format.PrimitiveMember(t))
		c.Values = append(c.Values, value)
	}

	switch v := v.(type) {
	case format.Decimal:
		lo, mid, hi, flags, err := v.Bits()
		if err != nil {
			return nil, errors.New(errors.PhaseBuild, errors.KindInvalidData).
				Record(extract.DecimalTypeName).Cause(err).Build()
		}
		add("flags", format.PrimitiveInt32, flags)
		add("hi", format.PrimitiveInt32, int32(hi))
		add("lo", format.PrimitiveInt32, int32(lo))
		add("mid", format.PrimitiveInt32, int32(mid))
	case format.DateTime:
		add("ticks", format.PrimitiveInt64, v.Ticks)
		add("dateData", format.PrimitiveUInt64, v.Binary())
	case format.TimeSpan:
		add("_ticks", format.PrimitiveInt64, int64(v))
	default:
		add("m_value", pt, v)
	}
	return c, nil
}

// element converts one ArrayList or Hashtable slot to its record form.
// Strings get fresh object ids from b.
func (b *builder) element(v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &format.BinaryObjectString{ObjectID: b.id(), Value: v}, nil
	}
	pt, ok := format.PrimitiveTypeOf(v)
	if !ok {
		return nil, unsupported(v)
	}
	return &format.MemberPrimitiveTyped{Primitive: pt, Value: v}, nil
}

// strings converts a string slice to string-array elements.
func (b *builder) strings(values []*string) []any {
	out := make([]any, len(values))
	for i, s := range values {
		if s != nil {
			out[i] = &format.BinaryObjectString{ObjectID: b.id(), Value: *s}
		}
	}
	return out
}
