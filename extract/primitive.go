package extract

import (
	"github.com/wippyai/nrbf/format"
)

// systemPrimitives maps "System.Int32" and friends to their kinds.
var systemPrimitives = func() map[string]format.PrimitiveType {
	out := make(map[string]format.PrimitiveType)
	for t := format.PrimitiveBoolean; t <= format.PrimitiveUInt64; t++ {
		if t.IsValue() {
			out[t.SystemTypeName()] = t
		}
	}
	return out
}()

// TryGetPrimitive matches a single primitive or string value: a string
// record, a boxed primitive record, or a core library primitive class
// such as System.Int32 with its one m_value member. Strings come back as
// string, everything else as the Go type of its format.Primitive kind.
func TryGetPrimitive(rec format.Record, m *format.RecordMap) (any, bool) {
	r, ok := resolve(rec, m)
	if !ok {
		return nil, false
	}
	switch r := r.(type) {
	case *format.BinaryObjectString:
		return r.Value, true
	case *format.MemberPrimitiveTyped:
		if _, ok := format.PrimitiveTypeOf(r.Value); !ok {
			return nil, false
		}
		return r.Value, true
	case format.ClassRecord:
		return systemPrimitive(r)
	}
	return nil, false
}

func systemPrimitive(c format.ClassRecord) (any, bool) {
	if _, fromLibrary := c.Library(); fromLibrary {
		return nil, false
	}
	switch c.ClassInfo().Name {
	case DecimalTypeName:
		return decimalClass(c)
	case DateTimeTypeName:
		return dateTimeClass(c)
	case TimeSpanTypeName:
		if !exactMembers(c, TimeSpanMembers) {
			return nil, false
		}
		ticks, ok := memberAs[int64](c, "_ticks")
		if !ok {
			return nil, false
		}
		return format.TimeSpan(ticks), true
	}

	want, known := systemPrimitives[c.ClassInfo().Name]
	if !known || !exactMembers(c, []string{valueMember}) {
		return nil, false
	}
	v := member(c, valueMember)
	if got, ok := format.PrimitiveTypeOf(v); !ok || got != want {
		return nil, false
	}
	return v, true
}

func decimalClass(c format.ClassRecord) (any, bool) {
	if !exactMembers(c, DecimalMembers) {
		return nil, false
	}
	flags, ok1 := memberAs[int32](c, "flags")
	hi, ok2 := memberAs[int32](c, "hi")
	lo, ok3 := memberAs[int32](c, "lo")
	mid, ok4 := memberAs[int32](c, "mid")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, false
	}
	d, err := format.DecimalFromBits(uint32(lo), uint32(mid), uint32(hi), flags)
	if err != nil {
		return nil, false
	}
	return d, true
}

func dateTimeClass(c format.ClassRecord) (any, bool) {
	if !exactMembers(c, DateTimeMembers) {
		return nil, false
	}
	data, ok := memberAs[uint64](c, "dateData")
	if !ok {
		return nil, false
	}
	if _, ok := memberAs[int64](c, "ticks"); !ok {
		return nil, false
	}
	d, err := format.DateTimeFromBinary(data)
	if err != nil {
		return nil, false
	}
	return d, true
}

// element converts one collection slot: nil stays nil, a Go primitive is
// kept, and a record must itself be a primitive or string.
func element(v any, m *format.RecordMap) (any, bool) {
	if v == nil {
		return nil, true
	}
	if _, ok := format.PrimitiveTypeOf(v); ok {
		return v, true
	}
	rec, ok := v.(format.Record)
	if !ok {
		return nil, false
	}
	return TryGetPrimitive(rec, m)
}

// stringElements copies the elements of a string array; null slots are
// nil pointers.
func stringElements(a *format.ArraySingleString, m *format.RecordMap) ([]*string, bool) {
	out := make([]*string, len(a.Values))
	for i, v := range a.Values {
		if v == nil {
			continue
		}
		r, ok := resolve(v, m)
		if !ok {
			return nil, false
		}
		s, ok := r.(*format.BinaryObjectString)
		if !ok {
			return nil, false
		}
		value := s.Value
		out[i] = &value
	}
	return out, true
}
