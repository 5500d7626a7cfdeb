package extract

import (
	"strings"

	"github.com/wippyai/nrbf/format"
)

// TryGetPrimitiveList matches a generic list of a primitive or string
// element type. The backing array is truncated to the list's logical
// size. Primitive lists come back as []T for the element's Go type;
// string lists as []*string with nil for null entries.
func TryGetPrimitiveList(rec format.Record, m *format.RecordMap) (any, bool) {
	c, ok := classRecord(rec, m)
	if !ok {
		return nil, false
	}
	name := c.ClassInfo().Name
	if !strings.HasPrefix(name, ListTypePrefix) || !exactMembers(c, CollectionMembers) {
		return nil, false
	}
	size, ok := collectionSize(c)
	if !ok {
		return nil, false
	}
	items, ok := resolve(member(c, itemsMember), m)
	if !ok {
		return nil, false
	}

	switch a := items.(type) {
	case format.PrimitiveArray:
		if !listOf(name, a.PrimitiveType().SystemTypeName()) {
			return nil, false
		}
		return a.Head(size)
	case *format.ArraySingleString:
		if !listOf(name, StringTypeName) || size > len(a.Values) {
			return nil, false
		}
		values, ok := stringElements(a, m)
		if !ok {
			return nil, false
		}
		return values[:size], true
	}
	return nil, false
}

// listOf reports whether a list type name has the given element type.
func listOf(name, elementType string) bool {
	return strings.HasPrefix(name, ListTypePrefix+"[["+elementType+",")
}

func collectionSize(c format.ClassRecord) (int, bool) {
	size, ok := memberAs[int32](c, sizeMember)
	if !ok || size < 0 {
		return 0, false
	}
	if _, ok := memberAs[int32](c, versionMember); !ok {
		return 0, false
	}
	return int(size), true
}

// TryGetPrimitiveArrayList matches a non-generic list whose live elements
// are all primitives, strings, or null. It returns []any.
func TryGetPrimitiveArrayList(rec format.Record, m *format.RecordMap) (any, bool) {
	c, ok := classRecord(rec, m)
	if !ok {
		return nil, false
	}
	if c.ClassInfo().Name != ArrayListTypeName || !exactMembers(c, CollectionMembers) {
		return nil, false
	}
	size, ok := collectionSize(c)
	if !ok {
		return nil, false
	}
	items, ok := resolve(member(c, itemsMember), m)
	if !ok {
		return nil, false
	}
	a, ok := items.(*format.ArraySingleObject)
	if !ok || size > len(a.Values) {
		return nil, false
	}

	out := make([]any, size)
	for i, v := range a.Values[:size] {
		if out[i], ok = element(v, m); !ok {
			return nil, false
		}
	}
	return out, true
}

// TryGetPrimitiveArray matches a single-dimension primitive array, as []T,
// or a string array, as []*string.
func TryGetPrimitiveArray(rec format.Record, m *format.RecordMap) (any, bool) {
	r, ok := resolve(rec, m)
	if !ok {
		return nil, false
	}
	switch a := r.(type) {
	case format.PrimitiveArray:
		return a.Head(a.Len())
	case *format.ArraySingleString:
		return stringElements(a, m)
	}
	return nil, false
}

// TryGetPrimitiveHashtable matches a hashtable with the default comparer
// whose keys are non-null primitives or strings and whose values are
// primitives, strings, or null. It returns map[any]any.
func TryGetPrimitiveHashtable(rec format.Record, m *format.RecordMap) (any, bool) {
	c, ok := classRecord(rec, m)
	if !ok {
		return nil, false
	}
	if c.ClassInfo().Name != HashtableTypeName || !exactMembers(c, HashtableMembers) {
		return nil, false
	}
	if member(c, comparerMember) != nil || member(c, providerMember) != nil {
		return nil, false
	}
	if _, ok := memberAs[float32](c, "LoadFactor"); !ok {
		return nil, false
	}
	if _, ok := memberAs[int32](c, "Version"); !ok {
		return nil, false
	}
	if _, ok := memberAs[int32](c, "HashSize"); !ok {
		return nil, false
	}

	keys, ok := objectArray(member(c, keysMember), m)
	if !ok {
		return nil, false
	}
	values, ok := objectArray(member(c, valuesMember), m)
	if !ok || len(keys.Values) != len(values.Values) {
		return nil, false
	}

	out := make(map[any]any, len(keys.Values))
	for i, kv := range keys.Values {
		key, ok := element(kv, m)
		if !ok || key == nil {
			return nil, false
		}
		if _, dup := out[key]; dup {
			return nil, false
		}
		value, ok := element(values.Values[i], m)
		if !ok {
			return nil, false
		}
		out[key] = value
	}
	return out, true
}

func objectArray(v any, m *format.RecordMap) (*format.ArraySingleObject, bool) {
	r, ok := resolve(v, m)
	if !ok {
		return nil, false
	}
	a, ok := r.(*format.ArraySingleObject)
	return a, ok
}
