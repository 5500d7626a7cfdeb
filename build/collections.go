package build

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/wippyai/nrbf/errors"
	"github.com/wippyai/nrbf/extract"
	"github.com/wippyai/nrbf/format"
)

const (
	hashtableLoadFactor float32 = 0.72
	minHashSize                 = 3
)

var objectArrayMember = format.MemberType{BinaryType: format.BinaryTypeObjectArray}

// PrimitiveArray builds a graph whose root is a single-dimension array of
// values.
func PrimitiveArray[T format.Primitive](values []T) (*format.Graph, error) {
	return single(arrayOf(rootID, values))
}

func arrayOf[T format.Primitive](id format.ObjectID, values []T) (*format.ArraySinglePrimitive[T], error) {
	if _, err := length("ArraySinglePrimitive", len(values)); err != nil {
		return nil, err
	}
	return format.NewArraySinglePrimitive(id, slices.Clone(values)), nil
}

// primitiveArray builds the array record for a []T held in an any. The
// boolean reports whether v was a primitive slice at all.
func primitiveArray(id format.ObjectID, v any) (format.Record, bool, error) {
	var (
		rec format.Record
		err error
	)
	switch v := v.(type) {
	case []bool:
		rec, err = arrayOf(id, v)
	case []uint8:
		rec, err = arrayOf(id, v)
	case []format.Char:
		rec, err = arrayOf(id, v)
	case []format.Decimal:
		rec, err = arrayOf(id, v)
	case []float64:
		rec, err = arrayOf(id, v)
	case []int16:
		rec, err = arrayOf(id, v)
	case []int32:
		rec, err = arrayOf(id, v)
	case []int64:
		rec, err = arrayOf(id, v)
	case []int8:
		rec, err = arrayOf(id, v)
	case []float32:
		rec, err = arrayOf(id, v)
	case []format.TimeSpan:
		rec, err = arrayOf(id, v)
	case []format.DateTime:
		rec, err = arrayOf(id, v)
	case []uint16:
		rec, err = arrayOf(id, v)
	case []uint32:
		rec, err = arrayOf(id, v)
	case []uint64:
		rec, err = arrayOf(id, v)
	default:
		return nil, false, nil
	}
	return rec, true, err
}

// StringArray builds a graph whose root is a string array. Nil entries
// are written as nulls.
func StringArray(values []*string) (*format.Graph, error) {
	n, err := length("ArraySingleString", len(values))
	if err != nil {
		return nil, err
	}
	b := newBuilder()
	a := &format.ArraySingleString{Array: format.ArrayInfo{ObjectID: b.id(), Length: n}}
	a.Values = b.strings(values)
	b.add(a)
	return b.graph()
}

// list adds a generic or non-generic list class as the root, with its
// backing array stored as a separate top-level record.
func (b *builder) list(name string, itemsType format.MemberType, size int32) *format.SystemClassWithMembersAndTypes {
	c := &format.SystemClassWithMembersAndTypes{
		Class: format.ClassInfo{
			ObjectID:    b.id(),
			Name:        name,
			MemberNames: slices.Clone(extract.CollectionMembers),
		},
		Types: []format.MemberType{
			itemsType,
			format.PrimitiveMember(format.PrimitiveInt32),
			format.PrimitiveMember(format.PrimitiveInt32),
		},
	}
	items := b.id()
	c.Values = []any{&format.MemberReference{IDRef: items}, size, size}
	b.add(c)
	return c
}

// PrimitiveList builds a generic list of values, e.g. a List of Int32.
func PrimitiveList[T format.Primitive](values []T) (*format.Graph, error) {
	n, err := length("List", len(values))
	if err != nil {
		return nil, err
	}
	var zero T
	pt, _ := format.PrimitiveTypeOf(zero)
	b := newBuilder()
	b.list(extract.ListTypeName(pt.SystemTypeName()), format.PrimitiveArrayMember(pt), n)
	b.add(format.NewArraySinglePrimitive(rootID+1, slices.Clone(values)))
	return b.graph()
}

// StringList builds a generic list of strings. Nil entries are nulls.
func StringList(values []*string) (*format.Graph, error) {
	n, err := length("List", len(values))
	if err != nil {
		return nil, err
	}
	b := newBuilder()
	b.list(extract.ListTypeName(extract.StringTypeName),
		format.MemberType{BinaryType: format.BinaryTypeStringArray}, n)
	a := &format.ArraySingleString{Array: format.ArrayInfo{ObjectID: rootID + 1, Length: n}}
	a.Values = b.strings(values)
	b.add(a)
	return b.graph()
}

// ArrayList builds a non-generic list. Elements must be nil, strings, or
// primitives.
func ArrayList(values []any) (*format.Graph, error) {
	n, err := length("ArrayList", len(values))
	if err != nil {
		return nil, err
	}
	b := newBuilder()
	b.list(extract.ArrayListTypeName, objectArrayMember, n)
	a, err := b.objects(rootID+1, values)
	if err != nil {
		return nil, err
	}
	b.add(a)
	return b.graph()
}

func (b *builder) objects(id format.ObjectID, values []any) (*format.ArraySingleObject, error) {
	n, err := length("ArraySingleObject", len(values))
	if err != nil {
		return nil, err
	}
	a := &format.ArraySingleObject{
		Array:  format.ArrayInfo{ObjectID: id, Length: n},
		Values: make([]any, len(values)),
	}
	for i, v := range values {
		if a.Values[i], err = b.element(v); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Hashtable builds a hashtable with the default comparer. Keys must be
// non-nil strings or primitives; values may also be nil. Entries are
// written in a stable order so equal maps encode to equal bytes.
func Hashtable(m map[any]any) (*format.Graph, error) {
	keys := slices.SortedFunc(maps.Keys(m), compareKeys)
	values := make([]any, len(keys))
	for i, k := range keys {
		if k == nil {
			return nil, errors.InvalidInput(errors.PhaseBuild, "hashtable key is nil")
		}
		values[i] = m[k]
	}
	n, err := length(extract.HashtableTypeName, len(keys))
	if err != nil {
		return nil, err
	}

	b := newBuilder()
	c := &format.SystemClassWithMembersAndTypes{
		Class: format.ClassInfo{
			ObjectID:    b.id(),
			Name:        extract.HashtableTypeName,
			MemberNames: slices.Clone(extract.HashtableMembers),
		},
		Types: []format.MemberType{
			format.PrimitiveMember(format.PrimitiveSingle),
			format.PrimitiveMember(format.PrimitiveInt32),
			format.SystemClassMember("System.Collections.IComparer"),
			format.SystemClassMember("System.Collections.IHashCodeProvider"),
			format.PrimitiveMember(format.PrimitiveInt32),
			objectArrayMember,
			objectArrayMember,
		},
	}
	keysID, valuesID := b.id(), b.id()
	c.Values = []any{
		hashtableLoadFactor,
		n,
		nil,
		nil,
		hashSize(len(keys)),
		&format.MemberReference{IDRef: keysID},
		&format.MemberReference{IDRef: valuesID},
	}
	b.add(c)

	keyArray, err := b.objects(keysID, keys)
	if err != nil {
		return nil, err
	}
	valueArray, err := b.objects(valuesID, values)
	if err != nil {
		return nil, err
	}
	b.add(keyArray)
	b.add(valueArray)
	return b.graph()
}

// compareKeys orders keys by Go type, then by printed value.
func compareKeys(a, b any) int {
	return cmp.Or(
		cmp.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b)),
		cmp.Compare(fmt.Sprint(a), fmt.Sprint(b)),
	)
}

// hashSize returns the smallest prime bucket count that holds n entries at
// the default load factor.
func hashSize(n int) int32 {
	want := max(minHashSize, int(float64(n)/float64(hashtableLoadFactor))+1)
	for p := want; ; p++ {
		if isPrime(p) {
			return int32(p)
		}
	}
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}
