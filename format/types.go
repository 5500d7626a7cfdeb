package format

import (
	"slices"

	"github.com/wippyai/nrbf/errors"
)

// ObjectID identifies a record within one stream. Positive ids are unique
// and may be referenced; zero and negative ids are never referenced.
type ObjectID int32

// Record is one decoded unit of the stream. The concrete types are the
// pointer types declared in this package; the set is closed.
type Record interface {
	RecordType() RecordType
	record()
}

// Identified is implemented by records that carry an object id.
type Identified interface {
	Record
	ID() ObjectID
}

// Leading holds BinaryLibrary records that appeared immediately before a
// record in the stream. They are re-emitted in the same position.
type Leading struct {
	Libraries []*BinaryLibrary
}

// LeadingLibraries returns the libraries written before the record.
func (l *Leading) LeadingLibraries() []*BinaryLibrary { return l.Libraries }

func (l *Leading) setLibraries(libs []*BinaryLibrary) { l.Libraries = libs }

type leader interface {
	LeadingLibraries() []*BinaryLibrary
	setLibraries([]*BinaryLibrary)
}

// SerializationHeader opens every stream.
type SerializationHeader struct {
	RootID       ObjectID
	HeaderID     ObjectID
	MajorVersion int32
	MinorVersion int32
}

func (*SerializationHeader) RecordType() RecordType { return RecordSerializedStreamHeader }
func (*SerializationHeader) record()                {}

// MessageEnd terminates every stream.
type MessageEnd struct{}

func (*MessageEnd) RecordType() RecordType { return RecordMessageEnd }
func (*MessageEnd) record()                {}

// BinaryLibrary binds a library id to an assembly name.
type BinaryLibrary struct {
	LibraryID ObjectID
	Name      string
}

func (*BinaryLibrary) RecordType() RecordType { return RecordBinaryLibrary }
func (*BinaryLibrary) record()                {}
func (b *BinaryLibrary) ID() ObjectID         { return b.LibraryID }

// ClassInfo is the metadata shared by all class records.
type ClassInfo struct {
	ObjectID    ObjectID
	Name        string
	MemberNames []string
}

// IndexOf returns the position of the named member, or -1.
func (c *ClassInfo) IndexOf(name string) int {
	return slices.Index(c.MemberNames, name)
}

// MemberType describes how one member or array element is encoded.
// Primitive is set for BinaryTypePrimitive and BinaryTypePrimitiveArray,
// ClassName for BinaryTypeSystemClass and BinaryTypeClass, LibraryID for
// BinaryTypeClass.
type MemberType struct {
	BinaryType BinaryType
	Primitive  PrimitiveType
	ClassName  string
	LibraryID  ObjectID
}

// PrimitiveMember is a shorthand for a primitive member type.
func PrimitiveMember(t PrimitiveType) MemberType {
	return MemberType{BinaryType: BinaryTypePrimitive, Primitive: t}
}

// PrimitiveArrayMember is a shorthand for a primitive array member type.
func PrimitiveArrayMember(t PrimitiveType) MemberType {
	return MemberType{BinaryType: BinaryTypePrimitiveArray, Primitive: t}
}

// SystemClassMember is a shorthand for a system class member type.
func SystemClassMember(name string) MemberType {
	return MemberType{BinaryType: BinaryTypeSystemClass, ClassName: name}
}

// ClassRecord is implemented by the five class record shapes.
type ClassRecord interface {
	Identified
	// ClassInfo returns the class metadata. For ClassWithID it is the
	// metadata of the referenced class.
	ClassInfo() *ClassInfo
	// MemberTypes returns the per-member encodings, or nil for the
	// metadata-only shapes.
	MemberTypes() []MemberType
	// Library returns the library id for non-system classes.
	Library() (ObjectID, bool)
	// MemberValues returns the member values in declared order.
	MemberValues() []any
}

// Member returns the value of the named member of c.
func Member(c ClassRecord, name string) (any, bool) {
	i := c.ClassInfo().IndexOf(name)
	if i < 0 {
		return nil, false
	}
	values := c.MemberValues()
	if i >= len(values) {
		return nil, false
	}
	return values[i], true
}

// ClassWithMembersAndTypes is a class from a named library with inline
// member type information.
type ClassWithMembersAndTypes struct {
	Leading
	Class     ClassInfo
	Types     []MemberType
	LibraryID ObjectID
	Values    []any
}

func (*ClassWithMembersAndTypes) RecordType() RecordType { return RecordClassWithMembersAndTypes }
func (*ClassWithMembersAndTypes) record()                {}
func (c *ClassWithMembersAndTypes) ID() ObjectID         { return c.Class.ObjectID }
func (c *ClassWithMembersAndTypes) ClassInfo() *ClassInfo {
	return &c.Class
}
func (c *ClassWithMembersAndTypes) MemberTypes() []MemberType  { return c.Types }
func (c *ClassWithMembersAndTypes) Library() (ObjectID, bool) { return c.LibraryID, true }
func (c *ClassWithMembersAndTypes) MemberValues() []any        { return c.Values }

// SystemClassWithMembersAndTypes is a class from the core library with
// inline member type information.
type SystemClassWithMembersAndTypes struct {
	Leading
	Class  ClassInfo
	Types  []MemberType
	Values []any
}

func (*SystemClassWithMembersAndTypes) RecordType() RecordType {
	return RecordSystemClassWithMembersAndTypes
}
func (*SystemClassWithMembersAndTypes) record()                 {}
func (c *SystemClassWithMembersAndTypes) ID() ObjectID          { return c.Class.ObjectID }
func (c *SystemClassWithMembersAndTypes) ClassInfo() *ClassInfo { return &c.Class }
func (c *SystemClassWithMembersAndTypes) MemberTypes() []MemberType {
	return c.Types
}
func (c *SystemClassWithMembersAndTypes) Library() (ObjectID, bool) { return 0, false }
func (c *SystemClassWithMembersAndTypes) MemberValues() []any        { return c.Values }

// ClassWithMembers is the legacy metadata-only shape of a library class.
// Every member value is a record. It can be read but not written.
type ClassWithMembers struct {
	Leading
	Class     ClassInfo
	LibraryID ObjectID
	Values    []any
}

func (*ClassWithMembers) RecordType() RecordType          { return RecordClassWithMembers }
func (*ClassWithMembers) record()                         {}
func (c *ClassWithMembers) ID() ObjectID                  { return c.Class.ObjectID }
func (c *ClassWithMembers) ClassInfo() *ClassInfo         { return &c.Class }
func (c *ClassWithMembers) MemberTypes() []MemberType     { return nil }
func (c *ClassWithMembers) Library() (ObjectID, bool)     { return c.LibraryID, true }
func (c *ClassWithMembers) MemberValues() []any           { return c.Values }

// SystemClassWithMembers is the legacy metadata-only shape of a core
// library class. It can be read but not written.
type SystemClassWithMembers struct {
	Leading
	Class  ClassInfo
	Values []any
}

func (*SystemClassWithMembers) RecordType() RecordType      { return RecordSystemClassWithMembers }
func (*SystemClassWithMembers) record()                     {}
func (c *SystemClassWithMembers) ID() ObjectID              { return c.Class.ObjectID }
func (c *SystemClassWithMembers) ClassInfo() *ClassInfo     { return &c.Class }
func (c *SystemClassWithMembers) MemberTypes() []MemberType { return nil }
func (c *SystemClassWithMembers) Library() (ObjectID, bool) { return 0, false }
func (c *SystemClassWithMembers) MemberValues() []any       { return c.Values }

// ClassWithID reuses the metadata of an earlier class record.
type ClassWithID struct {
	Leading
	ObjectID   ObjectID
	MetadataID ObjectID
	Metadata   ClassRecord
	Values     []any
}

func (*ClassWithID) RecordType() RecordType  { return RecordClassWithID }
func (*ClassWithID) record()                 {}
func (c *ClassWithID) ID() ObjectID          { return c.ObjectID }
func (c *ClassWithID) ClassInfo() *ClassInfo { return c.Metadata.ClassInfo() }
func (c *ClassWithID) MemberTypes() []MemberType {
	return c.Metadata.MemberTypes()
}
func (c *ClassWithID) Library() (ObjectID, bool) { return c.Metadata.Library() }
func (c *ClassWithID) MemberValues() []any        { return c.Values }

// BinaryObjectString is a string object.
type BinaryObjectString struct {
	Leading
	ObjectID ObjectID
	Value    string
}

func (*BinaryObjectString) RecordType() RecordType { return RecordBinaryObjectString }
func (*BinaryObjectString) record()                {}
func (s *BinaryObjectString) ID() ObjectID         { return s.ObjectID }

// MemberPrimitiveTyped is a primitive value in a position typed as object.
type MemberPrimitiveTyped struct {
	Leading
	Primitive PrimitiveType
	Value     any
}

func (*MemberPrimitiveTyped) RecordType() RecordType { return RecordMemberPrimitiveTyped }
func (*MemberPrimitiveTyped) record()                {}

// MemberReference points at a record registered under IDRef.
type MemberReference struct {
	Leading
	IDRef ObjectID
}

func (*MemberReference) RecordType() RecordType { return RecordMemberReference }
func (*MemberReference) record()                {}

// ObjectNull is one null value.
type ObjectNull struct{}

func (*ObjectNull) RecordType() RecordType { return RecordObjectNull }
func (*ObjectNull) record()                {}

// ObjectNullMultiple256 is a run of up to 255 nulls.
type ObjectNullMultiple256 struct {
	Count uint8
}

func (*ObjectNullMultiple256) RecordType() RecordType { return RecordObjectNullMultiple256 }
func (*ObjectNullMultiple256) record()                {}

// ObjectNullMultiple is a run of nulls with a 32-bit count.
type ObjectNullMultiple struct {
	Count int32
}

func (*ObjectNullMultiple) RecordType() RecordType { return RecordObjectNullMultiple }
func (*ObjectNullMultiple) record()                {}

// NullCount returns how many null slots r stands for, or 0 if r is not a
// null record.
func NullCount(r Record) int {
	switch n := r.(type) {
	case *ObjectNull:
		return 1
	case *ObjectNullMultiple256:
		return int(n.Count)
	case *ObjectNullMultiple:
		return int(n.Count)
	}
	return 0
}

func isNullRecord(r Record) bool {
	switch r.(type) {
	case *ObjectNull, *ObjectNullMultiple256, *ObjectNullMultiple:
		return true
	}
	return false
}

// ArrayInfo is the id and declared length of a single-dimension array.
type ArrayInfo struct {
	ObjectID ObjectID
	Length   int32
}

// ArrayRecord is implemented by all array shapes.
type ArrayRecord interface {
	Identified
	// Shape returns the array shape; single-dimension records report
	// ArraySingle.
	Shape() BinaryArrayType
	// Dimensions returns the declared length of each dimension.
	Dimensions() []int32
	// ElementType describes the element encoding.
	ElementType() MemberType
	// Len returns the number of element slots.
	Len() int
	// At returns element i: nil, a primitive value, or a Record.
	At(i int) any
}

// ArraySingleObject is a one-dimensional array of object-typed elements.
type ArraySingleObject struct {
	Leading
	Array  ArrayInfo
	Values []any
}

func (*ArraySingleObject) RecordType() RecordType  { return RecordArraySingleObject }
func (*ArraySingleObject) record()                 {}
func (a *ArraySingleObject) ID() ObjectID          { return a.Array.ObjectID }
func (a *ArraySingleObject) Shape() BinaryArrayType { return ArraySingle }
func (a *ArraySingleObject) Dimensions() []int32   { return []int32{a.Array.Length} }
func (a *ArraySingleObject) ElementType() MemberType {
	return MemberType{BinaryType: BinaryTypeObject}
}
func (a *ArraySingleObject) Len() int     { return len(a.Values) }
func (a *ArraySingleObject) At(i int) any { return a.Values[i] }

// ArraySingleString is a one-dimensional array of strings. Elements are
// *BinaryObjectString, *MemberReference or nil.
type ArraySingleString struct {
	Leading
	Array  ArrayInfo
	Values []any
}

func (*ArraySingleString) RecordType() RecordType  { return RecordArraySingleString }
func (*ArraySingleString) record()                 {}
func (a *ArraySingleString) ID() ObjectID          { return a.Array.ObjectID }
func (a *ArraySingleString) Shape() BinaryArrayType { return ArraySingle }
func (a *ArraySingleString) Dimensions() []int32   { return []int32{a.Array.Length} }
func (a *ArraySingleString) ElementType() MemberType {
	return MemberType{BinaryType: BinaryTypeString}
}
func (a *ArraySingleString) Len() int     { return len(a.Values) }
func (a *ArraySingleString) At(i int) any { return a.Values[i] }

// ArraySinglePrimitive is a one-dimensional array of primitives stored
// back to back.
type ArraySinglePrimitive[T Primitive] struct {
	Leading
	Array  ArrayInfo
	Values []T
}

// NewArraySinglePrimitive builds a primitive array record from values.
func NewArraySinglePrimitive[T Primitive](id ObjectID, values []T) *ArraySinglePrimitive[T] {
	return &ArraySinglePrimitive[T]{
		Array:  ArrayInfo{ObjectID: id, Length: int32(len(values))},
		Values: values,
	}
}

func (*ArraySinglePrimitive[T]) RecordType() RecordType  { return RecordArraySinglePrimitive }
func (*ArraySinglePrimitive[T]) record()                 {}
func (a *ArraySinglePrimitive[T]) ID() ObjectID          { return a.Array.ObjectID }
func (a *ArraySinglePrimitive[T]) Shape() BinaryArrayType { return ArraySingle }
func (a *ArraySinglePrimitive[T]) Dimensions() []int32   { return []int32{a.Array.Length} }
func (a *ArraySinglePrimitive[T]) ElementType() MemberType {
	return PrimitiveMember(primitiveTypeOf[T]())
}
func (a *ArraySinglePrimitive[T]) Len() int     { return len(a.Values) }
func (a *ArraySinglePrimitive[T]) At(i int) any { return a.Values[i] }

// PrimitiveType returns the element kind.
func (a *ArraySinglePrimitive[T]) PrimitiveType() PrimitiveType { return primitiveTypeOf[T]() }

// Head returns a copy of the first n values as a []T.
func (a *ArraySinglePrimitive[T]) Head(n int) (any, bool) {
	if n < 0 || n > len(a.Values) {
		return nil, false
	}
	return slices.Clone(a.Values[:n]), true
}

// PrimitiveArray is implemented by every ArraySinglePrimitive instance.
type PrimitiveArray interface {
	ArrayRecord
	PrimitiveType() PrimitiveType
	Head(n int) (any, bool)
}

// BinaryArray is the general array record: jagged, rectangular, or
// single-dimension with any element type. Values are stored row-major.
type BinaryArray struct {
	Leading
	ObjectID  ObjectID
	ArrayType BinaryArrayType
	Lengths   []int32
	ItemType  MemberType
	Values    []any
}

func (*BinaryArray) RecordType() RecordType  { return RecordBinaryArray }
func (*BinaryArray) record()                 {}
func (a *BinaryArray) ID() ObjectID          { return a.ObjectID }
func (a *BinaryArray) Shape() BinaryArrayType { return a.ArrayType }
func (a *BinaryArray) Dimensions() []int32   { return a.Lengths }
func (a *BinaryArray) ElementType() MemberType {
	return a.ItemType
}
func (a *BinaryArray) Len() int     { return len(a.Values) }
func (a *BinaryArray) At(i int) any { return a.Values[i] }

// Rank returns the number of dimensions.
func (a *BinaryArray) Rank() int { return len(a.Lengths) }

// elementCount validates an array shape and returns the product of its
// dimension lengths.
func elementCount(phase errors.Phase, arrayType BinaryArrayType, lengths []int32) (int, error) {
	const record = "BinaryArray"
	rank := len(lengths)
	switch arrayType {
	case ArraySingle, ArrayJagged:
		if rank != 1 {
			return 0, errors.ArrayShapeInvalid(phase, record, "%s array requires rank 1, got %d", arrayType, rank)
		}
	case ArrayRectangular:
		if rank < 2 || rank > MaxRank {
			return 0, errors.ArrayShapeInvalid(phase, record, "rectangular array rank %d out of range 2..%d", rank, MaxRank)
		}
	case ArraySingleOffset, ArrayJaggedOffset, ArrayRectangularOffset:
		return 0, errors.UnsupportedShape(phase, record, arrayType.String()+" arrays are not supported")
	default:
		return 0, errors.Malformed(phase, record, "unknown array type "+arrayType.String())
	}

	total := int64(1)
	for i, n := range lengths {
		if n < 0 {
			return 0, errors.ArrayShapeInvalid(phase, record, "dimension %d has negative length %d", i, n)
		}
		total *= int64(n)
		if total > int64(^uint32(0)>>1) {
			return 0, errors.ArrayShapeInvalid(phase, record, "element count overflows int32")
		}
	}
	return int(total), nil
}
