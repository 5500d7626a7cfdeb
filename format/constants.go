package format

import "fmt"

// Stream header version fields written by every producer of the format.
const (
	MajorVersion int32 = 1
	MinorVersion int32 = 0
)

// Allocation and nesting guards.
const (
	// MaxPreallocate caps how many elements a length read from the stream
	// may pre-size a slice with. Larger collections grow as elements arrive.
	MaxPreallocate = 1 << 16

	// MaxRank is the largest rank of a rectangular array.
	MaxRank = 32

	// DefaultMaxDepth bounds record nesting.
	DefaultMaxDepth = 1000

	// DefaultMaxElements bounds the total number of member and element
	// slots one parse may materialise, including expanded null runs.
	DefaultMaxElements = 1 << 24
)

// RecordType is the one-byte tag that starts every record.
type RecordType byte

const (
	RecordSerializedStreamHeader         RecordType = 0
	RecordClassWithID                    RecordType = 1
	RecordSystemClassWithMembers         RecordType = 2
	RecordClassWithMembers               RecordType = 3
	RecordSystemClassWithMembersAndTypes RecordType = 4
	RecordClassWithMembersAndTypes       RecordType = 5
	RecordBinaryObjectString             RecordType = 6
	RecordBinaryArray                    RecordType = 7
	RecordMemberPrimitiveTyped           RecordType = 8
	RecordMemberReference                RecordType = 9
	RecordObjectNull                     RecordType = 10
	RecordMessageEnd                     RecordType = 11
	RecordBinaryLibrary                  RecordType = 12
	RecordObjectNullMultiple256          RecordType = 13
	RecordObjectNullMultiple             RecordType = 14
	RecordArraySinglePrimitive           RecordType = 15
	RecordArraySingleObject              RecordType = 16
	RecordArraySingleString              RecordType = 17
	RecordMethodCall                     RecordType = 21 // remoting call, rejected
	RecordMethodReturn                   RecordType = 22 // remoting return, rejected
)

var recordTypeNames = map[RecordType]string{
	RecordSerializedStreamHeader:         "SerializedStreamHeader",
	RecordClassWithID:                    "ClassWithId",
	RecordSystemClassWithMembers:         "SystemClassWithMembers",
	RecordClassWithMembers:               "ClassWithMembers",
	RecordSystemClassWithMembersAndTypes: "SystemClassWithMembersAndTypes",
	RecordClassWithMembersAndTypes:       "ClassWithMembersAndTypes",
	RecordBinaryObjectString:             "BinaryObjectString",
	RecordBinaryArray:                    "BinaryArray",
	RecordMemberPrimitiveTyped:           "MemberPrimitiveTyped",
	RecordMemberReference:                "MemberReference",
	RecordObjectNull:                     "ObjectNull",
	RecordMessageEnd:                     "MessageEnd",
	RecordBinaryLibrary:                  "BinaryLibrary",
	RecordObjectNullMultiple256:          "ObjectNullMultiple256",
	RecordObjectNullMultiple:             "ObjectNullMultiple",
	RecordArraySinglePrimitive:           "ArraySinglePrimitive",
	RecordArraySingleObject:              "ArraySingleObject",
	RecordArraySingleString:              "ArraySingleString",
	RecordMethodCall:                     "MethodCall",
	RecordMethodReturn:                   "MethodReturn",
}

func (t RecordType) String() string {
	if name, ok := recordTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("RecordType(%d)", byte(t))
}

// BinaryType describes how a member or array element is encoded.
type BinaryType byte

const (
	BinaryTypePrimitive      BinaryType = 0
	BinaryTypeString         BinaryType = 1
	BinaryTypeObject         BinaryType = 2
	BinaryTypeSystemClass    BinaryType = 3
	BinaryTypeClass          BinaryType = 4
	BinaryTypeObjectArray    BinaryType = 5
	BinaryTypeStringArray    BinaryType = 6
	BinaryTypePrimitiveArray BinaryType = 7
)

func (t BinaryType) String() string {
	switch t {
	case BinaryTypePrimitive:
		return "Primitive"
	case BinaryTypeString:
		return "String"
	case BinaryTypeObject:
		return "Object"
	case BinaryTypeSystemClass:
		return "SystemClass"
	case BinaryTypeClass:
		return "Class"
	case BinaryTypeObjectArray:
		return "ObjectArray"
	case BinaryTypeStringArray:
		return "StringArray"
	case BinaryTypePrimitiveArray:
		return "PrimitiveArray"
	default:
		return fmt.Sprintf("BinaryType(%d)", byte(t))
	}
}

// PrimitiveType identifies a primitive value encoding.
type PrimitiveType byte

const (
	PrimitiveBoolean  PrimitiveType = 1
	PrimitiveByte     PrimitiveType = 2
	PrimitiveChar     PrimitiveType = 3
	PrimitiveDecimal  PrimitiveType = 5
	PrimitiveDouble   PrimitiveType = 6
	PrimitiveInt16    PrimitiveType = 7
	PrimitiveInt32    PrimitiveType = 8
	PrimitiveInt64    PrimitiveType = 9
	PrimitiveSByte    PrimitiveType = 10
	PrimitiveSingle   PrimitiveType = 11
	PrimitiveTimeSpan PrimitiveType = 12
	PrimitiveDateTime PrimitiveType = 13
	PrimitiveUInt16   PrimitiveType = 14
	PrimitiveUInt32   PrimitiveType = 15
	PrimitiveUInt64   PrimitiveType = 16
	PrimitiveNull     PrimitiveType = 17 // never a value encoding
	PrimitiveString   PrimitiveType = 18 // never a value encoding
)

var primitiveNames = map[PrimitiveType]string{
	PrimitiveBoolean:  "Boolean",
	PrimitiveByte:     "Byte",
	PrimitiveChar:     "Char",
	PrimitiveDecimal:  "Decimal",
	PrimitiveDouble:   "Double",
	PrimitiveInt16:    "Int16",
	PrimitiveInt32:    "Int32",
	PrimitiveInt64:    "Int64",
	PrimitiveSByte:    "SByte",
	PrimitiveSingle:   "Single",
	PrimitiveTimeSpan: "TimeSpan",
	PrimitiveDateTime: "DateTime",
	PrimitiveUInt16:   "UInt16",
	PrimitiveUInt32:   "UInt32",
	PrimitiveUInt64:   "UInt64",
	PrimitiveNull:     "Null",
	PrimitiveString:   "String",
}

func (t PrimitiveType) String() string {
	if name, ok := primitiveNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PrimitiveType(%d)", byte(t))
}

// SystemTypeName returns the framework type name of a primitive, e.g.
// "System.Int32".
func (t PrimitiveType) SystemTypeName() string {
	if name, ok := primitiveNames[t]; ok {
		return "System." + name
	}
	return ""
}

// IsValue reports whether t encodes a value (everything but Null and
// String, which are never inline primitive encodings).
func (t PrimitiveType) IsValue() bool {
	switch t {
	case PrimitiveNull, PrimitiveString:
		return false
	}
	_, ok := primitiveNames[t]
	return ok
}

// BinaryArrayType is the shape tag of a BinaryArray record.
type BinaryArrayType byte

const (
	ArraySingle            BinaryArrayType = 0
	ArrayJagged            BinaryArrayType = 1
	ArrayRectangular       BinaryArrayType = 2
	ArraySingleOffset      BinaryArrayType = 3
	ArrayJaggedOffset      BinaryArrayType = 4
	ArrayRectangularOffset BinaryArrayType = 5
)

func (t BinaryArrayType) String() string {
	switch t {
	case ArraySingle:
		return "Single"
	case ArrayJagged:
		return "Jagged"
	case ArrayRectangular:
		return "Rectangular"
	case ArraySingleOffset:
		return "SingleOffset"
	case ArrayJaggedOffset:
		return "JaggedOffset"
	case ArrayRectangularOffset:
		return "RectangularOffset"
	default:
		return fmt.Sprintf("BinaryArrayType(%d)", byte(t))
	}
}

// IsOffset reports whether t carries lower bounds.
func (t BinaryArrayType) IsOffset() bool {
	return t == ArraySingleOffset || t == ArrayJaggedOffset || t == ArrayRectangularOffset
}
