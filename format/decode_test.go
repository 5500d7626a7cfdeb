package format

import (
	"bytes"
	stderrors "errors"
	"io"
	"testing"

	"github.com/wippyai/nrbf/errors"
	"github.com/wippyai/nrbf/format/internal/binary"
)

// raw assembles stream bytes by hand for malformed-input tests.
type raw struct {
	w *binary.Writer
}

func newRaw() *raw { return &raw{w: binary.NewWriter()} }

func (r *raw) header(root int32) *raw {
	r.w.Byte(byte(RecordSerializedStreamHeader))
	r.i32(root, -1, 1, 0)
	return r
}

func (r *raw) b(bs ...byte) *raw {
	for _, v := range bs {
		r.w.Byte(v)
	}
	return r
}

func (r *raw) i32(vs ...int32) *raw {
	for _, v := range vs {
		r.w.WriteS32(v)
	}
	return r
}

func (r *raw) f32(vs ...float32) *raw {
	for _, v := range vs {
		r.w.WriteF32(v)
	}
	return r
}

func (r *raw) str(s string) *raw {
	r.w.WriteString(s)
	return r
}

func (r *raw) end() []byte {
	r.w.Byte(byte(RecordMessageEnd))
	return r.w.Bytes()
}

func (r *raw) bytes() []byte { return r.w.Bytes() }

func kindOf(err error) errors.Kind {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// pointStream is a class "Point" {x=3.5f, y=4.5f} from library 2.
func pointStream() []byte {
	return newRaw().
		header(1).
		b(byte(RecordBinaryLibrary)).i32(2).str("Geometry").
		b(byte(RecordClassWithMembersAndTypes)).
		i32(1).str("Point").i32(2).str("x").str("y").
		b(byte(BinaryTypePrimitive), byte(BinaryTypePrimitive)).
		b(byte(PrimitiveSingle), byte(PrimitiveSingle)).
		i32(2).
		f32(3.5, 4.5).
		end()
}

func TestDecodePoint(t *testing.T) {
	data := pointStream()

	g, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	if len(g.Records) != 1 {
		t.Fatalf("Records = %d, want 1", len(g.Records))
	}

	root, err := g.Root()
	if err != nil {
		t.Fatalf("Root() error = %v", err)
	}
	class, ok := root.(*ClassWithMembersAndTypes)
	if !ok {
		t.Fatalf("root is %T, want *ClassWithMembersAndTypes", root)
	}
	if class.Class.Name != "Point" {
		t.Errorf("Name = %q, want Point", class.Class.Name)
	}
	if x, _ := Member(class, "x"); x != float32(3.5) {
		t.Errorf("x = %v, want 3.5", x)
	}
	if y, _ := Member(class, "y"); y != float32(4.5) {
		t.Errorf("y = %v, want 4.5", y)
	}
	if len(class.Libraries) != 1 || class.Libraries[0].Name != "Geometry" {
		t.Errorf("leading libraries = %+v", class.Libraries)
	}
	lib, err := g.Map.Lookup(2)
	if err != nil {
		t.Fatalf("Lookup(2) error = %v", err)
	}
	if _, ok := lib.(*BinaryLibrary); !ok {
		t.Errorf("id 2 is %T, want *BinaryLibrary", lib)
	}

	out, err := g.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("re-encoded stream differs\n got %x\nwant %x", out, data)
	}
}

func TestDecodeReader(t *testing.T) {
	// io.MultiReader hides the length and has no ReadByte.
	r := io.MultiReader(bytes.NewReader(pointStream()), bytes.NewReader([]byte("NEXT")))
	g, err := Decode(r)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(g.Records) != 1 {
		t.Errorf("Records = %d, want 1", len(g.Records))
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(rest) != "NEXT" {
		t.Errorf("bytes left after MessageEnd = %q, want %q", rest, "NEXT")
	}
}

func TestDecodeTrailingBytesIgnored(t *testing.T) {
	data := append(pointStream(), 0xDE, 0xAD)
	if _, err := DecodeBytes(data); err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
}

func TestDecodeForwardReference(t *testing.T) {
	data := newRaw().
		header(1).
		b(byte(RecordArraySingleObject)).i32(1, 2).
		b(byte(RecordMemberReference)).i32(3).
		b(byte(RecordBinaryObjectString)).i32(3).str("later").
		end()

	g, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	arr := g.Records[0].(*ArraySingleObject)
	target, err := g.Map.Resolve(arr.Values[0])
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s, ok := target.(*BinaryObjectString); !ok || s.Value != "later" {
		t.Errorf("resolved %#v", target)
	}
}

func TestDecodeMemberNullRun(t *testing.T) {
	data := newRaw().
		header(1).
		b(byte(RecordSystemClassWithMembersAndTypes)).
		i32(1).str("Triple").i32(3).str("a").str("b").str("c").
		b(byte(BinaryTypeObject), byte(BinaryTypeObject), byte(BinaryTypeString)).
		b(byte(RecordObjectNullMultiple256), 2).
		b(byte(RecordBinaryObjectString)).i32(2).str("c").
		end()

	g, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	class := g.Records[0].(*SystemClassWithMembersAndTypes)
	if len(class.Values) != 3 || class.Values[0] != nil || class.Values[1] != nil {
		t.Fatalf("Values = %#v", class.Values)
	}
	if s, ok := class.Values[2].(*BinaryObjectString); !ok || s.Value != "c" {
		t.Errorf("Values[2] = %#v", class.Values[2])
	}

	// Member nulls are rewritten one record per slot.
	out, err := g.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	again, err := DecodeBytes(out)
	if err != nil {
		t.Fatalf("DecodeBytes(rewritten) error = %v", err)
	}
	if n := len(again.Records[0].(*SystemClassWithMembersAndTypes).Values); n != 3 {
		t.Errorf("rewritten Values = %d, want 3", n)
	}
}

func TestDecodeClassWithID(t *testing.T) {
	data := newRaw().
		header(1).
		b(byte(RecordArraySingleObject)).i32(1, 2).
		b(byte(RecordSystemClassWithMembersAndTypes)).
		i32(2).str("System.Int32").i32(1).str("m_value").
		b(byte(BinaryTypePrimitive), byte(PrimitiveInt32)).
		i32(7).
		b(byte(RecordClassWithID)).i32(3, 2).
		i32(8).
		end()

	g, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	arr := g.Records[0].(*ArraySingleObject)
	second, ok := arr.Values[1].(*ClassWithID)
	if !ok {
		t.Fatalf("Values[1] = %T", arr.Values[1])
	}
	if second.ClassInfo().Name != "System.Int32" {
		t.Errorf("metadata name = %q", second.ClassInfo().Name)
	}
	if v, _ := Member(second, "m_value"); v != int32(8) {
		t.Errorf("m_value = %v, want 8", v)
	}

	out, err := g.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("re-encoded stream differs")
	}
}

func TestDecodeLegacyClassShapes(t *testing.T) {
	data := newRaw().
		header(1).
		b(byte(RecordBinaryLibrary)).i32(2).str("Lib").
		b(byte(RecordClassWithMembers)).
		i32(1).str("Legacy").i32(1).str("name").i32(2).
		b(byte(RecordBinaryObjectString)).i32(3).str("value").
		end()

	g, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	class := g.Records[0].(*ClassWithMembers)
	if class.MemberTypes() != nil {
		t.Errorf("MemberTypes() = %v, want nil", class.MemberTypes())
	}

	_, err = g.Bytes()
	if !stderrors.Is(err, errors.ErrUnsupportedShape) {
		t.Errorf("Bytes() error = %v, want unsupported_shape", err)
	}
}

func TestDecodeRejectsRectangularRank(t *testing.T) {
	for _, rank := range []int32{0, 1, 33} {
		r := newRaw().header(1).
			b(byte(RecordBinaryArray)).i32(1).b(byte(ArrayRectangular)).i32(rank)
		for range rank {
			r.i32(1)
		}
		data := r.b(byte(BinaryTypePrimitive), byte(PrimitiveInt32)).i32(0).end()

		_, err := DecodeBytes(data)
		if !stderrors.Is(err, errors.ErrArrayShapeInvalid) {
			t.Errorf("rank %d: error = %v, want array_shape_invalid", rank, err)
		}
	}
}

func TestDecodeRejectsHugeRankBeforeLengths(t *testing.T) {
	data := newRaw().header(1).
		b(byte(RecordBinaryArray)).i32(1).b(byte(ArrayRectangular)).i32(0x7FFFFFFF).
		bytes()

	_, err := DecodeBytes(data)
	if !stderrors.Is(err, errors.ErrArrayShapeInvalid) {
		t.Errorf("error = %v, want array_shape_invalid", err)
	}
}

func TestDecodeRejectsDanglingReference(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "member reference",
			data: newRaw().header(1).
				b(byte(RecordArraySingleObject)).i32(1, 1).
				b(byte(RecordMemberReference)).i32(99).
				end(),
		},
		{
			name: "class with id metadata",
			data: newRaw().header(1).
				b(byte(RecordClassWithID)).i32(1, 42).
				end(),
		},
		{
			name: "root",
			data: newRaw().header(5).
				b(byte(RecordBinaryObjectString)).i32(1).str("x").
				end(),
		},
		{
			name: "missing library",
			data: newRaw().header(1).
				b(byte(RecordClassWithMembersAndTypes)).
				i32(1).str("C").i32(0).i32(9).
				end(),
		},
		{
			name: "reference to library",
			data: newRaw().header(1).
				b(byte(RecordBinaryLibrary)).i32(2).str("Lib").
				b(byte(RecordArraySingleObject)).i32(1, 1).
				b(byte(RecordMemberReference)).i32(2).
				end(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes(tt.data)
			if !stderrors.Is(err, errors.ErrDanglingReference) {
				t.Errorf("error = %v, want dangling_reference", err)
			}
		})
	}
}

func TestDecodeBoundedAllocation(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind errors.Kind
	}{
		{
			name: "primitive array",
			data: newRaw().header(1).
				b(byte(RecordArraySinglePrimitive)).i32(1, 0x7FFFFFFF).b(byte(PrimitiveInt32)).
				i32(1, 2).bytes(),
			kind: errors.KindMalformedRecord,
		},
		{
			name: "object array",
			data: newRaw().header(1).
				b(byte(RecordArraySingleObject)).i32(1, 0x7FFFFFFF).
				b(byte(RecordObjectNull)).bytes(),
			kind: errors.KindOverflow,
		},
		{
			name: "string array",
			data: newRaw().header(1).
				b(byte(RecordArraySingleString)).i32(1, 0x7FFFFFFF).bytes(),
			kind: errors.KindOverflow,
		},
		{
			name: "class member count",
			data: newRaw().header(1).
				b(byte(RecordSystemClassWithMembersAndTypes)).i32(1).str("C").i32(0x7FFFFFFF).
				bytes(),
			kind: errors.KindOverflow,
		},
		{
			name: "string length",
			data: newRaw().header(1).
				b(byte(RecordBinaryObjectString)).i32(1).b(0xFF, 0xFF, 0xFF, 0xFF, 0x07).
				bytes(),
			kind: errors.KindMalformedRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes(tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := kindOf(err); got != tt.kind {
				t.Errorf("kind = %s, want %s (%v)", got, tt.kind, err)
			}
		})
	}
}

func TestDecodeBoundedAllocationUnknownLength(t *testing.T) {
	tests := []struct {
		name   string
		length int32
		kind   errors.Kind
	}{
		{"over element limit", 0x7FFFFFFF, errors.KindOverflow},
		{"truncated within limit", 1 << 20, errors.KindMalformedRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := newRaw().header(1).
				b(byte(RecordArraySinglePrimitive)).i32(1, tt.length).b(byte(PrimitiveInt64)).
				i32(1, 2).bytes()

			_, err := Decode(io.MultiReader(bytes.NewReader(data)))
			if got := kindOf(err); got != tt.kind {
				t.Errorf("kind = %s, want %s (%v)", got, tt.kind, err)
			}
		})
	}
}

func TestDecodeTruncatedMemberTypes(t *testing.T) {
	data := newRaw().header(1).
		b(byte(RecordSystemClassWithMembersAndTypes)).i32(1).str("C").i32(3).
		str("a").str("b").str("c").
		b(byte(BinaryTypePrimitive)).bytes()

	_, err := Decode(io.MultiReader(bytes.NewReader(data)))
	if kindOf(err) != errors.KindMalformedRecord {
		t.Errorf("error = %v, want malformed_record", err)
	}
}

func TestDecodeBooleanWrittenAsOne(t *testing.T) {
	stream := func(b byte) []byte {
		return newRaw().header(1).
			b(byte(RecordSystemClassWithMembersAndTypes)).i32(1).str("System.Boolean").i32(1).
			str("m_value").b(byte(BinaryTypePrimitive), byte(PrimitiveBoolean)).
			b(b).
			end()
	}

	g, err := DecodeBytes(stream(0x02))
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	root, err := g.Root()
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := Member(root.(ClassRecord), "m_value"); v != true {
		t.Errorf("m_value = %v, want true", v)
	}
	out, err := g.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if !bytes.Equal(out, stream(0x01)) {
		t.Errorf("re-encoded stream\n got %x\nwant %x", out, stream(0x01))
	}
}

func TestDecodeRejectsDuplicateID(t *testing.T) {
	data := newRaw().header(1).
		b(byte(RecordArraySingleObject)).i32(1, 2).
		b(byte(RecordBinaryObjectString)).i32(2).str("a").
		b(byte(RecordBinaryObjectString)).i32(2).str("b").
		end()

	_, err := DecodeBytes(data)
	if !stderrors.Is(err, errors.ErrDuplicateID) {
		t.Errorf("error = %v, want duplicate_id", err)
	}
}

func TestDecodeRejectsNullRunOverrun(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "class members",
			data: newRaw().header(1).
				b(byte(RecordSystemClassWithMembersAndTypes)).
				i32(1).str("Pair").i32(2).str("a").str("b").
				b(byte(BinaryTypeObject), byte(BinaryTypeObject)).
				b(byte(RecordObjectNullMultiple256), 3).
				end(),
		},
		{
			name: "array elements",
			data: newRaw().header(1).
				b(byte(RecordArraySingleObject)).i32(1, 4).
				b(byte(RecordObjectNull)).
				b(byte(RecordObjectNullMultiple)).i32(4).
				end(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes(tt.data)
			if !stderrors.Is(err, errors.ErrNullRunOverrun) {
				t.Errorf("error = %v, want null_run_overrun", err)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind errors.Kind
	}{
		{"empty", nil, errors.KindMalformedRecord},
		{"no header", newRaw().b(byte(RecordMessageEnd)).bytes(), errors.KindMalformedRecord},
		{"truncated header", newRaw().b(0).i32(1).bytes(), errors.KindMalformedRecord},
		{"missing terminator", newRaw().header(1).b(byte(RecordBinaryObjectString)).i32(1).str("x").bytes(), errors.KindMalformedRecord},
		{"unknown tag", newRaw().header(1).b(0x7F).end(), errors.KindMalformedRecord},
		{"second header", newRaw().header(1).header(1).end(), errors.KindMalformedRecord},
		{"top-level null", newRaw().header(1).b(byte(RecordObjectNull)).end(), errors.KindMalformedRecord},
		{"library before end", newRaw().header(0).b(byte(RecordBinaryLibrary)).i32(2).str("L").end(), errors.KindMalformedRecord},
		{"library before null", newRaw().header(1).
			b(byte(RecordArraySingleObject)).i32(1, 1).
			b(byte(RecordBinaryLibrary)).i32(2).str("L").
			b(byte(RecordObjectNull)).end(), errors.KindMalformedRecord},
		{"empty null run", newRaw().header(1).
			b(byte(RecordArraySingleObject)).i32(1, 1).
			b(byte(RecordObjectNullMultiple256), 0).end(), errors.KindMalformedRecord},
		{"terminator in array", newRaw().header(1).
			b(byte(RecordArraySingleObject)).i32(1, 1).end(), errors.KindMalformedRecord},
		{"string array holds class", newRaw().header(1).
			b(byte(RecordArraySingleString)).i32(1, 1).
			b(byte(RecordArraySingleObject)).i32(2, 0).end(), errors.KindMalformedRecord},
		{"negative array length", newRaw().header(1).
			b(byte(RecordArraySingleObject)).i32(1, -1).end(), errors.KindArrayShapeInvalid},
		{"string primitive", newRaw().header(1).
			b(byte(RecordMemberPrimitiveTyped), byte(PrimitiveString)).end(), errors.KindUnsupportedPrimitive},
		{"method call", newRaw().header(1).b(byte(RecordMethodCall)).end(), errors.KindUnsupportedShape},
		{"offset array", newRaw().header(1).
			b(byte(RecordBinaryArray)).i32(1).b(byte(ArraySingleOffset)).i32(1, 1, 0).end(), errors.KindUnsupportedShape},
		{"invalid datetime", newRaw().header(1).
			b(byte(RecordMemberPrimitiveTyped), byte(PrimitiveDateTime)).
			i32(-1, 0x3FFFFFFF).end(), errors.KindMalformedRecord},
		{"invalid decimal", newRaw().header(1).
			b(byte(RecordMemberPrimitiveTyped), byte(PrimitiveDecimal)).str("1e5").end(), errors.KindMalformedRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := DecodeBytes(tt.data)
			if err == nil {
				t.Fatalf("expected error, got graph with %d records", len(g.Records))
			}
			if got := kindOf(err); got != tt.kind {
				t.Errorf("kind = %s, want %s (%v)", got, tt.kind, err)
			}
		})
	}
}

func TestDecodeMaxDepth(t *testing.T) {
	r := newRaw().header(1)
	for i := int32(1); i <= 10; i++ {
		r.b(byte(RecordArraySingleObject)).i32(i, 1)
	}
	data := r.b(byte(RecordObjectNull)).end()

	if _, err := DecodeBytes(data); err != nil {
		t.Fatalf("default depth: error = %v", err)
	}
	_, err := DecodeWithOptions(bytes.NewReader(data), DecodeOptions{MaxDepth: 5})
	if kindOf(err) != errors.KindMalformedRecord {
		t.Errorf("MaxDepth 5: error = %v, want malformed_record", err)
	}
}

func TestDecodeMaxElements(t *testing.T) {
	ints := make([]int32, 100)
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "object array",
			data: newRaw().header(1).
				b(byte(RecordArraySingleObject)).i32(1, 100).
				b(byte(RecordObjectNullMultiple256), 100).
				end(),
		},
		{
			name: "primitive array",
			data: newRaw().header(1).
				b(byte(RecordArraySinglePrimitive)).i32(1, 100).b(byte(PrimitiveInt32)).
				i32(ints...).
				end(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeWithOptions(bytes.NewReader(tt.data), DecodeOptions{MaxElements: 100}); err != nil {
				t.Fatalf("at limit: error = %v", err)
			}
			_, err := DecodeWithOptions(io.MultiReader(bytes.NewReader(tt.data)), DecodeOptions{MaxElements: 99})
			if kindOf(err) != errors.KindOverflow {
				t.Errorf("over limit: error = %v, want overflow", err)
			}
		})
	}
}

func TestDecodeErrorOffset(t *testing.T) {
	data := newRaw().header(1).b(0x7F).end()
	_, err := DecodeBytes(data)
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("error %v is not *errors.Error", err)
	}
	if e.Offset != 17 {
		t.Errorf("Offset = %d, want 17", e.Offset)
	}
	if e.Phase != errors.PhaseDecode {
		t.Errorf("Phase = %s, want decode", e.Phase)
	}
}
