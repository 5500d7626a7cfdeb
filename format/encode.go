package format

import (
	"fmt"
	"io"
	"strconv"

	"github.com/wippyai/nrbf/errors"
	"github.com/wippyai/nrbf/format/internal/binary"
)

// NewGraph assembles a graph rooted at root with a standard header and
// registers every identified record reachable from records, including
// nested members and elements and their leading libraries.
func NewGraph(root ObjectID, records ...Record) (*Graph, error) {
	g := &Graph{
		Header: &SerializationHeader{
			RootID:       root,
			HeaderID:     -1,
			MajorVersion: MajorVersion,
			MinorVersion: MinorVersion,
		},
		Records: records,
		Map:     NewRecordMap(),
	}
	for _, rec := range records {
		if err := index(g.Map, rec); err != nil {
			return nil, errors.Wrap(errors.PhaseBuild, errors.KindDuplicateID, err, "indexing graph")
		}
	}
	if _, err := g.Map.Lookup(root); err != nil {
		return nil, errors.DanglingReference(errors.PhaseBuild, int32(root), "root not among records")
	}
	return g, nil
}

func index(m *RecordMap, rec Record) error {
	if l, ok := rec.(leader); ok {
		for _, lib := range l.LeadingLibraries() {
			if err := m.Register(lib.LibraryID, lib); err != nil {
				return err
			}
		}
	}
	if id, ok := rec.(Identified); ok {
		if err := m.Register(id.ID(), rec); err != nil {
			return err
		}
	}
	var values []any
	switch r := rec.(type) {
	case ClassRecord:
		values = r.MemberValues()
	case *ArraySingleObject:
		values = r.Values
	case *ArraySingleString:
		values = r.Values
	case *BinaryArray:
		values = r.Values
	}
	for _, v := range values {
		if nested, ok := v.(Record); ok {
			if err := index(m, nested); err != nil {
				return err
			}
		}
	}
	return nil
}

// Encode writes g to w: the header, every top-level record, and the
// MessageEnd terminator.
func Encode(w io.Writer, g *Graph) error {
	data, err := g.Bytes()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Bytes encodes g into a new buffer.
func (g *Graph) Bytes() ([]byte, error) {
	if g.Header == nil {
		return nil, errors.InvalidInput(errors.PhaseEncode, "graph has no header")
	}
	e := newEncoder()
	e.writeHeader(g.Header)
	for i, rec := range g.Records {
		switch rec.(type) {
		case *SerializationHeader, *MessageEnd, *ObjectNull, *ObjectNullMultiple256, *ObjectNullMultiple:
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
				Path("records[" + strconv.Itoa(i) + "]").
				Detail("%s cannot appear as a top-level record", rec.RecordType()).
				Build()
		}
		if err := e.writeRecord(rec); err != nil {
			return nil, err
		}
	}
	e.w.Byte(byte(RecordMessageEnd))
	return e.w.Bytes(), nil
}

// WriteRecord encodes a single record, with its leading libraries and
// nested records, to w.
func WriteRecord(w io.Writer, rec Record) error {
	e := newEncoder()
	if err := e.writeRecord(rec); err != nil {
		return err
	}
	_, err := w.Write(e.w.Bytes())
	return err
}

type encoder struct {
	w *binary.Writer
}

func newEncoder() *encoder {
	return &encoder{w: binary.NewWriter()}
}

func (e *encoder) writeHeader(h *SerializationHeader) {
	e.w.Byte(byte(RecordSerializedStreamHeader))
	e.w.WriteS32(int32(h.RootID))
	e.w.WriteS32(int32(h.HeaderID))
	e.w.WriteS32(h.MajorVersion)
	e.w.WriteS32(h.MinorVersion)
}

func (e *encoder) writeRecord(rec Record) error {
	if l, ok := rec.(leader); ok {
		for _, lib := range l.LeadingLibraries() {
			e.writeLibrary(lib)
		}
	}

	switch r := rec.(type) {
	case *BinaryLibrary:
		e.writeLibrary(r)
	case *ClassWithMembersAndTypes:
		e.w.Byte(byte(RecordClassWithMembersAndTypes))
		e.writeClassInfo(&r.Class)
		e.writeMemberTypes(r.Types)
		e.w.WriteS32(int32(r.LibraryID))
		return e.writeMemberValues(r)
	case *SystemClassWithMembersAndTypes:
		e.w.Byte(byte(RecordSystemClassWithMembersAndTypes))
		e.writeClassInfo(&r.Class)
		e.writeMemberTypes(r.Types)
		return e.writeMemberValues(r)
	case *ClassWithID:
		switch r.Metadata.(type) {
		case *ClassWithMembersAndTypes, *SystemClassWithMembersAndTypes:
		default:
			return errors.UnsupportedShape(errors.PhaseEncode, r.RecordType().String(),
				"class metadata without member types cannot be written")
		}
		e.w.Byte(byte(RecordClassWithID))
		e.w.WriteS32(int32(r.ObjectID))
		e.w.WriteS32(int32(r.MetadataID))
		return e.writeMemberValues(r)
	case *ClassWithMembers, *SystemClassWithMembers:
		return errors.UnsupportedShape(errors.PhaseEncode, rec.RecordType().String(),
			"class records without member types cannot be written")
	case *BinaryObjectString:
		e.w.Byte(byte(RecordBinaryObjectString))
		e.w.WriteS32(int32(r.ObjectID))
		e.w.WriteString(r.Value)
	case *MemberPrimitiveTyped:
		e.w.Byte(byte(RecordMemberPrimitiveTyped))
		e.w.Byte(byte(r.Primitive))
		if err := writePrimitive(e.w, r.Primitive, r.Value); err != nil {
			return err
		}
	case *MemberReference:
		e.w.Byte(byte(RecordMemberReference))
		e.w.WriteS32(int32(r.IDRef))
	case *ObjectNull, *ObjectNullMultiple256, *ObjectNullMultiple:
		e.writeNullRun(NullCount(rec))
	case *ArraySingleObject:
		e.w.Byte(byte(RecordArraySingleObject))
		if err := e.writeArrayInfo(rec, r.Array, len(r.Values)); err != nil {
			return err
		}
		return e.writeElements(rec, r.Values)
	case *ArraySingleString:
		e.w.Byte(byte(RecordArraySingleString))
		if err := e.writeArrayInfo(rec, r.Array, len(r.Values)); err != nil {
			return err
		}
		return e.writeElements(rec, r.Values)
	case PrimitiveArray:
		return e.writePrimitiveArray(r)
	case *BinaryArray:
		return e.writeBinaryArray(r)
	case *SerializationHeader:
		e.writeHeader(r)
	case *MessageEnd:
		e.w.Byte(byte(RecordMessageEnd))
	default:
		return errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("record %T", rec))
	}
	return nil
}

func (e *encoder) writeLibrary(lib *BinaryLibrary) {
	e.w.Byte(byte(RecordBinaryLibrary))
	e.w.WriteS32(int32(lib.LibraryID))
	e.w.WriteString(lib.Name)
}

func (e *encoder) writeClassInfo(c *ClassInfo) {
	e.w.WriteS32(int32(c.ObjectID))
	e.w.WriteString(c.Name)
	e.w.WriteS32(int32(len(c.MemberNames)))
	for _, name := range c.MemberNames {
		e.w.WriteString(name)
	}
}

func (e *encoder) writeMemberTypes(types []MemberType) {
	for _, mt := range types {
		e.w.Byte(byte(mt.BinaryType))
	}
	for _, mt := range types {
		e.writeAdditionalInfo(mt)
	}
}

func (e *encoder) writeAdditionalInfo(mt MemberType) {
	switch mt.BinaryType {
	case BinaryTypePrimitive, BinaryTypePrimitiveArray:
		e.w.Byte(byte(mt.Primitive))
	case BinaryTypeSystemClass:
		e.w.WriteString(mt.ClassName)
	case BinaryTypeClass:
		e.w.WriteString(mt.ClassName)
		e.w.WriteS32(int32(mt.LibraryID))
	}
}

// writeMemberValues writes one value per member. Null members are written
// as one ObjectNull each, the form other writers emit for class members.
func (e *encoder) writeMemberValues(c ClassRecord) error {
	info := c.ClassInfo()
	types := c.MemberTypes()
	values := c.MemberValues()
	record := c.RecordType().String()
	if len(types) != len(info.MemberNames) || len(values) != len(info.MemberNames) {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Record(record).
			Path(info.Name).
			Detail("%d members, %d types, %d values", len(info.MemberNames), len(types), len(values)).
			Build()
	}

	for i, v := range values {
		path := []string{info.Name, info.MemberNames[i]}
		if types[i].BinaryType == BinaryTypePrimitive {
			if err := writePrimitive(e.w, types[i].Primitive, v); err != nil {
				return withPath(err, path)
			}
			continue
		}
		if v == nil {
			e.w.Byte(byte(RecordObjectNull))
			continue
		}
		rec, ok := v.(Record)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, path, fmt.Sprintf("%T", v), types[i].BinaryType.String())
		}
		if isNullRecord(rec) {
			return errors.InvalidData(errors.PhaseEncode, path, "null records are not member values; use nil")
		}
		if err := e.writeRecord(rec); err != nil {
			return err
		}
	}
	return nil
}

func withPath(err error, path []string) error {
	if structured, ok := err.(*errors.Error); ok && len(structured.Path) == 0 {
		structured.Path = path
	}
	return err
}

func (e *encoder) writeArrayInfo(rec Record, info ArrayInfo, n int) error {
	if int(info.Length) != n {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Record(rec.RecordType().String()).
			Detail("declared length %d, %d values", info.Length, n).
			Build()
	}
	e.w.WriteS32(int32(info.ObjectID))
	e.w.WriteS32(info.Length)
	return nil
}

// writeElements writes record-valued elements, coalescing runs of nil.
func (e *encoder) writeElements(parent Record, values []any) error {
	for i := 0; i < len(values); {
		if values[i] == nil {
			j := i
			for j < len(values) && values[j] == nil {
				j++
			}
			e.writeNullRun(j - i)
			i = j
			continue
		}
		rec, ok := values[i].(Record)
		if !ok {
			return errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
				Record(parent.RecordType().String()).
				Path("[" + strconv.Itoa(i) + "]").
				Detail("element of Go type %T is not a record", values[i]).
				Build()
		}
		if isNullRecord(rec) {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Record(parent.RecordType().String()).
				Path("[" + strconv.Itoa(i) + "]").
				Detail("null records are not element values; use nil").
				Build()
		}
		if err := e.writeRecord(rec); err != nil {
			return err
		}
		i++
	}
	return nil
}

// writeNullRun writes n nulls in the shortest form.
func (e *encoder) writeNullRun(n int) {
	switch {
	case n == 1:
		e.w.Byte(byte(RecordObjectNull))
	case n <= 0xFF:
		e.w.Byte(byte(RecordObjectNullMultiple256))
		e.w.Byte(byte(n))
	default:
		e.w.Byte(byte(RecordObjectNullMultiple))
		e.w.WriteS32(int32(n))
	}
}

func (e *encoder) writePrimitiveArray(a PrimitiveArray) error {
	e.w.Byte(byte(RecordArraySinglePrimitive))
	dims := a.Dimensions()
	if err := e.writeArrayInfo(a, ArrayInfo{ObjectID: a.ID(), Length: dims[0]}, a.Len()); err != nil {
		return err
	}
	pt := a.PrimitiveType()
	e.w.Byte(byte(pt))
	for i := range a.Len() {
		if err := writePrimitive(e.w, pt, a.At(i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) writeBinaryArray(a *BinaryArray) error {
	const t = RecordBinaryArray
	count, err := elementCount(errors.PhaseEncode, a.ArrayType, a.Lengths)
	if err != nil {
		return err
	}
	if count != len(a.Values) {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Record(t.String()).
			Detail("shape holds %d elements, %d values", count, len(a.Values)).
			Build()
	}

	e.w.Byte(byte(t))
	e.w.WriteS32(int32(a.ObjectID))
	e.w.Byte(byte(a.ArrayType))
	e.w.WriteS32(int32(len(a.Lengths)))
	for _, n := range a.Lengths {
		e.w.WriteS32(n)
	}
	e.w.Byte(byte(a.ItemType.BinaryType))
	e.writeAdditionalInfo(a.ItemType)

	if a.ItemType.BinaryType == BinaryTypePrimitive {
		for i, v := range a.Values {
			if err := writePrimitive(e.w, a.ItemType.Primitive, v); err != nil {
				return withPath(err, []string{"[" + strconv.Itoa(i) + "]"})
			}
		}
		return nil
	}
	return e.writeElements(a, a.Values)
}
