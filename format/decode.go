package format

import (
	"bytes"
	stderrors "errors"
	"io"

	"go.uber.org/zap"

	"github.com/wippyai/nrbf/errors"
	"github.com/wippyai/nrbf/format/internal/binary"
)

// DecodeOptions controls decoding behavior. Zero fields take defaults.
type DecodeOptions struct {
	Logger         *zap.Logger // overrides the package logger
	MaxDepth       int         // record nesting limit, DefaultMaxDepth
	MaxPreallocate int         // cap on slice pre-sizing, MaxPreallocate
	MaxElements    int         // member and element slots per parse, DefaultMaxElements
}

func (o DecodeOptions) withDefaults() DecodeOptions {
	if o.Logger == nil {
		o.Logger = Logger()
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxPreallocate <= 0 || o.MaxPreallocate > MaxPreallocate {
		o.MaxPreallocate = MaxPreallocate
	}
	if o.MaxElements <= 0 {
		o.MaxElements = DefaultMaxElements
	}
	return o
}

// Graph is a decoded stream: the header, the top-level records in
// stream order, and the id map built while reading them. A Graph is
// never mutated after Decode returns.
type Graph struct {
	Header  *SerializationHeader
	Records []Record
	Map     *RecordMap
}

// Root returns the record named by the header's root id.
func (g *Graph) Root() (Record, error) {
	return g.Map.Lookup(g.Header.RootID)
}

// Decode reads one stream from r, stopping after the MessageEnd record.
func Decode(r io.Reader) (*Graph, error) {
	return DecodeWithOptions(r, DecodeOptions{})
}

// DecodeBytes decodes a stream held in memory.
func DecodeBytes(data []byte) (*Graph, error) {
	return DecodeWithOptions(bytes.NewReader(data), DecodeOptions{})
}

// DecodeWithOptions reads one stream from r. Any malformed input aborts
// the whole parse; a partial graph is never returned.
func DecodeWithOptions(r io.Reader, opts DecodeOptions) (*Graph, error) {
	opts = opts.withDefaults()
	d := &decoder{
		r:    binary.NewReader(byteReader(r)),
		m:    NewRecordMap(),
		opts: opts,
		log:  opts.Logger,
	}
	g, err := d.decode()
	if err != nil {
		d.log.Debug("decode failed", zap.Int("offset", d.r.Position()), zap.Error(err))
		return nil, err
	}
	d.log.Debug("decoded stream",
		zap.Int("records", len(g.Records)),
		zap.Int("objects", g.Map.Len()),
		zap.Int("bytes", d.r.Position()))
	return g, nil
}

type decoder struct {
	r     *binary.Reader
	m     *RecordMap
	log   *zap.Logger
	opts  DecodeOptions
	depth int
	slots int

	// checked once the terminator is reached; targets may follow the
	// referencing record
	refs      []*MemberReference
	libraries []ObjectID
}

func (d *decoder) decode() (*Graph, error) {
	pos := d.r.Position()
	tag, err := d.r.ReadByte()
	if err != nil {
		return nil, d.wrap(RecordSerializedStreamHeader, pos, err)
	}
	if RecordType(tag) != RecordSerializedStreamHeader {
		return nil, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
			Offset(pos).
			Detail("stream must start with a header record, got %s", RecordType(tag)).
			Build()
	}
	header, err := d.readHeader(pos)
	if err != nil {
		return nil, err
	}

	g := &Graph{Header: header, Map: d.m}
	for {
		pos := d.r.Position()
		rec, err := d.readRecord()
		if err != nil {
			return nil, err
		}
		switch rec.(type) {
		case *MessageEnd:
			if err := d.resolve(header); err != nil {
				return nil, err
			}
			return g, nil
		case *SerializationHeader:
			return nil, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
				Record(rec.RecordType().String()).
				Offset(pos).
				Detail("second stream header").
				Build()
		case *ObjectNull, *ObjectNullMultiple256, *ObjectNullMultiple:
			return nil, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
				Record(rec.RecordType().String()).
				Offset(pos).
				Detail("null record outside a member or element list").
				Build()
		}
		g.Records = append(g.Records, rec)
	}
}

// resolve checks every deferred reference against the completed map.
func (d *decoder) resolve(header *SerializationHeader) error {
	for _, ref := range d.refs {
		target, err := d.m.Lookup(ref.IDRef)
		if err != nil {
			return errors.DanglingReference(errors.PhaseDecode, int32(ref.IDRef), "reference target never registered")
		}
		if _, isLib := target.(*BinaryLibrary); isLib {
			return errors.DanglingReference(errors.PhaseDecode, int32(ref.IDRef), "reference target is a library")
		}
	}
	for _, id := range d.libraries {
		target, err := d.m.Lookup(id)
		if err != nil {
			return errors.DanglingReference(errors.PhaseDecode, int32(id), "library never defined")
		}
		if _, isLib := target.(*BinaryLibrary); !isLib {
			return errors.DanglingReference(errors.PhaseDecode, int32(id), "library id names a "+target.RecordType().String())
		}
	}
	if header.RootID != 0 {
		if _, err := d.m.Lookup(header.RootID); err != nil {
			return errors.DanglingReference(errors.PhaseDecode, int32(header.RootID), "root object never registered")
		}
	}
	return nil
}

// wrap converts reader failures into structured errors.
func (d *decoder) wrap(t RecordType, pos int, err error) error {
	var structured *errors.Error
	if stderrors.As(err, &structured) {
		return err
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Truncated(t.String(), pos, err)
	}
	return errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
		Record(t.String()).
		Offset(pos).
		Cause(err).
		Build()
}

func (d *decoder) prealloc(n int) int {
	return min(max(n, 0), d.opts.MaxPreallocate)
}

// charge accounts for n member or element slots against MaxElements.
func (d *decoder) charge(t RecordType, pos int, n int) error {
	d.slots += n
	if d.slots > d.opts.MaxElements {
		return errors.New(errors.PhaseDecode, errors.KindOverflow).
			Record(t.String()).
			Offset(pos).
			Detail("stream declares more than %d member and element slots", d.opts.MaxElements).
			Build()
	}
	return nil
}

func (d *decoder) register(t RecordType, pos int, id ObjectID, rec Record) error {
	if err := d.m.Register(id, rec); err != nil {
		var structured *errors.Error
		if stderrors.As(err, &structured) {
			structured.Record = t.String()
			structured.Offset = pos
		}
		return err
	}
	return nil
}

func (d *decoder) readS32(t RecordType, pos int) (int32, error) {
	v, err := d.r.ReadS32()
	if err != nil {
		return 0, d.wrap(t, pos, err)
	}
	return v, nil
}

func (d *decoder) readString(t RecordType, pos int) (string, error) {
	s, err := d.r.ReadString()
	if err != nil {
		return "", d.wrap(t, pos, err)
	}
	return s, nil
}

// readRecord reads one record, attaching any BinaryLibrary records that
// precede it.
func (d *decoder) readRecord() (Record, error) {
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > d.opts.MaxDepth {
		return nil, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
			Offset(d.r.Position()).
			Detail("record nesting exceeds %d", d.opts.MaxDepth).
			Build()
	}

	var libs []*BinaryLibrary
	for {
		pos := d.r.Position()
		tag, err := d.r.ReadByte()
		if err != nil {
			return nil, errors.Truncated("record", pos, err)
		}
		t := RecordType(tag)

		if t == RecordBinaryLibrary {
			lib, err := d.readBinaryLibrary(pos)
			if err != nil {
				return nil, err
			}
			libs = append(libs, lib)
			continue
		}

		rec, err := d.readBody(t, pos)
		if err != nil {
			return nil, err
		}
		if ce := d.log.Check(zap.DebugLevel, "record"); ce != nil {
			ce.Write(zap.Stringer("type", t), zap.Int("offset", pos), zap.Int("depth", d.depth))
		}
		if len(libs) > 0 {
			l, ok := rec.(leader)
			if !ok {
				return nil, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
					Record(t.String()).
					Offset(pos).
					Detail("library record must precede an object record").
					Build()
			}
			l.setLibraries(libs)
		}
		return rec, nil
	}
}

// readNested reads a record in member or element position.
func (d *decoder) readNested(parent RecordType) (Record, error) {
	pos := d.r.Position()
	rec, err := d.readRecord()
	if err != nil {
		return nil, err
	}
	switch rec.(type) {
	case *MessageEnd, *SerializationHeader:
		return nil, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
			Record(parent.String()).
			Offset(pos).
			Detail("%s inside %s", rec.RecordType(), parent).
			Build()
	}
	return rec, nil
}

func (d *decoder) readBody(t RecordType, pos int) (Record, error) {
	switch t {
	case RecordSerializedStreamHeader:
		return d.readHeader(pos)
	case RecordClassWithID:
		return d.readClassWithID(pos)
	case RecordSystemClassWithMembers:
		return d.readSystemClassWithMembers(pos)
	case RecordClassWithMembers:
		return d.readClassWithMembers(pos)
	case RecordSystemClassWithMembersAndTypes:
		return d.readSystemClassWithMembersAndTypes(pos)
	case RecordClassWithMembersAndTypes:
		return d.readClassWithMembersAndTypes(pos)
	case RecordBinaryObjectString:
		return d.readBinaryObjectString(pos)
	case RecordBinaryArray:
		return d.readBinaryArray(pos)
	case RecordMemberPrimitiveTyped:
		return d.readMemberPrimitiveTyped(pos)
	case RecordMemberReference:
		id, err := d.readS32(t, pos)
		if err != nil {
			return nil, err
		}
		ref := &MemberReference{IDRef: ObjectID(id)}
		d.refs = append(d.refs, ref)
		return ref, nil
	case RecordObjectNull:
		return &ObjectNull{}, nil
	case RecordMessageEnd:
		return &MessageEnd{}, nil
	case RecordObjectNullMultiple256:
		count, err := d.r.ReadByte()
		if err != nil {
			return nil, d.wrap(t, pos, err)
		}
		if count == 0 {
			return nil, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
				Record(t.String()).Offset(pos).Detail("empty null run").Build()
		}
		return &ObjectNullMultiple256{Count: count}, nil
	case RecordObjectNullMultiple:
		count, err := d.readS32(t, pos)
		if err != nil {
			return nil, err
		}
		if count <= 0 {
			return nil, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
				Record(t.String()).Offset(pos).Detail("null run count %d", count).Build()
		}
		return &ObjectNullMultiple{Count: count}, nil
	case RecordArraySinglePrimitive:
		return d.readArraySinglePrimitive(pos)
	case RecordArraySingleObject:
		return d.readArraySingleObject(pos)
	case RecordArraySingleString:
		return d.readArraySingleString(pos)
	case RecordMethodCall, RecordMethodReturn:
		return nil, errors.New(errors.PhaseDecode, errors.KindUnsupportedShape).
			Record(t.String()).Offset(pos).Detail("remoting message records are not supported").Build()
	default:
		return nil, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
			Offset(pos).
			Detail("unknown record type 0x%02x", byte(t)).
			Value(byte(t)).
			Build()
	}
}

func (d *decoder) readHeader(pos int) (*SerializationHeader, error) {
	const t = RecordSerializedStreamHeader
	var fields [4]int32
	for i := range fields {
		v, err := d.readS32(t, pos)
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	return &SerializationHeader{
		RootID:       ObjectID(fields[0]),
		HeaderID:     ObjectID(fields[1]),
		MajorVersion: fields[2],
		MinorVersion: fields[3],
	}, nil
}

func (d *decoder) readBinaryLibrary(pos int) (*BinaryLibrary, error) {
	const t = RecordBinaryLibrary
	id, err := d.readS32(t, pos)
	if err != nil {
		return nil, err
	}
	name, err := d.readString(t, pos)
	if err != nil {
		return nil, err
	}
	lib := &BinaryLibrary{LibraryID: ObjectID(id), Name: name}
	if err := d.register(t, pos, lib.LibraryID, lib); err != nil {
		return nil, err
	}
	return lib, nil
}

func (d *decoder) readBinaryObjectString(pos int) (*BinaryObjectString, error) {
	const t = RecordBinaryObjectString
	id, err := d.readS32(t, pos)
	if err != nil {
		return nil, err
	}
	value, err := d.readString(t, pos)
	if err != nil {
		return nil, err
	}
	s := &BinaryObjectString{ObjectID: ObjectID(id), Value: value}
	if err := d.register(t, pos, s.ObjectID, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (d *decoder) readMemberPrimitiveTyped(pos int) (*MemberPrimitiveTyped, error) {
	const t = RecordMemberPrimitiveTyped
	kind, err := d.r.ReadByte()
	if err != nil {
		return nil, d.wrap(t, pos, err)
	}
	pt := PrimitiveType(kind)
	if !pt.IsValue() {
		return nil, errors.UnsupportedPrimitive(errors.PhaseDecode, pt)
	}
	v, err := readPrimitive(d.r, pt)
	if err != nil {
		return nil, d.wrap(t, pos, err)
	}
	return &MemberPrimitiveTyped{Primitive: pt, Value: v}, nil
}

func (d *decoder) readClassInfo(t RecordType, pos int) (ClassInfo, error) {
	id, err := d.readS32(t, pos)
	if err != nil {
		return ClassInfo{}, err
	}
	name, err := d.readString(t, pos)
	if err != nil {
		return ClassInfo{}, err
	}
	count, err := d.readS32(t, pos)
	if err != nil {
		return ClassInfo{}, err
	}
	if count < 0 {
		return ClassInfo{}, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
			Record(t.String()).Offset(pos).Detail("negative member count %d", count).Build()
	}
	if err := d.charge(t, pos, int(count)); err != nil {
		return ClassInfo{}, err
	}
	names := make([]string, 0, d.prealloc(int(count)))
	for i := int32(0); i < count; i++ {
		member, err := d.readString(t, pos)
		if err != nil {
			return ClassInfo{}, err
		}
		names = append(names, member)
	}
	return ClassInfo{ObjectID: ObjectID(id), Name: name, MemberNames: names}, nil
}

// readAdditionalInfo reads the extra bytes that follow a BinaryType.
func (d *decoder) readAdditionalInfo(t RecordType, pos int, bt BinaryType) (MemberType, error) {
	mt := MemberType{BinaryType: bt}
	switch bt {
	case BinaryTypePrimitive, BinaryTypePrimitiveArray:
		kind, err := d.r.ReadByte()
		if err != nil {
			return mt, d.wrap(t, pos, err)
		}
		mt.Primitive = PrimitiveType(kind)
		if !mt.Primitive.IsValue() {
			return mt, errors.UnsupportedPrimitive(errors.PhaseDecode, mt.Primitive)
		}
	case BinaryTypeSystemClass:
		name, err := d.readString(t, pos)
		if err != nil {
			return mt, err
		}
		mt.ClassName = name
	case BinaryTypeClass:
		name, err := d.readString(t, pos)
		if err != nil {
			return mt, err
		}
		lib, err := d.readS32(t, pos)
		if err != nil {
			return mt, err
		}
		mt.ClassName = name
		mt.LibraryID = ObjectID(lib)
		d.libraries = append(d.libraries, mt.LibraryID)
	case BinaryTypeString, BinaryTypeObject, BinaryTypeObjectArray, BinaryTypeStringArray:
	default:
		return mt, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
			Record(t.String()).Offset(pos).Detail("unknown binary type %d", byte(bt)).Build()
	}
	return mt, nil
}

func (d *decoder) readMemberTypes(t RecordType, pos int, count int) ([]MemberType, error) {
	kinds := make([]BinaryType, 0, d.prealloc(count))
	for range count {
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, d.wrap(t, pos, err)
		}
		kinds = append(kinds, BinaryType(b))
	}
	types := make([]MemberType, 0, d.prealloc(count))
	for _, bt := range kinds {
		mt, err := d.readAdditionalInfo(t, pos, bt)
		if err != nil {
			return nil, err
		}
		types = append(types, mt)
	}
	return types, nil
}

// readMemberValues reads the values of a class in declared member order.
// types is nil for the metadata-only shapes, where every value is a record.
func (d *decoder) readMemberValues(t RecordType, info *ClassInfo, types []MemberType) ([]any, error) {
	n := len(info.MemberNames)
	values := make([]any, 0, n)
	for len(values) < n {
		i := len(values)
		pos := d.r.Position()
		if types != nil && types[i].BinaryType == BinaryTypePrimitive {
			v, err := readPrimitive(d.r, types[i].Primitive)
			if err != nil {
				return nil, d.wrap(t, pos, err)
			}
			values = append(values, v)
			continue
		}

		rec, err := d.readNested(t)
		if err != nil {
			return nil, err
		}
		if k := NullCount(rec); k > 0 {
			if k > n-i {
				return nil, errors.NullRunOverrun(errors.PhaseDecode, t.String(), k, n-i)
			}
			values = append(values, make([]any, k)...)
			continue
		}
		if types != nil && !memberAccepts(types[i], rec) {
			return nil, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
				Record(t.String()).
				Offset(pos).
				Path(info.Name, info.MemberNames[i]).
				Detail("member typed %s holds %s", types[i].BinaryType, rec.RecordType()).
				Build()
		}
		values = append(values, rec)
	}
	return values, nil
}

// memberAccepts reports whether rec may appear where mt is declared.
func memberAccepts(mt MemberType, rec Record) bool {
	if _, isRef := rec.(*MemberReference); isRef {
		return true
	}
	switch mt.BinaryType {
	case BinaryTypeObject:
		return true
	case BinaryTypeString:
		_, ok := rec.(*BinaryObjectString)
		return ok
	case BinaryTypeSystemClass, BinaryTypeClass:
		_, ok := rec.(ClassRecord)
		return ok
	case BinaryTypeObjectArray, BinaryTypeStringArray:
		_, ok := rec.(ArrayRecord)
		return ok
	case BinaryTypePrimitiveArray:
		switch a := rec.(type) {
		case PrimitiveArray:
			return a.PrimitiveType() == mt.Primitive
		case *BinaryArray:
			return true
		}
		return false
	}
	return false
}

func (d *decoder) readClassWithMembersAndTypes(pos int) (*ClassWithMembersAndTypes, error) {
	const t = RecordClassWithMembersAndTypes
	info, err := d.readClassInfo(t, pos)
	if err != nil {
		return nil, err
	}
	types, err := d.readMemberTypes(t, pos, len(info.MemberNames))
	if err != nil {
		return nil, err
	}
	lib, err := d.readS32(t, pos)
	if err != nil {
		return nil, err
	}
	d.libraries = append(d.libraries, ObjectID(lib))
	c := &ClassWithMembersAndTypes{Class: info, Types: types, LibraryID: ObjectID(lib)}
	if err := d.register(t, pos, info.ObjectID, c); err != nil {
		return nil, err
	}
	if c.Values, err = d.readMemberValues(t, &c.Class, types); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *decoder) readSystemClassWithMembersAndTypes(pos int) (*SystemClassWithMembersAndTypes, error) {
	const t = RecordSystemClassWithMembersAndTypes
	info, err := d.readClassInfo(t, pos)
	if err != nil {
		return nil, err
	}
	types, err := d.readMemberTypes(t, pos, len(info.MemberNames))
	if err != nil {
		return nil, err
	}
	c := &SystemClassWithMembersAndTypes{Class: info, Types: types}
	if err := d.register(t, pos, info.ObjectID, c); err != nil {
		return nil, err
	}
	if c.Values, err = d.readMemberValues(t, &c.Class, types); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *decoder) readClassWithMembers(pos int) (*ClassWithMembers, error) {
	const t = RecordClassWithMembers
	info, err := d.readClassInfo(t, pos)
	if err != nil {
		return nil, err
	}
	lib, err := d.readS32(t, pos)
	if err != nil {
		return nil, err
	}
	d.libraries = append(d.libraries, ObjectID(lib))
	c := &ClassWithMembers{Class: info, LibraryID: ObjectID(lib)}
	if err := d.register(t, pos, info.ObjectID, c); err != nil {
		return nil, err
	}
	if c.Values, err = d.readMemberValues(t, &c.Class, nil); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *decoder) readSystemClassWithMembers(pos int) (*SystemClassWithMembers, error) {
	const t = RecordSystemClassWithMembers
	info, err := d.readClassInfo(t, pos)
	if err != nil {
		return nil, err
	}
	c := &SystemClassWithMembers{Class: info}
	if err := d.register(t, pos, info.ObjectID, c); err != nil {
		return nil, err
	}
	if c.Values, err = d.readMemberValues(t, &c.Class, nil); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *decoder) readClassWithID(pos int) (*ClassWithID, error) {
	const t = RecordClassWithID
	id, err := d.readS32(t, pos)
	if err != nil {
		return nil, err
	}
	metaID, err := d.readS32(t, pos)
	if err != nil {
		return nil, err
	}
	target, err := d.m.Lookup(ObjectID(metaID))
	if err != nil {
		return nil, errors.DanglingReference(errors.PhaseDecode, metaID, "class metadata never registered")
	}
	meta, ok := target.(ClassRecord)
	if !ok {
		return nil, errors.DanglingReference(errors.PhaseDecode, metaID, "class metadata names a "+target.RecordType().String())
	}
	if inner, isRef := meta.(*ClassWithID); isRef {
		meta = inner.Metadata
	}
	if err := d.charge(t, pos, len(meta.ClassInfo().MemberNames)); err != nil {
		return nil, err
	}

	c := &ClassWithID{ObjectID: ObjectID(id), MetadataID: ObjectID(metaID), Metadata: meta}
	if err := d.register(t, pos, c.ObjectID, c); err != nil {
		return nil, err
	}
	if c.Values, err = d.readMemberValues(t, meta.ClassInfo(), meta.MemberTypes()); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *decoder) readArrayInfo(t RecordType, pos int) (ArrayInfo, error) {
	id, err := d.readS32(t, pos)
	if err != nil {
		return ArrayInfo{}, err
	}
	length, err := d.readS32(t, pos)
	if err != nil {
		return ArrayInfo{}, err
	}
	if length < 0 {
		return ArrayInfo{}, errors.ArrayShapeInvalid(errors.PhaseDecode, t.String(), "negative length %d", length)
	}
	return ArrayInfo{ObjectID: ObjectID(id), Length: length}, nil
}

// readElements reads count element slots, expanding null runs.
func (d *decoder) readElements(t RecordType, pos int, count int, accepts func(Record) bool) ([]any, error) {
	if err := d.charge(t, pos, count); err != nil {
		return nil, err
	}
	values := make([]any, 0, d.prealloc(count))
	for len(values) < count {
		elemPos := d.r.Position()
		rec, err := d.readNested(t)
		if err != nil {
			return nil, err
		}
		if k := NullCount(rec); k > 0 {
			if k > count-len(values) {
				return nil, errors.NullRunOverrun(errors.PhaseDecode, t.String(), k, count-len(values))
			}
			for range k {
				values = append(values, nil)
			}
			continue
		}
		if !accepts(rec) {
			return nil, errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
				Record(t.String()).
				Offset(elemPos).
				Detail("element %d is a %s", len(values), rec.RecordType()).
				Build()
		}
		values = append(values, rec)
	}
	return values, nil
}

func acceptAny(Record) bool { return true }

func acceptString(rec Record) bool {
	switch rec.(type) {
	case *BinaryObjectString, *MemberReference:
		return true
	}
	return false
}

func (d *decoder) readArraySingleObject(pos int) (*ArraySingleObject, error) {
	const t = RecordArraySingleObject
	info, err := d.readArrayInfo(t, pos)
	if err != nil {
		return nil, err
	}
	a := &ArraySingleObject{Array: info}
	if err := d.register(t, pos, info.ObjectID, a); err != nil {
		return nil, err
	}
	if a.Values, err = d.readElements(t, pos, int(info.Length), acceptAny); err != nil {
		return nil, err
	}
	return a, nil
}

func (d *decoder) readArraySingleString(pos int) (*ArraySingleString, error) {
	const t = RecordArraySingleString
	info, err := d.readArrayInfo(t, pos)
	if err != nil {
		return nil, err
	}
	a := &ArraySingleString{Array: info}
	if err := d.register(t, pos, info.ObjectID, a); err != nil {
		return nil, err
	}
	if a.Values, err = d.readElements(t, pos, int(info.Length), acceptString); err != nil {
		return nil, err
	}
	return a, nil
}

// checkRemaining fails fast when the input cannot hold count primitives.
func (d *decoder) checkRemaining(t RecordType, pos int, count int, pt PrimitiveType) error {
	rem, ok := d.r.Remaining()
	if ok && int64(count)*int64(primitiveSize(pt)) > int64(rem) {
		return errors.New(errors.PhaseDecode, errors.KindMalformedRecord).
			Record(t.String()).
			Offset(pos).
			Detail("%d %s values declared, %d bytes remaining", count, pt, rem).
			Build()
	}
	return nil
}

func (d *decoder) readArraySinglePrimitive(pos int) (Record, error) {
	const t = RecordArraySinglePrimitive
	info, err := d.readArrayInfo(t, pos)
	if err != nil {
		return nil, err
	}
	kind, err := d.r.ReadByte()
	if err != nil {
		return nil, d.wrap(t, pos, err)
	}
	pt := PrimitiveType(kind)
	if !pt.IsValue() {
		return nil, errors.UnsupportedPrimitive(errors.PhaseDecode, pt)
	}
	if err := d.checkRemaining(t, pos, int(info.Length), pt); err != nil {
		return nil, err
	}
	if err := d.charge(t, pos, int(info.Length)); err != nil {
		return nil, err
	}

	var rec Record
	switch pt {
	case PrimitiveBoolean:
		rec, err = readPrimitiveArray[bool](d, info, pt)
	case PrimitiveByte:
		rec, err = readPrimitiveArray[uint8](d, info, pt)
	case PrimitiveChar:
		rec, err = readPrimitiveArray[Char](d, info, pt)
	case PrimitiveDecimal:
		rec, err = readPrimitiveArray[Decimal](d, info, pt)
	case PrimitiveDouble:
		rec, err = readPrimitiveArray[float64](d, info, pt)
	case PrimitiveInt16:
		rec, err = readPrimitiveArray[int16](d, info, pt)
	case PrimitiveInt32:
		rec, err = readPrimitiveArray[int32](d, info, pt)
	case PrimitiveInt64:
		rec, err = readPrimitiveArray[int64](d, info, pt)
	case PrimitiveSByte:
		rec, err = readPrimitiveArray[int8](d, info, pt)
	case PrimitiveSingle:
		rec, err = readPrimitiveArray[float32](d, info, pt)
	case PrimitiveTimeSpan:
		rec, err = readPrimitiveArray[TimeSpan](d, info, pt)
	case PrimitiveDateTime:
		rec, err = readPrimitiveArray[DateTime](d, info, pt)
	case PrimitiveUInt16:
		rec, err = readPrimitiveArray[uint16](d, info, pt)
	case PrimitiveUInt32:
		rec, err = readPrimitiveArray[uint32](d, info, pt)
	case PrimitiveUInt64:
		rec, err = readPrimitiveArray[uint64](d, info, pt)
	}
	if err != nil {
		return nil, d.wrap(t, pos, err)
	}
	if err := d.register(t, pos, info.ObjectID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func readPrimitiveArray[T Primitive](d *decoder, info ArrayInfo, pt PrimitiveType) (*ArraySinglePrimitive[T], error) {
	values := make([]T, 0, d.prealloc(int(info.Length)))
	for i := int32(0); i < info.Length; i++ {
		v, err := readPrimitive(d.r, pt)
		if err != nil {
			return nil, err
		}
		values = append(values, v.(T))
	}
	return &ArraySinglePrimitive[T]{Array: info, Values: values}, nil
}

func (d *decoder) readBinaryArray(pos int) (*BinaryArray, error) {
	const t = RecordBinaryArray
	id, err := d.readS32(t, pos)
	if err != nil {
		return nil, err
	}
	shape, err := d.r.ReadByte()
	if err != nil {
		return nil, d.wrap(t, pos, err)
	}
	arrayType := BinaryArrayType(shape)
	if arrayType.IsOffset() {
		return nil, errors.UnsupportedShape(errors.PhaseDecode, t.String(), arrayType.String()+" arrays are not supported")
	}
	rank, err := d.readS32(t, pos)
	if err != nil {
		return nil, err
	}
	if rank < 1 || rank > MaxRank {
		return nil, errors.ArrayShapeInvalid(errors.PhaseDecode, t.String(), "rank %d out of range 1..%d", rank, MaxRank)
	}
	lengths := make([]int32, rank)
	for i := range lengths {
		if lengths[i], err = d.readS32(t, pos); err != nil {
			return nil, err
		}
	}
	count, err := elementCount(errors.PhaseDecode, arrayType, lengths)
	if err != nil {
		return nil, err
	}
	bt, err := d.r.ReadByte()
	if err != nil {
		return nil, d.wrap(t, pos, err)
	}
	itemType, err := d.readAdditionalInfo(t, pos, BinaryType(bt))
	if err != nil {
		return nil, err
	}

	a := &BinaryArray{ObjectID: ObjectID(id), ArrayType: arrayType, Lengths: lengths, ItemType: itemType}
	if err := d.register(t, pos, a.ObjectID, a); err != nil {
		return nil, err
	}

	if itemType.BinaryType == BinaryTypePrimitive {
		if err := d.checkRemaining(t, pos, count, itemType.Primitive); err != nil {
			return nil, err
		}
		if err := d.charge(t, pos, count); err != nil {
			return nil, err
		}
		values := make([]any, 0, d.prealloc(count))
		for range count {
			v, err := readPrimitive(d.r, itemType.Primitive)
			if err != nil {
				return nil, d.wrap(t, pos, err)
			}
			values = append(values, v)
		}
		a.Values = values
		return a, nil
	}

	accepts := func(rec Record) bool { return memberAccepts(itemType, rec) }
	if a.Values, err = d.readElements(t, pos, count, accepts); err != nil {
		return nil, err
	}
	return a, nil
}
