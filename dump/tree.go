// Package dump renders decoded graphs for people and for other tools: a
// generic tree of records that encodes to JSON, YAML, CBOR or indented
// text. References are never followed; they render as {"$ref": id}.
package dump

import (
	"math"
	"strconv"

	"github.com/wippyai/nrbf/format"
)

// Node is one record, member value or array element.
type Node struct {
	Kind      string    `json:"kind" yaml:"kind" cbor:"kind"`
	ID        int32     `json:"id,omitempty" yaml:"id,omitempty" cbor:"id,omitempty"`
	Ref       int32     `json:"$ref,omitempty" yaml:"$ref,omitempty" cbor:"$ref,omitempty"`
	Metadata  int32     `json:"metadata,omitempty" yaml:"metadata,omitempty" cbor:"metadata,omitempty"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty" cbor:"name,omitempty"`
	Library   string    `json:"library,omitempty" yaml:"library,omitempty" cbor:"library,omitempty"`
	Type      string    `json:"type,omitempty" yaml:"type,omitempty" cbor:"type,omitempty"`
	Value     any       `json:"value,omitempty" yaml:"value,omitempty" cbor:"value,omitempty"`
	Count     int       `json:"count,omitempty" yaml:"count,omitempty" cbor:"count,omitempty"`
	Lengths   []int32   `json:"lengths,omitempty" yaml:"lengths,omitempty" cbor:"lengths,omitempty"`
	Libraries []Library `json:"libraries,omitempty" yaml:"libraries,omitempty" cbor:"libraries,omitempty"`
	Members   []Member  `json:"members,omitempty" yaml:"members,omitempty" cbor:"members,omitempty"`
	Elements  []Node    `json:"elements,omitempty" yaml:"elements,omitempty" cbor:"elements,omitempty"`
}

// Member is a named class member.
type Member struct {
	Name  string `json:"name" yaml:"name" cbor:"name"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty" cbor:"type,omitempty"`
	Value Node   `json:"value" yaml:"value" cbor:"value"`
}

// Library is a BinaryLibrary record that precedes another record.
type Library struct {
	ID   int32  `json:"id" yaml:"id" cbor:"id"`
	Name string `json:"name" yaml:"name" cbor:"name"`
}

// Node kinds that are not record types.
const (
	KindGraph     = "graph"
	KindNull      = "null"
	KindPrimitive = "primitive"
)

// Tree converts g into a Node of kind "graph" whose elements are the
// top-level records in stream order.
func Tree(g *format.Graph) Node {
	t := tree{m: g.Map}
	root := Node{
		Kind:  KindGraph,
		ID:    int32(g.Header.RootID),
		Value: strconv.Itoa(int(g.Header.MajorVersion)) + "." + strconv.Itoa(int(g.Header.MinorVersion)),
	}
	for _, rec := range g.Records {
		root.Elements = append(root.Elements, t.record(rec))
	}
	return root
}

type tree struct {
	m *format.RecordMap
}

func (t tree) value(v any) Node {
	switch v := v.(type) {
	case nil:
		return Node{Kind: KindNull}
	case format.Record:
		return t.record(v)
	}
	pt, _ := format.PrimitiveTypeOf(v)
	return Node{Kind: KindPrimitive, Type: pt.String(), Value: Scalar(v)}
}

func (t tree) record(rec format.Record) Node {
	n := Node{Kind: rec.RecordType().String()}
	if l, ok := rec.(interface {
		LeadingLibraries() []*format.BinaryLibrary
	}); ok {
		for _, lib := range l.LeadingLibraries() {
			n.Libraries = append(n.Libraries, Library{ID: int32(lib.LibraryID), Name: lib.Name})
		}
	}
	if id, ok := rec.(format.Identified); ok {
		n.ID = int32(id.ID())
	}

	switch r := rec.(type) {
	case *format.BinaryObjectString:
		n.Value = r.Value
	case *format.BinaryLibrary:
		n.Name = r.Name
	case *format.MemberPrimitiveTyped:
		n.Type = r.Primitive.String()
		n.Value = Scalar(r.Value)
	case *format.MemberReference:
		n.Ref = int32(r.IDRef)
	case *format.SerializationHeader:
		n.ID = int32(r.RootID)
	case *format.ObjectNull, *format.ObjectNullMultiple, *format.ObjectNullMultiple256:
		n.Count = format.NullCount(r)
	case format.ClassRecord:
		t.class(&n, r)
	case format.ArrayRecord:
		t.array(&n, r)
	}
	return n
}

func (t tree) class(n *Node, c format.ClassRecord) {
	info := c.ClassInfo()
	n.Name = info.Name
	if cid, ok := c.(*format.ClassWithID); ok {
		n.Metadata = int32(cid.MetadataID)
	}
	if lib, ok := c.Library(); ok {
		n.Library = t.libraryName(lib)
	}
	types := c.MemberTypes()
	values := c.MemberValues()
	for i, name := range info.MemberNames {
		m := Member{Name: name, Value: Node{Kind: KindNull}}
		if i < len(types) {
			m.Type = TypeName(types[i])
		}
		if i < len(values) {
			m.Value = t.value(values[i])
		}
		n.Members = append(n.Members, m)
	}
}

func (t tree) array(n *Node, a format.ArrayRecord) {
	n.Type = TypeName(a.ElementType())
	n.Lengths = a.Dimensions()
	if a.Shape() != format.ArraySingle {
		n.Name = a.Shape().String()
	}
	n.Elements = make([]Node, 0, a.Len())
	for i := range a.Len() {
		n.Elements = append(n.Elements, t.value(a.At(i)))
	}
}

func (t tree) libraryName(id format.ObjectID) string {
	if t.m != nil {
		if rec, err := t.m.Lookup(id); err == nil {
			if lib, ok := rec.(*format.BinaryLibrary); ok {
				return lib.Name
			}
		}
	}
	return "#" + strconv.Itoa(int(id))
}

// TypeName renders a member type, e.g. "Primitive(Int32)" or
// "Class(Point, #2)".
func TypeName(t format.MemberType) string {
	switch t.BinaryType {
	case format.BinaryTypePrimitive, format.BinaryTypePrimitiveArray:
		return t.BinaryType.String() + "(" + t.Primitive.String() + ")"
	case format.BinaryTypeSystemClass:
		return t.BinaryType.String() + "(" + t.ClassName + ")"
	case format.BinaryTypeClass:
		return t.BinaryType.String() + "(" + t.ClassName + ", #" + strconv.Itoa(int(t.LibraryID)) + ")"
	}
	return t.BinaryType.String()
}

// Scalar converts a primitive value to a form every encoder in this
// package can carry: decimals, chars, times and spans become strings,
// and non-finite floats become their names.
func Scalar(v any) any {
	switch v := v.(type) {
	case format.Decimal:
		return v.String()
	case format.Char:
		return v.String()
	case format.DateTime:
		return v.String()
	case format.TimeSpan:
		return v.Duration().String()
	case float32:
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 32)
		}
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
	}
	return v
}
