package build

import (
	"slices"

	"github.com/wippyai/nrbf/extract"
	"github.com/wippyai/nrbf/format"
)

// drawingLibraryID is the library id the geometry shapes are written
// under. It follows the root class id.
const drawingLibraryID format.ObjectID = rootID + 1

// notSupportedHResult is COR_E_NOTSUPPORTED.
const notSupportedHResult int32 = -2146233067

func drawingClass(name string, members []string, values ...float32) *format.ClassWithMembersAndTypes {
	c := &format.ClassWithMembersAndTypes{
		Leading: format.Leading{Libraries: []*format.BinaryLibrary{{
			LibraryID: drawingLibraryID,
			Name:      extract.DrawingLibraryName,
		}}},
		Class: format.ClassInfo{
			ObjectID:    rootID,
			Name:        name,
			MemberNames: slices.Clone(members),
		},
		LibraryID: drawingLibraryID,
	}
	for _, v := range values {
		c.Types = append(c.Types, format.PrimitiveMember(format.PrimitiveSingle))
		c.Values = append(c.Values, v)
	}
	return c
}

// PointF builds a System.Drawing.PointF graph.
func PointF(p extract.PointF) (*format.Graph, error) {
	return format.NewGraph(rootID, drawingClass(extract.PointFTypeName, extract.PointFMembers, p.X, p.Y))
}

// RectangleF builds a System.Drawing.RectangleF graph.
func RectangleF(r extract.RectangleF) (*format.Graph, error) {
	return format.NewGraph(rootID, drawingClass(extract.RectangleFTypeName, extract.RectangleFMembers,
		r.X, r.Y, r.Width, r.Height))
}

// NotSupportedException builds a core library NotSupportedException with
// the given message. Members other than ClassName, Message and HResult
// are null or zero.
func NotSupportedException(message string) (*format.Graph, error) {
	b := newBuilder()
	c := &format.SystemClassWithMembersAndTypes{
		Class: format.ClassInfo{ObjectID: b.id(), Name: extract.NotSupportedExceptionTypeName},
	}
	add := func(name string, t format.MemberType, v any) {
		c.Class.MemberNames = append(c.Class.MemberNames, name)
		c.Types = append(c.Types, t)
		c.Values = append(c.Values, v)
	}
	str := format.MemberType{BinaryType: format.BinaryTypeString}
	i32 := format.PrimitiveMember(format.PrimitiveInt32)

	add("ClassName", str, &format.BinaryObjectString{ObjectID: b.id(), Value: extract.NotSupportedExceptionTypeName})
	add("Message", str, &format.BinaryObjectString{ObjectID: b.id(), Value: message})
	add("Data", format.SystemClassMember("System.Collections.IDictionary"), nil)
	add("InnerException", format.SystemClassMember("System.Exception"), nil)
	add("HelpURL", str, nil)
	add("StackTraceString", str, nil)
	add("RemoteStackTraceString", str, nil)
	add("RemoteStackIndex", i32, int32(0))
	add("ExceptionMethod", str, nil)
	add("HResult", i32, notSupportedHResult)
	add("Source", str, nil)
	add("WatsonBuckets", format.PrimitiveArrayMember(format.PrimitiveByte), nil)

	b.add(c)
	return b.graph()
}
