package extract

import (
	"github.com/wippyai/nrbf/format"
)

// PointF is an ordered pair of single-precision coordinates.
type PointF struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
}

// RectangleF is a single-precision rectangle.
type RectangleF struct {
	X      float32 `json:"x" yaml:"x"`
	Y      float32 `json:"y" yaml:"y"`
	Width  float32 `json:"width" yaml:"width"`
	Height float32 `json:"height" yaml:"height"`
}

// NotSupportedException is the one exception kind reconstructed from a
// stream. Only its message is carried over.
type NotSupportedException struct {
	Message string `json:"message" yaml:"message"`
}

func (e *NotSupportedException) Error() string {
	if e.Message == "" {
		return "operation is not supported"
	}
	return e.Message
}

// TryGetPointF matches any class with exactly the members x and y, both
// single-precision.
func TryGetPointF(rec format.Record, m *format.RecordMap) (any, bool) {
	c, ok := classRecord(rec, m)
	if !ok || !exactMembers(c, PointFMembers) {
		return nil, false
	}
	x, okX := memberAs[float32](c, "x")
	y, okY := memberAs[float32](c, "y")
	if !okX || !okY {
		return nil, false
	}
	return PointF{X: x, Y: y}, true
}

// TryGetRectangleF matches any class with exactly the members x, y, width
// and height, all single-precision.
func TryGetRectangleF(rec format.Record, m *format.RecordMap) (any, bool) {
	c, ok := classRecord(rec, m)
	if !ok || !exactMembers(c, RectangleFMembers) {
		return nil, false
	}
	var fields [4]float32
	for i, name := range RectangleFMembers {
		v, ok := memberAs[float32](c, name)
		if !ok {
			return nil, false
		}
		fields[i] = v
	}
	return RectangleF{X: fields[0], Y: fields[1], Width: fields[2], Height: fields[3]}, true
}

// TryGetNotSupportedException matches the core library's
// NotSupportedException and returns a *NotSupportedException carrying its
// message. Other exception members are ignored.
func TryGetNotSupportedException(rec format.Record, m *format.RecordMap) (any, bool) {
	c, ok := classRecord(rec, m)
	if !ok || c.ClassInfo().Name != NotSupportedExceptionTypeName {
		return nil, false
	}
	if _, fromLibrary := c.Library(); fromLibrary {
		return nil, false
	}
	if c.ClassInfo().IndexOf(classNameMember) < 0 {
		return nil, false
	}
	msg, ok := format.Member(c, messageMember)
	if !ok {
		return nil, false
	}
	if msg == nil {
		return &NotSupportedException{}, true
	}
	r, ok := resolve(msg, m)
	if !ok {
		return nil, false
	}
	s, ok := r.(*format.BinaryObjectString)
	if !ok {
		return nil, false
	}
	return &NotSupportedException{Message: s.Value}, true
}
