// Package build produces the canonical record graphs for host values that
// the extract package recognises. Every graph built here decodes and
// extracts back to an equal value.
package build

import (
	"io"
	"math"
	"time"

	"github.com/wippyai/nrbf/errors"
	"github.com/wippyai/nrbf/extract"
	"github.com/wippyai/nrbf/format"
)

// rootID is the object id of every graph's root record.
const rootID format.ObjectID = 1

// builder hands out object ids in stream order and collects top-level
// records.
type builder struct {
	next    format.ObjectID
	records []format.Record
}

func newBuilder() *builder {
	return &builder{next: rootID}
}

func (b *builder) id() format.ObjectID {
	id := b.next
	b.next++
	return id
}

func (b *builder) add(rec format.Record) {
	b.records = append(b.records, rec)
}

func (b *builder) graph() (*format.Graph, error) {
	return format.NewGraph(rootID, b.records...)
}

// single wraps one root record into a graph.
func single(rec format.Record, err error) (*format.Graph, error) {
	if err != nil {
		return nil, err
	}
	return format.NewGraph(rootID, rec)
}

// KnownValue builds the graph for v. Supported values:
//
//   - string, and the Go types of format.Primitive
//   - time.Time (as a UTC DateTime) and time.Duration (as a TimeSpan)
//   - []T of a primitive type, as a primitive array
//   - []string and []*string, as a string array
//   - []any of primitives and strings, as an ArrayList
//   - map[any]any of primitives and strings, as a Hashtable
//   - extract.PointF, extract.RectangleF, *extract.NotSupportedException
//
// Anything else fails with errors.KindUnsupported.
func KnownValue(v any) (*format.Graph, error) {
	switch v := v.(type) {
	case nil:
		return nil, errors.InvalidInput(errors.PhaseBuild, "nil has no root record")
	case string:
		return String(v)
	case time.Time:
		return Primitive(format.DateTimeOf(v.UTC(), format.DateTimeUTC))
	case time.Duration:
		return Primitive(format.TimeSpanOf(v))
	case []string:
		ptrs := make([]*string, len(v))
		for i := range v {
			ptrs[i] = &v[i]
		}
		return StringArray(ptrs)
	case []*string:
		return StringArray(v)
	case []any:
		return ArrayList(v)
	case map[any]any:
		return Hashtable(v)
	case extract.PointF:
		return PointF(v)
	case *extract.PointF:
		return PointF(*v)
	case extract.RectangleF:
		return RectangleF(v)
	case *extract.RectangleF:
		return RectangleF(*v)
	case extract.NotSupportedException:
		return NotSupportedException(v.Message)
	case *extract.NotSupportedException:
		return NotSupportedException(v.Message)
	}

	if rec, ok, err := primitiveArray(rootID, v); ok {
		return single(rec, err)
	}
	if _, ok := format.PrimitiveTypeOf(v); ok {
		return single(primitiveClass(rootID, v))
	}
	return nil, unsupported(v)
}

// Write encodes the graph of v to w.
func Write(w io.Writer, v any) error {
	g, err := KnownValue(v)
	if err != nil {
		return err
	}
	return format.Encode(w, g)
}

func unsupported(v any) error {
	return errors.New(errors.PhaseBuild, errors.KindUnsupported).
		Detail("no known shape for %T", v).
		Value(v).
		Build()
}

func length(record string, n int) (int32, error) {
	if n > math.MaxInt32 {
		return 0, errors.Overflow(errors.PhaseBuild, record, "length exceeds int32")
	}
	return int32(n), nil
}
