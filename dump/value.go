package dump

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/wippyai/nrbf/extract"
)

// Value converts a host value returned by the extract package into plain
// JSON-compatible data. Hashtable keys are printed with fmt.Sprint,
// string pointers are dereferenced, and primitive slices become []any.
func Value(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case []*string:
		out := make([]any, len(v))
		for i, s := range v {
			if s != nil {
				out[i] = *s
			}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = Value(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, e := range v {
			out[fmt.Sprint(Scalar(key))] = Value(e)
		}
		return out
	case extract.PointF, extract.RectangleF:
		return v
	case *extract.NotSupportedException:
		return map[string]any{"exception": extract.NotSupportedExceptionTypeName, "message": v.Message}
	case []byte:
		return slices.Clone(v)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Scalar(rv.Index(i).Interface())
		}
		return out
	}
	return Scalar(v)
}
