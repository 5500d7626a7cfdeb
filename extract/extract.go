package extract

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/nrbf/format"
)

// MatchFunc returns the host value for rec, or false when rec does not
// have the shape it recognises. A MatchFunc must not fail in any other
// way; mismatch is the normal outcome.
type MatchFunc func(rec format.Record, m *format.RecordMap) (any, bool)

type matcher struct {
	name string
	fn   MatchFunc
}

// builtins run in this order before any registered matcher.
var builtins = []matcher{
	{"primitive", TryGetPrimitive},
	{"list", TryGetPrimitiveList},
	{"arraylist", TryGetPrimitiveArrayList},
	{"array", TryGetPrimitiveArray},
	{"hashtable", TryGetPrimitiveHashtable},
	{"pointf", TryGetPointF},
	{"rectanglef", TryGetRectangleF},
	{"notsupported", TryGetNotSupportedException},
}

// Extractor runs the built-in matchers followed by caller-registered ones.
// The zero value is ready to use and safe for concurrent use.
type Extractor struct {
	mu     sync.RWMutex
	custom []matcher
}

// New creates an Extractor with no registered matchers.
func New() *Extractor {
	return &Extractor{}
}

// Register appends fn to the matchers tried after the built-ins. Matchers
// see only records; nothing here maps a type name to code.
func (e *Extractor) Register(name string, fn MatchFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.custom = append(slices.Clip(e.custom), matcher{name: name, fn: fn})
}

// TryGetKnownValue returns the first match for rec.
func (e *Extractor) TryGetKnownValue(rec format.Record, m *format.RecordMap) (any, bool) {
	if v, ok := try(builtins, rec, m); ok {
		return v, true
	}
	e.mu.RLock()
	custom := e.custom
	e.mu.RUnlock()
	return try(custom, rec, m)
}

// TryGetKnownValue returns the host value of rec when it has one of the
// built-in shapes. References are resolved through m, which may be nil
// for self-contained records.
func TryGetKnownValue(rec format.Record, m *format.RecordMap) (any, bool) {
	return try(builtins, rec, m)
}

func try(matchers []matcher, rec format.Record, m *format.RecordMap) (any, bool) {
	if rec == nil {
		return nil, false
	}
	for _, mt := range matchers {
		if v, ok := mt.fn(rec, m); ok {
			Logger().Debug("matched known shape",
				zap.String("shape", mt.name),
				zap.Stringer("record", rec.RecordType()))
			return v, true
		}
	}
	return nil, false
}

// resolve turns v into a record, following a MemberReference through m.
func resolve(v any, m *format.RecordMap) (format.Record, bool) {
	rec, ok := v.(format.Record)
	if !ok || rec == nil {
		return nil, false
	}
	ref, isRef := rec.(*format.MemberReference)
	if !isRef {
		return rec, true
	}
	if m == nil {
		return nil, false
	}
	target, err := m.Lookup(ref.IDRef)
	if err != nil {
		return nil, false
	}
	if _, chained := target.(*format.MemberReference); chained {
		return nil, false
	}
	return target, true
}

func classRecord(rec format.Record, m *format.RecordMap) (format.ClassRecord, bool) {
	r, ok := resolve(rec, m)
	if !ok {
		return nil, false
	}
	c, ok := r.(format.ClassRecord)
	return c, ok
}

// exactMembers reports whether c declares exactly the named members, in
// any order, and carries a value for each.
func exactMembers(c format.ClassRecord, names []string) bool {
	declared := c.ClassInfo().MemberNames
	if len(declared) != len(names) || len(c.MemberValues()) != len(declared) {
		return false
	}
	for _, name := range names {
		if !slices.Contains(declared, name) {
			return false
		}
	}
	return true
}

func member(c format.ClassRecord, name string) any {
	v, _ := format.Member(c, name)
	return v
}

// memberAs returns the named member when it holds a T.
func memberAs[T any](c format.ClassRecord, name string) (T, bool) {
	v, ok := member(c, name).(T)
	return v, ok
}
