package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode  Phase = "decode"  // bytes to record graph
	PhaseEncode  Phase = "encode"  // record graph to bytes
	PhaseExtract Phase = "extract" // record graph to Go values
	PhaseBuild   Phase = "build"   // Go values to record graph
	PhaseLoad    Phase = "load"    // payload acquisition
	PhaseConfig  Phase = "config"  // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindMalformedRecord      Kind = "malformed_record"
	KindUnsupportedShape     Kind = "unsupported_shape"
	KindDanglingReference    Kind = "dangling_reference"
	KindArrayShapeInvalid    Kind = "array_shape_invalid"
	KindNullRunOverrun       Kind = "null_run_overrun"
	KindDuplicateID          Kind = "duplicate_id"
	KindUnsupportedPrimitive Kind = "unsupported_primitive"
	KindNotFound             Kind = "not_found"
	KindOverflow             Kind = "overflow"
	KindInvalidData          Kind = "invalid_data"
	KindTypeMismatch         Kind = "type_mismatch"
	KindUnsupported          Kind = "unsupported"
	KindInvalidInput         Kind = "invalid_input"
)

// Sentinels match any *Error of the same Kind regardless of Phase.
var (
	ErrMalformedRecord      = &Error{Kind: KindMalformedRecord}
	ErrUnsupportedShape     = &Error{Kind: KindUnsupportedShape}
	ErrDanglingReference    = &Error{Kind: KindDanglingReference}
	ErrArrayShapeInvalid    = &Error{Kind: KindArrayShapeInvalid}
	ErrNullRunOverrun       = &Error{Kind: KindNullRunOverrun}
	ErrDuplicateID          = &Error{Kind: KindDuplicateID}
	ErrUnsupportedPrimitive = &Error{Kind: KindUnsupportedPrimitive}
	ErrNotFound             = &Error{Kind: KindNotFound}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Record string // record type being processed, if known
	Detail string
	Path   []string
	Offset int    // byte offset in the stream, 0 when unknown
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Record != "" {
		b.WriteString(" in ")
		b.WriteString(e.Record)
	}

	if e.Offset > 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a
// Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the member path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Record sets the record type name
func (b *Builder) Record(name string) *Builder {
	b.err.Record = name
	return b
}

// Offset sets the stream offset
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Malformed creates a malformed record error
func Malformed(phase Phase, record string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedRecord,
		Record: record,
		Detail: detail,
	}
}

// Truncated wraps a read failure as a malformed record
func Truncated(record string, offset int, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedRecord,
		Record: record,
		Offset: offset,
		Detail: "unexpected end of stream",
		Cause:  cause,
	}
}

// UnsupportedShape creates an unsupported shape error
func UnsupportedShape(phase Phase, record string, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedShape,
		Record: record,
		Detail: what,
	}
}

// DanglingReference creates a dangling reference error for id
func DanglingReference(phase Phase, id int32, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDanglingReference,
		Detail: fmt.Sprintf("object %d: %s", id, detail),
		Value:  id,
	}
}

// ArrayShapeInvalid creates an invalid array shape error
func ArrayShapeInvalid(phase Phase, record string, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindArrayShapeInvalid,
		Record: record,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// NullRunOverrun creates a null run overrun error
func NullRunOverrun(phase Phase, record string, count, remaining int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNullRunOverrun,
		Record: record,
		Detail: fmt.Sprintf("null run of %d exceeds %d remaining slots", count, remaining),
		Value:  count,
	}
}

// DuplicateID creates a duplicate registration error
func DuplicateID(phase Phase, id int32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicateID,
		Detail: fmt.Sprintf("object id %d registered twice", id),
		Value:  id,
	}
}

// UnsupportedPrimitive creates an unsupported primitive kind error
func UnsupportedPrimitive(phase Phase, kind any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedPrimitive,
		Detail: fmt.Sprintf("unsupported primitive type %v", kind),
		Value:  kind,
	}
}

// TypeMismatch creates a type mismatch error for a value that does not
// agree with its declared wire type
func TypeMismatch(phase Phase, path []string, goType, wireType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("Go type %s does not match wire type %s", goType, wireType),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what string, id any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %v not found", what, id),
		Value:  id,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, record string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Record: record,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a payload loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
