// Package errors provides structured error types for the nrbf module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes context: member path, record type, stream offset, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindArrayShapeInvalid).
//		Record("BinaryArray").
//		Offset(r.Position()).
//		Detail("rank %d out of range", rank).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.DanglingReference(errors.PhaseDecode, id, "never registered")
//	err := errors.NullRunOverrun(errors.PhaseDecode, "ArraySingleObject", 10, 3)
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels carry no Phase and match any error of the same Kind:
//
//	if errors.Is(err, nrbferrors.ErrDanglingReference) { ... }
package errors
