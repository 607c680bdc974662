// Package errors provides the structured error type returned by the capture
// parsers, the signal catalog and the converter.
//
// Errors carry a Kind (parse or config), the input they came from and, for
// line-oriented inputs, the offending line:
//
//	err := errors.New(errors.KindParse).
//		Source("capture.vcd").
//		Line(12).
//		Detail("unsupported timescale unit %q", unit).
//		Build()
//
// Callers test for a category with the sentinels:
//
//	if errors.Is(err, errors.ErrParse) { ... }
//
// I/O failures are never converted into an *Error; they are returned as-is
// (or wrapped with %w) so the os and io/fs predicates keep working.
package errors
