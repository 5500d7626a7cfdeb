// Package extract turns decoded records into plain Go values for a closed
// set of well-known shapes: primitives and strings, generic and
// non-generic lists of primitives, primitive and string arrays,
// hashtables of primitives, PointF and RectangleF, and
// NotSupportedException.
//
// Every matcher checks the exact member-name set of a class record and
// the types of the values it holds. Nested collections must contain
// primitives or strings only; any other content makes the match fail.
// A failed match is not an error: each TryGet function reports false and
// TryGetKnownValue moves on to the next shape.
//
// No matcher resolves a type name to Go code or instantiates anything
// named by the stream. Callers needing more shapes register a MatchFunc
// on an Extractor; registered matchers run after the built-ins and see
// only records.
package extract
