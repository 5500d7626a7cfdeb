// Package format reads and writes the legacy binary object-graph stream.
//
// DecodeBytes (or DecodeWithOptions for explicit limits) returns a Graph:
// the header, the top-level records in stream order, and a RecordMap from
// object id to record. Records form a closed set of pointer types; class
// members and array elements hold nil, a Go primitive value (see
// Primitive), or a nested Record. Null-run records are expanded while
// reading and never appear as values.
//
// MemberReference values are not followed while decoding. Their targets
// may appear later in the stream, so every reference is checked once the
// MessageEnd record is reached; resolve them with RecordMap.Resolve.
//
// Encode writes a Graph back. Streams whose class records carry member
// type information round-trip byte for byte, with two exceptions: null
// runs inside class members are rewritten as individual ObjectNull
// records, and a Boolean byte other than 0 reads as true and is written
// back as 1.
//
// Decoding never resolves type names and never instantiates anything.
// Declared lengths are checked against the remaining input where it is
// known, slice pre-sizing is clamped, and the total number of member and
// element slots is capped by DecodeOptions.MaxElements.
package format
