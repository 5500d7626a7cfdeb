// Package nrbf reads and writes the legacy binary object-graph format
// used for clipboard, drag-drop and remoting payloads, without ever
// instantiating the types a stream names.
//
// A stream decodes into a record graph: the header, the top-level records
// in order, and a map from object id to record. Nothing in the graph is
// bound to Go types. A narrow extraction layer then recognises a closed
// set of shapes (primitives, strings, primitive arrays and lists,
// hashtables of primitives, PointF, RectangleF and NotSupportedException)
// and returns plain Go values for them. Every other shape is left as
// records.
//
// # Architecture Overview
//
//	nrbf/                Root package with Parse, Write and TryGetKnownValue
//	├── format/          Record model, primitive codec, decoder and encoder
//	├── extract/         Known-shape matchers and the Extractor registry
//	├── build/           Canonical graphs for known host values
//	├── dump/            Tree, JSON, YAML, CBOR and text renderings
//	├── errors/          Structured error types with phase and kind
//	└── cmd/nrbf/        Command line inspector and record browser
//
// # Quick Start
//
// Decode a stream and extract its root value:
//
//	g, err := nrbf.Parse(r)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, ok := nrbf.RootValue(g)
//
// Encode a known value:
//
//	err := nrbf.WriteValue(w, []int32{1, 2, 3})
//
// # Limits
//
// Decoding is bounded: record nesting, total member and element slots,
// and slice pre-allocation are all capped (see format.DecodeOptions), and
// array shapes are validated before any element is read. A stream that
// breaks a limit fails with a structured error; there is no partial
// result.
//
// # Thread Safety
//
// Parsing and writing are synchronous. A decoded Graph is never mutated
// and may be shared read-only between goroutines.
package nrbf
