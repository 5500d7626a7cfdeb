package nrbf

import (
	"io"

	"github.com/wippyai/nrbf/build"
	"github.com/wippyai/nrbf/extract"
	"github.com/wippyai/nrbf/format"
)

// Aliases for the types callers meet through this package.
type (
	Graph     = format.Graph
	Record    = format.Record
	RecordMap = format.RecordMap
)

// Parse decodes one stream from r with default limits.
func Parse(r io.Reader) (*Graph, error) {
	return format.Decode(r)
}

// ParseBytes decodes one stream from data.
func ParseBytes(data []byte) (*Graph, error) {
	return format.DecodeBytes(data)
}

// Write encodes g to w.
func Write(w io.Writer, g *Graph) error {
	return format.Encode(w, g)
}

// WriteValue encodes the canonical graph of a known host value.
func WriteValue(w io.Writer, v any) error {
	return build.Write(w, v)
}

// TryGetKnownValue returns the Go value of rec when it has a well-known
// shape. References are resolved through m.
func TryGetKnownValue(rec Record, m *RecordMap) (any, bool) {
	return extract.TryGetKnownValue(rec, m)
}

// RootValue returns the Go value of g's root record.
func RootValue(g *Graph) (any, bool) {
	root, err := g.Root()
	if err != nil {
		return nil, false
	}
	return extract.TryGetKnownValue(root, g.Map)
}
