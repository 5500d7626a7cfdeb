package dump

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/nrbf/format"
)

// encMode is Core Deterministic CBOR: sorted map keys, smallest integer
// encoding, no indefinite-length items.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("dump: CBOR encoder initialization failed: " + err.Error())
	}
}

// JSON writes v as JSON followed by a newline. Unless compact is set the
// output is indented by two spaces.
func JSON(w io.Writer, v any, compact bool) error {
	var (
		out []byte
		err error
	)
	if compact {
		out, err = json.Marshal(v)
	} else {
		out, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// YAML writes v as a YAML document.
func YAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

// CBOR encodes v deterministically; equal trees give equal bytes.
func CBOR(v any) ([]byte, error) {
	out, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode CBOR: %w", err)
	}
	return out, nil
}

// Text writes g as an indented tree, one record, member or element per
// line.
func Text(w io.Writer, g *format.Graph) error {
	var b strings.Builder
	root := Tree(g)
	fmt.Fprintf(&b, "graph root=#%d version=%v\n", root.ID, root.Value)
	for _, n := range root.Elements {
		writeText(&b, n, "", 1)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeText(b *strings.Builder, n Node, label string, depth int) {
	b.WriteString(strings.Repeat("  ", depth-1))
	if label != "" {
		b.WriteString(label)
		b.WriteString(": ")
	}
	b.WriteString(Summary(n))
	b.WriteByte('\n')

	for _, lib := range n.Libraries {
		fmt.Fprintf(b, "%slibrary #%d %q\n", strings.Repeat("  ", depth), lib.ID, lib.Name)
	}
	for _, m := range n.Members {
		writeText(b, m.Value, m.Name, depth+1)
	}
	for i, e := range n.Elements {
		writeText(b, e, fmt.Sprintf("[%d]", i), depth+1)
	}
}

// Summary is the one-line description of n used by Text and the browser.
func Summary(n Node) string {
	switch n.Kind {
	case KindNull:
		return "null"
	case KindPrimitive:
		return fmt.Sprintf("%v (%s)", n.Value, n.Type)
	}
	var b strings.Builder
	b.WriteString(n.Kind)
	if n.ID != 0 {
		fmt.Fprintf(&b, " #%d", n.ID)
	}
	if n.Ref != 0 {
		fmt.Fprintf(&b, " -> #%d", n.Ref)
	}
	if n.Metadata != 0 {
		fmt.Fprintf(&b, " like #%d", n.Metadata)
	}
	if n.Name != "" {
		fmt.Fprintf(&b, " %s", n.Name)
	}
	if n.Library != "" {
		fmt.Fprintf(&b, " [%s]", n.Library)
	}
	if n.Type != "" {
		fmt.Fprintf(&b, " <%s>", n.Type)
	}
	if len(n.Lengths) > 0 {
		fmt.Fprintf(&b, " %v", n.Lengths)
	}
	if n.Count != 0 {
		fmt.Fprintf(&b, " x%d", n.Count)
	}
	if n.Value != nil {
		fmt.Fprintf(&b, " = %q", fmt.Sprint(n.Value))
	}
	return b.String()
}
