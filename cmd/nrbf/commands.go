package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"golang.org/x/term"

	"github.com/wippyai/nrbf/dump"
	"github.com/wippyai/nrbf/extract"
	"github.com/wippyai/nrbf/internal/payload"
)

func runInspect(e *env, args []string) error {
	path, err := oneArg(args, "input file")
	if err != nil {
		return err
	}
	g, data, err := e.loadGraph(path)
	if err != nil {
		return err
	}

	switch e.cfg.Format {
	case "json":
		return dump.JSON(e.stdout, dump.Tree(g), e.opts.compact)
	case "yaml":
		return dump.YAML(e.stdout, dump.Tree(g))
	case "cbor":
		out, err := dump.CBOR(dump.Tree(g))
		if err != nil {
			return err
		}
		_, err = e.stdout.Write(out)
		return err
	}
	fmt.Fprintf(e.stdout, "# %s: %d bytes, blake3 %s\n", path, len(data), payload.Sum(data))
	return dump.Text(e.stdout, g)
}

func runExtract(e *env, args []string) error {
	path, err := oneArg(args, "input file")
	if err != nil {
		return err
	}
	g, _, err := e.loadGraph(path)
	if err != nil {
		return err
	}
	root, err := g.Root()
	if err != nil {
		return err
	}
	v, ok := extract.TryGetKnownValue(root, g.Map)
	if !ok {
		return &exitError{code: 3, msg: fmt.Sprintf("root %s has no known shape", root.RecordType())}
	}

	var buf bytes.Buffer
	if err := dump.JSON(&buf, dump.Value(v), e.opts.compact); err != nil {
		return err
	}
	if !e.colorize() {
		_, err := e.stdout.Write(buf.Bytes())
		return err
	}
	return quick.Highlight(e.stdout, buf.String(), "json", "terminal256", "monokai")
}

// colorize reports whether JSON output should be highlighted.
func (e *env) colorize() bool {
	switch e.cfg.Color {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := e.stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// runRoundTrip compares the input with its re-encoding. Boolean bytes other
// than 0 or 1 are written back as 1 and show up as a difference.
func runRoundTrip(e *env, args []string) error {
	path, err := oneArg(args, "input file")
	if err != nil {
		return err
	}
	g, data, err := e.loadGraph(path)
	if err != nil {
		return err
	}
	out, err := g.Bytes()
	if err != nil {
		return err
	}

	// Bytes after the terminator are not part of the stream.
	in := data[:min(len(out), len(data))]
	if bytes.Equal(in, out) {
		fmt.Fprintf(e.stdout, "%s: identical (%d bytes, %d records)\n", path, len(out), g.Map.Len())
		if extra := len(data) - len(out); extra > 0 {
			fmt.Fprintf(e.stdout, "%s: %d trailing bytes ignored\n", path, extra)
		}
		return nil
	}
	at := firstDifference(in, out)
	return &exitError{code: 4, msg: fmt.Sprintf("%s: re-encoded stream differs at offset %d (input %d bytes, output %d bytes)",
		path, at, len(data), len(out))}
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func runConvert(e *env, args []string) error {
	if len(args) != 2 {
		return &exitError{code: 2, msg: fmt.Sprintf("expected FILE and OUT, got %d arguments", len(args))}
	}
	comp, err := payload.ParseCompression(e.opts.compress)
	if err != nil {
		return err
	}
	g, _, err := e.loadGraph(args[0])
	if err != nil {
		return err
	}
	out, err := g.Bytes()
	if err != nil {
		return err
	}
	packed, err := payload.Compress(out, comp)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], packed, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(e.stdout, "%s: %d bytes (%s), blake3 %s\n", args[1], len(packed), comp, payload.Sum(out).Short())
	return nil
}
