package dump

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/nrbf/build"
	"github.com/wippyai/nrbf/extract"
	"github.com/wippyai/nrbf/format"
)

func mustGraph(t *testing.T) func(*format.Graph, error) *format.Graph {
	return func(g *format.Graph, err error) *format.Graph {
		t.Helper()
		if err != nil {
			t.Fatalf("build error = %v", err)
		}
		return g
	}
}

func TestTreePoint(t *testing.T) {
	g := mustGraph(t)(build.PointF(extract.PointF{X: 3.5, Y: 4.5}))
	root := Tree(g)

	if root.Kind != KindGraph || root.ID != 1 || root.Value != "1.0" {
		t.Fatalf("root = %+v", root)
	}
	if len(root.Elements) != 1 {
		t.Fatalf("got %d top-level records", len(root.Elements))
	}
	point := root.Elements[0]
	if point.Kind != "ClassWithMembersAndTypes" || point.Name != extract.PointFTypeName {
		t.Errorf("point = %s %s", point.Kind, point.Name)
	}
	if point.Library != extract.DrawingLibraryName {
		t.Errorf("library = %q", point.Library)
	}
	if len(point.Libraries) != 1 || point.Libraries[0].ID != 2 {
		t.Errorf("leading libraries = %+v", point.Libraries)
	}
	want := []Member{
		{Name: "x", Type: "Primitive(Single)", Value: Node{Kind: KindPrimitive, Type: "Single", Value: float32(3.5)}},
		{Name: "y", Type: "Primitive(Single)", Value: Node{Kind: KindPrimitive, Type: "Single", Value: float32(4.5)}},
	}
	if !reflect.DeepEqual(point.Members, want) {
		t.Errorf("members = %+v", point.Members)
	}
}

func TestTreeReferencesNotFollowed(t *testing.T) {
	g := mustGraph(t)(build.PrimitiveList([]int32{1, 2}))
	root := Tree(g)
	if len(root.Elements) != 2 {
		t.Fatalf("got %d top-level records", len(root.Elements))
	}
	items := root.Elements[0].Members[0]
	if items.Value.Kind != "MemberReference" || items.Value.Ref != 2 {
		t.Errorf("_items = %+v", items.Value)
	}
	arr := root.Elements[1]
	if arr.ID != 2 || len(arr.Elements) != 2 || !reflect.DeepEqual(arr.Lengths, []int32{2}) {
		t.Errorf("array = %+v", arr)
	}
}

func TestJSON(t *testing.T) {
	g := mustGraph(t)(build.ArrayList([]any{"a", nil, int32(7)}))
	var buf bytes.Buffer
	if err := JSON(&buf, Tree(g), true); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Errorf("compact output spans lines: %q", out)
	}
	if !strings.Contains(out, `"$ref":2`) {
		t.Errorf("reference missing from %s", out)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["kind"] != KindGraph {
		t.Errorf("kind = %v", decoded["kind"])
	}

	buf.Reset()
	if err := JSON(&buf, Tree(g), false); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"kind\"") {
		t.Errorf("indented output = %s", buf.String())
	}
}

func TestYAML(t *testing.T) {
	g := mustGraph(t)(build.String("hello"))
	var buf bytes.Buffer
	if err := YAML(&buf, Tree(g)); err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	var decoded Node
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if len(decoded.Elements) != 1 || decoded.Elements[0].Value != "hello" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestCBORDeterministic(t *testing.T) {
	g := mustGraph(t)(build.Hashtable(map[any]any{"a": int32(1), "b": 2.5}))
	first, err := CBOR(Tree(g))
	if err != nil {
		t.Fatalf("CBOR() error = %v", err)
	}
	second, err := CBOR(Tree(g))
	if err != nil {
		t.Fatalf("CBOR() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("CBOR output differs between runs")
	}
	var decoded Node
	if err := cbor.Unmarshal(first, &decoded); err != nil {
		t.Fatalf("output is not CBOR: %v", err)
	}
	if decoded.Elements[0].Name != extract.HashtableTypeName {
		t.Errorf("root name = %q", decoded.Elements[0].Name)
	}
}

func TestText(t *testing.T) {
	g := mustGraph(t)(build.PointF(extract.PointF{X: 3.5, Y: 4.5}))
	var buf bytes.Buffer
	if err := Text(&buf, g); err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	want := strings.Join([]string{
		"graph root=#1 version=1.0",
		"ClassWithMembersAndTypes #1 " + extract.PointFTypeName + " [" + extract.DrawingLibraryName + "]",
		`  library #2 "` + extract.DrawingLibraryName + `"`,
		"  x: 3.5 (Single)",
		"  y: 4.5 (Single)",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("Text() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestScalar(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{format.MustDecimal("1.10"), "1.10"},
		{format.Char('x'), "x"},
		{format.TimeSpan(10_000_000), "1s"},
		{math.NaN(), "NaN"},
		{float32(math.Inf(-1)), "-Inf"},
		{int32(3), int32(3)},
	}
	for _, tt := range tests {
		if got := Scalar(tt.in); got != tt.want {
			t.Errorf("Scalar(%#v) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestValue(t *testing.T) {
	s := "s"
	got := Value(map[any]any{int32(1): []*string{&s, nil}, "d": format.MustDecimal("2.5")})
	want := map[string]any{"1": []any{"s", nil}, "d": "2.5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Value() = %#v, want %#v", got, want)
	}

	if got := Value([]int16{1, 2}); !reflect.DeepEqual(got, []any{int16(1), int16(2)}) {
		t.Errorf("Value(slice) = %#v", got)
	}
	if got := Value(&extract.NotSupportedException{Message: "m"}); !reflect.DeepEqual(got,
		map[string]any{"exception": extract.NotSupportedExceptionTypeName, "message": "m"}) {
		t.Errorf("Value(exception) = %#v", got)
	}
}
