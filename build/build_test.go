package build

import (
	"bytes"
	stderrors "errors"
	"reflect"
	"testing"
	"time"

	"github.com/wippyai/nrbf/errors"
	"github.com/wippyai/nrbf/extract"
	"github.com/wippyai/nrbf/format"
)

func strp(s string) *string { return &s }

// extractGraph encodes g, decodes the bytes, and extracts the root.
func extractGraph(t *testing.T, g *format.Graph) any {
	t.Helper()
	data, err := g.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	decoded, err := format.DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	root, err := decoded.Root()
	if err != nil {
		t.Fatalf("Root() error = %v", err)
	}
	got, ok := extract.TryGetKnownValue(root, decoded.Map)
	if !ok {
		t.Fatalf("TryGetKnownValue() found no shape for %s", root.RecordType())
	}
	return got
}

func kindOf(err error) errors.Kind {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func TestKnownValueRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"string", "hello", "hello"},
		{"empty string", "", ""},
		{"int32", int32(42), int32(42)},
		{"bool", true, true},
		{"char", format.Char('λ'), format.Char('λ')},
		{"double", 2.25, 2.25},
		{"uint64", uint64(1 << 63), uint64(1 << 63)},
		{"decimal", format.MustDecimal("-1.50"), format.MustDecimal("-1.50")},
		{"datetime", format.DateTime{Ticks: 5, Kind: format.DateTimeUTC}, format.DateTime{Ticks: 5, Kind: format.DateTimeUTC}},
		{"timespan", format.TimeSpan(-7), format.TimeSpan(-7)},
		{"duration", 1500 * time.Millisecond, format.TimeSpan(15_000_000)},
		{"time", time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC),
			format.DateTimeOf(time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC), format.DateTimeUTC)},
		{"int32 array", []int32{1, 2, 3}, []int32{1, 2, 3}},
		{"byte array", []byte("abc"), []byte("abc")},
		{"decimal array", []format.Decimal{format.MustDecimal("1"), format.MustDecimal("0.001")},
			[]format.Decimal{format.MustDecimal("1"), format.MustDecimal("0.001")}},
		{"string slice", []string{"a", "b"}, []*string{strp("a"), strp("b")}},
		{"string pointers", []*string{nil, strp("x")}, []*string{nil, strp("x")}},
		{"array list", []any{int32(1), "x", nil, true, "x"}, []any{int32(1), "x", nil, true, "x"}},
		{"hashtable", map[any]any{"k": int64(1), int32(2): nil, 3.5: "v"},
			map[any]any{"k": int64(1), int32(2): nil, 3.5: "v"}},
		{"empty hashtable", map[any]any{}, map[any]any{}},
		{"point", extract.PointF{X: 3.5, Y: 4.5}, extract.PointF{X: 3.5, Y: 4.5}},
		{"point pointer", &extract.PointF{X: -1, Y: 0}, extract.PointF{X: -1, Y: 0}},
		{"rectangle", extract.RectangleF{X: 1, Y: 2, Width: 3, Height: 4}, extract.RectangleF{X: 1, Y: 2, Width: 3, Height: 4}},
		{"exception", &extract.NotSupportedException{Message: "nope"}, &extract.NotSupportedException{Message: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := KnownValue(tt.in)
			if err != nil {
				t.Fatalf("KnownValue() error = %v", err)
			}
			if got := extractGraph(t, g); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("round trip = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestLists(t *testing.T) {
	g, err := PrimitiveList([]int16{5, -5})
	if err != nil {
		t.Fatal(err)
	}
	if got := extractGraph(t, g); !reflect.DeepEqual(got, []int16{5, -5}) {
		t.Errorf("PrimitiveList round trip = %#v", got)
	}

	root, _ := g.Root()
	want := extract.ListTypeName("System.Int16")
	if name := root.(format.ClassRecord).ClassInfo().Name; name != want {
		t.Errorf("list class = %q, want %q", name, want)
	}

	g, err = StringList([]*string{strp("a"), nil})
	if err != nil {
		t.Fatal(err)
	}
	if got := extractGraph(t, g); !reflect.DeepEqual(got, []*string{strp("a"), nil}) {
		t.Errorf("StringList round trip = %#v", got)
	}

	g, err = PrimitiveList([]format.DateTime{})
	if err != nil {
		t.Fatal(err)
	}
	got, ok := extractGraph(t, g).([]format.DateTime)
	if !ok || len(got) != 0 {
		t.Errorf("empty list round trip = %#v", got)
	}
}

func TestPrimitiveHelpers(t *testing.T) {
	g, err := Primitive(int8(-3))
	if err != nil {
		t.Fatal(err)
	}
	if got := extractGraph(t, g); got != int8(-3) {
		t.Errorf("Primitive round trip = %#v", got)
	}

	g, err = PrimitiveArray([]float32{0.5})
	if err != nil {
		t.Fatal(err)
	}
	if got := extractGraph(t, g); !reflect.DeepEqual(got, []float32{0.5}) {
		t.Errorf("PrimitiveArray round trip = %#v", got)
	}

	g, err = String("s")
	if err != nil {
		t.Fatal(err)
	}
	root, _ := g.Root()
	if _, ok := root.(*format.BinaryObjectString); !ok {
		t.Errorf("String root = %T", root)
	}
}

func TestHashtableStableBytes(t *testing.T) {
	m := map[any]any{"a": int32(1), "b": int32(2), "c": int32(3), int64(4): "d", false: nil}
	var first []byte
	for i := range 5 {
		var buf bytes.Buffer
		if err := Write(&buf, m); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if i == 0 {
			first = buf.Bytes()
			continue
		}
		if !bytes.Equal(buf.Bytes(), first) {
			t.Fatal("hashtable encoding depends on map iteration order")
		}
	}
}

func TestKnownValueErrors(t *testing.T) {
	tests := []struct {
		name string
		in   any
		kind errors.Kind
	}{
		{"nil", nil, errors.KindInvalidInput},
		{"int", 3, errors.KindUnsupported},
		{"struct", struct{ A int }{1}, errors.KindUnsupported},
		{"nested class in array list", []any{extract.PointF{}}, errors.KindUnsupported},
		{"nil hashtable key", map[any]any{nil: int32(1)}, errors.KindInvalidInput},
		{"unsupported hashtable value", map[any]any{"k": []int32{1}}, errors.KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := KnownValue(tt.in)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := kindOf(err); got != tt.kind {
				t.Errorf("kind = %q, want %q (%v)", got, tt.kind, err)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, extract.PointF{X: 1, Y: 2}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	g, err := format.DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	lib, err := g.Map.Lookup(drawingLibraryID)
	if err != nil {
		t.Fatalf("library not registered: %v", err)
	}
	if name := lib.(*format.BinaryLibrary).Name; name != extract.DrawingLibraryName {
		t.Errorf("library name = %q", name)
	}

	if err := Write(&buf, 1); err == nil {
		t.Error("Write(int) succeeded")
	}
}
