package nrbf_test

import (
	"bytes"
	"fmt"
	"reflect"
	"testing"

	"github.com/wippyai/nrbf"
	"github.com/wippyai/nrbf/extract"
)

func TestRoundTrip(t *testing.T) {
	values := []any{
		"text",
		int64(-9),
		[]float64{1, 2.5},
		[]any{"a", int32(1), nil},
		extract.RectangleF{X: 1, Y: 2, Width: 3, Height: 4},
	}
	for _, v := range values {
		var buf bytes.Buffer
		if err := nrbf.WriteValue(&buf, v); err != nil {
			t.Fatalf("WriteValue(%#v) error = %v", v, err)
		}
		g, err := nrbf.Parse(&buf)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		got, ok := nrbf.RootValue(g)
		if !ok || !reflect.DeepEqual(got, v) {
			t.Errorf("RootValue() = %#v, %v; want %#v", got, ok, v)
		}

		var again bytes.Buffer
		if err := nrbf.Write(&again, g); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		g2, err := nrbf.ParseBytes(again.Bytes())
		if err != nil {
			t.Fatalf("ParseBytes() error = %v", err)
		}
		if got, _ := nrbf.RootValue(g2); !reflect.DeepEqual(got, v) {
			t.Errorf("after re-encode RootValue() = %#v", got)
		}
	}
}

func ExampleRootValue() {
	var buf bytes.Buffer
	if err := nrbf.WriteValue(&buf, extract.PointF{X: 3.5, Y: 4.5}); err != nil {
		panic(err)
	}
	g, err := nrbf.Parse(&buf)
	if err != nil {
		panic(err)
	}
	v, ok := nrbf.RootValue(g)
	fmt.Println(v, ok)
	// Output: {3.5 4.5} true
}
