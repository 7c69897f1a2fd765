package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/figura/dsl"
)

const sampleFig = `
# demo figure
type = Grid
row {
  cell {
    type = Fill
    size = [64, 32]
    color = #ff8800
  }
  cell {
    type: Text; text = "Hello, ${user.name}!"
    font_size = 24.5
    retain_width = true
  }
}
// polygon with a hole
row {
  poly {
    type = Polygon
    contours = [[[0, 0], [1, 0], [1, 1]], [[0.2, 0.1], [0.8, 0.1], [0.8, 0.7]]]
    offset = -1.5e-1
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleFig)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Entries) != 3 {
		t.Fatalf("expected 3 top-level entries, got %d", len(doc.Entries))
	}

	typ := doc.Entries[0]
	if typ.Name != "type" || typ.Value == nil || typ.Value.Ident == nil || *typ.Value.Ident != "Grid" {
		t.Fatalf("unexpected first entry: %+v", typ)
	}

	row := doc.Entries[1]
	if row.Body == nil || len(row.Body.Entries) != 2 {
		t.Fatalf("expected row with two cells, got %+v", row)
	}

	fill := row.Body.Entries[0].Body
	size := fill.Entries[1].Value.Array
	if size == nil || len(size.Values) != 2 || *size.Values[0].Number != 64 || *size.Values[1].Number != 32 {
		t.Fatalf("unexpected size array: %+v", size)
	}
	if c := fill.Entries[2].Value.Color; c == nil || *c != "#ff8800" {
		t.Fatalf("expected colour literal, got %+v", fill.Entries[2].Value)
	}

	text := row.Body.Entries[1].Body
	if s := text.Entries[1].Value.String; s == nil || string(*s) != "Hello, ${user.name}!" {
		t.Fatalf("expected unquoted string, got %+v", text.Entries[1].Value)
	}
	if b := text.Entries[3].Value.Bool; b == nil || !bool(*b) {
		t.Fatalf("expected boolean true, got %+v", text.Entries[3].Value)
	}
}

func TestParseNestedArrays(t *testing.T) {
	doc, err := dsl.ParseString(sampleFig)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	poly := doc.Entries[2].Body.Entries[0].Body
	contours := poly.Entries[1].Value.Array
	if len(contours.Values) != 2 {
		t.Fatalf("expected two contours, got %d", len(contours.Values))
	}
	hole := contours.Values[1].Array
	if len(hole.Values) != 3 || *hole.Values[2].Array.Values[1].Number != 0.7 {
		t.Fatalf("unexpected hole contour: %+v", hole)
	}
	if n := poly.Entries[2].Value.Number; n == nil || *n != -0.15 {
		t.Fatalf("expected exponent literal, got %+v", poly.Entries[2].Value)
	}
}

func TestParseRejectsBareName(t *testing.T) {
	if _, err := dsl.Parse(strings.NewReader("figure { orphan }")); err == nil {
		t.Fatalf("expected error for entry without value")
	}
}

func TestParseRejectsUnbalancedBlock(t *testing.T) {
	if _, err := dsl.ParseString("figure { type = Fill"); err == nil {
		t.Fatalf("expected error for unterminated block")
	}
}
