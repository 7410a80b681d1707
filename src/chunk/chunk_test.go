package chunk

import (
	"testing"

	"github.com/kokes/vecdb/src/types"
	"github.com/kokes/vecdb/src/vector"
)

func testSchema() Schema {
	return Schema{
		{Name: "id", Type: types.TInteger},
		{Name: "name", Type: types.TVarchar},
	}
}

func TestAppendRowAndCount(t *testing.T) {
	c := New(testSchema())
	c.AppendRow([]types.Value{types.NewInteger(1), types.NewVarchar("a")})
	c.AppendRow([]types.Value{types.NewInteger(2), types.NewVarchar("b")})

	if c.Count() != 2 {
		t.Fatalf("expected 2 rows, got %d", c.Count())
	}
	if c.ColumnCount() != 2 {
		t.Fatalf("expected 2 columns, got %d", c.ColumnCount())
	}
	row := c.Row(1)
	if row[0].Int64() != 2 || row[1].Text() != "b" {
		t.Errorf("unexpected row 1: %v", row)
	}
}

func TestAppendRowWrongArityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected AppendRow to panic on arity mismatch")
		}
	}()
	c := New(testSchema())
	c.AppendRow([]types.Value{types.NewInteger(1)})
}

func TestFilterMaterializes(t *testing.T) {
	c := New(testSchema())
	for i := int32(0); i < 5; i++ {
		c.AppendRow([]types.Value{types.NewInteger(i), types.NewVarchar("x")})
	}
	sel := vector.NewSelectionVector([]int{1, 3})
	out := c.Filter(sel)
	if out.Count() != 2 {
		t.Fatalf("expected 2 rows after filter, got %d", out.Count())
	}
	if out.Row(0)[0].Int64() != 1 || out.Row(1)[0].Int64() != 3 {
		t.Errorf("unexpected filtered rows: %v, %v", out.Row(0), out.Row(1))
	}
}

func TestAppendConcatenatesRows(t *testing.T) {
	a := New(testSchema())
	a.AppendRow([]types.Value{types.NewInteger(1), types.NewVarchar("a")})
	b := New(testSchema())
	b.AppendRow([]types.Value{types.NewInteger(2), types.NewVarchar("b")})

	if err := a.Append(b); err != nil {
		t.Fatal(err)
	}
	if a.Count() != 2 {
		t.Fatalf("expected 2 rows, got %d", a.Count())
	}
}

func TestAppendColumnCountMismatch(t *testing.T) {
	a := New(testSchema())
	b := New(Schema{{Name: "id", Type: types.TInteger}})
	if err := a.Append(b); err == nil {
		t.Error("expected column count mismatch error")
	}
}

func TestIndexOf(t *testing.T) {
	s := testSchema()
	if s.IndexOf("name") != 1 {
		t.Errorf("expected index 1, got %d", s.IndexOf("name"))
	}
	if s.IndexOf("missing") != -1 {
		t.Errorf("expected -1 for missing column")
	}
}
