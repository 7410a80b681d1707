package vector

import (
	"testing"

	"github.com/kokes/vecdb/src/types"
)

func TestAppendGetRoundtripInts(t *testing.T) {
	v := New(types.TInteger, 0)
	for i := int32(0); i < 10; i++ {
		v.Append(types.NewInteger(i * 3))
	}
	if v.Count() != 10 {
		t.Fatalf("expected count 10, got %d", v.Count())
	}
	for i := 0; i < 10; i++ {
		if got := v.GetValue(i); got.Int64() != int64(i*3) {
			t.Errorf("row %d: got %d, want %d", i, got.Int64(), i*3)
		}
	}
}

func TestAppendGetRoundtripStrings(t *testing.T) {
	v := New(types.TVarchar, 0)
	words := []string{"alpha", "beta", "", "gamma"}
	for _, w := range words {
		v.Append(types.NewVarchar(w))
	}
	for i, w := range words {
		if got := v.GetValue(i).Text(); got != w {
			t.Errorf("row %d: got %q, want %q", i, got, w)
		}
	}
}

func TestNullRoundtrip(t *testing.T) {
	v := New(types.TInteger, 0)
	v.Append(types.NewInteger(1))
	v.Append(types.NewNull(types.TInteger))
	v.Append(types.NewInteger(3))

	if v.IsValid(1) {
		t.Error("expected row 1 to be NULL")
	}
	if !v.IsValid(0) || !v.IsValid(2) {
		t.Error("expected rows 0 and 2 to be valid")
	}
	if got := v.GetValue(1); !got.IsNull {
		t.Error("expected GetValue(1) to return a NULL value")
	}
}

func TestSelectionVectorComposition(t *testing.T) {
	s1 := NewSelectionVector([]int{2, 5, 7, 9})
	s2 := NewSelectionVector([]int{0, 2})
	composed := s1.Compose(s2)
	if composed.Count() != 2 {
		t.Fatalf("expected count 2, got %d", composed.Count())
	}
	if composed.At(0) != 2 || composed.At(1) != 7 {
		t.Errorf("expected [2 7], got [%d %d]", composed.At(0), composed.At(1))
	}
}

func TestVectorWithSelection(t *testing.T) {
	v := New(types.TInteger, 0)
	for i := int32(0); i < 5; i++ {
		v.Append(types.NewInteger(i * 10))
	}
	sel := NewSelectionVector([]int{1, 3})
	sv := v.WithSelection(sel)
	if sv.Count() != 2 {
		t.Fatalf("expected selected count 2, got %d", sv.Count())
	}
	if got := sv.GetValue(0).Int64(); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	if got := sv.GetValue(1).Int64(); got != 30 {
		t.Errorf("expected 30, got %d", got)
	}
}

func TestVectorFilterMaterializes(t *testing.T) {
	v := New(types.TInteger, 0)
	for i := int32(0); i < 5; i++ {
		v.Append(types.NewInteger(i))
	}
	sel := NewSelectionVector([]int{0, 2, 4})
	filtered := v.Filter(sel)
	if filtered.Selection() != nil {
		t.Error("expected a materialized vector to carry no selection vector")
	}
	want := []int64{0, 2, 4}
	for i, w := range want {
		if got := filtered.GetValue(i).Int64(); got != w {
			t.Errorf("row %d: got %d, want %d", i, got, w)
		}
	}
}

func TestListVectorRoundtrip(t *testing.T) {
	v := New(types.NewList(types.TInteger), 0)
	v.Append(types.NewListValue(types.TInteger, []types.Value{types.NewInteger(1), types.NewInteger(2)}))
	v.Append(types.NewListValue(types.TInteger, nil))
	v.Append(types.NewListValue(types.TInteger, []types.Value{types.NewInteger(9)}))

	got := v.GetValue(0).List()
	if len(got) != 2 || got[0].Int64() != 1 || got[1].Int64() != 2 {
		t.Errorf("row 0: got %v", got)
	}
	if len(v.GetValue(1).List()) != 0 {
		t.Error("expected row 1 to be an empty list")
	}
	if len(v.GetValue(2).List()) != 1 || v.GetValue(2).List()[0].Int64() != 9 {
		t.Errorf("row 2: got %v", v.GetValue(2).List())
	}
}

func TestStructVectorRoundtrip(t *testing.T) {
	st := types.NewStruct(
		types.StructField{Name: "a", Type: types.TInteger},
		types.StructField{Name: "b", Type: types.TVarchar},
	)
	v := New(st, 0)
	v.Append(types.NewStructValue(st, []types.Value{types.NewInteger(1), types.NewVarchar("x")}))
	v.Append(types.NewStructValue(st, []types.Value{types.NewInteger(2), types.NewVarchar("y")}))

	got := v.GetValue(1)
	fields := got.StructFields()
	if fields[0].Int64() != 2 || fields[1].Text() != "y" {
		t.Errorf("row 1: got %v", fields)
	}
}
