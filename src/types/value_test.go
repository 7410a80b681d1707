package types

import "testing"

func TestValueEqualityNullNeverEqual(t *testing.T) {
	a := NewInteger(5)
	null := NewNull(TInteger)
	if null.Equal(null) {
		t.Error("expected NULL to never equal NULL")
	}
	if a.Equal(null) || null.Equal(a) {
		t.Error("expected NULL to never equal a non-null value")
	}
}

func TestValueEqualityScalars(t *testing.T) {
	if !NewInteger(5).Equal(NewInteger(5)) {
		t.Error("expected equal integers to be equal")
	}
	if NewInteger(5).Equal(NewInteger(6)) {
		t.Error("expected different integers to be unequal")
	}
	if !NewVarchar("hi").Equal(NewVarchar("hi")) {
		t.Error("expected equal strings to be equal")
	}
}

func TestValueEqualityDecimal(t *testing.T) {
	a, _ := NewDecimal128(100, 18, 1) // 10.0
	b, _ := NewDecimal128(1000, 18, 2) // 10.00
	va := NewDecimalValue(a)
	vb := NewDecimalValue(b)
	if !va.Equal(vb) {
		t.Error("expected decimals equal at different scales to compare equal")
	}
}

func TestValueEqualityNestedList(t *testing.T) {
	a := NewListValue(TInteger, []Value{NewInteger(1), NewInteger(2)})
	b := NewListValue(TInteger, []Value{NewInteger(1), NewInteger(2)})
	c := NewListValue(TInteger, []Value{NewInteger(1), NewInteger(3)})
	if !a.Equal(b) {
		t.Error("expected identical lists to be equal")
	}
	if a.Equal(c) {
		t.Error("expected differing lists to be unequal")
	}
}

func TestValueEqualityStruct(t *testing.T) {
	st := NewStruct(StructField{Name: "a", Type: TInteger}, StructField{Name: "b", Type: TVarchar})
	v1 := NewStructValue(st, []Value{NewInteger(1), NewVarchar("x")})
	v2 := NewStructValue(st, []Value{NewInteger(1), NewVarchar("x")})
	v3 := NewStructValue(st, []Value{NewInteger(1), NewVarchar("y")})
	if !v1.Equal(v2) {
		t.Error("expected identical structs to be equal")
	}
	if v1.Equal(v3) {
		t.Error("expected differing structs to be unequal")
	}
}

func TestValueString(t *testing.T) {
	if got := NewInteger(42).String(); got != "42" {
		t.Errorf("got %q", got)
	}
	if got := NewNull(TInteger).String(); got != "NULL" {
		t.Errorf("got %q", got)
	}
	d, _ := NewDecimal128(1050, 18, 2)
	if got := NewDecimalValue(d).String(); got != "10.50" {
		t.Errorf("got %q", got)
	}
}

func TestIntervalValueRoundtrip(t *testing.T) {
	iv := Interval{Months: 3, Days: 10, Micros: 5_000_000}
	v := NewIntervalValue(iv)
	if got := v.AsInterval(); got != iv {
		t.Errorf("AsInterval() = %+v, want %+v", got, iv)
	}
}
