package types

import "testing"

func TestLogicalTypeStringer(t *testing.T) {
	tests := []struct {
		lt  LogicalType
		str string
	}{
		{TInteger, "integer"},
		{TVarchar, "varchar"},
		{NewChar(5), "char(5)"},
	}
	for _, tc := range tests {
		if got := tc.lt.String(); got != tc.str {
			t.Errorf("expected %+v to stringify to %q, got %q", tc.lt, tc.str, got)
		}
	}

	dec, err := NewDecimal(10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := dec.String(), "decimal(10,2)"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNewDecimalValidation(t *testing.T) {
	tt := []struct {
		precision, scale uint8
		wantErr          bool
	}{
		{0, 0, true},
		{39, 0, true},
		{10, 11, true},
		{10, 2, false},
		{38, 38, false},
	}
	for _, tc := range tt {
		_, err := NewDecimal(tc.precision, tc.scale)
		if (err != nil) != tc.wantErr {
			t.Errorf("NewDecimal(%d, %d): got err=%v, wantErr=%v", tc.precision, tc.scale, err, tc.wantErr)
		}
	}
}

func TestLogicalTypeEqual(t *testing.T) {
	a := NewStruct(StructField{Name: "x", Type: TInteger}, StructField{Name: "y", Type: TVarchar})
	b := NewStruct(StructField{Name: "x", Type: TInteger}, StructField{Name: "y", Type: TVarchar})
	c := NewStruct(StructField{Name: "x", Type: TInteger})
	if !a.Equal(b) {
		t.Error("expected identical struct shapes to be equal")
	}
	if a.Equal(c) {
		t.Error("expected differently-shaped structs to be unequal")
	}

	list1 := NewList(TInteger)
	list2 := NewList(TInteger)
	list3 := NewList(TVarchar)
	if !list1.Equal(list2) {
		t.Error("expected identical list types to be equal")
	}
	if list1.Equal(list3) {
		t.Error("expected differently-typed lists to be unequal")
	}
}

func TestPhysicalMapping(t *testing.T) {
	tt := []struct {
		lt   LogicalType
		want PhysicalType
	}{
		{TBoolean, PBool},
		{TTinyInt, PInt8},
		{TInteger, PInt32},
		{TDate, PInt32},
		{TBigInt, PInt64},
		{TTimestamp, PInt64},
		{THugeInt, PInt128},
		{TFloat, PFloat32},
		{TDouble, PFloat64},
		{TVarchar, PVarlen},
		{NewList(TInteger), PList},
	}
	for _, tc := range tt {
		if got := tc.lt.Physical(); got != tc.want {
			t.Errorf("Physical(%s): got %v, want %v", tc.lt, got, tc.want)
		}
	}
}

func TestIsNumericIsInteger(t *testing.T) {
	if !TInteger.IsNumeric() || !TInteger.IsInteger() {
		t.Error("expected Integer to be numeric and integer")
	}
	if !TDouble.IsNumeric() || TDouble.IsInteger() {
		t.Error("expected Double to be numeric but not integer")
	}
	if TVarchar.IsNumeric() {
		t.Error("expected Varchar to not be numeric")
	}
}
