package types

import "fmt"

// numericRank orders the numeric types from narrowest to widest for implicit
// widening, following the promotion ladder the teacher's TypeGuesser
// (column/schema.go) applies one step at a time (int -> float -> string),
// extended to the fuller numeric tower spec.md §3.1 lists.
var numericRank = map[ID]int{
	TinyInt:  0,
	SmallInt: 1,
	Integer:  2,
	BigInt:   3,
	HugeInt:  4,
	Decimal:  5,
	Float:    6,
	Double:   7,
}

// CanImplicitlyCast reports whether `from` can be widened to `to` without
// data loss or an explicit CAST, per spec.md §3.1's "implicit coercions only
// ever widen" rule: TinyInt -> SmallInt -> Integer -> BigInt -> HugeInt ->
// Decimal/Float -> Double, and Date/Time -> Timestamp.
func CanImplicitlyCast(from, to LogicalType) bool {
	if from.Equal(to) {
		return true
	}
	if from.ID == Null {
		return true
	}
	if from.IsNumeric() && to.IsNumeric() {
		fr, fok := numericRank[from.ID]
		tr, tok := numericRank[to.ID]
		if fok && tok {
			return fr <= tr
		}
	}
	switch from.ID {
	case Date:
		return to.ID == Timestamp
	case Time:
		return to.ID == Timestamp
	}
	if from.ID == Char && to.ID == Varchar {
		return true
	}
	return false
}

// CommonNumericType returns the narrowest type both a and b can be implicitly
// widened to, or an error if neither is numeric or they share no common type.
func CommonNumericType(a, b LogicalType) (LogicalType, error) {
	if a.Equal(b) {
		return a, nil
	}
	if a.ID == Null {
		return b, nil
	}
	if b.ID == Null {
		return a, nil
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return LogicalType{}, fmt.Errorf("no common numeric type for %s and %s", a, b)
	}
	ra, oka := numericRank[a.ID]
	rb, okb := numericRank[b.ID]
	if !oka || !okb {
		return LogicalType{}, fmt.Errorf("no common numeric type for %s and %s", a, b)
	}
	if a.ID == Decimal && b.ID == Decimal {
		scale := maxScale64(a.Scale, b.Scale)
		intDigits := maxU8(a.Precision-a.Scale, b.Precision-b.Scale)
		precision := intDigits + scale
		if precision > 38 {
			precision = 38
		}
		return NewDecimal(precision, scale)
	}
	if ra >= rb {
		return a, nil
	}
	return b, nil
}

func maxScale64(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

func maxU8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

// CoerceValue widens v to the logical type `to`, returning an error if the
// coercion is not an allowed implicit widening (callers that want an
// explicit, possibly-narrowing CAST use the expr package's Cast evaluator
// instead, which layers truncation/rounding semantics on top of this).
func CoerceValue(v Value, to LogicalType) (Value, error) {
	if v.IsNull {
		return NewNull(to), nil
	}
	if v.Type.Equal(to) {
		return v, nil
	}
	if !CanImplicitlyCast(v.Type, to) {
		return Value{}, fmt.Errorf("cannot implicitly cast %s to %s", v.Type, to)
	}
	switch to.ID {
	case SmallInt, Integer, BigInt:
		return Value{Type: to, i64: v.i64}, nil
	case HugeInt:
		d, err := NewDecimal128(v.i64, 38, 0)
		if err != nil {
			return Value{}, err
		}
		return NewHugeInt(d), nil
	case Decimal:
		if v.Type.ID == Decimal || v.Type.ID == HugeInt {
			u, err := rescale(v.dec, to.Scale)
			if err != nil {
				return Value{}, err
			}
			d, err := makeDecimal128(u, to.Precision, to.Scale)
			if err != nil {
				return Value{}, err
			}
			return NewDecimalValue(d), nil
		}
		var unscaled int64 = v.i64
		for s := uint8(0); s < to.Scale; s++ {
			unscaled *= 10
		}
		d, err := NewDecimal128(unscaled, to.Precision, to.Scale)
		if err != nil {
			return Value{}, err
		}
		return NewDecimalValue(d), nil
	case Float:
		return Value{Type: to, f64: intOrFloat(v)}, nil
	case Double:
		return Value{Type: to, f64: intOrFloat(v)}, nil
	case Timestamp:
		switch v.Type.ID {
		case Date:
			return NewTimestampValue(Timestamp(int64(v.Date()) * microsPerDay)), nil
		case Time:
			return NewTimestampValue(Timestamp(v.Time())), nil
		}
	case Varchar:
		return NewVarchar(v.s), nil
	}
	return Value{}, fmt.Errorf("cannot implicitly cast %s to %s", v.Type, to)
}

func intOrFloat(v Value) float64 {
	if v.Type.ID == Float || v.Type.ID == Double {
		return v.f64
	}
	if v.Type.ID == Decimal || v.Type.ID == HugeInt {
		return v.dec.Float64()
	}
	return float64(v.i64)
}
