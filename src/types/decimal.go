package types

import (
	"fmt"
	"math/big"
)

// decimalBound is 10^38 - 1, the largest magnitude a 38-digit signed decimal
// can hold; also the ceiling any intermediate product/sum must respect.
var decimalBound = func() *big.Int {
	b := new(big.Int).Exp(big.NewInt(10), big.NewInt(38), nil)
	return b.Sub(b, big.NewInt(1))
}()

// Decimal128 is a fixed-point decimal backed by a 128-bit-range signed integer
// (unscaled) plus a scale. Arithmetic never silently wraps: an operation whose
// unscaled result would not fit in 38 decimal digits returns an error rather
// than truncating, per the "error, don't wrap" decision recorded in DESIGN.md.
type Decimal128 struct {
	Unscaled  *big.Int
	Precision uint8
	Scale     uint8
}

// NewDecimal128 builds a Decimal128 from an unscaled integer and (precision, scale).
func NewDecimal128(unscaled int64, precision, scale uint8) (Decimal128, error) {
	return makeDecimal128(big.NewInt(unscaled), precision, scale)
}

func makeDecimal128(unscaled *big.Int, precision, scale uint8) (Decimal128, error) {
	if precision == 0 || precision > 38 {
		return Decimal128{}, fmt.Errorf("decimal precision must be in [1, 38], got %d", precision)
	}
	if scale > precision {
		return Decimal128{}, fmt.Errorf("decimal scale (%d) cannot exceed precision (%d)", scale, precision)
	}
	if bigAbs(unscaled).Cmp(decimalBound) > 0 {
		return Decimal128{}, fmt.Errorf("decimal overflow: %s does not fit in 38 digits", unscaled)
	}
	return Decimal128{Unscaled: new(big.Int).Set(unscaled), Precision: precision, Scale: scale}, nil
}

func bigAbs(v *big.Int) *big.Int {
	return new(big.Int).Abs(v)
}

func (d Decimal128) String() string {
	sign := ""
	u := new(big.Int).Set(d.Unscaled)
	if u.Sign() < 0 {
		sign = "-"
		u.Neg(u)
	}
	s := u.String()
	if d.Scale == 0 {
		return sign + s
	}
	for len(s) <= int(d.Scale) {
		s = "0" + s
	}
	cut := len(s) - int(d.Scale)
	return fmt.Sprintf("%s%s.%s", sign, s[:cut], s[cut:])
}

// rescale returns a's unscaled value expressed at scale `to`, erroring on overflow.
func rescale(a Decimal128, to uint8) (*big.Int, error) {
	if a.Scale == to {
		return new(big.Int).Set(a.Unscaled), nil
	}
	if to > a.Scale {
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(to-a.Scale)), nil)
		out := new(big.Int).Mul(a.Unscaled, factor)
		if bigAbs(out).Cmp(decimalBound) > 0 {
			return nil, fmt.Errorf("decimal overflow rescaling %s to scale %d", a, to)
		}
		return out, nil
	}
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(a.Scale-to)), nil)
	return new(big.Int).Quo(a.Unscaled, factor), nil
}

func maxScale(a, b Decimal128) uint8 {
	if a.Scale > b.Scale {
		return a.Scale
	}
	return b.Scale
}

func maxPrecision(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

// AddDecimal128 adds two decimals, producing a result at the larger of the two scales.
func AddDecimal128(a, b Decimal128) (Decimal128, error) {
	scale := maxScale(a, b)
	au, err := rescale(a, scale)
	if err != nil {
		return Decimal128{}, err
	}
	bu, err := rescale(b, scale)
	if err != nil {
		return Decimal128{}, err
	}
	sum := new(big.Int).Add(au, bu)
	return makeDecimal128(sum, maxPrecision(a.Precision, b.Precision), scale)
}

// SubDecimal128 subtracts b from a, at the larger of the two scales.
func SubDecimal128(a, b Decimal128) (Decimal128, error) {
	scale := maxScale(a, b)
	au, err := rescale(a, scale)
	if err != nil {
		return Decimal128{}, err
	}
	bu, err := rescale(b, scale)
	if err != nil {
		return Decimal128{}, err
	}
	diff := new(big.Int).Sub(au, bu)
	return makeDecimal128(diff, maxPrecision(a.Precision, b.Precision), scale)
}

// MulDecimal128 multiplies two decimals; the result scale is the sum of the operand scales.
func MulDecimal128(a, b Decimal128) (Decimal128, error) {
	product := new(big.Int).Mul(a.Unscaled, b.Unscaled)
	scale := int(a.Scale) + int(b.Scale)
	if scale > 38 {
		// narrow back down to 38, same as the reference's saturating rescale
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale-38)), nil)
		product.Quo(product, factor)
		scale = 38
	}
	return makeDecimal128(product, maxPrecision(a.Precision, b.Precision), uint8(scale))
}

// DivDecimal128 divides a by b, widening the scale so the quotient keeps precision.
// A zero-unscaled divisor returns a "division by zero" error (expr evaluation
// surfaces it as execerr.Execution, matching integer division).
func DivDecimal128(a, b Decimal128, resultScale uint8) (Decimal128, error) {
	if b.Unscaled.Sign() == 0 {
		return Decimal128{}, fmt.Errorf("division by zero")
	}
	num := new(big.Int).Mul(a.Unscaled, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(resultScale)+int64(b.Scale)-int64(a.Scale)), nil))
	q := new(big.Int).Quo(num, b.Unscaled)
	return makeDecimal128(q, maxPrecision(a.Precision, b.Precision), resultScale)
}

// CompareDecimal128 returns -1, 0, 1 after aligning both operands to a common scale.
func CompareDecimal128(a, b Decimal128) int {
	scale := maxScale(a, b)
	au, errA := rescale(a, scale)
	bu, errB := rescale(b, scale)
	if errA != nil || errB != nil {
		// overflow on rescale only happens widening upward past 38 digits, which
		// can't occur for values that were already valid Decimal128s at a lower scale
		return a.Unscaled.Cmp(b.Unscaled)
	}
	return au.Cmp(bu)
}

func (d Decimal128) Float64() float64 {
	f := new(big.Float).SetInt(d.Unscaled)
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Scale)), nil))
	f.Quo(f, scale)
	out, _ := f.Float64()
	return out
}
