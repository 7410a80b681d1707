package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/types"
	"github.com/kokes/vecdb/src/vector"
)

// Cast converts Operand to Target, failing explicitly on an unparseable
// string or an out-of-range narrowing (spec.md §4.1), unlike the implicit,
// widening-only coercions in types.CoerceValue.
type Cast struct {
	Operand Expr
	Target  types.LogicalType
}

func (c Cast) String() string { return fmt.Sprintf("CAST(%s AS %s)", c.Operand, c.Target) }

func (c Cast) ReturnType(chunk.Schema) (types.LogicalType, error) { return c.Target, nil }

func (c Cast) Evaluate(ctx *execctx.Context, chk *chunk.DataChunk) (*vector.Vector, error) {
	in, err := c.Operand.Evaluate(ctx, chk)
	if err != nil {
		return nil, err
	}
	out := vector.New(c.Target, chk.Count())
	for i := 0; i < chk.Count(); i++ {
		v := in.GetValue(i)
		if v.IsNull {
			out.Append(types.NewNull(c.Target))
			continue
		}
		cv, err := CastValue(v, c.Target)
		if err != nil {
			return nil, err
		}
		out.Append(cv)
	}
	return out, nil
}

// CastValue performs one explicit cast, used directly by Cast.Evaluate.
func CastValue(v types.Value, to types.LogicalType) (types.Value, error) {
	if v.Type.Equal(to) {
		return v, nil
	}
	if types.CanImplicitlyCast(v.Type, to) {
		return types.CoerceValue(v, to)
	}
	switch to.ID {
	case types.TinyInt, types.SmallInt, types.Integer, types.BigInt:
		n, err := castToInt(v)
		if err != nil {
			return types.Value{}, err
		}
		if err := checkIntRange(to.ID, n); err != nil {
			return types.Value{}, err
		}
		return newIntValue(to.ID, n), nil
	case types.Float:
		f, err := castToFloat(v)
		if err != nil {
			return types.Value{}, err
		}
		return types.NewFloat(float32(f)), nil
	case types.Double:
		f, err := castToFloat(v)
		if err != nil {
			return types.Value{}, err
		}
		return types.NewDouble(f), nil
	case types.Decimal:
		f, err := castToFloat(v)
		if err != nil {
			return types.Value{}, err
		}
		scaled := f
		for s := uint8(0); s < to.Scale; s++ {
			scaled *= 10
		}
		d, err := types.NewDecimal128(int64(scaled), to.Precision, to.Scale)
		if err != nil {
			return types.Value{}, execerr.Executionf("%s", err)
		}
		return types.NewDecimalValue(d), nil
	case types.Varchar:
		return types.NewVarchar(v.String()), nil
	case types.Char:
		s := v.String()
		if len(s) > to.Width {
			s = s[:to.Width]
		}
		return types.NewCharValue(to.Width, s), nil
	case types.Boolean:
		return castToBool(v)
	case types.Date:
		if v.Type.ID == types.Varchar || v.Type.ID == types.Char {
			d, err := types.ParseDate(strings.TrimSpace(v.Text()))
			if err != nil {
				return types.Value{}, execerr.Parsef("cannot parse %q as DATE: %s", v.Text(), err)
			}
			return types.NewDateValue(d), nil
		}
		if v.Type.ID == types.Timestamp {
			return types.NewDateValue(types.Date(v.Timestamp() / (24 * 60 * 60 * 1000000))), nil
		}
	case types.Time:
		if v.Type.ID == types.Varchar || v.Type.ID == types.Char {
			t, err := types.ParseTime(strings.TrimSpace(v.Text()))
			if err != nil {
				return types.Value{}, execerr.Parsef("cannot parse %q as TIME: %s", v.Text(), err)
			}
			return types.NewTimeValue(t), nil
		}
	case types.Timestamp:
		if v.Type.ID == types.Varchar || v.Type.ID == types.Char {
			ts, err := types.ParseTimestamp(strings.TrimSpace(v.Text()))
			if err != nil {
				return types.Value{}, execerr.Parsef("cannot parse %q as TIMESTAMP: %s", v.Text(), err)
			}
			return types.NewTimestampValue(ts), nil
		}
	}
	return types.Value{}, execerr.Typef("cannot cast %s to %s", v.Type, to)
}

func castToInt(v types.Value) (int64, error) {
	switch v.Type.ID {
	case types.TinyInt, types.SmallInt, types.Integer, types.BigInt, types.Date, types.Time, types.Timestamp:
		return v.Int64(), nil
	case types.Float, types.Double:
		return int64(v.Float64()), nil
	case types.HugeInt, types.Decimal:
		return int64(v.Decimal().Float64()), nil
	case types.Boolean:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	case types.Varchar, types.Char:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Text()), 10, 64)
		if err != nil {
			return 0, execerr.Parsef("cannot parse %q as an integer", v.Text())
		}
		return n, nil
	}
	return 0, execerr.Typef("cannot cast %s to an integer type", v.Type)
}

func castToFloat(v types.Value) (float64, error) {
	switch v.Type.ID {
	case types.TinyInt, types.SmallInt, types.Integer, types.BigInt:
		return float64(v.Int64()), nil
	case types.Float, types.Double:
		return v.Float64(), nil
	case types.HugeInt, types.Decimal:
		return v.Decimal().Float64(), nil
	case types.Varchar, types.Char:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text()), 64)
		if err != nil {
			return 0, execerr.Parsef("cannot parse %q as a floating-point number", v.Text())
		}
		return f, nil
	}
	return 0, execerr.Typef("cannot cast %s to a floating-point type", v.Type)
}

func castToBool(v types.Value) (types.Value, error) {
	switch v.Type.ID {
	case types.Boolean:
		return v, nil
	case types.Varchar, types.Char:
		switch strings.ToLower(strings.TrimSpace(v.Text())) {
		case "true", "t", "1":
			return types.NewBool(true), nil
		case "false", "f", "0":
			return types.NewBool(false), nil
		}
		return types.Value{}, execerr.Parsef("cannot parse %q as a boolean", v.Text())
	case types.TinyInt, types.SmallInt, types.Integer, types.BigInt:
		return types.NewBool(v.Int64() != 0), nil
	}
	return types.Value{}, execerr.Typef("cannot cast %s to boolean", v.Type)
}

var intRanges = map[types.ID][2]int64{
	types.TinyInt:  {-1 << 7, 1<<7 - 1},
	types.SmallInt: {-1 << 15, 1<<15 - 1},
	types.Integer:  {-1 << 31, 1<<31 - 1},
	types.BigInt:   {-1 << 63, 1<<63 - 1},
}

func checkIntRange(to types.ID, n int64) error {
	r, ok := intRanges[to]
	if !ok {
		return nil
	}
	if n < r[0] || n > r[1] {
		return execerr.Executionf("value %d out of range for %s", n, to)
	}
	return nil
}
