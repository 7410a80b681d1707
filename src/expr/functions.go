package expr

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/types"
	"github.com/kokes/vecdb/src/vector"
)

// scalarFunc is one entry of the registry FuncCall dispatches to by name,
// grounded on the teacher's registered-by-name approach to built-ins
// (query/expr/functions.go registers a fixed set of string/aggregate
// functions keyed by uppercase name) generalized to string/math/date/null
// scalar functions per spec.md §4.1's "Function call ... dispatches by name
// to a registered scalar".
type scalarFunc struct {
	returnType func(args []types.LogicalType) (types.LogicalType, error)
	// eval receives one row's already-evaluated argument values (including
	// possible NULLs) and computes the scalar result. Only the one-argument
	// string functions (UPPER, LOWER, LENGTH, TRIM) are wrapped with
	// nullPropagating1; every other eval, COALESCE and NULLIF included,
	// handles NULL arguments itself.
	eval func(args []types.Value) (types.Value, error)
}

var scalarFuncs map[string]scalarFunc

func init() {
	scalarFuncs = map[string]scalarFunc{
		"UPPER":      unary(types.TVarchar, nullPropagating1(fnUpper)),
		"LOWER":      unary(types.TVarchar, nullPropagating1(fnLower)),
		"LENGTH":     unary(types.TBigInt, nullPropagating1(fnLength)),
		"TRIM":       unary(types.TVarchar, nullPropagating1(fnTrim)),
		"CONCAT":     {returnType: fixedReturn(types.TVarchar), eval: fnConcat},
		"SUBSTRING":  {returnType: fixedReturn(types.TVarchar), eval: fnSubstring},
		"REPLACE":    {returnType: fixedReturn(types.TVarchar), eval: fnReplace},
		"ABS":        {returnType: sameAsFirst, eval: fnAbs},
		"ROUND":      {returnType: fixedReturn(types.TDouble), eval: fnRound},
		"FLOOR":      {returnType: fixedReturn(types.TDouble), eval: fnFloor},
		"CEIL":       {returnType: fixedReturn(types.TDouble), eval: fnCeil},
		"SQRT":       {returnType: fixedReturn(types.TDouble), eval: fnSqrt},
		"POW":        {returnType: fixedReturn(types.TDouble), eval: fnPow},
		"MOD":        {returnType: sameAsFirst, eval: fnMod},
		"SIGN":       {returnType: fixedReturn(types.TInteger), eval: fnSign},
		"GREATEST":   {returnType: fixedReturn(types.TDouble), eval: fnGreatest},
		"LEAST":      {returnType: fixedReturn(types.TDouble), eval: fnLeast},
		"COALESCE":   {returnType: firstArgType, eval: fnCoalesce},
		"NULLIF":     {returnType: firstArgType, eval: fnNullIf},
		"NOW":        {returnType: fixedReturn(types.TTimestamp), eval: fnNow},
		"DATE_TRUNC": {returnType: fixedReturn(types.TTimestamp), eval: fnDateTrunc},
		"EXTRACT":    {returnType: fixedReturn(types.TBigInt), eval: fnExtract},
	}
}

func fixedReturn(t types.LogicalType) func([]types.LogicalType) (types.LogicalType, error) {
	return func([]types.LogicalType) (types.LogicalType, error) { return t, nil }
}

func sameAsFirst(args []types.LogicalType) (types.LogicalType, error) {
	if len(args) == 0 {
		return types.LogicalType{}, execerr.InvalidArgumentf("function requires at least one argument")
	}
	return args[0], nil
}

func firstArgType(args []types.LogicalType) (types.LogicalType, error) { return sameAsFirst(args) }

func unary(rt types.LogicalType, fn func(types.Value) (types.Value, error)) scalarFunc {
	return scalarFunc{
		returnType: fixedReturn(rt),
		eval: func(args []types.Value) (types.Value, error) {
			if len(args) != 1 {
				return types.Value{}, execerr.InvalidArgumentf("function requires exactly one argument, got %d", len(args))
			}
			return fn(args[0])
		},
	}
}

func nullPropagating1(fn func(types.Value) (types.Value, error)) func(types.Value) (types.Value, error) {
	return func(v types.Value) (types.Value, error) {
		if v.IsNull {
			return types.NewNull(v.Type), nil
		}
		return fn(v)
	}
}

// FuncCall dispatches by name to a registered scalar function.
type FuncCall struct {
	Name string
	Args []Expr
}

func (f FuncCall) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(parts, ", "))
}

func (f FuncCall) lookup() (scalarFunc, error) {
	fn, ok := scalarFuncs[strings.ToUpper(f.Name)]
	if !ok {
		return scalarFunc{}, execerr.NotImplementedf("unknown scalar function %q", f.Name)
	}
	return fn, nil
}

func (f FuncCall) ReturnType(schema chunk.Schema) (types.LogicalType, error) {
	fn, err := f.lookup()
	if err != nil {
		return types.LogicalType{}, err
	}
	argTypes := make([]types.LogicalType, len(f.Args))
	for i, a := range f.Args {
		t, err := a.ReturnType(schema)
		if err != nil {
			return types.LogicalType{}, err
		}
		argTypes[i] = t
	}
	return fn.returnType(argTypes)
}

func (f FuncCall) Evaluate(ctx *execctx.Context, c *chunk.DataChunk) (*vector.Vector, error) {
	fn, err := f.lookup()
	if err != nil {
		return nil, err
	}
	argVecs, err := evaluateChildren(ctx, c, f.Args...)
	if err != nil {
		return nil, err
	}
	rt, err := f.ReturnType(c.Schema)
	if err != nil {
		return nil, err
	}
	out := vector.New(rt, c.Count())
	row := make([]types.Value, len(argVecs))
	for i := 0; i < c.Count(); i++ {
		for j, v := range argVecs {
			row[j] = v.GetValue(i)
		}
		res, err := fn.eval(row)
		if err != nil {
			return nil, fmt.Errorf("evaluating %s: %w", f.Name, err)
		}
		out.Append(res)
	}
	return out, nil
}

// --- string functions ---

func fnUpper(v types.Value) (types.Value, error) { return types.NewVarchar(strings.ToUpper(v.Text())), nil }
func fnLower(v types.Value) (types.Value, error) { return types.NewVarchar(strings.ToLower(v.Text())), nil }
func fnLength(v types.Value) (types.Value, error) {
	return types.NewBigInt(int64(len([]rune(v.Text())))), nil
}
func fnTrim(v types.Value) (types.Value, error) {
	return types.NewVarchar(strings.TrimSpace(v.Text())), nil
}

func fnConcat(args []types.Value) (types.Value, error) {
	var b strings.Builder
	for _, a := range args {
		if a.IsNull {
			continue
		}
		b.WriteString(a.String())
	}
	return types.NewVarchar(b.String()), nil
}

func fnSubstring(args []types.Value) (types.Value, error) {
	if len(args) < 2 {
		return types.Value{}, execerr.InvalidArgumentf("SUBSTRING requires (string, start[, length])")
	}
	if args[0].IsNull {
		return types.NewNull(types.TVarchar), nil
	}
	runes := []rune(args[0].Text())
	start := int(args[1].Int64()) - 1
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	end := len(runes)
	if len(args) >= 3 && !args[2].IsNull {
		length := int(args[2].Int64())
		if start+length < end {
			end = start + length
		}
	}
	if end < start {
		end = start
	}
	return types.NewVarchar(string(runes[start:end])), nil
}

func fnReplace(args []types.Value) (types.Value, error) {
	if len(args) != 3 {
		return types.Value{}, execerr.InvalidArgumentf("REPLACE requires exactly 3 arguments")
	}
	if args[0].IsNull || args[1].IsNull || args[2].IsNull {
		return types.NewNull(types.TVarchar), nil
	}
	return types.NewVarchar(strings.ReplaceAll(args[0].Text(), args[1].Text(), args[2].Text())), nil
}

// --- math functions ---

func fnAbs(args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Value{}, execerr.InvalidArgumentf("ABS requires exactly one argument")
	}
	v := args[0]
	if v.IsNull {
		return types.NewNull(v.Type), nil
	}
	switch v.Type.ID {
	case types.TinyInt, types.SmallInt, types.Integer, types.BigInt:
		n := v.Int64()
		if n < 0 {
			n = -n
		}
		return newIntValue(v.Type.ID, n), nil
	case types.Float, types.Double:
		f := math.Abs(v.Float64())
		if v.Type.ID == types.Float {
			return types.NewFloat(float32(f)), nil
		}
		return types.NewDouble(f), nil
	case types.HugeInt, types.Decimal:
		d := v.Decimal()
		if d.Unscaled.Sign() < 0 {
			d.Unscaled = new(big.Int).Abs(d.Unscaled)
		}
		return types.NewDecimalValue(d), nil
	}
	return types.Value{}, execerr.Typef("ABS does not support %s", v.Type)
}

func fnMathUnary(args []types.Value, f func(float64) float64) (types.Value, error) {
	if len(args) != 1 {
		return types.Value{}, execerr.InvalidArgumentf("function requires exactly one argument")
	}
	if args[0].IsNull {
		return types.NewNull(types.TDouble), nil
	}
	x, err := castToFloat(args[0])
	if err != nil {
		return types.Value{}, err
	}
	return types.NewDouble(f(x)), nil
}

func fnRound(args []types.Value) (types.Value, error) {
	if len(args) == 0 {
		return types.Value{}, execerr.InvalidArgumentf("ROUND requires at least one argument")
	}
	if args[0].IsNull {
		return types.NewNull(types.TDouble), nil
	}
	x, err := castToFloat(args[0])
	if err != nil {
		return types.Value{}, err
	}
	places := 0
	if len(args) >= 2 && !args[1].IsNull {
		places = int(args[1].Int64())
	}
	mult := math.Pow(10, float64(places))
	return types.NewDouble(math.Round(x*mult) / mult), nil
}

func fnFloor(args []types.Value) (types.Value, error) { return fnMathUnary(args, math.Floor) }
func fnCeil(args []types.Value) (types.Value, error)  { return fnMathUnary(args, math.Ceil) }
func fnSqrt(args []types.Value) (types.Value, error)  { return fnMathUnary(args, math.Sqrt) }

func fnPow(args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Value{}, execerr.InvalidArgumentf("POW requires exactly 2 arguments")
	}
	if args[0].IsNull || args[1].IsNull {
		return types.NewNull(types.TDouble), nil
	}
	a, err := castToFloat(args[0])
	if err != nil {
		return types.Value{}, err
	}
	b, err := castToFloat(args[1])
	if err != nil {
		return types.Value{}, err
	}
	return types.NewDouble(math.Pow(a, b)), nil
}

func fnMod(args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Value{}, execerr.InvalidArgumentf("MOD requires exactly 2 arguments")
	}
	return evalBinaryValue(OpModulo, args[0], args[1])
}

func fnSign(args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Value{}, execerr.InvalidArgumentf("SIGN requires exactly one argument")
	}
	if args[0].IsNull {
		return types.NewNull(types.TInteger), nil
	}
	x, err := castToFloat(args[0])
	if err != nil {
		return types.Value{}, err
	}
	switch {
	case x > 0:
		return types.NewInteger(1), nil
	case x < 0:
		return types.NewInteger(-1), nil
	default:
		return types.NewInteger(0), nil
	}
}

func fnGreatest(args []types.Value) (types.Value, error) { return fnExtreme(args, true) }
func fnLeast(args []types.Value) (types.Value, error)    { return fnExtreme(args, false) }

func fnExtreme(args []types.Value, greatest bool) (types.Value, error) {
	if len(args) == 0 {
		return types.Value{}, execerr.InvalidArgumentf("function requires at least one argument")
	}
	best, haveBest := 0.0, false
	for _, a := range args {
		if a.IsNull {
			continue
		}
		x, err := castToFloat(a)
		if err != nil {
			return types.Value{}, err
		}
		if !haveBest || (greatest && x > best) || (!greatest && x < best) {
			best, haveBest = x, true
		}
	}
	if !haveBest {
		return types.NewNull(types.TDouble), nil
	}
	return types.NewDouble(best), nil
}

// --- null-handling special forms ---

// fnCoalesce returns the first non-NULL argument, deliberately not
// NULL-propagating (spec.md §8: `COALESCE(NULL,x)=x`).
func fnCoalesce(args []types.Value) (types.Value, error) {
	for _, a := range args {
		if !a.IsNull {
			return a, nil
		}
	}
	if len(args) == 0 {
		return types.Value{}, execerr.InvalidArgumentf("COALESCE requires at least one argument")
	}
	return types.NewNull(args[0].Type), nil
}

// fnNullIf returns NULL when the two arguments are equal, else the first
// argument (spec.md §8: `NULLIF(x,x)=NULL`).
func fnNullIf(args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Value{}, execerr.InvalidArgumentf("NULLIF requires exactly 2 arguments")
	}
	if args[0].Equal(args[1]) {
		return types.NewNull(args[0].Type), nil
	}
	return args[0], nil
}

// --- date/time functions ---

func fnNow([]types.Value) (types.Value, error) {
	return types.NewTimestampValue(types.TimestampFromTime(time.Now())), nil
}

func fnDateTrunc(args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Value{}, execerr.InvalidArgumentf("DATE_TRUNC requires (unit, timestamp)")
	}
	if args[0].IsNull || args[1].IsNull {
		return types.NewNull(types.TTimestamp), nil
	}
	unit := strings.ToLower(args[0].Text())
	t := args[1].Timestamp().ToTime()
	var truncated time.Time
	switch unit {
	case "year":
		truncated = time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	case "month":
		truncated = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case "day":
		truncated = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case "hour":
		truncated = t.Truncate(time.Hour)
	case "minute":
		truncated = t.Truncate(time.Minute)
	case "second":
		truncated = t.Truncate(time.Second)
	default:
		return types.Value{}, execerr.InvalidArgumentf("unsupported DATE_TRUNC unit %q", unit)
	}
	return types.NewTimestampValue(types.TimestampFromTime(truncated)), nil
}

func fnExtract(args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Value{}, execerr.InvalidArgumentf("EXTRACT requires (field, timestamp)")
	}
	if args[0].IsNull || args[1].IsNull {
		return types.NewNull(types.TBigInt), nil
	}
	field := strings.ToLower(args[0].Text())
	t := args[1].Timestamp().ToTime()
	var v int64
	switch field {
	case "year":
		v = int64(t.Year())
	case "month":
		v = int64(t.Month())
	case "day":
		v = int64(t.Day())
	case "hour":
		v = int64(t.Hour())
	case "minute":
		v = int64(t.Minute())
	case "second":
		v = int64(t.Second())
	case "dow":
		v = int64(t.Weekday())
	default:
		return types.Value{}, execerr.InvalidArgumentf("unsupported EXTRACT field %q", field)
	}
	return types.NewBigInt(v), nil
}
