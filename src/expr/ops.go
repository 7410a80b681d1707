package expr

import (
	"fmt"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/types"
	"github.com/kokes/vecdb/src/vector"
)

// BinOp enumerates the binary operators spec.md §4.1 groups as "Arithmetic/
// Comparison/Logical/Bitwise/String". Grounded on original_source's
// OperatorType enum (src/expression/operator.rs) and the teacher's per-dtype
// EvalAdd/EvalEq/... dispatch family in column/projections.go.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpEq
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShiftLeft
	OpShiftRight
	OpConcat
)

var binOpSymbols = map[BinOp]string{
	OpAdd: "+", OpSubtract: "-", OpMultiply: "*", OpDivide: "/", OpModulo: "%",
	OpEq: "=", OpNeq: "!=", OpGt: ">", OpGte: ">=", OpLt: "<", OpLte: "<=",
	OpAnd: "AND", OpOr: "OR",
	OpBitAnd: "&", OpBitOr: "|", OpBitXor: "^", OpShiftLeft: "<<", OpShiftRight: ">>",
	OpConcat: "||",
}

func (op BinOp) isComparison() bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

func (op BinOp) isArithmetic() bool {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpModulo:
		return true
	}
	return false
}

func (op BinOp) isBitwise() bool {
	switch op {
	case OpBitAnd, OpBitOr, OpBitXor, OpShiftLeft, OpShiftRight:
		return true
	}
	return false
}

// BinaryOp evaluates a binary operator element-wise, honoring NULL
// propagation: any NULL operand yields a NULL result (spec.md §4.1, §8),
// except for AND/OR, which apply three-valued logic (evalAnd/evalOr).
type BinaryOp struct {
	Op          BinOp
	Left, Right Expr
}

func (b BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, binOpSymbols[b.Op], b.Right)
}

func (b BinaryOp) ReturnType(schema chunk.Schema) (types.LogicalType, error) {
	lt, err := b.Left.ReturnType(schema)
	if err != nil {
		return types.LogicalType{}, err
	}
	rt, err := b.Right.ReturnType(schema)
	if err != nil {
		return types.LogicalType{}, err
	}
	switch {
	case b.Op.isComparison(), b.Op == OpAnd, b.Op == OpOr:
		return types.TBoolean, nil
	case b.Op == OpConcat:
		return types.TVarchar, nil
	case b.Op.isBitwise():
		return types.TBigInt, nil
	case b.Op.isArithmetic():
		if lt.ID == types.Varchar && rt.ID == types.Varchar && b.Op == OpAdd {
			return types.TVarchar, nil
		}
		return types.CommonNumericType(lt, rt)
	}
	return types.LogicalType{}, execerr.InvalidArgumentf("unknown binary operator %v", b.Op)
}

func (b BinaryOp) Evaluate(ctx *execctx.Context, c *chunk.DataChunk) (*vector.Vector, error) {
	vecs, err := evaluateChildren(ctx, c, b.Left, b.Right)
	if err != nil {
		return nil, err
	}
	lv, rv := vecs[0], vecs[1]
	rt, err := b.ReturnType(c.Schema)
	if err != nil {
		return nil, err
	}
	out := vector.New(rt, c.Count())
	for i := 0; i < c.Count(); i++ {
		res, err := evalBinaryValue(b.Op, lv.GetValue(i), rv.GetValue(i))
		if err != nil {
			return nil, err
		}
		out.Append(res)
	}
	return out, nil
}

// evalBinaryValue implements one BinOp over a single pair of scalars.
func evalBinaryValue(op BinOp, l, r types.Value) (types.Value, error) {
	if op == OpConcat || (op == OpAdd && l.Type.ID == types.Varchar && r.Type.ID == types.Varchar) {
		return evalConcat(l, r)
	}
	if op == OpAnd {
		return evalAnd(l, r)
	}
	if op == OpOr {
		return evalOr(l, r)
	}
	if l.IsNull || r.IsNull {
		if op.isComparison() {
			return types.NewNull(types.TBoolean), nil
		}
		if op.isBitwise() {
			return types.NewNull(types.TBigInt), nil
		}
		common, err := types.CommonNumericType(l.Type, r.Type)
		if err != nil {
			return types.Value{}, execerr.Wrap(execerr.Type, err, "binary operator %s", binOpSymbols[op])
		}
		return types.NewNull(common), nil
	}
	if op.isBitwise() {
		return evalBitwise(op, l, r)
	}
	if op.isComparison() {
		return evalComparison(op, l, r)
	}
	return evalArithmetic(op, l, r)
}

func evalAnd(l, r types.Value) (types.Value, error) {
	// three-valued logic: false AND anything is false even if the other
	// operand is NULL; otherwise any NULL operand makes the result NULL.
	if !l.IsNull && l.Type.ID == types.Boolean && !l.Bool() {
		return types.NewBool(false), nil
	}
	if !r.IsNull && r.Type.ID == types.Boolean && !r.Bool() {
		return types.NewBool(false), nil
	}
	if l.IsNull || r.IsNull {
		return types.NewNull(types.TBoolean), nil
	}
	if l.Type.ID != types.Boolean || r.Type.ID != types.Boolean {
		return types.Value{}, execerr.Typef("AND requires boolean operands, got %s and %s", l.Type, r.Type)
	}
	return types.NewBool(l.Bool() && r.Bool()), nil
}

func evalOr(l, r types.Value) (types.Value, error) {
	if !l.IsNull && l.Type.ID == types.Boolean && l.Bool() {
		return types.NewBool(true), nil
	}
	if !r.IsNull && r.Type.ID == types.Boolean && r.Bool() {
		return types.NewBool(true), nil
	}
	if l.IsNull || r.IsNull {
		return types.NewNull(types.TBoolean), nil
	}
	if l.Type.ID != types.Boolean || r.Type.ID != types.Boolean {
		return types.Value{}, execerr.Typef("OR requires boolean operands, got %s and %s", l.Type, r.Type)
	}
	return types.NewBool(l.Bool() || r.Bool()), nil
}

func evalConcat(l, r types.Value) (types.Value, error) {
	if l.IsNull || r.IsNull {
		return types.NewNull(types.TVarchar), nil
	}
	if l.Type.ID != types.Varchar && l.Type.ID != types.Char {
		return types.Value{}, execerr.Typef("cannot concatenate %s", l.Type)
	}
	if r.Type.ID != types.Varchar && r.Type.ID != types.Char {
		return types.Value{}, execerr.Typef("cannot concatenate %s", r.Type)
	}
	return types.NewVarchar(l.Text() + r.Text()), nil
}

func evalBitwise(op BinOp, l, r types.Value) (types.Value, error) {
	if !l.Type.IsInteger() || !r.Type.IsInteger() {
		return types.Value{}, execerr.Typef("bitwise operator %s requires integer operands, got %s and %s", binOpSymbols[op], l.Type, r.Type)
	}
	a, b := l.Int64(), r.Int64()
	var res int64
	switch op {
	case OpBitAnd:
		res = a & b
	case OpBitOr:
		res = a | b
	case OpBitXor:
		res = a ^ b
	case OpShiftLeft:
		res = a << uint(b)
	case OpShiftRight:
		res = a >> uint(b)
	}
	return types.NewBigInt(res), nil
}

func evalComparison(op BinOp, l, r types.Value) (types.Value, error) {
	common, err := comparableCommonType(l.Type, r.Type)
	if err != nil {
		return types.Value{}, execerr.Wrap(execerr.Type, err, "comparison %s", binOpSymbols[op])
	}
	cl, err := types.CoerceValue(l, common)
	if err != nil {
		return types.Value{}, execerr.Wrap(execerr.Type, err, "comparison %s", binOpSymbols[op])
	}
	cr, err := types.CoerceValue(r, common)
	if err != nil {
		return types.Value{}, execerr.Wrap(execerr.Type, err, "comparison %s", binOpSymbols[op])
	}
	var result bool
	switch op {
	case OpEq:
		result = cl.Equal(cr)
	case OpNeq:
		result = !cl.Equal(cr)
	case OpGt, OpGte, OpLt, OpLte:
		cmp, err := compareValues(cl, cr)
		if err != nil {
			return types.Value{}, err
		}
		switch op {
		case OpGt:
			result = cmp > 0
		case OpGte:
			result = cmp >= 0
		case OpLt:
			result = cmp < 0
		case OpLte:
			result = cmp <= 0
		}
	}
	return types.NewBool(result), nil
}

// comparableCommonType widens numerics via CommonNumericType but also allows
// comparing like-kinded non-numeric scalars (strings, dates, booleans)
// directly, since CommonNumericType only covers §3's numeric tower.
func comparableCommonType(a, b types.LogicalType) (types.LogicalType, error) {
	if a.IsNumeric() && b.IsNumeric() {
		return types.CommonNumericType(a, b)
	}
	if a.Equal(b) {
		return a, nil
	}
	if a.ID == types.Null {
		return b, nil
	}
	if b.ID == types.Null {
		return a, nil
	}
	if types.CanImplicitlyCast(a, b) {
		return b, nil
	}
	if types.CanImplicitlyCast(b, a) {
		return a, nil
	}
	return types.LogicalType{}, fmt.Errorf("cannot compare %s with %s", a, b)
}

// CompareValues orders two already-coerced scalars by their natural
// ordering, for callers outside this package (the Sort operator) that need
// the same ordering rules ORDER BY/MIN/MAX use without duplicating them.
func CompareValues(l, r types.Value) (int, error) { return compareValues(l, r) }

// compareValues orders two already-coerced scalars, following the teacher's
// convention of one comparator per natural-ordering dtype.
func compareValues(l, r types.Value) (int, error) {
	switch l.Type.ID {
	case types.TinyInt, types.SmallInt, types.Integer, types.BigInt:
		return int(l.Int64() - r.Int64()), nil
	case types.HugeInt, types.Decimal:
		return types.CompareDecimal128(l.Decimal(), r.Decimal()), nil
	case types.Float, types.Double:
		switch {
		case l.Float64() < r.Float64():
			return -1, nil
		case l.Float64() > r.Float64():
			return 1, nil
		default:
			return 0, nil
		}
	case types.Varchar, types.Char, types.UUID, types.JSON:
		switch {
		case l.Text() < r.Text():
			return -1, nil
		case l.Text() > r.Text():
			return 1, nil
		default:
			return 0, nil
		}
	case types.Date:
		switch {
		case types.DatesLessThan(l.Date(), r.Date()):
			return -1, nil
		case types.DatesGreaterThan(l.Date(), r.Date()):
			return 1, nil
		default:
			return 0, nil
		}
	case types.Time:
		switch {
		case types.TimesLessThan(l.Time(), r.Time()):
			return -1, nil
		case types.TimesGreaterThan(l.Time(), r.Time()):
			return 1, nil
		default:
			return 0, nil
		}
	case types.Timestamp:
		switch {
		case types.TimestampsLessThan(l.Timestamp(), r.Timestamp()):
			return -1, nil
		case types.TimestampsGreaterThan(l.Timestamp(), r.Timestamp()):
			return 1, nil
		default:
			return 0, nil
		}
	case types.Boolean:
		lb, rb := 0, 0
		if l.Bool() {
			lb = 1
		}
		if r.Bool() {
			rb = 1
		}
		return lb - rb, nil
	}
	return 0, execerr.Typef("type %s has no natural ordering", l.Type)
}

func evalArithmetic(op BinOp, l, r types.Value) (types.Value, error) {
	common, err := types.CommonNumericType(l.Type, r.Type)
	if err != nil {
		return types.Value{}, execerr.Wrap(execerr.Type, err, "arithmetic operator %s", binOpSymbols[op])
	}
	cl, err := types.CoerceValue(l, common)
	if err != nil {
		return types.Value{}, err
	}
	cr, err := types.CoerceValue(r, common)
	if err != nil {
		return types.Value{}, err
	}
	switch common.ID {
	case types.TinyInt, types.SmallInt, types.Integer, types.BigInt:
		return evalIntArithmetic(op, common, cl.Int64(), cr.Int64())
	case types.HugeInt, types.Decimal:
		return evalDecimalArithmetic(op, cl.Decimal(), cr.Decimal())
	case types.Float, types.Double:
		return evalFloatArithmetic(op, common, cl.Float64(), cr.Float64())
	}
	return types.Value{}, execerr.Typef("cannot apply %s to %s", binOpSymbols[op], common)
}

func newIntValue(id types.ID, v int64) types.Value {
	switch id {
	case types.TinyInt:
		return types.NewTinyInt(int8(v))
	case types.SmallInt:
		return types.NewSmallInt(int16(v))
	case types.Integer:
		return types.NewInteger(int32(v))
	default:
		return types.NewBigInt(v)
	}
}

func evalIntArithmetic(op BinOp, id types.ID, a, b int64) (types.Value, error) {
	switch op {
	case OpAdd:
		return newIntValue(id, a+b), nil
	case OpSubtract:
		return newIntValue(id, a-b), nil
	case OpMultiply:
		return newIntValue(id, a*b), nil
	case OpDivide:
		if b == 0 {
			return types.Value{}, execerr.Executionf("division by zero")
		}
		return newIntValue(id, a/b), nil
	case OpModulo:
		if b == 0 {
			return types.Value{}, execerr.Executionf("modulo by zero")
		}
		return newIntValue(id, a%b), nil
	}
	return types.Value{}, execerr.Typef("unsupported integer operator %s", binOpSymbols[op])
}

func evalFloatArithmetic(op BinOp, id types.ID, a, b float64) (types.Value, error) {
	newFloat := func(v float64) types.Value {
		if id == types.Float {
			return types.NewFloat(float32(v))
		}
		return types.NewDouble(v)
	}
	switch op {
	case OpAdd:
		return newFloat(a + b), nil
	case OpSubtract:
		return newFloat(a - b), nil
	case OpMultiply:
		return newFloat(a * b), nil
	case OpDivide:
		if b == 0 {
			return types.Value{}, execerr.Executionf("division by zero")
		}
		return newFloat(a / b), nil
	case OpModulo:
		if b == 0 {
			return types.Value{}, execerr.Executionf("modulo by zero")
		}
		return newFloat(float64(int64(a) % int64(b))), nil
	}
	return types.Value{}, execerr.Typef("unsupported float operator %s", binOpSymbols[op])
}

func evalDecimalArithmetic(op BinOp, a, b types.Decimal128) (types.Value, error) {
	switch op {
	case OpAdd:
		d, err := types.AddDecimal128(a, b)
		return wrapDecimal(d, err)
	case OpSubtract:
		d, err := types.SubDecimal128(a, b)
		return wrapDecimal(d, err)
	case OpMultiply:
		d, err := types.MulDecimal128(a, b)
		return wrapDecimal(d, err)
	case OpDivide:
		scale := a.Scale
		if b.Scale > scale {
			scale = b.Scale
		}
		d, err := types.DivDecimal128(a, b, scale)
		if err != nil {
			return types.Value{}, execerr.Executionf("%s", err)
		}
		return types.NewDecimalValue(d), nil
	}
	return types.Value{}, execerr.Typef("unsupported decimal operator %s", binOpSymbols[op])
}

func wrapDecimal(d types.Decimal128, err error) (types.Value, error) {
	if err != nil {
		return types.Value{}, execerr.Executionf("%s", err)
	}
	return types.NewDecimalValue(d), nil
}

// UnOp enumerates the unary operators: arithmetic negation, boolean NOT, and
// the NULL-testing predicates that deliberately do NOT follow the generic
// NULL-propagation rule (spec.md §4.1).
type UnOp int

const (
	OpNegate UnOp = iota
	OpNot
	OpIsNull
	OpIsNotNull
)

// UnaryOp evaluates a unary operator element-wise.
type UnaryOp struct {
	Op      UnOp
	Operand Expr
}

func (u UnaryOp) String() string {
	switch u.Op {
	case OpNegate:
		return fmt.Sprintf("-%s", u.Operand)
	case OpNot:
		return fmt.Sprintf("NOT %s", u.Operand)
	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", u.Operand)
	default:
		return fmt.Sprintf("%s IS NOT NULL", u.Operand)
	}
}

func (u UnaryOp) ReturnType(schema chunk.Schema) (types.LogicalType, error) {
	if u.Op == OpNot || u.Op == OpIsNull || u.Op == OpIsNotNull {
		return types.TBoolean, nil
	}
	return u.Operand.ReturnType(schema)
}

func (u UnaryOp) Evaluate(ctx *execctx.Context, c *chunk.DataChunk) (*vector.Vector, error) {
	in, err := u.Operand.Evaluate(ctx, c)
	if err != nil {
		return nil, err
	}
	rt, err := u.ReturnType(c.Schema)
	if err != nil {
		return nil, err
	}
	out := vector.New(rt, c.Count())
	for i := 0; i < c.Count(); i++ {
		v := in.GetValue(i)
		switch u.Op {
		case OpIsNull:
			out.Append(types.NewBool(v.IsNull))
			continue
		case OpIsNotNull:
			out.Append(types.NewBool(!v.IsNull))
			continue
		}
		if v.IsNull {
			out.Append(types.NewNull(rt))
			continue
		}
		switch u.Op {
		case OpNegate:
			neg, err := evalNegate(v)
			if err != nil {
				return nil, err
			}
			out.Append(neg)
		case OpNot:
			if v.Type.ID != types.Boolean {
				return nil, execerr.Typef("NOT requires a boolean operand, got %s", v.Type)
			}
			out.Append(types.NewBool(!v.Bool()))
		}
	}
	return out, nil
}

func evalNegate(v types.Value) (types.Value, error) {
	switch v.Type.ID {
	case types.TinyInt, types.SmallInt, types.Integer, types.BigInt:
		return newIntValue(v.Type.ID, -v.Int64()), nil
	case types.Float:
		return types.NewFloat(float32(-v.Float64())), nil
	case types.Double:
		return types.NewDouble(-v.Float64()), nil
	case types.HugeInt, types.Decimal:
		zero, _ := types.NewDecimal128(0, v.Decimal().Precision, v.Decimal().Scale)
		d, err := types.SubDecimal128(zero, v.Decimal())
		if err != nil {
			return types.Value{}, execerr.Executionf("%s", err)
		}
		if v.Type.ID == types.HugeInt {
			return types.NewHugeInt(d), nil
		}
		return types.NewDecimalValue(d), nil
	}
	return types.Value{}, execerr.Typef("cannot negate %s", v.Type)
}
