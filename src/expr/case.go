package expr

import (
	"fmt"
	"strings"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/types"
	"github.com/kokes/vecdb/src/vector"
)

// WhenClause is one arm of a Case expression.
type WhenClause struct {
	When Expr
	Then Expr
}

// Case implements CASE WHEN ... THEN ... ELSE ... END, short-circuiting per
// row: the first arm whose condition evaluates true (and is not NULL) wins;
// if none match, Else is used, defaulting to NULL (spec.md §4.1).
type Case struct {
	Whens []WhenClause
	Else  Expr
}

func (c Case) String() string {
	var b strings.Builder
	b.WriteString("CASE")
	for _, w := range c.Whens {
		fmt.Fprintf(&b, " WHEN %s THEN %s", w.When, w.Then)
	}
	if c.Else != nil {
		fmt.Fprintf(&b, " ELSE %s", c.Else)
	}
	b.WriteString(" END")
	return b.String()
}

func (c Case) ReturnType(schema chunk.Schema) (types.LogicalType, error) {
	if len(c.Whens) == 0 {
		return types.LogicalType{}, execerr.InvalidArgumentf("CASE requires at least one WHEN clause")
	}
	rt, err := c.Whens[0].Then.ReturnType(schema)
	if err != nil {
		return types.LogicalType{}, err
	}
	for _, w := range c.Whens[1:] {
		wt, err := w.Then.ReturnType(schema)
		if err != nil {
			return types.LogicalType{}, err
		}
		if !wt.Equal(rt) {
			rt, err = types.CommonNumericType(rt, wt)
			if err != nil {
				return types.LogicalType{}, execerr.Typef("CASE branches have incompatible types: %s", err)
			}
		}
	}
	return rt, nil
}

func (c Case) Evaluate(ctx *execctx.Context, chk *chunk.DataChunk) (*vector.Vector, error) {
	rt, err := c.ReturnType(chk.Schema)
	if err != nil {
		return nil, err
	}
	whenVecs := make([]*vector.Vector, len(c.Whens))
	thenVecs := make([]*vector.Vector, len(c.Whens))
	for i, w := range c.Whens {
		wv, err := w.When.Evaluate(ctx, chk)
		if err != nil {
			return nil, fmt.Errorf("evaluating CASE condition %d: %w", i, err)
		}
		if wv.Type.ID != types.Boolean {
			return nil, execerr.Typef("CASE condition %d must be boolean, got %s", i, wv.Type)
		}
		whenVecs[i] = wv
		tv, err := w.Then.Evaluate(ctx, chk)
		if err != nil {
			return nil, fmt.Errorf("evaluating CASE result %d: %w", i, err)
		}
		thenVecs[i] = tv
	}
	var elseVec *vector.Vector
	if c.Else != nil {
		elseVec, err = c.Else.Evaluate(ctx, chk)
		if err != nil {
			return nil, err
		}
	}

	out := vector.New(rt, chk.Count())
	for row := 0; row < chk.Count(); row++ {
		matched := false
		for i := range c.Whens {
			cond := whenVecs[i].GetValue(row)
			if !cond.IsNull && cond.Bool() {
				out.Append(coerceOrPanic(thenVecs[i].GetValue(row), rt))
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if elseVec != nil {
			out.Append(coerceOrPanic(elseVec.GetValue(row), rt))
		} else {
			out.Append(types.NewNull(rt))
		}
	}
	return out, nil
}

// coerceOrPanic widens a branch result to the CASE's common return type;
// ReturnType already validated that every branch implicitly casts to rt. It
// does not panic: if CoerceValue still fails, the result is a NULL of rt.
func coerceOrPanic(v types.Value, rt types.LogicalType) types.Value {
	if v.Type.Equal(rt) {
		return v
	}
	coerced, err := types.CoerceValue(v, rt)
	if err != nil {
		return types.NewNull(rt)
	}
	return coerced
}
