// Package expr implements the expression tree and its vectorized evaluator
// (spec.md §4.1): every expression is a pure function chunk -> Vector with a
// statically-known return type. Grounded on query/expr/expression.go +
// eval.go's variant-dispatch shape, generalized from the teacher's
// column.Chunk-typed evaluation to vector.Vector so it spans the fuller
// LogicalType set src/types carries. The teacher's SQL-text tokeniser/parser
// (query/expr/tokeniser.go, parser.go) is intentionally not carried forward:
// expression trees are built directly by callers (the out-of-scope planner),
// never parsed from text.
package expr

import (
	"fmt"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/types"
	"github.com/kokes/vecdb/src/vector"
)

// Expr is one node of the expression tree.
type Expr interface {
	// Evaluate computes this expression over every row of c, returning a
	// vector with c.Count() rows and ReturnType's logical type.
	Evaluate(ctx *execctx.Context, c *chunk.DataChunk) (*vector.Vector, error)
	// ReturnType resolves this expression's static output type against an
	// input schema, without evaluating any data.
	ReturnType(schema chunk.Schema) (types.LogicalType, error)
	String() string
}

// Constant is a literal value broadcast across every row of the chunk.
type Constant struct {
	Value types.Value
}

func (c Constant) Evaluate(_ *execctx.Context, chk *chunk.DataChunk) (*vector.Vector, error) {
	v := vector.New(c.Value.Type, chk.Count())
	for i := 0; i < chk.Count(); i++ {
		v.Append(c.Value)
	}
	return v, nil
}

func (c Constant) ReturnType(chunk.Schema) (types.LogicalType, error) { return c.Value.Type, nil }
func (c Constant) String() string                                    { return c.Value.String() }

// ColumnRef reads an input column by name, looked up once against the
// chunk's schema (the teacher's lookupExpr in query/query.go resolves by
// matching an expression's String() against projected columns; here the
// planner is expected to have already bound column names to the scan's
// output schema, so a straight name lookup is sufficient).
type ColumnRef struct {
	Name string
}

func (r ColumnRef) Evaluate(_ *execctx.Context, c *chunk.DataChunk) (*vector.Vector, error) {
	v := c.Column(r.Name)
	if v == nil {
		return nil, execerr.InvalidArgumentf("unknown column %q", r.Name)
	}
	return v, nil
}

func (r ColumnRef) ReturnType(schema chunk.Schema) (types.LogicalType, error) {
	idx := schema.IndexOf(r.Name)
	if idx < 0 {
		return types.LogicalType{}, execerr.InvalidArgumentf("unknown column %q", r.Name)
	}
	return schema[idx].Type, nil
}

func (r ColumnRef) String() string { return r.Name }

// evaluateChildren is a small helper most multi-arg expressions use to
// evaluate all of their operands against the same chunk.
func evaluateChildren(ctx *execctx.Context, c *chunk.DataChunk, children ...Expr) ([]*vector.Vector, error) {
	out := make([]*vector.Vector, len(children))
	for i, e := range children {
		v, err := e.Evaluate(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("evaluating operand %d of %v: %w", i, e, err)
		}
		out[i] = v
	}
	return out, nil
}
