package exec

import (
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/vector"
)

// projectOp implements plan.ProjectionNode (spec.md §4.4.3): it evaluates
// every expression against the input chunk and concatenates the results
// into a new chunk of the same cardinality.
type projectOp struct {
	child     Iterator
	exprs     []expr.Expr
	outSchema chunk.Schema
}

func (p *projectOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	dc, err := p.child.Next(ctx)
	if err != nil || dc == nil {
		return dc, err
	}
	return evalProjection(ctx, dc, p.exprs, p.outSchema)
}

func evalProjection(ctx *execctx.Context, dc *chunk.DataChunk, exprs []expr.Expr, outSchema chunk.Schema) (*chunk.DataChunk, error) {
	vecs := make([]*vector.Vector, len(exprs))
	for i, e := range exprs {
		v, err := e.Evaluate(ctx, dc)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return &chunk.DataChunk{Schema: outSchema, Vectors: vecs}, nil
}
