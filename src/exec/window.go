package exec

import (
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/vector"
)

// windowOp implements plan.WindowNode (spec.md §4.1, §4.4). Window functions
// need visibility across partition boundaries that per-chunk streaming
// cannot provide, so the child is fully materialized into one chunk before
// any WindowFunc.Evaluate call - expr.WindowFunc.Evaluate itself handles
// PARTITION BY grouping and ORDER BY ordering within that single chunk.
type windowOp struct {
	child       Iterator
	childSchema chunk.Schema
	node        *plan.WindowNode
	done        bool
}

func (w *windowOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if w.done {
		return nil, nil
	}
	w.done = true

	in, err := Collect(ctx, w.childSchema, w.child)
	if err != nil {
		return nil, err
	}

	vecs := make([]*vector.Vector, 0, len(w.childSchema)+len(w.node.Funcs))
	for i := range w.childSchema {
		vecs = append(vecs, in.Vectors[i])
	}
	for _, f := range w.node.Funcs {
		v, err := f.Func.Evaluate(ctx, in)
		if err != nil {
			return nil, err
		}
		vecs = append(vecs, v)
	}
	return &chunk.DataChunk{Schema: w.node.OutSchema, Vectors: vecs}, nil
}
