package exec

import (
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/vector"
)

// filterOp implements both plan.FilterNode and plan.QualifyNode (spec.md
// §4.4.2): they differ only in planner placement, not in evaluation, so one
// implementation backs both.
type filterOp struct {
	child     Iterator
	predicate expr.Expr
}

func (f *filterOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	for {
		dc, err := f.child.Next(ctx)
		if err != nil || dc == nil {
			return dc, err
		}
		vec, err := f.predicate.Evaluate(ctx, dc)
		if err != nil {
			return nil, err
		}
		idx := make([]int, 0, dc.Count())
		allPass := true
		for r := 0; r < dc.Count(); r++ {
			v := vec.GetValue(r)
			// NULL is treated as false (spec.md §4.4.2).
			if !v.IsNull && v.Bool() {
				idx = append(idx, r)
			} else {
				allPass = false
			}
		}
		if len(idx) == 0 {
			continue
		}
		if allPass {
			return dc, nil
		}
		return dc.Filter(vector.NewSelectionVector(idx)), nil
	}
}
