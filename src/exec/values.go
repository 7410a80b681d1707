package exec

import (
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
)

// valuesOp implements plan.ValuesNode (spec.md §4.4.9): evaluates each row's
// expressions against a dummy single-row chunk (so constant-folding
// expressions resolve without a real input) and materializes the matrix
// into one chunk.
type valuesOp struct {
	node *plan.ValuesNode
	done bool
}

// dummyChunk is a one-row, schema-less-for-lookup-purposes chunk: its sole
// column exists only so DataChunk.Count() reports 1, letting every Expr
// variant's row-count-driven Evaluate loop run exactly once per VALUES row.
func dummyChunk() *chunk.DataChunk {
	c := chunk.New(chunk.Schema{{Name: "", Type: types.TBoolean}})
	c.AppendRow([]types.Value{types.NewBool(true)})
	return c
}

func (v *valuesOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if v.done {
		return nil, nil
	}
	v.done = true
	dummy := dummyChunk()
	out := chunk.New(v.node.OutSchema)
	for _, row := range v.node.Rows {
		materialized := make([]types.Value, len(row))
		for i, e := range row {
			vec, err := e.Evaluate(ctx, dummy)
			if err != nil {
				return nil, err
			}
			materialized[i] = vec.GetValue(0)
		}
		out.AppendRow(materialized)
	}
	return out, nil
}
