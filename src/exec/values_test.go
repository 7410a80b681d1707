package exec

import (
	"testing"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
)

func TestValuesMaterializesLiteralRows(t *testing.T) {
	ctx := seedEmployees(t, nil)
	node := &plan.ValuesNode{
		Rows: [][]expr.Expr{
			{expr.Constant{Value: types.NewInteger(1)}, expr.Constant{Value: types.NewVarchar("a")}},
			{expr.Constant{Value: types.NewInteger(2)}, expr.Constant{Value: types.NewVarchar("b")}},
		},
		OutSchema: chunk.Schema{
			{Name: "id", Type: types.TInteger},
			{Name: "label", Type: types.TVarchar},
		},
	}
	op := &valuesOp{node: node}
	out := drainAll(t, ctx, node.OutSchema, op)
	if out.Count() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.Count())
	}
	if out.Row(1)[1].Text() != "b" {
		t.Errorf("expected second row label b, got %q", out.Row(1)[1].Text())
	}
}
