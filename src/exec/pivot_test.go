package exec

import (
	"testing"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
)

func salesSchema() chunk.Schema {
	return chunk.Schema{
		{Name: "region", Type: types.TVarchar},
		{Name: "quarter", Type: types.TVarchar},
		{Name: "amount", Type: types.TBigInt},
	}
}

func salesRows() [][]types.Value {
	return [][]types.Value{
		{types.NewVarchar("west"), types.NewVarchar("Q1"), types.NewBigInt(10)},
		{types.NewVarchar("west"), types.NewVarchar("Q2"), types.NewBigInt(20)},
		{types.NewVarchar("east"), types.NewVarchar("Q1"), types.NewBigInt(5)},
	}
}

func TestPivotReshapesGroupsIntoWideRows(t *testing.T) {
	ctx := seedEmployees(t, nil)
	schema := salesSchema()
	child := oneShotIterator(rowsToChunk(t, schema, salesRows()))

	childNode := &plan.TableScanNode{OutSchema: schema}
	node := &plan.PivotNode{
		Child:       childNode,
		GroupBy:     []expr.Expr{expr.ColumnRef{Name: "region"}},
		GroupNames:  []string{"region"},
		PivotKey:    expr.ColumnRef{Name: "quarter"},
		PivotValues: []types.Value{types.NewVarchar("Q1"), types.NewVarchar("Q2")},
		Aggregates:  []plan.AggregateExpr{{Name: "sum", Arg: expr.ColumnRef{Name: "amount"}, Alias: "total"}},
		OutSchema: chunk.Schema{
			{Name: "region", Type: types.TVarchar},
			{Name: "Q1_total", Type: types.TBigInt},
			{Name: "Q2_total", Type: types.TBigInt},
		},
	}
	p := &pivotOp{child: child, node: node}
	out := drainAll(t, ctx, node.OutSchema, p)
	if out.Count() != 2 {
		t.Fatalf("expected 2 region rows, got %d", out.Count())
	}
	for r := 0; r < out.Count(); r++ {
		row := out.Row(r)
		if row[0].Text() == "west" {
			if row[1].Int64() != 10 || row[2].Int64() != 20 {
				t.Errorf("west row mismatch: %v", row)
			}
		}
		if row[0].Text() == "east" {
			if row[1].Int64() != 5 || !row[2].IsNull {
				t.Errorf("east row should have NULL Q2, got %v", row)
			}
		}
	}
}
