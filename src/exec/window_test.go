package exec

import (
	"testing"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
)

func TestWindowRowNumberPartitionedByDept(t *testing.T) {
	ctx := seedEmployees(t, nil)
	schema := employeesSchema()
	child := oneShotIterator(rowsToChunk(t, schema, sampleEmployeeRows()))

	wf := expr.WindowFunc{
		Name:        "row_number",
		PartitionBy: []expr.Expr{expr.ColumnRef{Name: "dept"}},
		OrderBy:     []expr.OrderKey{{Expr: expr.ColumnRef{Name: "salary"}}},
	}
	outSchema := append(append(chunk.Schema{}, schema...), chunk.ColumnSchema{Name: "rn", Type: types.TBigInt})
	node := &plan.WindowNode{Funcs: []plan.WindowOutput{{Func: wf, Alias: "rn"}}, OutSchema: outSchema}
	w := &windowOp{child: child, childSchema: schema, node: node}

	out := drainAll(t, ctx, outSchema, w)
	if out.Count() != 4 {
		t.Fatalf("expected 4 rows, got %d", out.Count())
	}
	for r := 0; r < out.Count(); r++ {
		rn := out.Row(r)[len(schema)].Int64()
		if rn < 1 || rn > 2 {
			t.Errorf("expected row_number within its 2-row partition to be 1 or 2, got %d", rn)
		}
	}
}
