package exec

import (
	"testing"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/types"
)

func TestProjectEvaluatesExpressions(t *testing.T) {
	ctx := seedEmployees(t, nil)
	schema := employeesSchema()
	child := oneShotIterator(rowsToChunk(t, schema, sampleEmployeeRows()))
	outSchema := chunk.Schema{{Name: "dept", Type: types.TVarchar}}
	p := &projectOp{child: child, exprs: []expr.Expr{expr.ColumnRef{Name: "dept"}}, outSchema: outSchema}
	out := drainAll(t, ctx, outSchema, p)
	if out.Count() != 4 {
		t.Fatalf("expected 4 rows, got %d", out.Count())
	}
	if out.Row(0)[0].Text() != "eng" {
		t.Errorf("expected first dept to be eng, got %q", out.Row(0)[0].Text())
	}
}
