package exec

import (
	"testing"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
)

func TestBuildDispatchesFilterOverTableScan(t *testing.T) {
	ctx := seedEmployees(t, sampleEmployeeRows())
	scan := &plan.TableScanNode{TableSchema: "public", TableName: "employees", OutSchema: employeesSchema()}
	filter := &plan.FilterNode{
		Child:     scan,
		Predicate: expr.BinaryOp{Op: expr.OpEq, Left: expr.ColumnRef{Name: "dept"}, Right: expr.Constant{Value: types.NewVarchar("sales")}},
	}
	it, err := Build(ctx, filter)
	if err != nil {
		t.Fatal(err)
	}
	out := drainAll(t, ctx, filter.Schema(), it)
	if out.Count() != 2 {
		t.Fatalf("expected 2 sales rows, got %d", out.Count())
	}
}

func TestBuildUnknownNodeErrors(t *testing.T) {
	ctx := seedEmployees(t, nil)
	if _, err := Build(ctx, unknownNode{}); err == nil {
		t.Fatal("expected an error for an unrecognized plan.Node")
	}
}

type unknownNode struct{}

func (unknownNode) Schema() chunk.Schema { return nil }
func (unknownNode) String() string       { return "unknown" }
