package exec

import (
	"testing"

	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
)

func TestInsertForwardsRowsAndReportsCount(t *testing.T) {
	ctx := seedEmployees(t, nil)
	schema := employeesSchema()
	child := oneShotIterator(rowsToChunk(t, schema, sampleEmployeeRows()))
	node := &plan.InsertNode{TableSchema: "public", TableName: "employees"}
	op := &insertOp{child: child, node: node}

	out := drainAll(t, ctx, node.Schema(), op)
	if out.Count() != 1 || out.Row(0)[0].Int64() != 4 {
		t.Fatalf("expected rows_affected=4, got %v", out.Row(0))
	}

	ref, err := ctx.Catalog.GetTable("public", "employees")
	if err != nil {
		t.Fatal(err)
	}
	if ref.Data().RowCount() != 4 {
		t.Errorf("expected table to contain 4 rows after insert, got %d", ref.Data().RowCount())
	}
}

func TestDeleteTombstonesMatchingRows(t *testing.T) {
	ctx := seedEmployees(t, sampleEmployeeRows())
	pred := expr.BinaryOp{Op: expr.OpEq, Left: expr.ColumnRef{Name: "dept"}, Right: expr.Constant{Value: types.NewVarchar("sales")}}
	node := &plan.DeleteNode{TableSchema: "public", TableName: "employees", Predicate: pred}
	op := &deleteOp{node: node}

	out := drainAll(t, ctx, node.Schema(), op)
	if out.Row(0)[0].Int64() != 2 {
		t.Fatalf("expected 2 deleted rows, got %d", out.Row(0)[0].Int64())
	}
	ref, _ := ctx.Catalog.GetTable("public", "employees")
	if ref.Data().RowCount() != 2 {
		t.Errorf("expected 2 live rows after delete, got %d", ref.Data().RowCount())
	}
}

func TestUpdateRewritesAssignedColumns(t *testing.T) {
	ctx := seedEmployees(t, sampleEmployeeRows())
	pred := expr.BinaryOp{Op: expr.OpEq, Left: expr.ColumnRef{Name: "dept"}, Right: expr.Constant{Value: types.NewVarchar("eng")}}
	node := &plan.UpdateNode{
		TableSchema: "public", TableName: "employees",
		Predicate:   pred,
		Assignments: map[string]expr.Expr{"salary": expr.Constant{Value: types.NewBigInt(999)}},
	}
	op := &updateOp{node: node}
	out := drainAll(t, ctx, node.Schema(), op)
	if out.Row(0)[0].Int64() != 2 {
		t.Fatalf("expected 2 updated rows, got %d", out.Row(0)[0].Int64())
	}

	ref, _ := ctx.Catalog.GetTable("public", "employees")
	dc, err := ref.Data().CreateChunk(0, 10)
	if err != nil {
		t.Fatal(err)
	}
	for r := 0; r < dc.Count(); r++ {
		row := dc.Row(r)
		if row[1].Text() == "eng" && row[2].Int64() != 999 {
			t.Errorf("expected eng row salary updated to 999, got %d", row[2].Int64())
		}
	}
}
