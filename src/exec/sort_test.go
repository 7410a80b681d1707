package exec

import (
	"math/rand"
	"testing"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
)

func TestSortAscendingBySalary(t *testing.T) {
	ctx := seedEmployees(t, nil)
	schema := employeesSchema()
	child := oneShotIterator(rowsToChunk(t, schema, sampleEmployeeRows()))
	keys := []plan.SortKey{{Expr: expr.ColumnRef{Name: "salary"}, Ascending: true}}
	s := &sortOp{child: child, childSchema: schema, keys: keys}
	out := drainAll(t, ctx, schema, s)
	if out.Count() != 4 {
		t.Fatalf("expected 4 rows, got %d", out.Count())
	}
	prev := int64(-1)
	for r := 0; r < out.Count(); r++ {
		salary := out.Row(r)[2].Int64()
		if salary < prev {
			t.Fatalf("row %d out of order: %d < %d", r, salary, prev)
		}
		prev = salary
	}
}

// TestSortParallelAcrossMorsels seeds enough rows to span several morsels
// under ModeParallel, checking that build()'s per-morsel sort-then-merge
// still produces one globally ordered result - the behavior that was
// missing before Sort was wired through morsel.Run.
func TestSortParallelAcrossMorsels(t *testing.T) {
	const n = 250_000
	schema := chunk.Schema{{Name: "v", Type: types.TBigInt}}
	rows := make([][]types.Value, n)
	for i := 0; i < n; i++ {
		rows[i] = []types.Value{types.NewBigInt(rand.Int63n(1_000_000))}
	}
	child := oneShotIterator(rowsToChunk(t, schema, rows))
	keys := []plan.SortKey{{Expr: expr.ColumnRef{Name: "v"}, Ascending: true}}
	s := &sortOp{child: child, childSchema: schema, keys: keys}

	ctx := execctx.New(nil, execctx.ModeParallel, execctx.Limits{MaxThreads: 4})
	out := drainAll(t, ctx, schema, s)
	if out.Count() != n {
		t.Fatalf("expected %d rows, got %d", n, out.Count())
	}
	prev := int64(-1)
	for r := 0; r < out.Count(); r++ {
		v := out.Row(r)[0].Int64()
		if v < prev {
			t.Fatalf("row %d out of order: %d < %d", r, v, prev)
		}
		prev = v
	}
}

func TestSortDescending(t *testing.T) {
	ctx := seedEmployees(t, nil)
	schema := employeesSchema()
	child := oneShotIterator(rowsToChunk(t, schema, sampleEmployeeRows()))
	keys := []plan.SortKey{{Expr: expr.ColumnRef{Name: "salary"}, Ascending: false}}
	s := &sortOp{child: child, childSchema: schema, keys: keys}
	out := drainAll(t, ctx, schema, s)
	if out.Row(0)[2].Int64() != 200 {
		t.Errorf("expected highest salary first, got %d", out.Row(0)[2].Int64())
	}
}
