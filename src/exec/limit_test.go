package exec

import "testing"

func TestLimitOffset(t *testing.T) {
	ctx := seedEmployees(t, nil)
	schema := employeesSchema()
	child := oneShotIterator(rowsToChunk(t, schema, sampleEmployeeRows()))
	l := &limitOp{child: child, limit: 2, offset: 1}
	out := drainAll(t, ctx, schema, l)
	if out.Count() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.Count())
	}
	if out.Row(0)[0].Int64() != 2 {
		t.Errorf("expected first row id=2 after offset 1, got %d", out.Row(0)[0].Int64())
	}
}

func TestLimitUnbounded(t *testing.T) {
	ctx := seedEmployees(t, nil)
	schema := employeesSchema()
	child := oneShotIterator(rowsToChunk(t, schema, sampleEmployeeRows()))
	l := &limitOp{child: child, limit: -1}
	out := drainAll(t, ctx, schema, l)
	if out.Count() != 4 {
		t.Fatalf("expected all 4 rows with unbounded limit, got %d", out.Count())
	}
}
