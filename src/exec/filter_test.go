package exec

import (
	"testing"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/types"
)

func rowsToChunk(t *testing.T, schema chunk.Schema, rows [][]types.Value) *chunk.DataChunk {
	t.Helper()
	c := chunk.New(schema)
	for _, r := range rows {
		c.AppendRow(r)
	}
	return c
}

func oneShotIterator(dc *chunk.DataChunk) Iterator {
	done := false
	return IteratorFunc(func(ctx *execctx.Context) (*chunk.DataChunk, error) {
		if done {
			return nil, nil
		}
		done = true
		return dc, nil
	})
}

func TestFilterKeepsMatchingRows(t *testing.T) {
	ctx := seedEmployees(t, nil)
	schema := employeesSchema()
	child := oneShotIterator(rowsToChunk(t, schema, sampleEmployeeRows()))
	pred := expr.BinaryOp{Op: expr.OpGt, Left: expr.ColumnRef{Name: "salary"}, Right: expr.Constant{Value: types.NewBigInt(100)}}
	f := &filterOp{child: child, predicate: pred}
	out := drainAll(t, ctx, schema, f)
	if out.Count() != 2 {
		t.Fatalf("expected 2 rows with salary > 100, got %d", out.Count())
	}
}

func TestFilterTreatsNullAsFalse(t *testing.T) {
	ctx := seedEmployees(t, nil)
	schema := employeesSchema()
	rows := [][]types.Value{
		{types.NewInteger(1), types.NewVarchar("eng"), types.NewNull(types.TBigInt)},
	}
	child := oneShotIterator(rowsToChunk(t, schema, rows))
	pred := expr.BinaryOp{Op: expr.OpGt, Left: expr.ColumnRef{Name: "salary"}, Right: expr.Constant{Value: types.NewBigInt(0)}}
	f := &filterOp{child: child, predicate: pred}
	out := drainAll(t, ctx, schema, f)
	if out.Count() != 0 {
		t.Fatalf("expected NULL comparison to exclude the row, got %d rows", out.Count())
	}
}
