package exec

import (
	"testing"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
)

func TestHashAggregateGroupsByDept(t *testing.T) {
	ctx := seedEmployees(t, nil)
	schema := employeesSchema()
	child := oneShotIterator(rowsToChunk(t, schema, sampleEmployeeRows()))

	node := &plan.HashAggregateNode{
		GroupBy:    []expr.Expr{expr.ColumnRef{Name: "dept"}},
		GroupNames: []string{"dept"},
		Aggregates: []plan.AggregateExpr{{Name: "sum", Arg: expr.ColumnRef{Name: "salary"}, Alias: "total"}},
		OutSchema: chunk.Schema{
			{Name: "dept", Type: types.TVarchar},
			{Name: "total", Type: types.TBigInt},
		},
	}
	agg, err := newHashAggregate(node, child)
	if err != nil {
		t.Fatal(err)
	}
	out := drainAll(t, ctx, node.OutSchema, agg)
	if out.Count() != 2 {
		t.Fatalf("expected 2 groups (eng, sales), got %d", out.Count())
	}
	totals := map[string]int64{}
	for r := 0; r < out.Count(); r++ {
		row := out.Row(r)
		totals[row[0].Text()] = row[1].Int64()
	}
	if totals["eng"] != 300 {
		t.Errorf("expected eng total 300, got %d", totals["eng"])
	}
	if totals["sales"] != 200 {
		t.Errorf("expected sales total 200, got %d", totals["sales"])
	}
}

// multiChunkIterator hands out each chunk in order, one per Next call, then
// signals end-of-stream - used to exercise hashAggregateOp.run's worker pool
// across more than one batch.
func multiChunkIterator(chunks []*chunk.DataChunk) Iterator {
	i := 0
	return IteratorFunc(func(ctx *execctx.Context) (*chunk.DataChunk, error) {
		if i >= len(chunks) {
			return nil, nil
		}
		dc := chunks[i]
		i++
		return dc, nil
	})
}

// TestHashAggregateParallelAcrossManyChunks feeds several batches through
// under ModeParallel with a bounded worker count, checking that run()'s
// fan-out (sized off ctx.MorselConfig(), not a hardcoded worker count) still
// merges every worker's partial groups correctly.
func TestHashAggregateParallelAcrossManyChunks(t *testing.T) {
	schema := employeesSchema()
	var chunks []*chunk.DataChunk
	depts := []string{"eng", "sales", "ops"}
	wantTotal := map[string]int64{}
	for c := 0; c < 20; c++ {
		var rows [][]types.Value
		for i := 0; i < 50; i++ {
			dept := depts[i%len(depts)]
			salary := int64(10 + i%7)
			rows = append(rows, []types.Value{types.NewInteger(int32(i)), types.NewVarchar(dept), types.NewBigInt(salary)})
			wantTotal[dept] += salary
		}
		chunks = append(chunks, rowsToChunk(t, schema, rows))
	}
	child := multiChunkIterator(chunks)

	node := &plan.HashAggregateNode{
		GroupBy:    []expr.Expr{expr.ColumnRef{Name: "dept"}},
		GroupNames: []string{"dept"},
		Aggregates: []plan.AggregateExpr{{Name: "sum", Arg: expr.ColumnRef{Name: "salary"}, Alias: "total"}},
		OutSchema: chunk.Schema{
			{Name: "dept", Type: types.TVarchar},
			{Name: "total", Type: types.TBigInt},
		},
	}
	agg, err := newHashAggregate(node, child)
	if err != nil {
		t.Fatal(err)
	}
	ctx := execctx.New(nil, execctx.ModeParallel, execctx.Limits{MaxThreads: 4})
	out := drainAll(t, ctx, node.OutSchema, agg)
	if out.Count() != len(depts) {
		t.Fatalf("expected %d groups, got %d", len(depts), out.Count())
	}
	for r := 0; r < out.Count(); r++ {
		row := out.Row(r)
		if row[1].Int64() != wantTotal[row[0].Text()] {
			t.Errorf("dept %s: expected total %d, got %d", row[0].Text(), wantTotal[row[0].Text()], row[1].Int64())
		}
	}
}

func TestHashAggregateEmptyInputNoGroupBy(t *testing.T) {
	ctx := seedEmployees(t, nil)
	schema := employeesSchema()
	child := oneShotIterator(chunk.New(schema))

	node := &plan.HashAggregateNode{
		Aggregates: []plan.AggregateExpr{{Name: "count"}},
		OutSchema:  chunk.Schema{{Name: "count_star", Type: types.TBigInt}},
	}
	agg, err := newHashAggregate(node, child)
	if err != nil {
		t.Fatal(err)
	}
	out := drainAll(t, ctx, node.OutSchema, agg)
	if out.Count() != 1 {
		t.Fatalf("expected one row for count() over empty input, got %d", out.Count())
	}
	if out.Row(0)[0].Int64() != 0 {
		t.Errorf("expected count 0, got %d", out.Row(0)[0].Int64())
	}
}
