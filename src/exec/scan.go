package exec

import (
	"context"

	"github.com/kokes/vecdb/src/catalog"
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/morsel"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/vector"
)

// tableScan implements plan.TableScanNode (spec.md §4.4.1): on first pull it
// fans the table's live row range out across morsels (spec.md §4.2 names
// scan as one of the parallel operators), each worker further slicing its
// morsel into chunk.StandardChunkSize batches and applying every pushed-down
// filter per batch, then Next drains the assembled result in original row
// order.
type tableScan struct {
	node  *plan.TableScanNode
	table catalog.TableData
	cap   int // row budget, -1 = unbounded

	built  bool
	chunks []*chunk.DataChunk
	idx    int
}

func newTableScan(ctx *execctx.Context, node *plan.TableScanNode) (*tableScan, error) {
	ref, err := ctx.Catalog.GetTable(node.TableSchema, node.TableName)
	if err != nil {
		return nil, execerr.Wrap(execerr.Catalog, err, "table scan: %s.%s", node.TableSchema, node.TableName)
	}
	rowCap := -1
	if node.RowCap > 0 {
		rowCap = node.RowCap
	}
	return &tableScan{node: node, table: ref.Data(), cap: rowCap}, nil
}

func (s *tableScan) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if !s.built {
		if err := s.build(ctx); err != nil {
			return nil, err
		}
		s.built = true
	}
	if s.idx >= len(s.chunks) {
		return nil, nil
	}
	dc := s.chunks[s.idx]
	s.idx++
	return dc, nil
}

// build scans the whole (possibly capped) row range up front, one morsel of
// work per goroutine under ctx.MorselConfig(), and buffers every non-empty
// filtered chunk for Next to hand out in order.
func (s *tableScan) build(ctx *execctx.Context) error {
	total := s.table.RowCount()
	if s.cap >= 0 && s.cap < total {
		total = s.cap
	}
	if total <= 0 {
		return nil
	}

	numMorsels := morsel.NewGenerator(total).NumMorsels()
	perMorsel := make([][]*chunk.DataChunk, numMorsels)

	err := morsel.Run(context.Background(), total, ctx.MorselConfig(), func(mctx context.Context, m morsel.Morsel) error {
		if err := ctx.CheckCancelled(mctx); err != nil {
			return err
		}
		var out []*chunk.DataChunk
		offset, remaining := m.Offset, m.Count
		for remaining > 0 {
			want := chunk.StandardChunkSize
			if want > remaining {
				want = remaining
			}
			dc, err := s.table.CreateChunk(offset, want)
			if err != nil {
				return execerr.Wrap(execerr.Execution, err, "table scan %s.%s", s.node.TableSchema, s.node.TableName)
			}
			if dc.Count() == 0 {
				break
			}
			offset += dc.Count()
			remaining -= dc.Count()
			ctx.Stats.AddRows(int64(dc.Count()))

			filtered, err := applyFilters(ctx, dc, s.node.Filters)
			if err != nil {
				return err
			}
			if filtered.Count() > 0 {
				out = append(out, filtered)
			}
		}
		perMorsel[m.ID] = out
		return nil
	})
	if err != nil {
		return err
	}

	for _, chunks := range perMorsel {
		s.chunks = append(s.chunks, chunks...)
	}
	ctx.Stats.RecordOperator()
	return nil
}

// applyFilters evaluates every pushed-down predicate against dc and returns
// the chunk sliced to the rows where all predicates are true.
func applyFilters(ctx *execctx.Context, dc *chunk.DataChunk, filters []expr.Expr) (*chunk.DataChunk, error) {
	if len(filters) == 0 {
		return dc, nil
	}
	idx := make([]int, 0, dc.Count())
	for r := 0; r < dc.Count(); r++ {
		idx = append(idx, r)
	}
	for _, f := range filters {
		vec, err := f.Evaluate(ctx, dc)
		if err != nil {
			return nil, err
		}
		kept := idx[:0]
		for _, r := range idx {
			v := vec.GetValue(r)
			if !v.IsNull && v.Bool() {
				kept = append(kept, r)
			}
		}
		idx = kept
	}
	if len(idx) == dc.Count() {
		return dc, nil
	}
	return dc.Filter(vector.NewSelectionVector(idx)), nil
}
