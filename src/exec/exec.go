// Package exec runs a plan.Node tree against an execctx.Context, producing
// a stream of chunk.DataChunk values (spec.md §4.4, §6.2). Grounded on
// query/query.go's stripe-loop shape (filter -> project -> limit ordering,
// sort via sort.Interface, group-by via a hash of stringified keys)
// generalized from single-threaded stripe iteration to the morsel-dispatched
// parallel execution spec.md §4.2 requires, and on
// original_source/src/execution/operators.rs + parallel_operators.rs for the
// operator semantics spec.md leaves underspecified (full-outer join,
// pivot/unpivot, recursive CTE fixpoint).
package exec

import (
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
)

// Iterator is a pull-based stream of chunks, the contract every operator in
// this package implements. Next returns (nil, nil) once the stream is
// exhausted - there is no separate "has more" call, matching the
// single-method pull shape of the teacher's own stripe iteration
// (query.Run's `for _, stripe := range ds.Stripes`) lifted to an interface
// so operators can be composed without the caller knowing how many chunks
// (or rows) a child will ultimately produce.
type Iterator interface {
	Next(ctx *execctx.Context) (*chunk.DataChunk, error)
}

// IteratorFunc adapts a plain function to an Iterator.
type IteratorFunc func(ctx *execctx.Context) (*chunk.DataChunk, error)

func (f IteratorFunc) Next(ctx *execctx.Context) (*chunk.DataChunk, error) { return f(ctx) }

// Collect drains it entirely into a single chunk sharing its source schema.
// Used by Sort, HashJoin's build side, set operators, and as the
// materialize-once mechanism expr.Subquery.Run is expected to provide.
func Collect(ctx *execctx.Context, schema chunk.Schema, it Iterator) (*chunk.DataChunk, error) {
	out := chunk.New(schema)
	for {
		c, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return out, nil
		}
		if err := out.Append(c); err != nil {
			return nil, err
		}
	}
}

// CollectedResult materializes an entire query's output (spec.md §6.2).
type CollectedResult struct {
	Schema chunk.Schema
	Rows   [][]interface{}
	Stats  execctx.Stats
}

// CollectAll drains it, flattening every chunk's rows into CollectedResult
// and snapshotting ctx.Stats.
func CollectAll(ctx *execctx.Context, schema chunk.Schema, it Iterator) (*CollectedResult, error) {
	res := &CollectedResult{Schema: schema}
	for {
		c, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if c == nil {
			break
		}
		for r := 0; r < c.Count(); r++ {
			row := c.Row(r)
			out := make([]interface{}, len(row))
			for i, v := range row {
				if v.IsNull {
					out[i] = nil
				} else {
					out[i] = v
				}
			}
			res.Rows = append(res.Rows, out)
		}
	}
	stats := ctx.Stats.Snapshot()
	res.Stats = stats
	return res, nil
}
