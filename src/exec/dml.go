package exec

import (
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
)

func affectedRowsChunk(n int64) *chunk.DataChunk {
	out := chunk.New(chunk.Schema{{Name: "rows_affected", Type: types.TBigInt}})
	out.AppendRow([]types.Value{types.NewBigInt(n)})
	return out
}

// insertOp implements plan.InsertNode (spec.md §4.4.8): runs its child plan
// to completion, forwarding every row into the target table, then emits a
// single-row affected-count chunk.
type insertOp struct {
	child Iterator
	node  *plan.InsertNode
	done  bool
}

func (o *insertOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if o.done {
		return nil, nil
	}
	o.done = true
	ref, err := ctx.Catalog.GetTable(o.node.TableSchema, o.node.TableName)
	if err != nil {
		return nil, execerr.Wrap(execerr.Catalog, err, "insert into %s.%s", o.node.TableSchema, o.node.TableName)
	}
	table := ref.Data()
	var n int64
	for {
		dc, err := o.child.Next(ctx)
		if err != nil {
			return nil, err
		}
		if dc == nil {
			break
		}
		for r := 0; r < dc.Count(); r++ {
			if err := table.InsertRow(dc.Row(r)); err != nil {
				return nil, execerr.Wrap(execerr.Execution, err, "insert row")
			}
			n++
		}
	}
	ctx.Stats.AddRows(n)
	return affectedRowsChunk(n), nil
}

// updateOp implements plan.UpdateNode (spec.md §4.4.8): scans the table
// including tombstoned rows (CreateChunkUnfiltered), rewriting every row
// matching Predicate with Assignments evaluated against the current row.
// Tombstoned rows are not skipped: a matching one is rewritten and counted
// like any other.
type updateOp struct {
	node *plan.UpdateNode
	done bool
}

func (o *updateOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if o.done {
		return nil, nil
	}
	o.done = true
	ref, err := ctx.Catalog.GetTable(o.node.TableSchema, o.node.TableName)
	if err != nil {
		return nil, execerr.Wrap(execerr.Catalog, err, "update %s.%s", o.node.TableSchema, o.node.TableName)
	}
	table := ref.Data()
	schema := ref.Schema()
	var n int64
	offset := 0
	for {
		dc, err := table.CreateChunkUnfiltered(offset, chunk.StandardChunkSize)
		if err != nil {
			return nil, err
		}
		if dc.Count() == 0 {
			break
		}
		for r := 0; r < dc.Count(); r++ {
			physicalRow := offset + r
			if o.node.Predicate != nil {
				pass, err := evalRowPredicate(ctx, schema, o.node.Predicate, dc.Row(r))
				if err != nil {
					return nil, err
				}
				if !pass {
					continue
				}
			}
			row := dc.Row(r)
			newRow := make([]types.Value, len(row))
			copy(newRow, row)
			rowChunk := chunk.New(schema)
			rowChunk.AppendRow(row)
			for name, assign := range o.node.Assignments {
				idx := schema.IndexOf(name)
				if idx < 0 {
					return nil, execerr.InvalidArgumentf("update: unknown column %q", name)
				}
				v, err := assign.Evaluate(ctx, rowChunk)
				if err != nil {
					return nil, err
				}
				newRow[idx] = v.GetValue(0)
			}
			if err := table.UpdateRow(physicalRow, newRow); err != nil {
				return nil, execerr.Wrap(execerr.Execution, err, "update row %d", physicalRow)
			}
			n++
		}
		offset += dc.Count()
	}
	return affectedRowsChunk(n), nil
}

// deleteOp implements plan.DeleteNode (spec.md §4.4.8): scans the table
// including tombstoned rows (CreateChunkUnfiltered) and tombstones every row
// matching Predicate; an already-tombstoned row that matches is tombstoned
// again and counted. Tombstones are never compacted in place
// (DESIGN.md open-question decision).
type deleteOp struct {
	node *plan.DeleteNode
	done bool
}

func (o *deleteOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if o.done {
		return nil, nil
	}
	o.done = true
	ref, err := ctx.Catalog.GetTable(o.node.TableSchema, o.node.TableName)
	if err != nil {
		return nil, execerr.Wrap(execerr.Catalog, err, "delete from %s.%s", o.node.TableSchema, o.node.TableName)
	}
	table := ref.Data()
	schema := ref.Schema()
	var n int64
	offset := 0
	for {
		dc, err := table.CreateChunkUnfiltered(offset, chunk.StandardChunkSize)
		if err != nil {
			return nil, err
		}
		if dc.Count() == 0 {
			break
		}
		for r := 0; r < dc.Count(); r++ {
			physicalRow := offset + r
			pass := true
			if o.node.Predicate != nil {
				pass, err = evalRowPredicate(ctx, schema, o.node.Predicate, dc.Row(r))
				if err != nil {
					return nil, err
				}
			}
			if !pass {
				continue
			}
			if err := table.DeleteRow(physicalRow); err != nil {
				return nil, execerr.Wrap(execerr.Execution, err, "delete row %d", physicalRow)
			}
			n++
		}
		offset += dc.Count()
	}
	return affectedRowsChunk(n), nil
}

func evalRowPredicate(ctx *execctx.Context, schema chunk.Schema, pred expr.Expr, row []types.Value) (bool, error) {
	rowChunk := chunk.New(schema)
	rowChunk.AppendRow(row)
	v, err := pred.Evaluate(ctx, rowChunk)
	if err != nil {
		return false, err
	}
	val := v.GetValue(0)
	return !val.IsNull && val.Bool(), nil
}
