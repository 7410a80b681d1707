package exec

import (
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/hashtable"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
)

// pivotOp implements plan.PivotNode (spec.md §4.4.10): a hash-aggregate
// keyed on (group-key, pivot-key), where pivot-key values are restricted to
// an explicit discrete list; one output row per group-key, one column per
// (pivot-value × aggregate). Built on hashAggregateOp's grouping machinery
// by folding the pivot key into the grouping key, then un-pivoting the
// materialized groups into wide rows during Next.
type pivotOp struct {
	child Iterator
	node  *plan.PivotNode
	done  bool
}

// innerSchema resolves the (group-key ∥ pivot-key ∥ aggregates) schema
// HashAggregate needs to materialize its output rows, against the pivot's
// child schema.
func (p *pivotOp) innerSchema(groupBy []expr.Expr) (chunk.Schema, error) {
	childSchema := p.node.Child.Schema()
	schema := make(chunk.Schema, 0, len(groupBy)+len(p.node.Aggregates))
	for i, g := range groupBy {
		t, err := g.ReturnType(childSchema)
		if err != nil {
			return nil, err
		}
		name := "__pivot_key"
		if i < len(p.node.GroupNames) {
			name = p.node.GroupNames[i]
		}
		schema = append(schema, chunk.ColumnSchema{Name: name, Type: t})
	}
	for _, a := range p.node.Aggregates {
		var inputType types.LogicalType
		if a.Arg != nil {
			t, err := a.Arg.ReturnType(childSchema)
			if err != nil {
				return nil, err
			}
			inputType = t
		}
		name := a.Name
		if a.Arg == nil {
			name = "count_star"
		}
		agg, err := expr.NewAggregator(name, a.Distinct, inputType)
		if err != nil {
			return nil, err
		}
		schema = append(schema, chunk.ColumnSchema{Name: a.Alias, Type: agg.ReturnType()})
	}
	return schema, nil
}

func (p *pivotOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if p.done {
		return nil, nil
	}
	p.done = true

	innerGroupBy := append(append([]expr.Expr{}, p.node.GroupBy...), p.node.PivotKey)
	innerSchema, err := p.innerSchema(innerGroupBy)
	if err != nil {
		return nil, err
	}
	innerNode := &plan.HashAggregateNode{
		Child:      p.node.Child,
		GroupBy:    innerGroupBy,
		Aggregates: p.node.Aggregates,
		OutSchema:  innerSchema,
	}
	inner, err := newHashAggregate(innerNode, p.child)
	if err != nil {
		return nil, err
	}
	grouped, err := inner.Next(ctx)
	if err != nil {
		return nil, err
	}

	// groupKey(stringified) -> per-pivot-value aggregate results
	type groupRow struct {
		groupVals []types.Value
		cells     map[string][]types.Value // pivot value's String() -> aggregate outputs
	}
	groups := make(map[string]*groupRow)
	order := []string{}
	nGroup := len(p.node.GroupBy)
	nAgg := len(p.node.Aggregates)

	if grouped != nil {
		for r := 0; r < grouped.Count(); r++ {
			row := grouped.Row(r)
			groupVals := row[:nGroup]
			pivotVal := row[nGroup]
			aggVals := row[nGroup+1:]

			gkey := keyString(hashtable.Key(groupVals))
			g, ok := groups[gkey]
			if !ok {
				g = &groupRow{groupVals: groupVals, cells: make(map[string][]types.Value)}
				groups[gkey] = g
				order = append(order, gkey)
			}
			g.cells[pivotVal.String()] = aggVals
		}
	}

	out := chunk.New(p.node.OutSchema)
	for _, gkey := range order {
		g := groups[gkey]
		row := append([]types.Value{}, g.groupVals...)
		for _, pv := range p.node.PivotValues {
			cell, ok := g.cells[pv.String()]
			if !ok {
				for i := 0; i < nAgg; i++ {
					row = append(row, types.Value{IsNull: true})
				}
				continue
			}
			row = append(row, cell...)
		}
		out.AppendRow(row)
	}
	return out, nil
}

// unpivotOp implements plan.UnpivotNode (spec.md §4.4.10): for each input
// row, emits one output row per pivoted column, carrying the kept columns
// plus a (name, value) pair. With ExcludeNulls, rows whose value would be
// NULL are dropped.
type unpivotOp struct {
	child Iterator
	node  *plan.UnpivotNode
}

func (u *unpivotOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	dc, err := u.child.Next(ctx)
	if err != nil || dc == nil {
		return dc, err
	}
	out := chunk.New(u.node.OutSchema)
	for r := 0; r < dc.Count(); r++ {
		srcRow := dc.Row(r)
		keep := make([]types.Value, len(u.node.KeepCols))
		for i, name := range u.node.KeepCols {
			keep[i] = srcRow[dc.Schema.IndexOf(name)]
		}
		for _, colName := range u.node.PivotCols {
			val := srcRow[dc.Schema.IndexOf(colName)]
			if u.node.ExcludeNulls && val.IsNull {
				continue
			}
			row := append(append([]types.Value{}, keep...), types.NewVarchar(colName), val)
			out.AppendRow(row)
		}
	}
	return out, nil
}

// keyString gives hashtable.Key a stable textual form for use as a map key
// inside pivotOp, reusing the same per-value canonicalization HashKey feeds
// into FNV rather than inventing a second encoding.
func keyString(k hashtable.Key) string {
	s := ""
	for _, v := range k {
		if v.IsNull {
			s += "\x00\x01"
			continue
		}
		s += "\x00" + v.String()
	}
	return s
}
