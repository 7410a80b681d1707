package exec

import (
	"context"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/hashtable"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
	"github.com/kokes/vecdb/src/vector"
)

// hashJoinOp implements plan.HashJoinNode (spec.md §4.4.7): the right
// (build) side is consumed entirely into a hashtable.Table keyed on its
// join-key expressions, then the left (probe) side streams through,
// producing matching joined rows per join type. Grounded on
// original_source/src/execution/hash_table.rs's build-then-probe protocol;
// src/hashtable.Table supplies the partitioned build/probe/matched-bitmap
// machinery this operator drives.
type hashJoinOp struct {
	left, right Iterator
	node        *plan.HashJoinNode

	built      bool
	table      *hashtable.Table
	rightWidth int
	leftWidth  int

	// keyTypes is the per-key-column canonical type both sides' join keys
	// are coerced to before entering the hash table - resolved once at
	// build time so an INTEGER column probing a BIGINT build side (or vice
	// versa) hashes and compares equal, matching what `=` itself would say
	// (spec.md §4.3's "convert both sides to a canonical form before
	// hashing").
	keyTypes []types.LogicalType

	// secondPass state for Right/Full: emit build-side rows never matched.
	secondPassDone bool
	pendingRows    [][]types.Value
}

func (j *hashJoinOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if !j.built {
		if err := j.build(ctx); err != nil {
			return nil, err
		}
		j.built = true
	}
	for {
		if len(j.pendingRows) > 0 {
			return j.drainPending(), nil
		}
		if j.secondPassDone {
			return nil, nil
		}
		dc, err := j.left.Next(ctx)
		if err != nil {
			return nil, err
		}
		if dc == nil {
			if j.node.Type == plan.RightJoin || j.node.Type == plan.FullJoin {
				j.collectUnmatched()
			}
			j.secondPassDone = true
			continue
		}
		out, err := j.probeChunk(ctx, dc)
		if err != nil {
			return nil, err
		}
		if out.Count() == 0 {
			continue
		}
		return out, nil
	}
}

// build materializes the entire right (build) side, evaluates every join
// key expression once over the whole batch (vectorized, rather than once
// per row), coerces each row's key to its canonical type, then fans the
// insert out across morsels via hashtable.BuildParallel - spec.md §4.2 names
// HashJoin's build phase as one of the parallel operators, and
// hashtable.BuildParallel already implements the "local buffer per morsel,
// merge under partition lock" discipline this needs.
func (j *hashJoinOp) build(ctx *execctx.Context) error {
	j.table = hashtable.New()
	rightSchema := j.rightSchema()
	j.rightWidth = len(rightSchema)
	j.leftWidth = len(j.node.OutSchema) - j.rightWidth

	if err := j.resolveKeyTypes(); err != nil {
		return err
	}

	full, err := Collect(ctx, rightSchema, j.right)
	if err != nil {
		return err
	}
	if err := ctx.CheckCancelled(context.Background()); err != nil {
		return err
	}

	keyVecs := make([]*vector.Vector, len(j.node.RightKeys))
	for i, k := range j.node.RightKeys {
		v, err := k.Evaluate(ctx, full)
		if err != nil {
			return err
		}
		keyVecs[i] = v
	}

	n := full.Count()
	rows := make([][]types.Value, n)
	keys := make([]hashtable.Key, n)
	for r := 0; r < n; r++ {
		rows[r] = full.Row(r)
		key, err := j.canonicalKey(keyVecs, r)
		if err != nil {
			return err
		}
		keys[r] = key
	}

	return hashtable.BuildParallel(context.Background(), j.table, rows, ctx.MorselConfig(), func(idx int, row []types.Value) hashtable.Key {
		return keys[idx]
	})
}

// resolveKeyTypes computes, per key-column position, the narrowest type both
// the left and right key expressions' declared types can be widened to -
// the canonical form every key value is coerced into before it ever reaches
// hashtable.HashKey/keysEqual, which compare Values as-is and have no
// widening logic of their own.
func (j *hashJoinOp) resolveKeyTypes() error {
	leftSchema := j.node.Left.Schema()
	rightSchema := j.node.Right.Schema()
	j.keyTypes = make([]types.LogicalType, len(j.node.RightKeys))
	for i := range j.node.RightKeys {
		rt, err := j.node.RightKeys[i].ReturnType(rightSchema)
		if err != nil {
			return err
		}
		lt, err := j.node.LeftKeys[i].ReturnType(leftSchema)
		if err != nil {
			return err
		}
		common, err := canonicalKeyType(lt, rt)
		if err != nil {
			return execerr.Wrap(execerr.Type, err, "hash join key %d", i)
		}
		j.keyTypes[i] = common
	}
	return nil
}

// canonicalKey reads row r out of vecs and coerces each value to its
// resolved canonical type, producing a hashtable.Key that hashes/compares
// consistently regardless of which side (build or probe) it came from.
func (j *hashJoinOp) canonicalKey(vecs []*vector.Vector, r int) (hashtable.Key, error) {
	key := make(hashtable.Key, len(vecs))
	for i, v := range vecs {
		cv, err := types.CoerceValue(v.GetValue(r), j.keyTypes[i])
		if err != nil {
			return nil, execerr.Wrap(execerr.Type, err, "hash join key %d", i)
		}
		key[i] = cv
	}
	return key, nil
}

// canonicalKeyType resolves the widest type two join-key columns must both
// be coerced to before entering the hash table, mirroring the widening
// expr/ops.go's evalComparison applies to `=` so HashJoin matches exactly
// the rows the comparison operator would.
func canonicalKeyType(a, b types.LogicalType) (types.LogicalType, error) {
	if a.Equal(b) {
		return a, nil
	}
	if a.ID == types.Null {
		return b, nil
	}
	if b.ID == types.Null {
		return a, nil
	}
	if a.IsNumeric() && b.IsNumeric() {
		return types.CommonNumericType(a, b)
	}
	if types.CanImplicitlyCast(a, b) {
		return b, nil
	}
	if types.CanImplicitlyCast(b, a) {
		return a, nil
	}
	return types.LogicalType{}, execerr.InvalidTypef("cannot reconcile join key types %s and %s", a, b)
}

// rightSchema returns the build (right) side's schema, taken directly from
// the right child's own declared Schema() - HashJoinNode.OutSchema is
// left ∥ right, and the right child's Schema() is authoritative for width.
func (j *hashJoinOp) rightSchema() chunk.Schema {
	return j.node.Right.Schema()
}

func (j *hashJoinOp) probeChunk(ctx *execctx.Context, dc *chunk.DataChunk) (*chunk.DataChunk, error) {
	keyVecs := make([]*vector.Vector, len(j.node.LeftKeys))
	for i, k := range j.node.LeftKeys {
		v, err := k.Evaluate(ctx, dc)
		if err != nil {
			return nil, err
		}
		keyVecs[i] = v
	}

	out := chunk.New(j.node.OutSchema)
	for r := 0; r < dc.Count(); r++ {
		key, err := j.canonicalKey(keyVecs, r)
		if err != nil {
			return nil, err
		}
		leftRow := dc.Row(r)
		res, found := j.table.Probe(key)

		switch j.node.Type {
		case plan.InnerJoin, plan.LeftJoin, plan.RightJoin, plan.FullJoin:
			if !found {
				if j.node.Type == plan.LeftJoin || j.node.Type == plan.FullJoin {
					out.AppendRow(padRow(leftRow, j.rightWidth))
				}
				continue
			}
			j.table.MarkMatched(res.IDs)
			for _, rightRow := range res.Rows {
				if err := j.emitResidual(ctx, out, leftRow, rightRow); err != nil {
					return nil, err
				}
			}
		case plan.SemiJoin:
			if found {
				j.table.MarkMatched(res.IDs)
				out.AppendRow(leftRow)
			}
		case plan.AntiJoin:
			if !found {
				out.AppendRow(leftRow)
			}
		}
	}
	return out, nil
}

// emitResidual applies the optional residual predicate (evaluated against a
// single joined row via a throwaway one-row chunk) before appending.
func (j *hashJoinOp) emitResidual(ctx *execctx.Context, out *chunk.DataChunk, left, right []types.Value) error {
	row := append(append([]types.Value{}, left...), right...)
	if j.node.Residual == nil {
		out.AppendRow(row)
		return nil
	}
	probe := chunk.New(j.node.OutSchema)
	probe.AppendRow(row)
	v, err := j.node.Residual.Evaluate(ctx, probe)
	if err != nil {
		return err
	}
	pass := v.GetValue(0)
	if !pass.IsNull && pass.Bool() {
		out.AppendRow(row)
	}
	return nil
}

func padRow(left []types.Value, rightWidth int) []types.Value {
	row := append([]types.Value{}, left...)
	for i := 0; i < rightWidth; i++ {
		row = append(row, types.Value{IsNull: true})
	}
	return row
}

// collectUnmatched scans the build side for rows never probed, emitting
// them with left columns NULL (Right/Full-outer join's required second
// pass, spec.md §4.4.7).
func (j *hashJoinOp) collectUnmatched() {
	leftWidth := j.leftWidth
	j.table.AllEntries(func(key hashtable.Key, rows [][]types.Value, ids []uint64) {
		for i, id := range ids {
			if j.table.Matched.Contains(uint32(id)) {
				continue
			}
			row := make([]types.Value, 0, leftWidth+len(rows[i]))
			for k := 0; k < leftWidth; k++ {
				row = append(row, types.Value{IsNull: true})
			}
			row = append(row, rows[i]...)
			j.pendingRows = append(j.pendingRows, row)
		}
	})
}

func (j *hashJoinOp) drainPending() *chunk.DataChunk {
	n := len(j.pendingRows)
	if n > chunk.StandardChunkSize {
		n = chunk.StandardChunkSize
	}
	out := chunk.New(j.node.OutSchema)
	for _, row := range j.pendingRows[:n] {
		out.AppendRow(row)
	}
	j.pendingRows = j.pendingRows[n:]
	return out
}
