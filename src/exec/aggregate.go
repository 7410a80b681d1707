package exec

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/hashtable"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
	"github.com/kokes/vecdb/src/vector"
)

// groupBucket is one distinct grouping key's running state: the key itself
// (for materialization) plus one expr.AggState per aggregate output.
type groupBucket struct {
	key    hashtable.Key
	states []*expr.AggState
}

// hashAggregateOp implements plan.HashAggregateNode's three phases (spec.md
// §4.4.6): thread-local pre-aggregation into a private map, a serial merge
// of the per-worker maps, then materializing one output row per distinct
// key. Grounded on query.go's aggregate() (hash-then-update-aggregator
// shape) generalized from the teacher's string/uint64 group-index round
// trip to hashtable.Key's typed composite key, per spec.md §9's explicit
// redesign recommendation (also DESIGN.md open-question-adjacent note).
type hashAggregateOp struct {
	child       Iterator
	node        *plan.HashAggregateNode
	aggregators []*expr.Aggregator

	// keyTypes is the canonical type each GROUP BY column's values are
	// coerced to before entering hashtable.Key - resolved once the child's
	// schema is known, mirroring hashJoinOp.keyTypes so a key built from one
	// chunk hashes/compares identically to one built from any other (spec.md
	// §4.3's "convert both sides to a canonical form before hashing" applies
	// just as much to the worker-local maps this op merges as it does to a
	// join's two input sides).
	keyTypes []types.LogicalType

	done   bool
	merged map[uint64][]*groupBucket // hash -> buckets sharing that hash (collision chain)
}

func newHashAggregate(node *plan.HashAggregateNode, child Iterator) (*hashAggregateOp, error) {
	// inputType is resolved lazily in resolveTypes once the first
	// chunk's schema is known (COUNT(*) never needs it).
	aggs := make([]*expr.Aggregator, len(node.Aggregates))
	for i, a := range node.Aggregates {
		name := a.Name
		if a.Arg == nil {
			name = "count_star"
		}
		agg, err := expr.NewAggregator(name, a.Distinct, types.LogicalType{})
		if err != nil {
			return nil, err
		}
		aggs[i] = agg
	}
	return &hashAggregateOp{child: child, node: node, aggregators: aggs}, nil
}

func (h *hashAggregateOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if h.done {
		return nil, nil
	}
	h.done = true
	if err := h.run(ctx); err != nil {
		return nil, err
	}
	return h.materialize(ctx)
}

// run drives the child to completion and folds its rows into h.merged.
// Under ctx.MorselConfig().Parallel it fans the pull/accumulate work out
// across a worker pool sized off cfg.NumWorkers (falling back to
// runtime.NumCPU, matching morsel.Config's own convention); under
// ModeStandard (spec.md §4.2's single-threaded execution mode) it runs
// runSequential instead, which spawns no goroutines at all.
func (h *hashAggregateOp) run(ctx *execctx.Context) error {
	cfg := ctx.MorselConfig()
	if !cfg.Parallel {
		return h.runSequential(ctx)
	}

	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	chunks := make(chan *chunk.DataChunk, numWorkers)

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		defer close(chunks)
		for {
			if err := gctx.Err(); err != nil {
				return err
			}
			dc, err := h.child.Next(ctx)
			if err != nil {
				return err
			}
			if dc == nil {
				return nil
			}
			chunks <- dc
		}
	})

	locals := make([]map[uint64][]*groupBucket, numWorkers)
	var typed bool
	var mu sync.Mutex

	for w := 0; w < numWorkers; w++ {
		w := w
		g.Go(func() error {
			local := make(map[uint64][]*groupBucket)
			locals[w] = local
			for dc := range chunks {
				mu.Lock()
				if !typed {
					if err := h.resolveTypes(dc.Schema); err != nil {
						mu.Unlock()
						return err
					}
					typed = true
				}
				mu.Unlock()
				if err := h.accumulate(ctx, dc, local); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	h.merged = make(map[uint64][]*groupBucket)
	for _, local := range locals {
		if local == nil {
			continue
		}
		h.mergeInto(local)
	}
	return nil
}

// runSequential accumulates the whole child stream into a single local map
// on the calling goroutine - no worker pool, no channel hand-off.
func (h *hashAggregateOp) runSequential(ctx *execctx.Context) error {
	local := make(map[uint64][]*groupBucket)
	typed := false
	for {
		dc, err := h.child.Next(ctx)
		if err != nil {
			return err
		}
		if dc == nil {
			break
		}
		if !typed {
			if err := h.resolveTypes(dc.Schema); err != nil {
				return err
			}
			typed = true
		}
		if err := h.accumulate(ctx, dc, local); err != nil {
			return err
		}
	}
	h.merged = local
	return nil
}

// resolveTypes is called once the child's first chunk schema is known: it
// re-resolves each aggregate's argument type (COUNT(*) has none) and, as the
// keyTypes field comment describes, the canonical type every GROUP BY key column's values get
// coerced to before entering a hashtable.Key - so a key built while
// accumulating one chunk hashes/compares identically to a key built from
// any other chunk sharing this op's child schema.
func (h *hashAggregateOp) resolveTypes(schema chunk.Schema) error {
	for i, a := range h.node.Aggregates {
		if a.Arg == nil {
			continue
		}
		t, err := a.Arg.ReturnType(schema)
		if err != nil {
			return err
		}
		agg, err := expr.NewAggregator(a.Name, a.Distinct, t)
		if err != nil {
			return err
		}
		h.aggregators[i] = agg
	}

	h.keyTypes = make([]types.LogicalType, len(h.node.GroupBy))
	for i, g := range h.node.GroupBy {
		t, err := g.ReturnType(schema)
		if err != nil {
			return execerr.Wrap(execerr.Type, err, "group by key %d", i)
		}
		h.keyTypes[i] = t
	}
	return nil
}

func (h *hashAggregateOp) accumulate(ctx *execctx.Context, dc *chunk.DataChunk, local map[uint64][]*groupBucket) error {
	groupVecs := make([]*vector.Vector, len(h.node.GroupBy))
	for i, g := range h.node.GroupBy {
		v, err := g.Evaluate(ctx, dc)
		if err != nil {
			return err
		}
		groupVecs[i] = v
	}
	argVecs := make([]*vector.Vector, len(h.node.Aggregates))
	for i, a := range h.node.Aggregates {
		if a.Arg == nil {
			continue
		}
		v, err := a.Arg.Evaluate(ctx, dc)
		if err != nil {
			return err
		}
		argVecs[i] = v
	}

	for r := 0; r < dc.Count(); r++ {
		key := make(hashtable.Key, len(groupVecs))
		for i, v := range groupVecs {
			cv, err := types.CoerceValue(v.GetValue(r), h.keyTypes[i])
			if err != nil {
				return execerr.Wrap(execerr.Type, err, "group by key %d", i)
			}
			key[i] = cv
		}
		hash := hashtable.HashKey(key)
		bucket := findBucket(local[hash], key)
		if bucket == nil {
			bucket = &groupBucket{key: key, states: make([]*expr.AggState, len(h.aggregators))}
			for i, agg := range h.aggregators {
				bucket.states[i] = agg.New()
			}
			local[hash] = append(local[hash], bucket)
		}
		for i, agg := range h.aggregators {
			var v types.Value
			if argVecs[i] != nil {
				v = argVecs[i].GetValue(r)
			}
			if err := agg.Update(bucket.states[i], v); err != nil {
				return err
			}
		}
	}
	return nil
}

func findBucket(buckets []*groupBucket, key hashtable.Key) *groupBucket {
	for _, b := range buckets {
		if keysEqual(b.key, key) {
			return b
		}
	}
	return nil
}

func keysEqual(a, b hashtable.Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].IsNull && b[i].IsNull {
			continue
		}
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (h *hashAggregateOp) mergeInto(local map[uint64][]*groupBucket) {
	for hash, buckets := range local {
		for _, b := range buckets {
			existing := findBucket(h.merged[hash], b.key)
			if existing == nil {
				h.merged[hash] = append(h.merged[hash], b)
				continue
			}
			for i, agg := range h.aggregators {
				agg.Merge(existing.states[i], b.states[i])
			}
		}
	}
}

// materialize emits one row per distinct key (spec.md §4.4.6 phase 3).
// Empty input with no GROUP BY emits a single row of each aggregate's
// initial/empty-group value; empty input with a GROUP BY emits no rows.
func (h *hashAggregateOp) materialize(ctx *execctx.Context) (*chunk.DataChunk, error) {
	out := chunk.New(h.node.OutSchema)
	if len(h.merged) == 0 {
		if len(h.node.GroupBy) > 0 {
			return out, nil
		}
		row := make([]types.Value, len(h.aggregators))
		for i, agg := range h.aggregators {
			v, err := agg.Finalize(agg.New())
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		out.AppendRow(row)
		return out, nil
	}
	for _, buckets := range h.merged {
		for _, b := range buckets {
			row := make([]types.Value, 0, len(b.key)+len(h.aggregators))
			row = append(row, b.key...)
			for i, agg := range h.aggregators {
				v, err := agg.Finalize(b.states[i])
				if err != nil {
					return nil, err
				}
				row = append(row, v)
			}
			out.AppendRow(row)
		}
	}
	ctx.Stats.RecordOperator()
	return out, nil
}
