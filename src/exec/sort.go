package exec

import (
	"container/heap"
	"context"
	"sort"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/morsel"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
	"github.com/kokes/vecdb/src/vector"
)

// sortOp implements plan.SortNode (spec.md §4.4.5): materializes the entire
// child stream, then sorts row indices by a composite comparator walking
// sort keys in order. Grounded on the teacher's Result.Less/Swap/Len
// (query/query.go, a multi-key sort.Interface over res.rowIdxs) - adapted
// here to sort.Slice (unstable, matching spec.md's "ties stay in arbitrary
// order") over a materialized index slice rather than mutating the chunk in
// place, and widened to honor per-key ascending/nulls-first independently
// instead of the teacher's single shared nullsfirst-per-query flag.
//
// Sort is one of spec.md §4.2's parallel operators: build sorts each
// morsel's share of the index slice concurrently (an independent in-place
// sort.Slice per disjoint range needs no locking), then merges the sorted
// runs back together with a k-way heap merge - the same
// divide-into-morsels/merge-the-runs shape original_source's parallel sort
// uses, minus its use of Rayon's par_sort internals.
type sortOp struct {
	child       Iterator
	childSchema chunk.Schema
	keys        []plan.SortKey

	built bool
	out   *chunk.DataChunk
	done  bool
}

func (s *sortOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if !s.built {
		if err := s.build(ctx); err != nil {
			return nil, err
		}
		s.built = true
	}
	if s.done {
		return nil, nil
	}
	s.done = true
	return s.out, nil
}

func (s *sortOp) build(ctx *execctx.Context) error {
	full, err := Collect(ctx, s.childSchema, s.child)
	if err != nil {
		return err
	}

	n := full.Count()
	keyVecs := make([]*vector.Vector, len(s.keys))
	for i, k := range s.keys {
		if _, ok := k.Expr.(expr.ColumnRef); !ok {
			return execerr.NotImplementedf("sort: only ColumnRef expressions are currently honored, got %v", k.Expr)
		}
		v, err := k.Expr.Evaluate(ctx, full)
		if err != nil {
			return err
		}
		keyVecs[i] = v
	}

	less := func(a, b int) bool { return lessByKeys(keyVecs, s.keys, a, b) }

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	if err := parallelSortIndices(context.Background(), idx, ctx.MorselConfig(), less); err != nil {
		return err
	}

	s.out = full.Filter(vector.NewSelectionVector(idx))
	return nil
}

// parallelSortIndices sorts idx in place by less, honoring cfg: each morsel
// of idx is sort.Slice'd independently (disjoint ranges of the same backing
// array, so no synchronization is needed between workers), then the sorted
// runs are merged back into idx's original order via a k-way heap merge.
// morsel.Run itself collapses to a single inline call covering the whole
// slice when cfg isn't parallel or idx is smaller than one morsel, so that
// case degenerates to a plain sort.Slice with no merge step required.
func parallelSortIndices(ctx context.Context, idx []int, cfg morsel.Config, less func(a, b int) bool) error {
	n := len(idx)
	if n == 0 {
		return nil
	}

	// runs must mirror exactly the morsel boundaries morsel.Run will actually
	// invoke fn on - which collapses to one morsel covering the whole range
	// whenever cfg isn't parallel or n fits in a single morsel, regardless of
	// how many morsels a plain Generator would otherwise cut n into.
	var runs []morsel.Morsel
	if !cfg.Parallel || n <= morsel.Size {
		runs = []morsel.Morsel{{Offset: 0, Count: n, ID: 0}}
	} else {
		runs = morsel.NewGenerator(n).All()
	}

	err := morsel.Run(ctx, n, cfg, func(_ context.Context, m morsel.Morsel) error {
		seg := idx[m.Offset : m.Offset+m.Count]
		sort.Slice(seg, func(i, j int) bool { return less(seg[i], seg[j]) })
		return nil
	})
	if err != nil {
		return err
	}

	merged := mergeSortedRuns(idx, runs, less)
	copy(idx, merged)
	return nil
}

// runCursor tracks one sorted run's next unconsumed position during a k-way
// merge.
type runCursor struct {
	pos int // current index into idx
	end int // one past the run's last index
}

// mergeHeap is a container/heap.Interface over the current head element of
// every still-live run, ordered by less applied to idx values.
type mergeHeap struct {
	idx     []int
	cursors []runCursor
	live    []int // indices into cursors that still have elements
	less    func(a, b int) bool
}

func (h *mergeHeap) Len() int { return len(h.live) }
func (h *mergeHeap) Less(i, j int) bool {
	return h.less(h.idx[h.cursors[h.live[i]].pos], h.idx[h.cursors[h.live[j]].pos])
}
func (h *mergeHeap) Swap(i, j int) { h.live[i], h.live[j] = h.live[j], h.live[i] }
func (h *mergeHeap) Push(x any)    { h.live = append(h.live, x.(int)) }
func (h *mergeHeap) Pop() any {
	old := h.live
	n := len(old)
	v := old[n-1]
	h.live = old[:n-1]
	return v
}

// mergeSortedRuns k-way merges the already-sorted runs (each a disjoint
// range of idx) into a single ordering, returning a freshly allocated slice
// the caller copies back over idx.
func mergeSortedRuns(idx []int, runs []morsel.Morsel, less func(a, b int) bool) []int {
	cursors := make([]runCursor, len(runs))
	for i, r := range runs {
		cursors[i] = runCursor{pos: r.Offset, end: r.Offset + r.Count}
	}

	h := &mergeHeap{idx: idx, cursors: cursors, less: less}
	for i, c := range cursors {
		if c.pos < c.end {
			h.live = append(h.live, i)
		}
	}
	heap.Init(h)

	out := make([]int, 0, len(idx))
	for h.Len() > 0 {
		top := h.live[0]
		out = append(out, idx[cursors[top].pos])
		cursors[top].pos++
		if cursors[top].pos < cursors[top].end {
			heap.Fix(h, 0)
		} else {
			heap.Pop(h)
		}
	}
	return out
}

func lessByKeys(vecs []*vector.Vector, keys []plan.SortKey, a, b int) bool {
	for i, k := range keys {
		va, vb := vecs[i].GetValue(a), vecs[i].GetValue(b)
		if va.IsNull && vb.IsNull {
			continue
		}
		if va.IsNull {
			return k.NullsFirst
		}
		if vb.IsNull {
			return !k.NullsFirst
		}
		cmp, err := compareForSort(va, vb)
		if err != nil || cmp == 0 {
			continue
		}
		if k.Ascending {
			return cmp < 0
		}
		return cmp > 0
	}
	return false
}

// compareForSort reuses the same natural ordering expr.compareValues
// applies to comparison operators and MIN/MAX, via expr.CompareValues, a
// small exported shim over that unexported helper, so this package calls a
// Cast-free comparison helper instead of duplicating per-type comparison
// logic.
func compareForSort(a, b types.Value) (int, error) {
	return expr.CompareValues(a, b)
}
