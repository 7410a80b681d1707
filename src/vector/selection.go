package vector

import "github.com/kokes/vecdb/src/bitmap"

// SelectionVector is an ordered sequence of row indices into a parent
// vector/chunk (spec.md §3.3). It supports composition without
// materialization: sel_c = sel_a.Compose(sel_b) means sel_c[i] ==
// sel_a[sel_b[i]], letting a chain of filters narrow a vector further and
// further while only ever allocating one index slice per filter.
type SelectionVector struct {
	indices []int
}

func NewSelectionVector(indices []int) *SelectionVector {
	return &SelectionVector{indices: indices}
}

// FromBitmap builds a selection vector from every set bit in bm, ascending
// (see src/bitmap's Indices helper).
func FromBitmap(bm *bitmap.Bitmap) *SelectionVector {
	return &SelectionVector{indices: bm.Indices()}
}

// Range builds the identity selection over [0, n).
func Range(n int) *SelectionVector {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return &SelectionVector{indices: idx}
}

func (s *SelectionVector) Count() int { return len(s.indices) }
func (s *SelectionVector) At(i int) int { return s.indices[i] }
func (s *SelectionVector) Indices() []int { return s.indices }

// Compose returns sel_a.Compose(sel_b) such that result[i] == a[b[i]] - the
// law spec.md §3.3 names explicitly. `s` plays the role of sel_a here: each
// entry of `inner` is itself an index into `s`.
func (s *SelectionVector) Compose(inner *SelectionVector) *SelectionVector {
	out := make([]int, inner.Count())
	for i, idx := range inner.indices {
		out[i] = s.indices[idx]
	}
	return &SelectionVector{indices: out}
}
