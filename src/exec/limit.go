package exec

import (
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/vector"
)

// limitOp implements plan.LimitNode (spec.md §4.4.4): skips the first Offset
// rows, then emits the next Limit rows, stopping its child pull once Limit
// rows have been emitted. Limit without ORDER BY has unspecified selection
// in a parallel child, per spec.md §4.4.4 - this operator just takes
// whatever rows its child stream happens to yield first.
type limitOp struct {
	child  Iterator
	limit  int // -1 = unbounded
	offset int

	skipped int
	emitted int
	done    bool
}

func (l *limitOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if l.done || (l.limit >= 0 && l.emitted >= l.limit) {
		return nil, nil
	}
	for {
		dc, err := l.child.Next(ctx)
		if err != nil {
			return nil, err
		}
		if dc == nil {
			l.done = true
			return nil, nil
		}
		n := dc.Count()
		lo := 0
		if l.skipped < l.offset {
			skip := l.offset - l.skipped
			if skip >= n {
				l.skipped += n
				continue
			}
			lo = skip
			l.skipped += skip
		}
		hi := n
		if l.limit >= 0 {
			remaining := l.limit - l.emitted
			if hi-lo > remaining {
				hi = lo + remaining
			}
		}
		if lo >= hi {
			continue
		}
		var out *chunk.DataChunk
		if lo == 0 && hi == n {
			out = dc
		} else {
			idx := make([]int, 0, hi-lo)
			for r := lo; r < hi; r++ {
				idx = append(idx, r)
			}
			out = dc.Filter(vector.NewSelectionVector(idx))
		}
		l.emitted += out.Count()
		if l.limit >= 0 && l.emitted >= l.limit {
			l.done = true
		}
		return out, nil
	}
}
