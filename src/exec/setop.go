package exec

import (
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
)

// setOpOp implements plan.SetOpNode (spec.md §4.4.11). UNION ALL streams
// both children as plain concatenation; UNION/INTERSECT/EXCEPT collect both
// children, build a set from the right side's rows keyed by a canonical
// rendering of the whole row tuple, then walk the left side applying
// membership semantics and return the deduplicated result as one chunk.
type setOpOp struct {
	left, right Iterator
	node        *plan.SetOpNode

	built bool
	state Iterator
}

func (s *setOpOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if s.node.Op == plan.UnionAll {
		return s.nextUnionAll(ctx)
	}
	if !s.built {
		it, err := s.buildSetState(ctx)
		if err != nil {
			return nil, err
		}
		s.state = it
		s.built = true
	}
	return s.state.Next(ctx)
}

func (s *setOpOp) nextUnionAll(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if s.left != nil {
		dc, err := s.left.Next(ctx)
		if err != nil {
			return nil, err
		}
		if dc != nil {
			return dc, nil
		}
		s.left = nil
	}
	return s.right.Next(ctx)
}

// buildSetState materializes the right side's row tuples into a seen set,
// then collects the left side and walks it once, filtering by Op's
// membership rule (UNION then appends the right rows not yet seen). The
// whole result is handed out as a single chunk.
func (s *setOpOp) buildSetState(ctx *execctx.Context) (Iterator, error) {
	rightSchema := s.node.Right.Schema()
	rightAll, err := Collect(ctx, rightSchema, s.right)
	if err != nil {
		return nil, err
	}
	rightSeen := make(map[string]struct{}, rightAll.Count())
	for r := 0; r < rightAll.Count(); r++ {
		rightSeen[rowKey(rightAll.Row(r))] = struct{}{}
	}

	leftSchema := s.node.Left.Schema()
	leftAll, err := Collect(ctx, leftSchema, s.left)
	if err != nil {
		return nil, err
	}

	out := chunk.New(s.node.OutSchema)
	leftSeen := make(map[string]struct{}, leftAll.Count())
	for r := 0; r < leftAll.Count(); r++ {
		row := leftAll.Row(r)
		key := rowKey(row)
		_, inRight := rightSeen[key]
		switch s.node.Op {
		case plan.UnionDistinct:
			if _, dup := leftSeen[key]; dup {
				continue
			}
			leftSeen[key] = struct{}{}
			out.AppendRow(row)
		case plan.Intersect:
			if !inRight {
				continue
			}
			if _, dup := leftSeen[key]; dup {
				continue
			}
			leftSeen[key] = struct{}{}
			out.AppendRow(row)
		case plan.Except:
			if inRight {
				continue
			}
			if _, dup := leftSeen[key]; dup {
				continue
			}
			leftSeen[key] = struct{}{}
			out.AppendRow(row)
		}
	}
	if s.node.Op == plan.UnionDistinct {
		for r := 0; r < rightAll.Count(); r++ {
			row := rightAll.Row(r)
			key := rowKey(row)
			if _, dup := leftSeen[key]; dup {
				continue
			}
			leftSeen[key] = struct{}{}
			out.AppendRow(row)
		}
	}

	done := false
	return IteratorFunc(func(ctx *execctx.Context) (*chunk.DataChunk, error) {
		if done {
			return nil, nil
		}
		done = true
		return out, nil
	}), nil
}

func rowKey(row []types.Value) string {
	s := ""
	for _, v := range row {
		if v.IsNull {
			s += "\x1f\x00"
			continue
		}
		s += "\x1f" + v.String()
	}
	return s
}
