package exec

import (
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/plan"
)

const defaultMaxRecursiveIterations = 100

// materializedNode wraps an already-computed chunk so it can be handed back
// into plan.RecursiveCTENode.Recursive as the previous round's working set
// and re-enter Build like any other plan.Node, without inventing a second
// execution path just for recursion.
type materializedNode struct {
	schema chunk.Schema
	data   *chunk.DataChunk
}

func (m *materializedNode) Schema() chunk.Schema { return m.schema }
func (m *materializedNode) String() string       { return "Materialized" }

type materializedIter struct {
	data *chunk.DataChunk
	done bool
}

func (m *materializedIter) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if m.done {
		return nil, nil
	}
	m.done = true
	return m.data, nil
}

// recursiveCTEOp implements plan.RecursiveCTENode (spec.md §4.4.12) as a
// semi-naive fixpoint: Base seeds the working set, then each round runs
// Recursive against only the PREVIOUS round's new rows (not the whole
// accumulated set), keeping only rows never seen before, until a round adds
// nothing new or MaxIterations is reached.
type recursiveCTEOp struct {
	node *plan.RecursiveCTENode
	out  *chunk.DataChunk
	done bool
}

func newRecursiveCTE(ctx *execctx.Context, node *plan.RecursiveCTENode) (*recursiveCTEOp, error) {
	maxIter := node.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxRecursiveIterations
	}

	baseIter, err := Build(ctx, node.Base)
	if err != nil {
		return nil, err
	}
	baseSchema := node.Base.Schema()
	delta, err := Collect(ctx, baseSchema, baseIter)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	all := chunk.New(node.OutSchema)
	for r := 0; r < delta.Count(); r++ {
		row := delta.Row(r)
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		all.AppendRow(row)
	}

	for iter := 0; delta.Count() > 0 && iter < maxIter; iter++ {
		deltaNode := &materializedNode{schema: baseSchema, data: delta}
		nextPlanNode := node.Recursive(deltaNode)

		nextIter, err := Build(ctx, nextPlanNode)
		if err != nil {
			return nil, err
		}
		nextChunk, err := Collect(ctx, nextPlanNode.Schema(), nextIter)
		if err != nil {
			return nil, err
		}

		newRows := chunk.New(nextPlanNode.Schema())
		for r := 0; r < nextChunk.Count(); r++ {
			row := nextChunk.Row(r)
			key := rowKey(row)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			newRows.AppendRow(row)
			all.AppendRow(row)
		}
		delta = newRows
	}

	// The loop only exits early (delta.Count() == 0) on genuine convergence.
	// Reaching maxIter with rows still pending means the recursion hasn't
	// settled - spec.md §4.4.12 calls for failing rather than silently
	// returning a truncated result in that case.
	if delta.Count() > 0 {
		return nil, execerr.Executionf("recursive CTE %q did not converge within %d iterations", node.Name, maxIter)
	}

	return &recursiveCTEOp{node: node, out: all}, nil
}

func (r *recursiveCTEOp) Next(ctx *execctx.Context) (*chunk.DataChunk, error) {
	if r.done {
		return nil, nil
	}
	r.done = true
	return r.out, nil
}
