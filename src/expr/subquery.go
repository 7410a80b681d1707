package expr

import (
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/types"
	"github.com/kokes/vecdb/src/vector"
)

// SubqueryKind selects how a Subquery expression's inner result collapses
// to a value (spec.md §4.1).
type SubqueryKind int

const (
	SubqueryScalar SubqueryKind = iota
	SubqueryExists
	SubqueryIn
)

// Subquery yields a scalar, or a boolean for EXISTS/IN, per outer row. Run
// executes the inner plan and is supplied by the caller (the planner/exec
// layer, which owns plan.Node execution) rather than an import of src/plan
// or src/exec here - src/exec's operators import src/expr, so a Subquery
// that imported them back would cycle. Uncorrelated subqueries materialize
// their inner result exactly once per Evaluate call and reuse it across
// every row of the chunk (spec.md §4.1's "materialize the inner result once
// if the subquery is uncorrelated").
type Subquery struct {
	Kind       SubqueryKind
	Correlated bool
	Run        func(ctx *execctx.Context) (*chunk.DataChunk, error)
	ResultType types.LogicalType // SubqueryScalar's output type
	Probe      Expr              // SubqueryIn: outer expression compared against the inner result's first column
}

func (s Subquery) String() string {
	switch s.Kind {
	case SubqueryExists:
		return "EXISTS(...)"
	case SubqueryIn:
		return "(... IN (...))"
	default:
		return "(...)"
	}
}

func (s Subquery) ReturnType(chunk.Schema) (types.LogicalType, error) {
	switch s.Kind {
	case SubqueryExists, SubqueryIn:
		return types.TBoolean, nil
	default:
		return s.ResultType, nil
	}
}

// Correlated subqueries are deferred (DESIGN.md open-question decision #1):
// re-executing the inner plan per outer row, with outer column values bound
// into its parameters, needs a plan-rewriting facility this package
// deliberately doesn't have.
func (s Subquery) Evaluate(ctx *execctx.Context, c *chunk.DataChunk) (*vector.Vector, error) {
	if s.Correlated {
		return nil, execerr.NotImplementedf("correlated subqueries are not supported")
	}
	if s.Run == nil {
		return nil, execerr.InvalidArgumentf("subquery has no executor bound")
	}
	inner, err := s.Run(ctx)
	if err != nil {
		return nil, err
	}

	n := c.Count()
	switch s.Kind {
	case SubqueryScalar:
		var scalar types.Value
		switch inner.Count() {
		case 0:
			scalar = types.NewNull(s.ResultType)
		case 1:
			scalar = inner.Row(0)[0]
		default:
			return nil, execerr.Executionf("scalar subquery returned more than one row")
		}
		out := vector.New(s.ResultType, n)
		for i := 0; i < n; i++ {
			out.Append(scalar)
		}
		return out, nil

	case SubqueryExists:
		out := vector.New(types.TBoolean, n)
		for i := 0; i < n; i++ {
			out.Append(types.NewBool(inner.Count() > 0))
		}
		return out, nil

	case SubqueryIn:
		probeVec, err := s.Probe.Evaluate(ctx, c)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{}, inner.Count())
		for i := 0; i < inner.Count(); i++ {
			seen[inner.Row(i)[0].String()] = struct{}{}
		}
		out := vector.New(types.TBoolean, n)
		for i := 0; i < n; i++ {
			v := probeVec.GetValue(i)
			if v.IsNull {
				out.Append(types.NewNull(types.TBoolean))
				continue
			}
			_, ok := seen[v.String()]
			out.Append(types.NewBool(ok))
		}
		return out, nil
	}
	return nil, execerr.InvalidArgumentf("unknown subquery kind")
}
