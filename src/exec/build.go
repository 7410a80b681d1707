package exec

import (
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/plan"
)

// Build turns a plan.Node into its executable Iterator, recursing into
// children first. This is the single place plan.Node concrete types are
// matched against their exec counterparts - every operator file in this
// package stays ignorant of how its children were built.
func Build(ctx *execctx.Context, node plan.Node) (Iterator, error) {
	switch n := node.(type) {
	case *materializedNode:
		return &materializedIter{data: n.data}, nil

	case *plan.TableScanNode:
		return newTableScan(ctx, n)

	case *plan.FilterNode:
		child, err := Build(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		return &filterOp{child: child, predicate: n.Predicate}, nil

	case *plan.QualifyNode:
		child, err := Build(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		return &filterOp{child: child, predicate: n.Predicate}, nil

	case *plan.ProjectionNode:
		child, err := Build(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		return &projectOp{child: child, exprs: n.Exprs, outSchema: n.OutSchema}, nil

	case *plan.LimitNode:
		child, err := Build(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		limit := n.Limit
		if limit < 0 {
			limit = -1
		}
		return &limitOp{child: child, limit: limit, offset: n.Offset}, nil

	case *plan.SortNode:
		child, err := Build(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		return &sortOp{child: child, childSchema: n.Child.Schema(), keys: n.Keys}, nil

	case *plan.HashAggregateNode:
		child, err := Build(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		return newHashAggregate(n, child)

	case *plan.HashJoinNode:
		left, err := Build(ctx, n.Left)
		if err != nil {
			return nil, err
		}
		right, err := Build(ctx, n.Right)
		if err != nil {
			return nil, err
		}
		return &hashJoinOp{left: left, right: right, node: n}, nil

	case *plan.InsertNode:
		child, err := Build(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		return &insertOp{child: child, node: n}, nil

	case *plan.UpdateNode:
		return &updateOp{node: n}, nil

	case *plan.DeleteNode:
		return &deleteOp{node: n}, nil

	case *plan.ValuesNode:
		return &valuesOp{node: n}, nil

	case *plan.PivotNode:
		child, err := Build(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		return &pivotOp{child: child, node: n}, nil

	case *plan.UnpivotNode:
		child, err := Build(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		return &unpivotOp{child: child, node: n}, nil

	case *plan.SetOpNode:
		left, err := Build(ctx, n.Left)
		if err != nil {
			return nil, err
		}
		right, err := Build(ctx, n.Right)
		if err != nil {
			return nil, err
		}
		return &setOpOp{left: left, right: right, node: n}, nil

	case *plan.RecursiveCTENode:
		return newRecursiveCTE(ctx, n)

	case *plan.WindowNode:
		child, err := Build(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		return &windowOp{child: child, childSchema: n.Child.Schema(), node: n}, nil
	}
	return nil, execerr.NotImplementedf("exec: no operator for plan node %T", node)
}
