// Package plan defines the physical plan tree the execution core consumes
// (spec.md §6.1): a sum type with one variant per operator in spec.md §4.4,
// each carrying its child plan(s), an output schema, and operator-specific
// expressions/parameters. There is no SQL text or AST here - plan.Node
// values are built directly by a caller (a planner, a test, or
// cmd/enginectl's hard-coded demo plan), the same way the teacher's
// query.Query struct (query/expr/types.go) is built without ever owning a
// parser of its own.
//
// Node is modeled as an interface with one concrete type per operator,
// mirroring src/expr's Expr variant dispatch, rather than a single struct
// with a Kind tag and a grab-bag of optional fields - each operator's
// parameters are only ever valid in combination with that operator, so a
// tagged union of structs keeps invalid combinations unrepresentable.
package plan

import (
	"fmt"
	"strings"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/types"
)

// Node is one physical plan operator.
type Node interface {
	// Schema is this node's output schema: an ordered (name, LogicalType)
	// list, per spec.md §6.1.
	Schema() chunk.Schema
	String() string
}

// JoinType enumerates spec.md §4.4.7's six join semantics.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
	SemiJoin
	AntiJoin
)

func (j JoinType) String() string {
	switch j {
	case InnerJoin:
		return "INNER"
	case LeftJoin:
		return "LEFT"
	case RightJoin:
		return "RIGHT"
	case FullJoin:
		return "FULL"
	case SemiJoin:
		return "SEMI"
	case AntiJoin:
		return "ANTI"
	default:
		return "UNKNOWN"
	}
}

// SetOpKind enumerates spec.md §4.4.11's set operators.
type SetOpKind int

const (
	UnionAll SetOpKind = iota
	UnionDistinct
	Intersect
	Except
)

func (k SetOpKind) String() string {
	switch k {
	case UnionAll:
		return "UNION ALL"
	case UnionDistinct:
		return "UNION"
	case Intersect:
		return "INTERSECT"
	case Except:
		return "EXCEPT"
	default:
		return "UNKNOWN"
	}
}

// SortKey is one `(expression, ascending, nulls-first)` term of an ORDER BY
// list (spec.md §4.4.5). Only ColumnRef expressions are currently honored by
// the Sort operator; richer expressions require a preceding Projection.
type SortKey struct {
	Expr       expr.Expr
	Ascending  bool
	NullsFirst bool
}

// AggregateExpr is one aggregate output column of a HashAggregate or Pivot
// node: `name(arg) AS alias`. Arg is nil for COUNT(*).
type AggregateExpr struct {
	Name     string
	Arg      expr.Expr
	Distinct bool
	Alias    string
}

func (a AggregateExpr) String() string {
	arg := "*"
	if a.Arg != nil {
		arg = a.Arg.String()
	}
	distinct := ""
	if a.Distinct {
		distinct = "DISTINCT "
	}
	return fmt.Sprintf("%s(%s%s) AS %s", strings.ToUpper(a.Name), distinct, arg, a.Alias)
}

// WindowOutput is one window-function output column of a Window node.
type WindowOutput struct {
	Func  expr.WindowFunc
	Alias string
}

// TableScanNode reads a catalog table, applying pushed-down filters during
// the scan (spec.md §4.4.1).
type TableScanNode struct {
	TableSchema string
	TableName   string
	RowCap      int // 0 = no cap
	Filters     []expr.Expr
	OutSchema   chunk.Schema
}

func (n *TableScanNode) Schema() chunk.Schema { return n.OutSchema }
func (n *TableScanNode) String() string {
	return fmt.Sprintf("TableScan(%s.%s)", n.TableSchema, n.TableName)
}

// FilterNode evaluates a boolean predicate per row (spec.md §4.4.2).
// Qualify differs only in planner placement (it runs after window
// functions) - QualifyNode is the identical shape under a distinct type so
// the plan tree records that placement decision.
type FilterNode struct {
	Child     Node
	Predicate expr.Expr
}

func (n *FilterNode) Schema() chunk.Schema { return n.Child.Schema() }
func (n *FilterNode) String() string       { return fmt.Sprintf("Filter(%s)", n.Predicate) }

type QualifyNode struct {
	Child     Node
	Predicate expr.Expr
}

func (n *QualifyNode) Schema() chunk.Schema { return n.Child.Schema() }
func (n *QualifyNode) String() string       { return fmt.Sprintf("Qualify(%s)", n.Predicate) }

// ProjectionNode evaluates an ordered list of expressions per row (spec.md
// §4.4.3).
type ProjectionNode struct {
	Child     Node
	Exprs     []expr.Expr
	OutSchema chunk.Schema
}

func (n *ProjectionNode) Schema() chunk.Schema { return n.OutSchema }
func (n *ProjectionNode) String() string       { return fmt.Sprintf("Projection(%d exprs)", len(n.Exprs)) }

// LimitNode skips Offset rows then emits up to Limit rows (spec.md §4.4.4).
type LimitNode struct {
	Child  Node
	Limit  int
	Offset int
}

func (n *LimitNode) Schema() chunk.Schema { return n.Child.Schema() }
func (n *LimitNode) String() string {
	return fmt.Sprintf("Limit(limit=%d, offset=%d)", n.Limit, n.Offset)
}

// SortNode materializes its child and sorts by a composite key (spec.md
// §4.4.5).
type SortNode struct {
	Child Node
	Keys  []SortKey
}

func (n *SortNode) Schema() chunk.Schema { return n.Child.Schema() }
func (n *SortNode) String() string       { return fmt.Sprintf("Sort(%d keys)", len(n.Keys)) }

// HashAggregateNode groups by GroupBy and resolves Aggregates per group
// (spec.md §4.4.6). OutSchema is grouping columns ∥ aggregate results, in
// that order.
type HashAggregateNode struct {
	Child      Node
	GroupBy    []expr.Expr
	GroupNames []string // output column name per GroupBy entry
	Aggregates []AggregateExpr
	OutSchema  chunk.Schema
}

func (n *HashAggregateNode) Schema() chunk.Schema { return n.OutSchema }
func (n *HashAggregateNode) String() string {
	return fmt.Sprintf("HashAggregate(groups=%d, aggs=%d)", len(n.GroupBy), len(n.Aggregates))
}

// HashJoinNode joins Left (probe) against Right (build) on positionally
// matched equi-join keys, with an optional residual predicate (spec.md
// §4.4.7). OutSchema is left columns ∥ right columns.
type HashJoinNode struct {
	Left, Right Node
	Type        JoinType
	LeftKeys    []expr.Expr
	RightKeys   []expr.Expr
	Residual    expr.Expr // nil if none
	OutSchema   chunk.Schema
}

func (n *HashJoinNode) Schema() chunk.Schema { return n.OutSchema }
func (n *HashJoinNode) String() string       { return fmt.Sprintf("HashJoin(%s)", n.Type) }

// InsertNode runs Child and forwards every row into the named table,
// emitting a single-row BigInt chunk of the affected-row count (spec.md
// §4.4.8).
type InsertNode struct {
	Child       Node
	TableSchema string
	TableName   string
}

func (n *InsertNode) Schema() chunk.Schema {
	return chunk.Schema{{Name: "rows_affected", Type: types.TBigInt}}
}
func (n *InsertNode) String() string { return fmt.Sprintf("Insert(%s.%s)", n.TableSchema, n.TableName) }

// UpdateNode scans the named table (including tombstoned rows, which the
// scan does not skip), rewriting every row matching Predicate with
// Assignments evaluated against the current row (spec.md §4.4.8).
type UpdateNode struct {
	TableSchema string
	TableName   string
	Predicate   expr.Expr // nil = update every row
	Assignments map[string]expr.Expr
}

func (n *UpdateNode) Schema() chunk.Schema {
	return chunk.Schema{{Name: "rows_affected", Type: types.TBigInt}}
}
func (n *UpdateNode) String() string { return fmt.Sprintf("Update(%s.%s)", n.TableSchema, n.TableName) }

// DeleteNode tombstones every row matching Predicate (spec.md §4.4.8).
type DeleteNode struct {
	TableSchema string
	TableName   string
	Predicate   expr.Expr // nil = delete every row
}

func (n *DeleteNode) Schema() chunk.Schema {
	return chunk.Schema{{Name: "rows_affected", Type: types.TBigInt}}
}
func (n *DeleteNode) String() string { return fmt.Sprintf("Delete(%s.%s)", n.TableSchema, n.TableName) }

// ValuesNode materializes a literal row matrix (spec.md §4.4.9).
type ValuesNode struct {
	Rows      [][]expr.Expr
	OutSchema chunk.Schema
}

func (n *ValuesNode) Schema() chunk.Schema { return n.OutSchema }
func (n *ValuesNode) String() string       { return fmt.Sprintf("Values(%d rows)", len(n.Rows)) }

// PivotNode hash-aggregates on a composite (group-key, pivot-key) key, where
// pivot-key values are an explicit discrete list, emitting one row per
// group-key and one column per (pivot-value × aggregate) (spec.md §4.4.10).
type PivotNode struct {
	Child       Node
	GroupBy     []expr.Expr
	GroupNames  []string
	PivotKey    expr.Expr
	PivotValues []types.Value
	Aggregates  []AggregateExpr
	OutSchema   chunk.Schema
}

func (n *PivotNode) Schema() chunk.Schema { return n.OutSchema }
func (n *PivotNode) String() string {
	return fmt.Sprintf("Pivot(pivot_values=%d, aggs=%d)", len(n.PivotValues), len(n.Aggregates))
}

// UnpivotNode turns k named columns into (name, value) row pairs, one
// output row per input row per pivoted column (spec.md §4.4.10).
type UnpivotNode struct {
	Child        Node
	KeepCols     []string
	PivotCols    []string
	NameCol      string
	ValueCol     string
	ExcludeNulls bool
	OutSchema    chunk.Schema
}

func (n *UnpivotNode) Schema() chunk.Schema { return n.OutSchema }
func (n *UnpivotNode) String() string       { return fmt.Sprintf("Unpivot(%d cols)", len(n.PivotCols)) }

// SetOpNode combines Left and Right by row-tuple membership (spec.md
// §4.4.11). Both sides must already share OutSchema's column count/types.
type SetOpNode struct {
	Left, Right Node
	Op          SetOpKind
	OutSchema   chunk.Schema
}

func (n *SetOpNode) Schema() chunk.Schema { return n.OutSchema }
func (n *SetOpNode) String() string       { return fmt.Sprintf("SetOp(%s)", n.Op) }

// RecursiveCTENode computes a fixpoint starting from Base, repeatedly
// running Recursive (which refers back to the CTE's accumulated rows via
// whatever mechanism the executor binds it through - see src/exec's
// RecursiveCTE operator) until no new distinct rows appear or MaxIterations
// is reached (spec.md §4.4.12). Recursive is a factory rather than a fixed
// Node because each iteration must see the previous iteration's new-rows
// working set, which the plan tree itself cannot express statically.
type RecursiveCTENode struct {
	Name          string
	Base          Node
	Recursive     func(workingSet Node) Node
	OutSchema     chunk.Schema
	MaxIterations int // 0 = use the spec-mandated default of 100
}

func (n *RecursiveCTENode) Schema() chunk.Schema { return n.OutSchema }
func (n *RecursiveCTENode) String() string       { return fmt.Sprintf("RecursiveCTE(%s)", n.Name) }

// WindowNode evaluates one or more window functions per row, materializing
// complete partitions as each WindowFunc.Evaluate call requires (spec.md
// §4.1, §4.4). OutSchema is the child's schema ∥ one column per Funcs entry.
type WindowNode struct {
	Child     Node
	Funcs     []WindowOutput
	OutSchema chunk.Schema
}

func (n *WindowNode) Schema() chunk.Schema { return n.OutSchema }
func (n *WindowNode) String() string       { return fmt.Sprintf("Window(%d funcs)", len(n.Funcs)) }
