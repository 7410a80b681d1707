package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kokes/vecdb/src/catalog"
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/exec"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/expr"
	"github.com/kokes/vecdb/src/plan"
	"github.com/kokes/vecdb/src/types"
)

// global, so it can be injected at build time
var (
	gitCommit      string
	buildTime      string
	buildGoVersion string
)

func main() {
	root := &cobra.Command{
		Use:   "enginectl",
		Short: "runs demonstration plans against the execution engine",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newBenchCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the binary's version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("build commit: %v\nbuild time: %v\ngo version: %v\n", gitCommit, buildTime, buildGoVersion)
		},
	}
}

func employeesSchema() chunk.Schema {
	return chunk.Schema{
		{Name: "id", Type: types.TInteger},
		{Name: "dept", Type: types.TVarchar},
		{Name: "salary", Type: types.TBigInt},
	}
}

// seedCatalog builds a MemCatalog with a "public.employees" table, seeded
// with n synthetic rows spread across a handful of departments - enough to
// exercise TableScan -> Filter -> HashAggregate end to end (spec.md §8
// scenario 3) without shipping a CSV sample like the teacher's embed.FS does.
func seedCatalog(n int) (*catalog.MemCatalog, error) {
	cat := catalog.NewMemCatalog()
	if err := cat.CreateTable(catalog.TableInfo{Schema: "public", Name: "employees", Columns: employeesSchema()}); err != nil {
		return nil, err
	}
	ref, err := cat.GetTable("public", "employees")
	if err != nil {
		return nil, err
	}
	depts := []string{"eng", "sales", "ops", "finance"}
	for i := 0; i < n; i++ {
		row := []types.Value{
			types.NewInteger(int32(i)),
			types.NewVarchar(depts[i%len(depts)]),
			types.NewBigInt(int64(40000 + (i*137)%60000)),
		}
		if err := ref.Data().InsertRow(row); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// demoPlan builds the hard-coded scan -> filter -> hash-aggregate plan
// (total salary per department, restricted to departments other than
// "ops") equivalent to spec.md §8's end-to-end scenario 3.
func demoPlan() plan.Node {
	scan := &plan.TableScanNode{
		TableSchema: "public",
		TableName:   "employees",
		OutSchema:   employeesSchema(),
	}
	filter := &plan.FilterNode{
		Child: scan,
		Predicate: expr.BinaryOp{
			Op:    expr.OpNeq,
			Left:  expr.ColumnRef{Name: "dept"},
			Right: expr.Constant{Value: types.NewVarchar("ops")},
		},
	}
	return &plan.HashAggregateNode{
		Child:      filter,
		GroupBy:    []expr.Expr{expr.ColumnRef{Name: "dept"}},
		GroupNames: []string{"dept"},
		Aggregates: []plan.AggregateExpr{
			{Name: "sum", Arg: expr.ColumnRef{Name: "salary"}, Alias: "total_salary"},
			{Name: "count", Alias: "headcount"},
		},
		OutSchema: chunk.Schema{
			{Name: "dept", Type: types.TVarchar},
			{Name: "total_salary", Type: types.TBigInt},
			{Name: "headcount", Type: types.TBigInt},
		},
	}
}

func newRunCmd() *cobra.Command {
	var rows int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the hard-coded demonstration plan and print its result",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cat, err := seedCatalog(rows)
			if err != nil {
				return err
			}
			ctx := execctx.New(cat, execctx.ModeParallel, execctx.DefaultLimits())
			ctx.Logger = logger

			node := demoPlan()
			it, err := exec.Build(ctx, node)
			if err != nil {
				return err
			}
			start := time.Now()
			res, err := exec.CollectAll(ctx, node.Schema(), it)
			if err != nil {
				return err
			}
			ctx.Stats.SetExecutionTime(time.Since(start))

			printResult(res)
			fmt.Fprintf(os.Stdout, "\nrows processed: %d, operators executed: %d, elapsed: %s\n",
				res.Stats.RowsProcessed, res.Stats.OperatorsExecuted, time.Since(start))
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 10_000, "number of synthetic employee rows to seed")
	return cmd
}

func newBenchCmd() *cobra.Command {
	var sizes []int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "sweep row counts and print morsel/execution statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, n := range sizes {
				cat, err := seedCatalog(n)
				if err != nil {
					return err
				}
				ctx := execctx.New(cat, execctx.ModeParallel, execctx.DefaultLimits())
				ctx.Logger = zap.NewNop()

				node := demoPlan()
				it, err := exec.Build(ctx, node)
				if err != nil {
					return err
				}
				start := time.Now()
				res, err := exec.CollectAll(ctx, node.Schema(), it)
				if err != nil {
					return err
				}
				elapsed := time.Since(start)
				morselCfg := ctx.MorselConfig()
				fmt.Fprintf(os.Stdout, "rows=%-8d workers=%-3d parallel=%-5v groups=%-3d elapsed=%s\n",
					n, morselCfg.NumWorkers, morselCfg.Parallel, len(res.Rows), elapsed)
			}
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&sizes, "sizes", []int{1_000, 10_000, 100_000}, "row counts to sweep")
	return cmd
}

func printResult(res *exec.CollectedResult) {
	names := make([]string, len(res.Schema))
	for i, c := range res.Schema {
		names[i] = c.Name
	}
	fmt.Fprintln(os.Stdout, names)
	for _, row := range res.Rows {
		fmt.Fprintln(os.Stdout, row)
	}
}
