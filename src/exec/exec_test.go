package exec

import (
	"testing"

	"github.com/kokes/vecdb/src/catalog"
	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/types"
)

func employeesSchema() chunk.Schema {
	return chunk.Schema{
		{Name: "id", Type: types.TInteger},
		{Name: "dept", Type: types.TVarchar},
		{Name: "salary", Type: types.TBigInt},
	}
}

// seedEmployees creates and populates a "public.employees" table in a fresh
// MemCatalog, returning a ready-to-use execctx.Context.
func seedEmployees(t *testing.T, rows [][]types.Value) *execctx.Context {
	t.Helper()
	cat := catalog.NewMemCatalog()
	if err := cat.CreateTable(catalog.TableInfo{Schema: "public", Name: "employees", Columns: employeesSchema()}); err != nil {
		t.Fatal(err)
	}
	ref, err := cat.GetTable("public", "employees")
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		if err := ref.Data().InsertRow(row); err != nil {
			t.Fatal(err)
		}
	}
	return execctx.New(cat, execctx.ModeStandard, execctx.DefaultLimits())
}

func sampleEmployeeRows() [][]types.Value {
	return [][]types.Value{
		{types.NewInteger(1), types.NewVarchar("eng"), types.NewBigInt(100)},
		{types.NewInteger(2), types.NewVarchar("eng"), types.NewBigInt(200)},
		{types.NewInteger(3), types.NewVarchar("sales"), types.NewBigInt(150)},
		{types.NewInteger(4), types.NewVarchar("sales"), types.NewBigInt(50)},
	}
}

// drainAll pulls every chunk from it and concatenates them via Collect.
func drainAll(t *testing.T, ctx *execctx.Context, schema chunk.Schema, it Iterator) *chunk.DataChunk {
	t.Helper()
	out, err := Collect(ctx, schema, it)
	if err != nil {
		t.Fatal(err)
	}
	return out
}
