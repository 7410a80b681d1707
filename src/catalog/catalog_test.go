package catalog

import (
	"testing"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/types"
)

func employeesSchema() chunk.Schema {
	return chunk.Schema{
		{Name: "id", Type: types.TInteger},
		{Name: "name", Type: types.TVarchar},
	}
}

func TestCreateAndGetTable(t *testing.T) {
	c := NewMemCatalog()
	if err := c.CreateTable(TableInfo{Schema: "public", Name: "employees", Columns: employeesSchema()}); err != nil {
		t.Fatal(err)
	}
	if !c.TableExists("public", "employees") {
		t.Error("expected table to exist after creation")
	}
	ref, err := c.GetTable("public", "employees")
	if err != nil {
		t.Fatal(err)
	}
	if len(ref.Schema()) != 2 {
		t.Errorf("expected 2 columns, got %d", len(ref.Schema()))
	}
}

func TestCreateTableDuplicateErrors(t *testing.T) {
	c := NewMemCatalog()
	info := TableInfo{Schema: "public", Name: "t", Columns: employeesSchema()}
	if err := c.CreateTable(info); err != nil {
		t.Fatal(err)
	}
	if err := c.CreateTable(info); err == nil {
		t.Error("expected duplicate CreateTable to error")
	}
}

func TestDropTable(t *testing.T) {
	c := NewMemCatalog()
	c.CreateTable(TableInfo{Schema: "public", Name: "t", Columns: employeesSchema()})
	if err := c.DropTable("public", "t"); err != nil {
		t.Fatal(err)
	}
	if c.TableExists("public", "t") {
		t.Error("expected table to be gone after drop")
	}
}

func TestListTables(t *testing.T) {
	c := NewMemCatalog()
	c.CreateTable(TableInfo{Schema: "public", Name: "a", Columns: employeesSchema()})
	c.CreateTable(TableInfo{Schema: "public", Name: "b", Columns: employeesSchema()})
	c.CreateTable(TableInfo{Schema: "other", Name: "c", Columns: employeesSchema()})
	names := c.ListTables("public")
	if len(names) != 2 {
		t.Errorf("expected 2 tables in public schema, got %d: %v", len(names), names)
	}
}

func seedRows(t *testing.T, data TableData, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := data.InsertRow([]types.Value{types.NewInteger(int32(i)), types.NewVarchar("x")}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestInsertAndRowCount(t *testing.T) {
	c := NewMemCatalog()
	c.CreateTable(TableInfo{Schema: "public", Name: "t", Columns: employeesSchema()})
	ref, _ := c.GetTable("public", "t")
	seedRows(t, ref.Data(), 10)
	if ref.Data().RowCount() != 10 {
		t.Errorf("expected 10 rows, got %d", ref.Data().RowCount())
	}
}

func TestDeleteRowTombstonesWithoutCompaction(t *testing.T) {
	c := NewMemCatalog()
	c.CreateTable(TableInfo{Schema: "public", Name: "t", Columns: employeesSchema()})
	ref, _ := c.GetTable("public", "t")
	data := ref.Data()
	seedRows(t, data, 5)

	if err := data.DeleteRow(2); err != nil {
		t.Fatal(err)
	}
	if data.RowCount() != 4 {
		t.Errorf("expected 4 live rows after delete, got %d", data.RowCount())
	}
	if data.PhysicalRowCount() != 5 {
		t.Errorf("expected physical row count to stay 5 (no compaction), got %d", data.PhysicalRowCount())
	}
}

func TestCreateChunkSkipsTombstones(t *testing.T) {
	c := NewMemCatalog()
	c.CreateTable(TableInfo{Schema: "public", Name: "t", Columns: employeesSchema()})
	ref, _ := c.GetTable("public", "t")
	data := ref.Data()
	seedRows(t, data, 5)
	data.DeleteRow(1)
	data.DeleteRow(3)

	out, err := data.CreateChunk(0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if out.Count() != 3 {
		t.Fatalf("expected 3 live rows, got %d", out.Count())
	}
	ids := []int64{out.Row(0)[0].Int64(), out.Row(1)[0].Int64(), out.Row(2)[0].Int64()}
	if ids[0] != 0 || ids[1] != 2 || ids[2] != 4 {
		t.Errorf("unexpected surviving ids: %v", ids)
	}
}

func TestCreateChunkUnfilteredIncludesTombstones(t *testing.T) {
	c := NewMemCatalog()
	c.CreateTable(TableInfo{Schema: "public", Name: "t", Columns: employeesSchema()})
	ref, _ := c.GetTable("public", "t")
	data := ref.Data()
	seedRows(t, data, 5)
	data.DeleteRow(1)

	out, err := data.CreateChunkUnfiltered(0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if out.Count() != 5 {
		t.Errorf("expected all 5 physical rows, got %d", out.Count())
	}
}

func TestUpdateRow(t *testing.T) {
	c := NewMemCatalog()
	c.CreateTable(TableInfo{Schema: "public", Name: "t", Columns: employeesSchema()})
	ref, _ := c.GetTable("public", "t")
	data := ref.Data()
	seedRows(t, data, 3)

	if err := data.UpdateRow(1, []types.Value{types.NewInteger(99), types.NewVarchar("updated")}); err != nil {
		t.Fatal(err)
	}
	out, err := data.CreateChunk(0, 100)
	if err != nil {
		t.Fatal(err)
	}
	row := out.Row(1)
	if row[0].Int64() != 99 || row[1].Text() != "updated" {
		t.Errorf("unexpected row after update: %v", row)
	}
}

func TestStripeFreezeAndThawRoundtrip(t *testing.T) {
	c := NewMemCatalog()
	c.CreateTable(TableInfo{Schema: "public", Name: "t", Columns: employeesSchema()})
	ref, _ := c.GetTable("public", "t")
	data := ref.Data()
	// exceed one stripe's capacity to force a freeze
	seedRows(t, data, stripeCapacity+10)

	out, err := data.CreateChunk(0, stripeCapacity+10)
	if err != nil {
		t.Fatal(err)
	}
	if out.Count() != stripeCapacity+10 {
		t.Fatalf("expected %d rows, got %d", stripeCapacity+10, out.Count())
	}
	if out.Row(0)[0].Int64() != 0 || out.Row(stripeCapacity)[0].Int64() != int64(stripeCapacity) {
		t.Error("row identity lost across the frozen-stripe boundary")
	}
}
