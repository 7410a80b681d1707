package hashtable

import (
	"context"
	"testing"

	"github.com/kokes/vecdb/src/morsel"
	"github.com/kokes/vecdb/src/types"
)

func row(id int32, group string) []types.Value {
	return []types.Value{types.NewInteger(id), types.NewVarchar(group)}
}

func keyOf(idx int, r []types.Value) Key { return Key{r[1]} }

func TestInsertAndProbe(t *testing.T) {
	ht := New()
	ht.Insert(Key{types.NewVarchar("a")}, row(1, "a"))
	ht.Insert(Key{types.NewVarchar("a")}, row(2, "a"))
	ht.Insert(Key{types.NewVarchar("b")}, row(3, "b"))

	res, ok := ht.Probe(Key{types.NewVarchar("a")})
	if !ok {
		t.Fatal("expected key \"a\" to be present")
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows for key \"a\", got %d", len(res.Rows))
	}

	if _, ok := ht.Probe(Key{types.NewVarchar("missing")}); ok {
		t.Error("expected missing key to not be found")
	}
}

func TestDistinctKeysNullsGroupTogether(t *testing.T) {
	ht := New()
	ht.Insert(Key{types.NewNull(types.TVarchar)}, row(1, ""))
	ht.Insert(Key{types.NewNull(types.TVarchar)}, row(2, ""))

	res, ok := ht.Probe(Key{types.NewNull(types.TVarchar)})
	if !ok {
		t.Fatal("expected NULL group key to be found")
	}
	if len(res.Rows) != 2 {
		t.Errorf("expected both NULL-keyed rows grouped together, got %d", len(res.Rows))
	}
	if ht.Count() != 1 {
		t.Errorf("expected exactly one distinct key, got %d", ht.Count())
	}
}

func TestBuildParallelCoversAllRows(t *testing.T) {
	const n = 300_000
	rows := make([][]types.Value, n)
	for i := 0; i < n; i++ {
		group := "even"
		if i%2 != 0 {
			group = "odd"
		}
		rows[i] = row(int32(i), group)
	}

	ht := New()
	cfg := morsel.Config{NumWorkers: 4, Parallel: true}
	if err := BuildParallel(context.Background(), ht, rows, cfg, keyOf); err != nil {
		t.Fatal(err)
	}

	if ht.Count() != 2 {
		t.Fatalf("expected 2 distinct keys, got %d", ht.Count())
	}
	res, ok := ht.Probe(Key{types.NewVarchar("even")})
	if !ok || len(res.Rows) != n/2 {
		t.Fatalf("expected %d even rows, got %d (found=%v)", n/2, len(res.Rows), ok)
	}
}

func TestMarkMatchedAndAllEntries(t *testing.T) {
	ht := New()
	id1 := ht.Insert(Key{types.NewVarchar("a")}, row(1, "a"))
	_ = ht.Insert(Key{types.NewVarchar("b")}, row(2, "b"))

	ht.MarkMatched([]uint64{id1})
	if !ht.Matched.Contains(uint32(id1)) {
		t.Error("expected id1 to be marked matched")
	}

	seen := 0
	ht.AllEntries(func(key Key, rows [][]types.Value, ids []uint64) {
		seen++
	})
	if seen != 2 {
		t.Errorf("expected to visit 2 distinct entries, got %d", seen)
	}
}

func TestHashKeyDeterministic(t *testing.T) {
	k1 := Key{types.NewVarchar("x"), types.NewInteger(5)}
	k2 := Key{types.NewVarchar("x"), types.NewInteger(5)}
	if HashKey(k1) != HashKey(k2) {
		t.Error("expected identical composite keys to hash identically")
	}
}
