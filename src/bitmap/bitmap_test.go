package bitmap

import (
	"math/rand"
	"testing"
)

func TestNewBitmapDefaultsAllValid(t *testing.T) {
	bm := NewBitmap(100)
	if !bm.AllValid() {
		t.Fatal("expected a freshly allocated mask to be all-valid per spec.md §3.3")
	}
	if bm.NullCount() != 0 {
		t.Errorf("expected 0 nulls, got %d", bm.NullCount())
	}
	bm.Set(42, false)
	if bm.AllValid() {
		t.Fatal("expected AllValid to report false after clearing a row")
	}
	if bm.NullCount() != 1 {
		t.Errorf("expected 1 null, got %d", bm.NullCount())
	}
}

func TestSetAndGetRoundtrip(t *testing.T) {
	vals := []bool{true, false, false, false, true, true, false}
	bm := NewBitmapFromBools(vals)
	for i, v := range vals {
		if bm.Get(i) != v {
			t.Fatalf("position %d: expected %v, got %v", i, v, bm.Get(i))
		}
	}
}

func TestGetOutOfRangeReturnsFalse(t *testing.T) {
	bm := NewBitmap(10)
	if bm.Get(-1) {
		t.Error("expected negative index to read false")
	}
	if bm.Get(1000) {
		t.Error("expected an out-of-range index to read false without growing the mask")
	}
	if bm.Cap() != 10 {
		t.Errorf("expected Get to leave cap unchanged, got %d", bm.Cap())
	}
}

func TestEnsureGrowsWithoutDisturbingExistingBits(t *testing.T) {
	bm := NewBitmapFromBools([]bool{true, false, true})
	bm.Ensure(200)
	if bm.Cap() != 200 {
		t.Errorf("expected cap 200, got %d", bm.Cap())
	}
	if !bm.Get(0) || bm.Get(1) || !bm.Get(2) {
		t.Error("expected Ensure to preserve existing rows")
	}
	for i := 3; i < 200; i++ {
		if bm.Get(i) {
			t.Fatalf("expected newly grown capacity to read as unset, row %d was set", i)
		}
	}
}

func TestClearTrailingBitsKeepsCountExact(t *testing.T) {
	bm := NewBitmap(70) // spans two words, second only partially used
	if got := bm.Count(); got != 70 {
		t.Errorf("expected Count to report exactly 70 valid rows, got %d", got)
	}
}

func TestIndicesMatchesLinearScan(t *testing.T) {
	tests := []struct {
		length int
		set    []int
	}{
		{0, nil},
		{1, []int{0}},
		{32, []int{12, 14, 16}},
		{64, []int{0, 63}},
		{65, []int{12, 14, 64}},
		{300, []int{12, 14, 200, 244, 245, 299}},
	}
	for _, test := range tests {
		bm := &Bitmap{}
		bm.Ensure(test.length)
		for _, pos := range test.set {
			bm.Set(pos, true)
		}
		got := bm.Indices()
		if len(got) != len(test.set) {
			t.Fatalf("length %d: expected %d indices, got %d (%v)", test.length, len(test.set), len(got), got)
		}
		for i, idx := range test.set {
			if got[i] != idx {
				t.Errorf("length %d: expected indices %v, got %v", test.length, test.set, got)
				break
			}
		}
	}
}

func TestIndicesRespectsCapAcrossWordBoundary(t *testing.T) {
	bm := NewBitmap(65) // word 1 only has row 64 addressable
	if len(bm.Indices()) != 65 {
		t.Fatalf("expected 65 valid rows, got %d", len(bm.Indices()))
	}
}

func TestCapReportsAddressableLength(t *testing.T) {
	tests := []struct {
		bm     *Bitmap
		expCap int
	}{
		{NewBitmap(0), 0},
		{NewBitmap(10), 10},
		{NewBitmap(1000), 1000},
	}
	for i, test := range tests {
		if test.bm.Cap() != test.expCap {
			t.Errorf("case %d: expected cap %d, got %d", i, test.expCap, test.bm.Cap())
		}
	}
}

func TestSetGrowsCapToAtLeastNPlusOne(t *testing.T) {
	bm := NewBitmap(0)
	for _, pos := range []int{10, 64, 65, 100, 128, 1000, 10000} {
		bm.Set(pos, true)
		if bm.Cap() != pos+1 {
			t.Errorf("after setting position %d, expected cap %d, got %d", pos, pos+1, bm.Cap())
		}
	}
}

func TestKeepFirstN(t *testing.T) {
	raw := []bool{true, true, false, true, false, true}
	total := NewBitmapFromBools(raw).Count()
	for n := 0; n < total; n++ {
		bm := NewBitmapFromBools(raw)
		bm.KeepFirstN(n)
		if bm.Count() != n {
			t.Errorf("KeepFirstN(%d): expected %d rows kept, got %d", n, n, bm.Count())
		}
		if bm.Cap() != len(raw) {
			t.Errorf("KeepFirstN(%d): expected cap to stay %d, got %d", n, len(raw), bm.Cap())
		}
	}
	// asking to keep more than are set is a no-op
	bm := NewBitmapFromBools(raw)
	bm.KeepFirstN(total * 2)
	if bm.Count() != total {
		t.Errorf("expected KeepFirstN past the set count to keep them all, got %d", bm.Count())
	}
}

func TestKeepFirstNRejectsNegative(t *testing.T) {
	defer func() {
		if err := recover(); err == nil {
			t.Fatal("expected KeepFirstN(-1) to panic")
		}
	}()
	NewBitmapFromBools([]bool{true, false}).KeepFirstN(-1)
}

func TestNullCountTracksClearedRows(t *testing.T) {
	bm := NewBitmap(300)
	for _, row := range []int{0, 50, 150, 299} {
		bm.Set(row, false)
	}
	if bm.NullCount() != 4 {
		t.Errorf("expected 4 nulls, got %d", bm.NullCount())
	}
	if bm.Count() != 296 {
		t.Errorf("expected 296 valid rows, got %d", bm.Count())
	}
}

func TestRandomizedAgainstReferenceModel(t *testing.T) {
	rand.Seed(1)
	const n = 2000
	bm := NewBitmap(n)
	model := make([]bool, n)
	for i := range model {
		model[i] = true
	}
	for iter := 0; iter < 5000; iter++ {
		pos := rand.Intn(n)
		val := rand.Intn(2) == 0
		bm.Set(pos, val)
		model[pos] = val
	}
	for i, want := range model {
		if bm.Get(i) != want {
			t.Fatalf("row %d: expected %v, got %v", i, want, bm.Get(i))
		}
	}
	wantValid := 0
	for _, v := range model {
		if v {
			wantValid++
		}
	}
	if bm.Count() != wantValid {
		t.Errorf("expected Count %d, got %d", wantValid, bm.Count())
	}
}
