// Package vector implements the columnar fragment at the center of the
// execution engine: a typed, validity-masked, optionally-selected run of
// values sharing one LogicalType. It generalizes the teacher's per-dtype
// Chunk structs (column/chunk.go: ChunkInts, ChunkFloats, ChunkBools,
// ChunkStrings) into a single Vector whose physical storage is chosen by
// types.LogicalType.Physical(), so it can also carry HugeInt/Decimal/Date/
// Time/Timestamp/Interval/List/Struct/Map/Union/Enum, which the teacher's
// narrower Dtype set never needed to.
package vector

import (
	"fmt"

	"github.com/kokes/vecdb/src/bitmap"
	"github.com/kokes/vecdb/src/types"
)

// Vector is a column fragment: logical type, physical storage, validity
// mask, optional selection vector, and a row count. Per spec.md §3.4, a
// vector with a selection vector reports count = selection.count() and every
// read/write dereferences through it.
type Vector struct {
	Type types.LogicalType

	validity *bitmap.Bitmap // bit i = 1 <=> row i is non-null; nil means "all valid"
	sel      *SelectionVector

	count    int
	capacity int

	// Fixed-width physical storage. Exactly one of these is populated,
	// chosen by Type.Physical().
	bools    *bitmap.Bitmap
	int8s    []int8
	int16s   []int16
	int32s   []int32
	int64s   []int64
	decimals []types.Decimal128 // HugeInt, Decimal
	interval []types.Interval
	float32s []float32
	float64s []float64

	// Variable-width storage: offsets-array-backed, per spec.md §3.4's
	// "permitted and recommended refinement" over length-prefixed packing.
	varlenData    []byte
	varlenOffsets []int32 // len == count+1

	// Nested storage.
	listChild   *Vector
	listOffsets []int32 // len == count+1, shared by List and Map
	structChild []*Vector
	unionTags   []int8
}

// New allocates a zeroed vector of the given logical type and capacity. It
// starts with count 0 and no validity mask (every row valid); rows become
// readable as they are appended.
func New(t types.LogicalType, capacity int) *Vector {
	v := &Vector{Type: t, capacity: capacity}
	switch t.Physical() {
	case types.PBool:
		v.bools = bitmap.NewBitmap(capacity)
	case types.PInt8:
		v.int8s = make([]int8, capacity)
	case types.PInt16:
		v.int16s = make([]int16, capacity)
	case types.PInt32:
		v.int32s = make([]int32, capacity)
	case types.PInt64:
		v.int64s = make([]int64, capacity)
	case types.PInt128:
		if t.ID == types.Interval {
			v.interval = make([]types.Interval, capacity)
		} else {
			v.decimals = make([]types.Decimal128, capacity)
		}
	case types.PFloat32:
		v.float32s = make([]float32, capacity)
	case types.PFloat64:
		v.float64s = make([]float64, capacity)
	case types.PVarlen:
		v.varlenOffsets = make([]int32, 1, capacity+1)
	case types.PList:
		v.listOffsets = make([]int32, 1, capacity+1)
		if t.ID == types.List {
			v.listChild = New(*t.Element, 0)
		} else { // Map: child is a struct(key, value) vector
			v.listChild = New(types.NewStruct(
				types.StructField{Name: "key", Type: *t.Key},
				types.StructField{Name: "value", Type: *t.Value},
			), 0)
		}
	case types.PStruct:
		if t.ID == types.Struct {
			v.structChild = make([]*Vector, len(t.Fields))
			for j, f := range t.Fields {
				v.structChild[j] = New(f.Type, capacity)
			}
		} else { // Union
			v.structChild = make([]*Vector, len(t.Variants))
			for j, variant := range t.Variants {
				v.structChild[j] = New(variant, capacity)
			}
			v.unionTags = make([]int8, capacity)
		}
	}
	return v
}

func (v *Vector) Count() int    { return v.count }
func (v *Vector) Capacity() int { return v.capacity }

// Selection returns the vector's selection vector, or nil if it addresses
// its storage directly.
func (v *Vector) Selection() *SelectionVector { return v.sel }

// WithSelection returns a shallow copy of v that reads through sel; count
// becomes sel.Count(). Used by filter/qualify to avoid materializing a new
// vector when a selection composition is cheap enough.
func (v *Vector) WithSelection(sel *SelectionVector) *Vector {
	cp := *v
	if v.sel != nil {
		cp.sel = v.sel.Compose(sel)
	} else {
		cp.sel = sel
	}
	cp.count = cp.sel.Count()
	return &cp
}

// resolve maps a logical row index i (< v.count) to the physical storage
// index, applying the selection vector if one is present.
func (v *Vector) resolve(i int) int {
	if v.sel != nil {
		return v.sel.At(i)
	}
	return i
}

// IsValid reports whether logical row i is non-null.
func (v *Vector) IsValid(i int) bool {
	if v.validity == nil {
		return true
	}
	return v.validity.Get(v.resolve(i))
}

// setValidPhysical marks physical slot physIdx as valid/invalid.
// Used when constructing a vector directly (physical index == logical index,
// pre-selection).
func (v *Vector) setValidPhysical(physIdx int, valid bool) {
	if !valid {
		if v.validity == nil {
			v.validity = bitmap.NewBitmap(v.capacity)
			for j := 0; j < v.capacity; j++ {
				v.validity.Set(j, true)
			}
		}
		v.validity.Set(physIdx, false)
		return
	}
	if v.validity != nil {
		v.validity.Set(physIdx, true)
	}
}

func (v *Vector) growCount(n int) {
	if n > v.count {
		v.count = n
	}
}

// --- typed scalar accessors; callers must check IsValid first ---

func (v *Vector) GetBool(i int) bool { return v.bools.Get(v.resolve(i)) }
func (v *Vector) GetInt8(i int) int8   { return v.int8s[v.resolve(i)] }
func (v *Vector) GetInt16(i int) int16 { return v.int16s[v.resolve(i)] }
func (v *Vector) GetInt32(i int) int32 { return v.int32s[v.resolve(i)] }
func (v *Vector) GetInt64(i int) int64 { return v.int64s[v.resolve(i)] }
func (v *Vector) GetDecimal(i int) types.Decimal128 { return v.decimals[v.resolve(i)] }
func (v *Vector) GetInterval(i int) types.Interval  { return v.interval[v.resolve(i)] }
func (v *Vector) GetFloat32(i int) float32 { return v.float32s[v.resolve(i)] }
func (v *Vector) GetFloat64(i int) float64 { return v.float64s[v.resolve(i)] }

func (v *Vector) GetString(i int) string {
	p := v.resolve(i)
	return string(v.varlenData[v.varlenOffsets[p]:v.varlenOffsets[p+1]])
}

func (v *Vector) GetList(i int) *Vector {
	p := v.resolve(i)
	start, end := v.listOffsets[p], v.listOffsets[p+1]
	return v.listChild.Slice(int(start), int(end))
}

func (v *Vector) StructField(idx int) *Vector { return v.structChild[idx] }
func (v *Vector) UnionTag(i int) int8         { return v.unionTags[v.resolve(i)] }

// GetValue materializes logical row i as a types.Value, auto-boxing NULLs.
func (v *Vector) GetValue(i int) types.Value {
	if !v.IsValid(i) {
		return types.NewNull(v.Type)
	}
	switch v.Type.ID {
	case types.Boolean:
		return types.NewBool(v.GetBool(i))
	case types.TinyInt:
		return types.NewTinyInt(v.GetInt8(i))
	case types.SmallInt:
		return types.NewSmallInt(v.GetInt16(i))
	case types.Integer:
		return types.NewInteger(v.GetInt32(i))
	case types.BigInt:
		return types.NewBigInt(v.GetInt64(i))
	case types.HugeInt:
		return types.NewHugeInt(v.GetDecimal(i))
	case types.Decimal:
		return types.NewDecimalValue(v.GetDecimal(i))
	case types.Interval:
		return types.NewIntervalValue(v.GetInterval(i))
	case types.Float:
		return types.NewFloat(v.GetFloat32(i))
	case types.Double:
		return types.NewDouble(v.GetFloat64(i))
	case types.Date:
		return types.NewDateValue(types.Date(v.GetInt32(i)))
	case types.Time:
		return types.NewTimeValue(types.Time(v.GetInt64(i)))
	case types.Timestamp:
		return types.NewTimestampValue(types.Timestamp(v.GetInt64(i)))
	case types.Varchar:
		return types.NewVarchar(v.GetString(i))
	case types.Char:
		return types.NewCharValue(v.Type.Width, v.GetString(i))
	case types.JSON:
		return types.NewJSONValue(v.GetString(i))
	case types.Blob:
		return types.NewBlob([]byte(v.GetString(i)))
	case types.UUID:
		return types.NewUUIDValue(v.GetString(i))
	case types.Enum:
		return types.NewEnumValue(v.Type, int(v.GetInt32(i)))
	case types.List, types.Map:
		child := v.GetList(i)
		items := make([]types.Value, child.Count())
		for j := range items {
			items[j] = child.GetValue(j)
		}
		el := types.TNull
		if v.Type.Element != nil {
			el = *v.Type.Element
		}
		return types.NewListValue(el, items)
	case types.Struct:
		fields := make([]types.Value, len(v.structChild))
		for j, c := range v.structChild {
			fields[j] = c.GetValue(v.resolve(i))
		}
		return types.NewStructValue(v.Type, fields)
	case types.Union:
		tag := v.UnionTag(i)
		return types.NewUnionValue(v.Type, int(tag), v.structChild[tag].GetValue(v.resolve(i)))
	default:
		return types.NewNull(v.Type)
	}
}

// Append appends a Value to the vector, growing physical storage as needed.
// Used by operators that build a vector incrementally (literal broadcast,
// aggregate finalization, Values operator).
func (v *Vector) Append(val types.Value) {
	idx := v.count
	v.ensureCapacity(idx + 1)
	if val.IsNull {
		v.setValidPhysical(idx, false)
		v.advanceEmptySlot(idx)
		v.count = idx + 1
		return
	}
	switch v.Type.ID {
	case types.Boolean:
		v.bools.Set(idx, val.Bool())
	case types.TinyInt:
		v.int8s[idx] = int8(val.Int64())
	case types.SmallInt:
		v.int16s[idx] = int16(val.Int64())
	case types.Integer, types.Date:
		v.int32s[idx] = int32(val.Int64())
	case types.BigInt, types.Time, types.Timestamp:
		v.int64s[idx] = val.Int64()
	case types.HugeInt, types.Decimal:
		v.decimals[idx] = val.Decimal()
	case types.Interval:
		v.interval[idx] = val.AsInterval()
	case types.Float:
		v.float32s[idx] = float32(val.Float64())
	case types.Double:
		v.float64s[idx] = val.Float64()
	case types.Varchar, types.Char, types.JSON, types.Blob, types.UUID:
		v.appendVarlen(val.Text())
	case types.Enum:
		v.int32s[idx] = int32(val.EnumIndex())
	case types.List, types.Map:
		items := val.List()
		for _, item := range items {
			v.listChild.Append(item)
		}
		v.listOffsets = append(v.listOffsets, int32(v.listChild.Count()))
	case types.Struct:
		for j, fv := range val.StructFields() {
			v.structChild[j].Append(fv)
		}
	case types.Union:
		v.unionTags[idx] = int8(val.UnionTag())
		for j, c := range v.structChild {
			if j == val.UnionTag() {
				c.Append(val.List()[0])
			} else {
				c.Append(types.NewNull(c.Type))
			}
		}
	default:
		panic(fmt.Sprintf("vector.Append: unsupported type %s", v.Type))
	}
	v.setValidPhysical(idx, true)
	v.count = idx + 1
}

// advanceEmptySlot keeps offsets-array-backed storage consistent when a NULL
// is appended: varlen/list vectors still need a slot's worth of offset.
func (v *Vector) advanceEmptySlot(idx int) {
	switch v.Type.Physical() {
	case types.PVarlen:
		v.varlenOffsets = append(v.varlenOffsets, v.varlenOffsets[len(v.varlenOffsets)-1])
	case types.PList:
		v.listOffsets = append(v.listOffsets, v.listOffsets[len(v.listOffsets)-1])
	case types.PStruct:
		if v.Type.ID == types.Struct {
			for _, c := range v.structChild {
				c.Append(types.NewNull(c.Type))
			}
		} else {
			v.unionTags[idx] = 0
			for _, c := range v.structChild {
				c.Append(types.NewNull(c.Type))
			}
		}
	}
}

func (v *Vector) appendVarlen(s string) {
	v.varlenData = append(v.varlenData, s...)
	v.varlenOffsets = append(v.varlenOffsets, int32(len(v.varlenData)))
}

// ensureCapacity grows fixed-width backing slices to hold at least n rows.
func (v *Vector) ensureCapacity(n int) {
	if n <= v.capacity {
		return
	}
	v.capacity = n
	switch v.Type.Physical() {
	case types.PBool:
		v.bools.Ensure(n)
	case types.PInt8:
		v.int8s = growInt8(v.int8s, n)
	case types.PInt16:
		v.int16s = growInt16(v.int16s, n)
	case types.PInt32:
		v.int32s = growInt32(v.int32s, n)
	case types.PInt64:
		v.int64s = growInt64(v.int64s, n)
	case types.PInt128:
		if v.Type.ID == types.Interval {
			v.interval = growInterval(v.interval, n)
		} else {
			v.decimals = growDecimal(v.decimals, n)
		}
	case types.PFloat32:
		v.float32s = growFloat32(v.float32s, n)
	case types.PFloat64:
		v.float64s = growFloat64(v.float64s, n)
	case types.PStruct:
		if v.Type.ID == types.Struct {
			for _, c := range v.structChild {
				c.ensureCapacity(n)
			}
		} else {
			v.unionTags = append(v.unionTags, make([]int8, n-len(v.unionTags))...)
		}
	}
	if v.validity != nil {
		v.validity.Ensure(n)
	}
}

func growInt8(s []int8, n int) []int8 {
	if len(s) >= n {
		return s
	}
	return append(s, make([]int8, n-len(s))...)
}
func growInt16(s []int16, n int) []int16 {
	if len(s) >= n {
		return s
	}
	return append(s, make([]int16, n-len(s))...)
}
func growInt32(s []int32, n int) []int32 {
	if len(s) >= n {
		return s
	}
	return append(s, make([]int32, n-len(s))...)
}
func growInt64(s []int64, n int) []int64 {
	if len(s) >= n {
		return s
	}
	return append(s, make([]int64, n-len(s))...)
}
func growDecimal(s []types.Decimal128, n int) []types.Decimal128 {
	if len(s) >= n {
		return s
	}
	return append(s, make([]types.Decimal128, n-len(s))...)
}
func growInterval(s []types.Interval, n int) []types.Interval {
	if len(s) >= n {
		return s
	}
	return append(s, make([]types.Interval, n-len(s))...)
}
func growFloat32(s []float32, n int) []float32 {
	if len(s) >= n {
		return s
	}
	return append(s, make([]float32, n-len(s))...)
}
func growFloat64(s []float64, n int) []float64 {
	if len(s) >= n {
		return s
	}
	return append(s, make([]float64, n-len(s))...)
}

// Slice materializes rows [lo, hi) as a new vector - used internally by
// GetList and externally wherever a sub-run of rows needs its own Vector
// (e.g. a join's build-side chunk producer).
func (v *Vector) Slice(lo, hi int) *Vector {
	out := New(v.Type, hi-lo)
	for i := lo; i < hi; i++ {
		out.Append(v.GetValue(i))
	}
	return out
}

// Filter returns a new vector containing only the rows selected by sel,
// materialized (spec.md §3.5 requires a filtered chunk's vectors to be
// materialized copies, not lazily re-selected forever).
func (v *Vector) Filter(sel *SelectionVector) *Vector {
	out := New(v.Type, sel.Count())
	for i := 0; i < sel.Count(); i++ {
		out.Append(v.GetValue(sel.At(i)))
	}
	return out
}
