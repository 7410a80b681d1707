package catalog

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	roaring "github.com/RoaringBitmap/roaring/v2"
	"github.com/golang/snappy"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/types"
)

// stripeCapacity mirrors the teacher's Config.MaxRowsPerStripe default
// (database/dataset.go: 100_000) - the row count at which a stripe is
// considered full and frozen into its compressed, read-mostly form.
const stripeCapacity = 100_000

// stripe is one contiguous run of a table's rows. A stripe still being
// appended to (hot) keeps its rows in a live DataChunk; once it reaches
// stripeCapacity it is frozen: its rows are gob-encoded and snappy-
// compressed, the same cold-payload compression the teacher applies to its
// on-disk column stripes, adapted here to an in-memory byte blob instead of
// a file.
type stripe struct {
	hot    *chunk.DataChunk // nil once frozen
	frozen []byte           // snappy-compressed gob payload, nil while hot
	rows   int              // row count, valid in either state
}

// memTableRef is the in-memory TableRef/TableData implementation.
type memTableRef struct {
	schema chunk.Schema

	mu         sync.RWMutex
	stripes    []*stripe
	tombstones *roaring.Bitmap // indexed by physical row id (stripe-major, row-minor)
	physical   int             // total rows ever inserted
}

func newMemTableRef(schema chunk.Schema) *memTableRef {
	return &memTableRef{schema: schema, tombstones: roaring.New()}
}

func (t *memTableRef) Schema() chunk.Schema { return t.schema }
func (t *memTableRef) Data() TableData      { return t }

func (t *memTableRef) PhysicalRowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.physical
}

func (t *memTableRef) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.physical - int(t.tombstones.GetCardinality())
}

// encodableRow / decodeable representation used only to freeze cold stripes;
// a row is encoded as one slice of gobValue per column.
type gobValue struct {
	IsNull bool
	Tag    types.ID
	I64    int64
	Dec    string // Decimal128's unscaled integer in base 10 - parsed back with fmt.Sscanf on read
	Prec   uint8
	Scale  uint8
	F64    float64
	S      string
}

func toGobValue(v types.Value) gobValue {
	g := gobValue{IsNull: v.IsNull, Tag: v.Type.ID}
	if v.IsNull {
		return g
	}
	switch v.Type.ID {
	case types.Boolean:
		if v.Bool() {
			g.I64 = 1
		}
	case types.TinyInt, types.SmallInt, types.Integer, types.BigInt, types.Date, types.Time, types.Timestamp, types.Enum:
		g.I64 = v.Int64()
	case types.HugeInt, types.Decimal:
		d := v.Decimal()
		g.Dec = d.Unscaled.String()
		g.Prec, g.Scale = d.Precision, d.Scale
	case types.Float, types.Double:
		g.F64 = v.Float64()
	case types.Varchar, types.Char, types.JSON, types.Blob, types.UUID:
		g.S = v.Text()
	}
	return g
}

func fromGobValue(g gobValue, want types.LogicalType) (types.Value, error) {
	if g.IsNull {
		return types.NewNull(want), nil
	}
	switch g.Tag {
	case types.Boolean:
		return types.NewBool(g.I64 != 0), nil
	case types.TinyInt:
		return types.NewTinyInt(int8(g.I64)), nil
	case types.SmallInt:
		return types.NewSmallInt(int16(g.I64)), nil
	case types.Integer:
		return types.NewInteger(int32(g.I64)), nil
	case types.BigInt:
		return types.NewBigInt(g.I64), nil
	case types.Date:
		return types.NewDateValue(types.Date(g.I64)), nil
	case types.Time:
		return types.NewTimeValue(types.Time(g.I64)), nil
	case types.Timestamp:
		return types.NewTimestampValue(types.Timestamp(g.I64)), nil
	case types.Enum:
		return types.NewEnumValue(want, int(g.I64)), nil
	case types.HugeInt, types.Decimal:
		var unscaled int64
		fmt.Sscanf(g.Dec, "%d", &unscaled)
		d, err := types.NewDecimal128(unscaled, g.Prec, g.Scale)
		if err != nil {
			return types.Value{}, err
		}
		if g.Tag == types.HugeInt {
			return types.NewHugeInt(d), nil
		}
		return types.NewDecimalValue(d), nil
	case types.Float:
		return types.NewFloat(float32(g.F64)), nil
	case types.Double:
		return types.NewDouble(g.F64), nil
	case types.Varchar:
		return types.NewVarchar(g.S), nil
	case types.Char:
		return types.NewCharValue(want.Width, g.S), nil
	case types.JSON:
		return types.NewJSONValue(g.S), nil
	case types.Blob:
		return types.NewBlob([]byte(g.S)), nil
	case types.UUID:
		return types.NewUUIDValue(g.S), nil
	default:
		return types.Value{}, fmt.Errorf("cold-stripe decode: unsupported type %s", g.Tag)
	}
}

// freeze compresses a full stripe's rows, releasing the hot DataChunk.
func (t *memTableRef) freeze(s *stripe) error {
	rows := make([][]gobValue, s.hot.Count())
	for r := 0; r < s.hot.Count(); r++ {
		row := s.hot.Row(r)
		grow := make([]gobValue, len(row))
		for c, v := range row {
			grow[c] = toGobValue(v)
		}
		rows[r] = grow
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rows); err != nil {
		return fmt.Errorf("freezing stripe: %w", err)
	}
	s.frozen = snappy.Encode(nil, buf.Bytes())
	s.hot = nil
	return nil
}

// thaw decompresses a frozen stripe back into a DataChunk without mutating
// the stripe's own stored (still-compressed) representation.
func (t *memTableRef) thaw(s *stripe) (*chunk.DataChunk, error) {
	raw, err := snappy.Decode(nil, s.frozen)
	if err != nil {
		return nil, fmt.Errorf("thawing stripe: %w", err)
	}
	var rows [][]gobValue
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&rows); err != nil {
		return nil, fmt.Errorf("thawing stripe: %w", err)
	}
	out := chunk.New(t.schema)
	for _, grow := range rows {
		row := make([]types.Value, len(grow))
		for c, g := range grow {
			v, err := fromGobValue(g, t.schema[c].Type)
			if err != nil {
				return nil, err
			}
			row[c] = v
		}
		out.AppendRow(row)
	}
	return out, nil
}

func (t *memTableRef) InsertRow(row []types.Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.stripes) == 0 || t.stripes[len(t.stripes)-1].rows >= stripeCapacity {
		t.stripes = append(t.stripes, &stripe{hot: chunk.New(t.schema)})
	}
	s := t.stripes[len(t.stripes)-1]
	if s.hot == nil {
		return fmt.Errorf("internal: active stripe is frozen")
	}
	s.hot.AppendRow(row)
	s.rows++
	t.physical++
	if s.rows >= stripeCapacity {
		if err := t.freeze(s); err != nil {
			return err
		}
	}
	return nil
}

// physicalRange returns [start, end) physical row ids for stripe index i.
func (t *memTableRef) physicalRange(i int) (int, int) {
	start := 0
	for j := 0; j < i; j++ {
		start += t.stripes[j].rows
	}
	return start, start + t.stripes[i].rows
}

// DeleteRow tombstones a physical row without compacting storage - per the
// open-question decision in DESIGN.md, tombstones are never automatically
// compacted here.
func (t *memTableRef) DeleteRow(physicalRow int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if physicalRow < 0 || physicalRow >= t.physical {
		return fmt.Errorf("delete: physical row %d out of range", physicalRow)
	}
	t.tombstones.Add(uint32(physicalRow))
	return nil
}

func (t *memTableRef) stripeChunk(s *stripe) (*chunk.DataChunk, error) {
	if s.hot != nil {
		return s.hot, nil
	}
	return t.thaw(s)
}

// CreateChunk returns up to maxRows *live* rows starting at the given
// logical (tombstone-skipping) offset.
func (t *memTableRef) CreateChunk(offset, maxRows int) (*chunk.DataChunk, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := chunk.New(t.schema)
	logical := 0
	for i, s := range t.stripes {
		start, end := t.physicalRange(i)
		dc, err := t.stripeChunk(s)
		if err != nil {
			return nil, err
		}
		for p := start; p < end; p++ {
			if t.tombstones.Contains(uint32(p)) {
				continue
			}
			if logical < offset {
				logical++
				continue
			}
			out.AppendRow(dc.Row(p - start))
			logical++
			if out.Count() >= maxRows {
				return out, nil
			}
		}
	}
	return out, nil
}

// CreateChunkUnfiltered returns a physical range of rows, tombstoned or not.
func (t *memTableRef) CreateChunkUnfiltered(offset, maxRows int) (*chunk.DataChunk, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := chunk.New(t.schema)
	for i, s := range t.stripes {
		start, end := t.physicalRange(i)
		if end <= offset {
			continue
		}
		dc, err := t.stripeChunk(s)
		if err != nil {
			return nil, err
		}
		for p := start; p < end; p++ {
			if p < offset {
				continue
			}
			out.AppendRow(dc.Row(p - start))
			if out.Count() >= maxRows {
				return out, nil
			}
		}
	}
	return out, nil
}

func (t *memTableRef) UpdateRow(physicalRow int, row []types.Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.stripes {
		start, end := t.physicalRange(i)
		if physicalRow < start || physicalRow >= end {
			continue
		}
		local := physicalRow - start
		if s.hot == nil {
			dc, err := t.thaw(s)
			if err != nil {
				return err
			}
			s.hot = dc
			s.frozen = nil
		}
		s.hot = rebuildWithReplacement(t.schema, s.hot, local, row)
		return nil
	}
	return fmt.Errorf("update: physical row %d out of range", physicalRow)
}

// rebuildWithReplacement materializes a new chunk with row `local` replaced
// by `row` - DataChunk/Vector have no in-place row mutation (spec.md §3.6:
// chunks are owned, ephemeral values), so UPDATE rebuilds the stripe's chunk
// the way a columnar store without MVCC would. Transactional
// interior-mutability is out of scope per spec.md §1; this reference
// catalog just overwrites in place under the table's write lock.
func rebuildWithReplacement(schema chunk.Schema, dc *chunk.DataChunk, local int, row []types.Value) *chunk.DataChunk {
	out := chunk.New(schema)
	for r := 0; r < dc.Count(); r++ {
		if r == local {
			out.AppendRow(row)
		} else {
			out.AppendRow(dc.Row(r))
		}
	}
	return out
}
