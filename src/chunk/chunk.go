// Package chunk implements DataChunk, the horizontal slice of rows that
// every operator in src/exec produces and consumes (spec.md §3.5). It
// generalizes the teacher's query.Result (schema + parallel per-column data,
// query/query.go) into a free-standing batch type decoupled from any single
// query's lifecycle.
package chunk

import (
	"fmt"

	"github.com/kokes/vecdb/src/types"
	"github.com/kokes/vecdb/src/vector"
)

// ColumnSchema names one output column: (name, type) pair, ordered.
type ColumnSchema struct {
	Name string
	Type types.LogicalType
}

// Schema is the ordered (name, LogicalType) list an operator's output carries.
type Schema []ColumnSchema

func (s Schema) IndexOf(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// StandardChunkSize is the unit of vectorized execution; every operator
// targets chunks of at most this many rows (spec.md §3.5).
const StandardChunkSize = 2048

// DataChunk is an ordered tuple of Vectors sharing one row count.
type DataChunk struct {
	Schema  Schema
	Vectors []*vector.Vector
}

// New allocates an empty chunk with one Vector per schema column.
func New(schema Schema) *DataChunk {
	vecs := make([]*vector.Vector, len(schema))
	for i, c := range schema {
		vecs[i] = vector.New(c.Type, 0)
	}
	return &DataChunk{Schema: schema, Vectors: vecs}
}

// ColumnCount is fixed once a chunk is constructed (spec.md §3.5 invariant).
func (c *DataChunk) ColumnCount() int { return len(c.Vectors) }

// Count returns the shared row count across all vectors, or 0 for a chunk
// with no columns.
func (c *DataChunk) Count() int {
	if len(c.Vectors) == 0 {
		return 0
	}
	return c.Vectors[0].Count()
}

// Column returns the vector backing the named column, or nil if absent.
func (c *DataChunk) Column(name string) *vector.Vector {
	idx := c.Schema.IndexOf(name)
	if idx < 0 {
		return nil
	}
	return c.Vectors[idx]
}

// checkInvariant panics if the chunk's vectors disagree on row count -
// a programmer error in an operator, never a runtime/data condition.
func (c *DataChunk) checkInvariant() {
	if len(c.Vectors) == 0 {
		return
	}
	n := c.Vectors[0].Count()
	for i, v := range c.Vectors[1:] {
		if v.Count() != n {
			panic(fmt.Sprintf("data chunk invariant violated: column 0 has %d rows, column %d has %d", n, i+1, v.Count()))
		}
	}
}

// AppendRow appends one row of values, one per column, in schema order.
func (c *DataChunk) AppendRow(row []types.Value) {
	if len(row) != len(c.Vectors) {
		panic(fmt.Sprintf("AppendRow: expected %d values, got %d", len(c.Vectors), len(row)))
	}
	for i, val := range row {
		c.Vectors[i].Append(val)
	}
}

// Filter materializes a new chunk containing only the rows selected by sel,
// per spec.md §3.5 ("slicing a chunk by a SelectionVector produces a new
// chunk whose vectors are materialized filtered copies").
func (c *DataChunk) Filter(sel *vector.SelectionVector) *DataChunk {
	out := &DataChunk{Schema: c.Schema, Vectors: make([]*vector.Vector, len(c.Vectors))}
	for i, v := range c.Vectors {
		out.Vectors[i] = v.Filter(sel)
	}
	return out
}

// Slice returns the sub-chunk [lo, hi), materialized.
func (c *DataChunk) Slice(lo, hi int) *DataChunk {
	out := &DataChunk{Schema: c.Schema, Vectors: make([]*vector.Vector, len(c.Vectors))}
	for i, v := range c.Vectors {
		out.Vectors[i] = v.Slice(lo, hi)
	}
	return out
}

// Row materializes the row at index i across every column, in schema order.
func (c *DataChunk) Row(i int) []types.Value {
	row := make([]types.Value, len(c.Vectors))
	for j, v := range c.Vectors {
		row[j] = v.GetValue(i)
	}
	return row
}

// Append concatenates src's rows onto c; schemas must match by column count
// and type (names are not compared, matching a UNION's "positional" semantics).
func (c *DataChunk) Append(src *DataChunk) error {
	if len(c.Vectors) != len(src.Vectors) {
		return fmt.Errorf("chunk.Append: column count mismatch: %d vs %d", len(c.Vectors), len(src.Vectors))
	}
	for i := range c.Vectors {
		if !c.Vectors[i].Type.Equal(src.Vectors[i].Type) {
			return fmt.Errorf("chunk.Append: column %d type mismatch: %s vs %s", i, c.Vectors[i].Type, src.Vectors[i].Type)
		}
	}
	for r := 0; r < src.Count(); r++ {
		c.AppendRow(src.Row(r))
	}
	return nil
}
