// Package catalog defines the contract the execution core expects from a
// table/schema store (spec.md §6.1) and ships MemCatalog, an in-memory
// reference implementation. Grounded on database.Database/Dataset
// (database/dataset.go: sync.Mutex-guarded dataset list, JSON-describable
// Config) with the CSV-ingestion/disk-persistence machinery stripped out -
// per DESIGN.md, the catalog is an out-of-scope external collaborator that
// the core only ever touches through this contract.
package catalog

import (
	"fmt"
	"sync"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/types"
)

// TableInfo describes a table at creation time.
type TableInfo struct {
	Schema  string
	Name    string
	Columns chunk.Schema
}

// Catalog resolves (schema, name) pairs to TableRefs and manages the set of
// known tables. One Catalog is shared read-mostly by every concurrent query;
// DDL (create/drop) takes an exclusive lock internally.
type Catalog interface {
	GetTable(schema, name string) (TableRef, error)
	CreateTable(info TableInfo) error
	DropTable(schema, name string) error
	TableExists(schema, name string) bool
	ListTables(schema string) []string
}

// TableRef is a handle to one table's storage.
type TableRef interface {
	Schema() chunk.Schema
	Data() TableData
}

// TableData is the reader/writer-lockable column store behind a table,
// per spec.md §6.1.
type TableData interface {
	PhysicalRowCount() int // includes tombstoned rows
	RowCount() int         // excludes tombstoned rows

	// CreateChunk returns up to maxRows live (non-tombstoned) rows starting
	// at the given logical offset, or fewer at the tail.
	CreateChunk(offset, maxRows int) (*chunk.DataChunk, error)
	// CreateChunkUnfiltered returns a physical range of rows, including any
	// tombstoned ones - used by operators (e.g. a compaction pass, were one
	// implemented) that need to see the raw underlying storage.
	CreateChunkUnfiltered(offset, maxRows int) (*chunk.DataChunk, error)

	InsertRow(row []types.Value) error
	UpdateRow(physicalRow int, row []types.Value) error
	DeleteRow(physicalRow int) error
}

// MemCatalog is an in-memory Catalog: tables are keyed by "schema.name" and
// held behind a single RWMutex (reads - GetTable/ListTables/TableExists -
// take the read lock; DDL takes the write lock), mirroring the coarseness of
// the teacher's single sync.Mutex on Database but widened to RWMutex since
// table lookups vastly outnumber DDL in a read-heavy analytical workload.
type MemCatalog struct {
	mu     sync.RWMutex
	tables map[string]*memTableRef
}

func NewMemCatalog() *MemCatalog {
	return &MemCatalog{tables: make(map[string]*memTableRef)}
}

func key(schema, name string) string { return schema + "." + name }

func (c *MemCatalog) GetTable(schema, name string) (TableRef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[key(schema, name)]
	if !ok {
		return nil, fmt.Errorf("table %s.%s not found", schema, name)
	}
	return t, nil
}

func (c *MemCatalog) CreateTable(info TableInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(info.Schema, info.Name)
	if _, ok := c.tables[k]; ok {
		return fmt.Errorf("table %s.%s already exists", info.Schema, info.Name)
	}
	c.tables[k] = newMemTableRef(info.Columns)
	return nil
}

func (c *MemCatalog) DropTable(schema, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(schema, name)
	if _, ok := c.tables[k]; !ok {
		return fmt.Errorf("table %s.%s not found", schema, name)
	}
	delete(c.tables, k)
	return nil
}

func (c *MemCatalog) TableExists(schema, name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tables[key(schema, name)]
	return ok
}

func (c *MemCatalog) ListTables(schema string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	prefix := schema + "."
	for k := range c.tables {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, k[len(prefix):])
		}
	}
	return out
}
