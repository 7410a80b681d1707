// Package execctx carries everything an operator needs beyond its own inputs:
// catalog access, a logger, parallelism/resource limits, cancellation, and
// running statistics. Grounded on database.Config's explicit-struct-with-
// defaults shape (database/dataset.go) and original_source's execution
// context, which plays the same role across operators.rs.
package execctx

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kokes/vecdb/src/catalog"
	"github.com/kokes/vecdb/src/morsel"
)

// Mode selects single-threaded vs morsel-parallel execution, per spec.md §5.
type Mode uint8

const (
	ModeParallel Mode = iota
	ModeStandard
)

// Limits bounds the resources a single query execution may consume.
type Limits struct {
	MaxMemoryBytes int64
	MaxThreads     int
	Timeout        time.Duration
}

// DefaultLimits mirrors the teacher's habit of shipping sane defaults
// alongside the struct (database.Config's MaxRowsPerStripe/MaxBytesPerStripe).
func DefaultLimits() Limits {
	return Limits{
		MaxMemoryBytes: 1 << 30, // 1 GiB
		MaxThreads:     0,       // 0 => runtime.NumCPU(), resolved in morsel.Config
		Timeout:        0,       // 0 => no timeout
	}
}

// Stats accumulates counters across a query's lifetime; fields are updated
// with atomic adds so concurrent operators can share one Stats instance.
type Stats struct {
	RowsProcessed     int64
	ExecutionTimeMS   int64
	MemoryUsedBytes   int64
	OperatorsExecuted int64
}

func (s *Stats) AddRows(n int64)      { atomic.AddInt64(&s.RowsProcessed, n) }
func (s *Stats) AddMemory(n int64)    { atomic.AddInt64(&s.MemoryUsedBytes, n) }
func (s *Stats) RecordOperator()      { atomic.AddInt64(&s.OperatorsExecuted, 1) }
func (s *Stats) SetExecutionTime(d time.Duration) {
	atomic.StoreInt64(&s.ExecutionTimeMS, d.Milliseconds())
}

// Snapshot returns a copy safe to read without racing concurrent updates.
func (s *Stats) Snapshot() Stats {
	return Stats{
		RowsProcessed:     atomic.LoadInt64(&s.RowsProcessed),
		ExecutionTimeMS:   atomic.LoadInt64(&s.ExecutionTimeMS),
		MemoryUsedBytes:   atomic.LoadInt64(&s.MemoryUsedBytes),
		OperatorsExecuted: atomic.LoadInt64(&s.OperatorsExecuted),
	}
}

// Context bundles a query's resources. A zero Context is not usable; build
// one with New.
type Context struct {
	QueryID uuid.UUID
	Catalog catalog.Catalog
	Mode    Mode
	Limits  Limits
	Logger  *zap.Logger
	Stats   *Stats

	Params []interface{} // positional parameter bindings for the plan's placeholders

	mu        sync.Mutex
	cancelled bool
}

// New builds a fresh Context with a random query id and a no-op logger;
// callers typically override Logger with one built by zap.NewProduction()
// or similar.
func New(cat catalog.Catalog, mode Mode, limits Limits) *Context {
	return &Context{
		QueryID: uuid.New(),
		Catalog: cat,
		Mode:    mode,
		Limits:  limits,
		Logger:  zap.NewNop(),
		Stats:   &Stats{},
	}
}

// MorselConfig derives a morsel.Config from this context's mode/limits.
func (c *Context) MorselConfig() morsel.Config {
	return morsel.Config{
		NumWorkers: c.Limits.MaxThreads,
		Parallel:   c.Mode == ModeParallel,
	}
}

// Cancel marks the context cancelled; cooperative checkpoints (CheckCancelled)
// observe it on their next call. Safe for concurrent use.
func (c *Context) Cancel() {
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()
}

func (c *Context) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// CheckCancelled returns context.Canceled if this context (or the supplied
// ctx) has been cancelled. Operators call this between morsels/chunks, never
// mid-expression (spec.md §4.5's cooperative-cancellation granularity).
func (c *Context) CheckCancelled(ctx context.Context) error {
	if c.Cancelled() {
		return context.Canceled
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
