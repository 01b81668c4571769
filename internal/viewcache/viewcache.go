// Package viewcache implements the read/write consistency coordinator: a set
// of cached read views keyed the way the UI queries them, plus the declarative
// invalidation rules that map each mutation to the views it stales.
//
// The contract is that no rule-covered read returns data staler than the most
// recent committed write. Entries also age out on a TTL so views the rules do
// not cover (e.g. another process writing to the same store) converge too.
package viewcache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/salonbook/salonbook/internal/book"
)

// View is a TTL cache for one family of read views, e.g. "records by day".
// Concurrent cache misses for the same key are collapsed into a single store
// load via singleflight.
type View[T any] struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]entry[T]
	// gens detects invalidations that race an in-flight load: a result is
	// only cached when the key's generation is unchanged since the load
	// started, so a load that began before a write can never bury it.
	gens map[string]uint64

	sf  singleflight.Group
	now func() time.Time
}

type entry[T any] struct {
	data      T
	expiresAt time.Time
}

// NewView constructs an empty view cache with the given freshness window.
func NewView[T any](ttl time.Duration) *View[T] {
	return &View[T]{
		ttl:     ttl,
		entries: make(map[string]entry[T]),
		gens:    make(map[string]uint64),
		now:     time.Now,
	}
}

// Get returns the cached value for key, or runs load and caches the result.
//
// The singleflight key carries the generation, so a reader arriving after an
// invalidation never joins a load that started before the write; it always
// triggers a fresh load of its own generation.
func (v *View[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	v.mu.Lock()
	if e, ok := v.entries[key]; ok && v.now().Before(e.expiresAt) {
		v.mu.Unlock()
		return e.data, nil
	}
	gen := v.gens[key]
	// Register the key so Clear sees loads that are in flight before anything
	// was ever cached for them.
	v.gens[key] = gen
	v.mu.Unlock()

	res, err, _ := v.sf.Do(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) { return load(ctx) })
	if err != nil {
		var zero T
		return zero, err
	}
	data := res.(T)

	v.mu.Lock()
	if v.gens[key] == gen {
		v.entries[key] = entry[T]{data: data, expiresAt: v.now().Add(v.ttl)}
	}
	v.mu.Unlock()
	return data, nil
}

// Invalidate drops the given keys and bumps their generation.
func (v *View[T]) Invalidate(keys ...string) {
	v.mu.Lock()
	for _, key := range keys {
		delete(v.entries, key)
		v.gens[key]++
	}
	v.mu.Unlock()
}

// Clear drops every cached entry in the view. Gets register their key in
// gens before loading, so bumping every known generation also detaches loads
// that are mid-flight but not yet cached.
func (v *View[T]) Clear() {
	v.mu.Lock()
	clear(v.entries)
	for key := range v.gens {
		v.gens[key]++
	}
	v.mu.Unlock()
}

// Len returns the number of cached entries, for tests and introspection.
func (v *View[T]) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// CleanExpired drops entries past their TTL and reports how many were removed.
func (v *View[T]) CleanExpired() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	now := v.now()
	for key, e := range v.entries {
		if !now.Before(e.expiresAt) {
			delete(v.entries, key)
			n++
		}
	}
	return n
}

// Coordinator owns one View per read-view family and encodes the invalidation
// table: which views each mutation stales.
type Coordinator struct {
	DailyRecords   *View[[]book.DailyRecord]
	MonthlyRecords *View[[]book.DailyRecord]
	Adjustments    *View[[]book.DailyAdjustment]
	Expenses       *View[[]book.MonthlyExpense]
	Services       *View[[]book.Service]
	Categories     *View[[]book.ExpenseCategory]
}

// New constructs a coordinator whose views share one freshness window.
func New(ttl time.Duration) *Coordinator {
	return &Coordinator{
		DailyRecords:   NewView[[]book.DailyRecord](ttl),
		MonthlyRecords: NewView[[]book.DailyRecord](ttl),
		Adjustments:    NewView[[]book.DailyAdjustment](ttl),
		Expenses:       NewView[[]book.MonthlyExpense](ttl),
		Services:       NewView[[]book.Service](ttl),
		Categories:     NewView[[]book.ExpenseCategory](ttl),
	}
}

// RecordsChanged covers DailyRecord create/update/delete: the day's record
// view and the containing month's record view go stale.
func (c *Coordinator) RecordsChanged(d book.Day) {
	c.DailyRecords.Invalidate(string(d))
	c.MonthlyRecords.Invalidate(string(d.Month()))
}

// AdjustmentsChanged covers DailyAdjustment create/update/delete: the day's
// adjustment view goes stale (daily totals depend on it).
func (c *Coordinator) AdjustmentsChanged(d book.Day) {
	c.Adjustments.Invalidate(string(d))
}

// ExpensesChanged covers MonthlyExpense upsert/delete: the month's expense
// view goes stale.
func (c *Coordinator) ExpensesChanged(ym book.YearMonth) {
	c.Expenses.Invalidate(string(ym))
}

// ServicesChanged covers any service catalog mutation, reorders included: the
// whole catalog view goes stale.
func (c *Coordinator) ServicesChanged() { c.Services.Clear() }

// CategoriesChanged covers any expense-category catalog mutation.
func (c *Coordinator) CategoriesChanged() { c.Categories.Clear() }
