// Package memory provides a simple in-memory implementation used for development
// and tests. Every method takes the single store lock, so the merge-upserts are
// atomic: two concurrent recordings of the same (date, service) pair can never
// both observe "not found" and insert duplicate rows.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/salonbook/salonbook/internal/book"
	"github.com/salonbook/salonbook/internal/errs"
)

// recordKey is the composite business key of a daily record.
type recordKey struct {
	Date      book.Day
	ServiceID uuid.UUID
}

// expenseKey is the composite business key of a monthly expense.
type expenseKey struct {
	YearMonth  book.YearMonth
	CategoryID uuid.UUID
}

// Store is an in-memory implementation of the catalog and ledger repositories.
// It is guarded by an RWMutex for concurrent reads/writes.
type Store struct {
	mu         sync.RWMutex
	services   map[uuid.UUID]book.Service
	categories map[uuid.UUID]book.ExpenseCategory

	records     map[uuid.UUID]book.DailyRecord
	recordKeys  map[recordKey]uuid.UUID
	adjustments map[uuid.UUID]book.DailyAdjustment
	expenses    map[uuid.UUID]book.MonthlyExpense
	expenseKeys map[expenseKey]uuid.UUID

	now func() time.Time
}

// New constructs an empty in-memory store.
func New() *Store {
	s := &Store{now: func() time.Time { return time.Now().UTC() }}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.services = make(map[uuid.UUID]book.Service)
	s.categories = make(map[uuid.UUID]book.ExpenseCategory)
	s.records = make(map[uuid.UUID]book.DailyRecord)
	s.recordKeys = make(map[recordKey]uuid.UUID)
	s.adjustments = make(map[uuid.UUID]book.DailyAdjustment)
	s.expenses = make(map[uuid.UUID]book.MonthlyExpense)
	s.expenseKeys = make(map[expenseKey]uuid.UUID)
}

// Reset clears all rows. Used by tests and the dev seed.
func (s *Store) Reset() {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
}

// Seed helpers for local dev/tests.
func (s *Store) SeedService(v book.Service) {
	s.mu.Lock()
	s.services[v.ID] = v
	s.mu.Unlock()
}

func (s *Store) SeedCategory(c book.ExpenseCategory) {
	s.mu.Lock()
	s.categories[c.ID] = c
	s.mu.Unlock()
}

// Ready reports store health; the in-memory store is always ready.
func (s *Store) Ready(context.Context) error { return nil }

// --- Catalog: services ---

// ListServices returns the catalog sorted by display order.
func (s *Store) ListServices(context.Context) ([]book.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]book.Service, 0, len(s.services))
	for _, v := range s.services {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetService fetches a single service by id.
func (s *Store) GetService(_ context.Context, id uuid.UUID) (book.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.services[id]
	if !ok {
		return book.Service{}, errs.ErrNotFound
	}
	return v, nil
}

// CreateService inserts a service, appending it at the end of the display order.
func (s *Store) CreateService(_ context.Context, v book.Service) (book.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// max+1, not the row count: deleting a non-last entry leaves a gap in the
	// order sequence, and the count would collide with a surviving row.
	v.DisplayOrder = 0
	for _, existing := range s.services {
		if existing.DisplayOrder >= v.DisplayOrder {
			v.DisplayOrder = existing.DisplayOrder + 1
		}
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now()
	}
	v.UpdatedAt = v.CreatedAt
	s.services[v.ID] = v
	return v, nil
}

// UpdateService replaces an existing service row.
func (s *Store) UpdateService(_ context.Context, v book.Service) (book.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[v.ID]; !ok {
		return book.Service{}, errs.ErrNotFound
	}
	v.UpdatedAt = s.now()
	s.services[v.ID] = v
	return v, nil
}

// DeleteService removes a service. Daily records referencing it are left in
// place; readers substitute a fallback for the missing service.
func (s *Store) DeleteService(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.services, id)
	return nil
}

// ReorderServices rewrites display order to the index of each id in ids.
// The list must name every service exactly once; the rewrite is atomic.
func (s *Store) ReorderServices(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkPermutation(ids, len(s.services), func(id uuid.UUID) bool {
		_, ok := s.services[id]
		return ok
	}); err != nil {
		return err
	}
	ts := s.now()
	for i, id := range ids {
		v := s.services[id]
		v.DisplayOrder = i
		v.UpdatedAt = ts
		s.services[id] = v
	}
	return nil
}

// --- Catalog: expense categories ---

// ListCategories returns expense categories sorted by display order.
func (s *Store) ListCategories(context.Context) ([]book.ExpenseCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]book.ExpenseCategory, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetCategory fetches a single category by id.
func (s *Store) GetCategory(_ context.Context, id uuid.UUID) (book.ExpenseCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return book.ExpenseCategory{}, errs.ErrNotFound
	}
	return c, nil
}

// CreateCategory inserts a category at the end of the display order.
func (s *Store) CreateCategory(_ context.Context, c book.ExpenseCategory) (book.ExpenseCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.DisplayOrder = 0
	for _, existing := range s.categories {
		if existing.DisplayOrder >= c.DisplayOrder {
			c.DisplayOrder = existing.DisplayOrder + 1
		}
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.categories[c.ID] = c
	return c, nil
}

// UpdateCategory replaces an existing category row.
func (s *Store) UpdateCategory(_ context.Context, c book.ExpenseCategory) (book.ExpenseCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return book.ExpenseCategory{}, errs.ErrNotFound
	}
	s.categories[c.ID] = c
	return c, nil
}

// DeleteCategory removes a category without touching referencing expenses.
func (s *Store) DeleteCategory(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// ReorderCategories rewrites category display order to the list's index order.
func (s *Store) ReorderCategories(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkPermutation(ids, len(s.categories), func(id uuid.UUID) bool {
		_, ok := s.categories[id]
		return ok
	}); err != nil {
		return err
	}
	for i, id := range ids {
		c := s.categories[id]
		c.DisplayOrder = i
		s.categories[id] = c
	}
	return nil
}

func checkPermutation(ids []uuid.UUID, n int, exists func(uuid.UUID) bool) error {
	if len(ids) != n {
		return errs.ErrInvalid
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return errs.ErrInvalid
		}
		seen[id] = struct{}{}
		if !exists(id) {
			return errs.ErrNotFound
		}
	}
	return nil
}

// --- Ledger: daily records ---

// RecordsByDay returns the day's records ordered by creation time.
func (s *Store) RecordsByDay(_ context.Context, day book.Day) ([]book.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]book.DailyRecord, 0)
	for _, r := range s.records {
		if r.Date == day {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// RecordsInRange returns records with from <= date <= to, ordered by date.
func (s *Store) RecordsInRange(_ context.Context, from, to book.Day) ([]book.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]book.DailyRecord, 0)
	for _, r := range s.records {
		if r.Date >= from && r.Date <= to {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetRecord fetches a daily record by id.
func (s *Store) GetRecord(_ context.Context, id uuid.UUID) (book.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return book.DailyRecord{}, errs.ErrNotFound
	}
	return r, nil
}

// MergeRecord is the atomic merge-upsert keyed by (date, service). If a row
// for the key exists, the incoming count and amount are added to it; otherwise
// the incoming row is inserted. Exactly one row per key exists afterwards.
func (s *Store) MergeRecord(_ context.Context, in book.DailyRecord) (book.DailyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{Date: in.Date, ServiceID: in.ServiceID}
	if id, ok := s.recordKeys[key]; ok {
		r := s.records[id]
		r.Count += in.Count
		r.TotalAmount += in.TotalAmount
		s.records[id] = r
		return r, nil
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now()
	}
	s.records[in.ID] = in
	s.recordKeys[key] = in.ID
	return in, nil
}

// UpdateRecord replaces count and total amount on an existing record.
func (s *Store) UpdateRecord(_ context.Context, id uuid.UUID, count int, totalAmount int64) (book.DailyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return book.DailyRecord{}, errs.ErrNotFound
	}
	r.Count = count
	r.TotalAmount = totalAmount
	s.records[id] = r
	return r, nil
}

// DeleteRecord removes a record and frees its composite key.
func (s *Store) DeleteRecord(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return errs.ErrNotFound
	}
	delete(s.records, id)
	delete(s.recordKeys, recordKey{Date: r.Date, ServiceID: r.ServiceID})
	return nil
}

// --- Ledger: daily adjustments ---

// AdjustmentsByDay returns the day's adjustments ordered by creation time.
func (s *Store) AdjustmentsByDay(_ context.Context, day book.Day) ([]book.DailyAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]book.DailyAdjustment, 0)
	for _, a := range s.adjustments {
		if a.Date == day {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AdjustmentsInRange returns adjustments with from <= date <= to, ordered by date.
func (s *Store) AdjustmentsInRange(_ context.Context, from, to book.Day) ([]book.DailyAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]book.DailyAdjustment, 0)
	for _, a := range s.adjustments {
		if a.Date >= from && a.Date <= to {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetAdjustment fetches an adjustment by id.
func (s *Store) GetAdjustment(_ context.Context, id uuid.UUID) (book.DailyAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.adjustments[id]
	if !ok {
		return book.DailyAdjustment{}, errs.ErrNotFound
	}
	return a, nil
}

// CreateAdjustment inserts an adjustment row.
func (s *Store) CreateAdjustment(_ context.Context, a book.DailyAdjustment) (book.DailyAdjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.adjustments[a.ID] = a
	return a, nil
}

// UpdateAdjustment replaces an existing adjustment row.
func (s *Store) UpdateAdjustment(_ context.Context, a book.DailyAdjustment) (book.DailyAdjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.adjustments[a.ID]; !ok {
		return book.DailyAdjustment{}, errs.ErrNotFound
	}
	s.adjustments[a.ID] = a
	return a, nil
}

// DeleteAdjustment removes an adjustment row.
func (s *Store) DeleteAdjustment(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.adjustments[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.adjustments, id)
	return nil
}

// --- Ledger: monthly expenses ---

// ExpensesByMonth returns the month's expenses ordered by creation time.
func (s *Store) ExpensesByMonth(_ context.Context, ym book.YearMonth) ([]book.MonthlyExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]book.MonthlyExpense, 0)
	for _, e := range s.expenses {
		if e.YearMonth == ym {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetExpense fetches a monthly expense by id.
func (s *Store) GetExpense(_ context.Context, id uuid.UUID) (book.MonthlyExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok {
		return book.MonthlyExpense{}, errs.ErrNotFound
	}
	return e, nil
}

// PutExpense is the atomic overwrite-upsert keyed by (year month, category).
// The incoming amount replaces the existing one. The memo is replaced only
// when replaceMemo is set; an unset memo leaves the stored memo untouched,
// so copying last month's amounts does not clobber notes.
func (s *Store) PutExpense(_ context.Context, in book.MonthlyExpense, replaceMemo bool) (book.MonthlyExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := expenseKey{YearMonth: in.YearMonth, CategoryID: in.CategoryID}
	if id, ok := s.expenseKeys[key]; ok {
		e := s.expenses[id]
		e.Amount = in.Amount
		if replaceMemo {
			e.Memo = in.Memo
		}
		s.expenses[id] = e
		return e, nil
	}
	if !replaceMemo {
		in.Memo = nil
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now()
	}
	s.expenses[in.ID] = in
	s.expenseKeys[key] = in.ID
	return in, nil
}

// DeleteExpense removes an expense row and frees its composite key.
func (s *Store) DeleteExpense(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return errs.ErrNotFound
	}
	delete(s.expenses, id)
	delete(s.expenseKeys, expenseKey{YearMonth: e.YearMonth, CategoryID: e.CategoryID})
	return nil
}
