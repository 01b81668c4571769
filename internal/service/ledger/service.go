// Package ledger implements the transactional rules: the merge-upsert paths
// for daily records and monthly expenses, the separate quantity-adjustment
// path, daily adjustments, and the monthly settlement read.
//
// The package holds no lock of its own. Uniqueness of the composite business
// keys is guaranteed by the store's atomic upsert primitives, which is the
// one place mutual exclusion is required.
package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/salonbook/salonbook/internal/book"
	"github.com/salonbook/salonbook/internal/errs"
	"github.com/salonbook/salonbook/internal/service"
)

type Repo interface {
	RecordsByDay(ctx context.Context, day book.Day) ([]book.DailyRecord, error)
	RecordsInRange(ctx context.Context, from, to book.Day) ([]book.DailyRecord, error)
	GetRecord(ctx context.Context, id uuid.UUID) (book.DailyRecord, error)
	AdjustmentsByDay(ctx context.Context, day book.Day) ([]book.DailyAdjustment, error)
	AdjustmentsInRange(ctx context.Context, from, to book.Day) ([]book.DailyAdjustment, error)
	GetAdjustment(ctx context.Context, id uuid.UUID) (book.DailyAdjustment, error)
	ExpensesByMonth(ctx context.Context, ym book.YearMonth) ([]book.MonthlyExpense, error)
	GetExpense(ctx context.Context, id uuid.UUID) (book.MonthlyExpense, error)
}

type Writer interface {
	MergeRecord(ctx context.Context, r book.DailyRecord) (book.DailyRecord, error)
	UpdateRecord(ctx context.Context, id uuid.UUID, count int, totalAmount int64) (book.DailyRecord, error)
	DeleteRecord(ctx context.Context, id uuid.UUID) error
	CreateAdjustment(ctx context.Context, a book.DailyAdjustment) (book.DailyAdjustment, error)
	UpdateAdjustment(ctx context.Context, a book.DailyAdjustment) (book.DailyAdjustment, error)
	DeleteAdjustment(ctx context.Context, id uuid.UUID) error
	PutExpense(ctx context.Context, e book.MonthlyExpense, replaceMemo bool) (book.MonthlyExpense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) *Service { return &Service{repo: repo, writer: writer} }

// AdjustmentPatch holds partial updates for a daily adjustment; nil fields
// are left unchanged.
type AdjustmentPatch struct {
	Amount *int64
	Reason *string
}

// --- Daily records ---

// Record merges a "service performed" event into the ledger. TotalAmount is
// the amount actually charged, priced by the caller at recording time; the
// engine stores it as-is and never re-derives it from the catalog.
//
// The store-level upsert guarantees exactly one row per (date, service) pair
// even under concurrent recordings.
func (s *Service) Record(ctx context.Context, date book.Day, serviceID uuid.UUID, count int, totalAmount int64) (book.DailyRecord, error) {
	if date == "" || serviceID == uuid.Nil || count < 1 || totalAmount < 0 {
		return book.DailyRecord{}, errs.ErrInvalid
	}
	r := book.DailyRecord{
		ID:          uuid.New(),
		Date:        date,
		ServiceID:   serviceID,
		Count:       count,
		TotalAmount: totalAmount,
	}
	var merged book.DailyRecord
	err := service.Retry(func() error {
		var err error
		merged, err = s.writer.MergeRecord(ctx, r)
		return err
	})
	return merged, err
}

// ReplaceRecord overwrites count and total amount on an existing record.
func (s *Service) ReplaceRecord(ctx context.Context, id uuid.UUID, count int, totalAmount int64) (book.DailyRecord, error) {
	if count < 1 || totalAmount < 0 {
		return book.DailyRecord{}, errs.ErrInvalid
	}
	var updated book.DailyRecord
	err := service.Retry(func() error {
		var err error
		updated, err = s.writer.UpdateRecord(ctx, id, count, totalAmount)
		return err
	})
	return updated, err
}

// AdjustCount changes a record's count by delta. A resulting count of zero or
// less deletes the row instead of leaving count=0 behind. unitPrice is the
// per-unit price frozen at the record's creation; callers supply it because
// the engine deliberately does not re-query the current catalog price.
//
// When the row is deleted the record's last stored state is returned along
// with deleted=true, so callers still know which day changed.
func (s *Service) AdjustCount(ctx context.Context, id uuid.UUID, delta int, unitPrice int64) (r book.DailyRecord, deleted bool, err error) {
	if delta == 0 || unitPrice < 0 {
		return book.DailyRecord{}, false, errs.ErrInvalid
	}
	existing, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return book.DailyRecord{}, false, err
	}
	n := existing.Count + delta
	if n <= 0 {
		err = service.Retry(func() error { return s.writer.DeleteRecord(ctx, id) })
		return existing, err == nil, err
	}
	var updated book.DailyRecord
	err = service.Retry(func() error {
		var err error
		updated, err = s.writer.UpdateRecord(ctx, id, n, int64(n)*unitPrice)
		return err
	})
	return updated, false, err
}

// DeleteRecord removes a record outright and returns the removed row.
func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) (book.DailyRecord, error) {
	r, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return book.DailyRecord{}, err
	}
	err = service.Retry(func() error { return s.writer.DeleteRecord(ctx, id) })
	return r, err
}

// DailyRecords returns the records of one day in creation order.
func (s *Service) DailyRecords(ctx context.Context, day book.Day) ([]book.DailyRecord, error) {
	return s.repo.RecordsByDay(ctx, day)
}

// MonthlyRecords returns every record of the month, bounded by the month's
// true first and last day.
func (s *Service) MonthlyRecords(ctx context.Context, ym book.YearMonth) ([]book.DailyRecord, error) {
	first, last := ym.Bounds()
	return s.repo.RecordsInRange(ctx, first, last)
}

// --- Daily adjustments ---

// AddAdjustment records a surcharge (amount > 0) or discount (amount < 0).
// A zero amount is rejected before any store call.
func (s *Service) AddAdjustment(ctx context.Context, date book.Day, amount int64, reason *string) (book.DailyAdjustment, error) {
	if date == "" || amount == 0 {
		return book.DailyAdjustment{}, errs.ErrInvalid
	}
	if reason != nil && strings.TrimSpace(*reason) == "" {
		reason = nil
	}
	a := book.DailyAdjustment{
		ID:     uuid.New(),
		Date:   date,
		Amount: amount,
		Reason: reason,
	}
	var created book.DailyAdjustment
	err := service.Retry(func() error {
		var err error
		created, err = s.writer.CreateAdjustment(ctx, a)
		return err
	})
	return created, err
}

// UpdateAdjustment applies a partial update; the zero-amount rule holds here too.
func (s *Service) UpdateAdjustment(ctx context.Context, id uuid.UUID, patch AdjustmentPatch) (book.DailyAdjustment, error) {
	a, err := s.repo.GetAdjustment(ctx, id)
	if err != nil {
		return book.DailyAdjustment{}, err
	}
	if patch.Amount != nil {
		if *patch.Amount == 0 {
			return book.DailyAdjustment{}, errs.ErrInvalid
		}
		a.Amount = *patch.Amount
	}
	if patch.Reason != nil {
		if strings.TrimSpace(*patch.Reason) == "" {
			a.Reason = nil
		} else {
			a.Reason = patch.Reason
		}
	}
	var updated book.DailyAdjustment
	err = service.Retry(func() error {
		var err error
		updated, err = s.writer.UpdateAdjustment(ctx, a)
		return err
	})
	return updated, err
}

// DeleteAdjustment removes an adjustment and returns the removed row.
func (s *Service) DeleteAdjustment(ctx context.Context, id uuid.UUID) (book.DailyAdjustment, error) {
	a, err := s.repo.GetAdjustment(ctx, id)
	if err != nil {
		return book.DailyAdjustment{}, err
	}
	err = service.Retry(func() error { return s.writer.DeleteAdjustment(ctx, id) })
	return a, err
}

// DailyAdjustments returns one day's adjustments in creation order.
func (s *Service) DailyAdjustments(ctx context.Context, day book.Day) ([]book.DailyAdjustment, error) {
	return s.repo.AdjustmentsByDay(ctx, day)
}

// --- Monthly expenses ---

// SetExpense is the overwrite-upsert for (yearMonth, category): the amount
// always replaces the stored one; the memo replaces only when supplied, so a
// nil memo keeps whatever note is already on the row.
func (s *Service) SetExpense(ctx context.Context, ym book.YearMonth, categoryID uuid.UUID, amount int64, memo *string) (book.MonthlyExpense, error) {
	if ym == "" || categoryID == uuid.Nil || amount < 0 {
		return book.MonthlyExpense{}, errs.ErrInvalid
	}
	e := book.MonthlyExpense{
		ID:         uuid.New(),
		YearMonth:  ym,
		CategoryID: categoryID,
		Amount:     amount,
		Memo:       memo,
	}
	var put book.MonthlyExpense
	err := service.Retry(func() error {
		var err error
		put, err = s.writer.PutExpense(ctx, e, memo != nil)
		return err
	})
	return put, err
}

// DeleteExpense removes a monthly expense row and returns it.
func (s *Service) DeleteExpense(ctx context.Context, id uuid.UUID) (book.MonthlyExpense, error) {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return book.MonthlyExpense{}, err
	}
	err = service.Retry(func() error { return s.writer.DeleteExpense(ctx, id) })
	return e, err
}

// MonthlyExpenses returns the month's expense rows in creation order.
func (s *Service) MonthlyExpenses(ctx context.Context, ym book.YearMonth) ([]book.MonthlyExpense, error) {
	return s.repo.ExpensesByMonth(ctx, ym)
}

// --- Settlement ---

// Settlement loads the month's rows and folds them into revenue, expense,
// net profit and per-day totals.
func (s *Service) Settlement(ctx context.Context, ym book.YearMonth) (book.Settlement, error) {
	first, last := ym.Bounds()
	records, err := s.repo.RecordsInRange(ctx, first, last)
	if err != nil {
		return book.Settlement{}, err
	}
	adjustments, err := s.repo.AdjustmentsInRange(ctx, first, last)
	if err != nil {
		return book.Settlement{}, err
	}
	expenses, err := s.repo.ExpensesByMonth(ctx, ym)
	if err != nil {
		return book.Settlement{}, err
	}
	return book.Settle(ym, records, adjustments, expenses), nil
}
