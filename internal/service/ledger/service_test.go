package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/salonbook/salonbook/internal/book"
	"github.com/salonbook/salonbook/internal/errs"
	"github.com/salonbook/salonbook/internal/service/ledger"
	"github.com/salonbook/salonbook/internal/storage/memory"
)

// flakyWriter fails MergeRecord with a store-availability error a set number
// of times before delegating to the real store.
type flakyWriter struct {
	ledger.Writer
	failures int
	calls    int
}

func (f *flakyWriter) MergeRecord(ctx context.Context, r book.DailyRecord) (book.DailyRecord, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return book.DailyRecord{}, errs.ErrUnavailable
	}
	return f.Writer.MergeRecord(ctx, r)
}

func newService(t *testing.T) (*memory.Store, *ledger.Service) {
	t.Helper()
	store := memory.New()
	return store, ledger.New(store, store)
}

func TestRecord_ValidatesBeforeStore(t *testing.T) {
	store := memory.New()
	fw := &flakyWriter{Writer: store}
	svc := ledger.New(store, fw)
	ctx := context.Background()

	cases := []struct {
		name string
		date book.Day
		sid  uuid.UUID
		n    int
		amt  int64
	}{
		{"empty date", "", uuid.New(), 1, 1000},
		{"nil service", "2026-03-10", uuid.Nil, 1, 1000},
		{"zero count", "2026-03-10", uuid.New(), 0, 1000},
		{"negative amount", "2026-03-10", uuid.New(), 1, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Record(ctx, tc.date, tc.sid, tc.n, tc.amt); !errors.Is(err, errs.ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
	if fw.calls != 0 {
		t.Fatalf("expected no store calls for invalid input, got %d", fw.calls)
	}
}

func TestRecord_RetriesOnceOnUnavailable(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	fw := &flakyWriter{Writer: store, failures: 1}
	svc := ledger.New(store, fw)
	r, err := svc.Record(ctx, "2026-03-10", uuid.New(), 2, 60000)
	if err != nil {
		t.Fatalf("expected recovery after one retry, got %v", err)
	}
	if fw.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", fw.calls)
	}
	if r.Count != 2 || r.TotalAmount != 60000 {
		t.Fatalf("unexpected record: %+v", r)
	}

	fw = &flakyWriter{Writer: store, failures: 2}
	svc = ledger.New(store, fw)
	if _, err := svc.Record(ctx, "2026-03-11", uuid.New(), 1, 30000); !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable after retry budget, got %v", err)
	}
	if fw.calls != 2 {
		t.Fatalf("expected exactly one retry, got %d attempts", fw.calls)
	}
}

func TestRecord_MergesIntoExistingRow(t *testing.T) {
	_, svc := newService(t)
	ctx := context.Background()
	sid := uuid.New()

	first, err := svc.Record(ctx, "2026-03-10", sid, 2, 60000)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	second, err := svc.Record(ctx, "2026-03-10", sid, 1, 35000)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected merge into same row, got %s then %s", first.ID, second.ID)
	}
	if second.Count != 3 || second.TotalAmount != 95000 {
		t.Fatalf("expected 3/95000, got %d/%d", second.Count, second.TotalAmount)
	}

	// the stored total is the sum of charged amounts, not count times any
	// single price
	day, err := svc.DailyRecords(ctx, "2026-03-10")
	if err != nil {
		t.Fatalf("daily records: %v", err)
	}
	if len(day) != 1 || day[0].TotalAmount != 95000 {
		t.Fatalf("unexpected day view: %+v", day)
	}
}

func TestAdjustCount(t *testing.T) {
	_, svc := newService(t)
	ctx := context.Background()
	sid := uuid.New()

	seed, err := svc.Record(ctx, "2026-03-10", sid, 2, 60000)
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	t.Run("reprices from caller unit price", func(t *testing.T) {
		r, deleted, err := svc.AdjustCount(ctx, seed.ID, 1, 35000)
		if err != nil || deleted {
			t.Fatalf("adjust: deleted=%v err=%v", deleted, err)
		}
		if r.Count != 3 || r.TotalAmount != 105000 {
			t.Fatalf("expected 3/105000, got %d/%d", r.Count, r.TotalAmount)
		}
	})

	t.Run("zero delta rejected", func(t *testing.T) {
		if _, _, err := svc.AdjustCount(ctx, seed.ID, 0, 35000); !errors.Is(err, errs.ErrInvalid) {
			t.Fatalf("expected ErrInvalid, got %v", err)
		}
	})

	t.Run("drop to zero deletes the row", func(t *testing.T) {
		r, deleted, err := svc.AdjustCount(ctx, seed.ID, -5, 35000)
		if err != nil {
			t.Fatalf("adjust: %v", err)
		}
		if !deleted {
			t.Fatalf("expected deletion at count <= 0")
		}
		if r.Date != "2026-03-10" {
			t.Fatalf("expected last stored state back, got %+v", r)
		}
		if _, _, err := svc.AdjustCount(ctx, seed.ID, 1, 35000); !errors.Is(err, errs.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestAdjustments_ZeroAmountRule(t *testing.T) {
	_, svc := newService(t)
	ctx := context.Background()

	if _, err := svc.AddAdjustment(ctx, "2026-03-10", 0, nil); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for zero amount, got %v", err)
	}

	blank := "   "
	a, err := svc.AddAdjustment(ctx, "2026-03-10", -10000, &blank)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if a.Reason != nil {
		t.Fatalf("expected blank reason normalized to nil, got %q", *a.Reason)
	}

	zero := int64(0)
	if _, err := svc.UpdateAdjustment(ctx, a.ID, ledger.AdjustmentPatch{Amount: &zero}); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected ErrInvalid on zeroing update, got %v", err)
	}

	amt := int64(5000)
	reason := "tip"
	got, err := svc.UpdateAdjustment(ctx, a.ID, ledger.AdjustmentPatch{Amount: &amt, Reason: &reason})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Amount != 5000 || got.Reason == nil || *got.Reason != "tip" {
		t.Fatalf("unexpected adjustment: %+v", got)
	}
}

func TestSetExpense_MemoSemantics(t *testing.T) {
	_, svc := newService(t)
	ctx := context.Background()
	cat := uuid.New()

	memo := "invoice 42"
	first, err := svc.SetExpense(ctx, "2026-03", cat, 500000, &memo)
	if err != nil {
		t.Fatalf("set: %v", err)
	}

	second, err := svc.SetExpense(ctx, "2026-03", cat, 550000, nil)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected upsert onto the same row")
	}
	if second.Amount != 550000 {
		t.Fatalf("expected amount replaced, got %d", second.Amount)
	}
	if second.Memo == nil || *second.Memo != memo {
		t.Fatalf("expected memo preserved on nil, got %v", second.Memo)
	}

	replaced := "invoice 43"
	third, err := svc.SetExpense(ctx, "2026-03", cat, 550000, &replaced)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if third.Memo == nil || *third.Memo != replaced {
		t.Fatalf("expected memo replaced when supplied, got %v", third.Memo)
	}

	if _, err := svc.SetExpense(ctx, "2026-03", cat, -1, nil); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for negative amount, got %v", err)
	}
}

func TestSettlement(t *testing.T) {
	_, svc := newService(t)
	ctx := context.Background()
	sid := uuid.New()
	cat := uuid.New()

	mustRecord := func(day book.Day, n int, amt int64) {
		t.Helper()
		if _, err := svc.Record(ctx, day, sid, n, amt); err != nil {
			t.Fatalf("record %s: %v", day, err)
		}
	}
	mustRecord("2026-02-01", 2, 60000)
	mustRecord("2026-02-28", 1, 30000)
	mustRecord("2026-03-01", 1, 30000) // outside the month

	if _, err := svc.AddAdjustment(ctx, "2026-02-01", -10000, nil); err != nil {
		t.Fatalf("adjustment: %v", err)
	}
	if _, err := svc.SetExpense(ctx, "2026-02", cat, 50000, nil); err != nil {
		t.Fatalf("expense: %v", err)
	}

	s, err := svc.Settlement(ctx, "2026-02")
	if err != nil {
		t.Fatalf("settlement: %v", err)
	}
	if s.Revenue != 80000 {
		t.Fatalf("expected revenue 80000 within month bounds, got %d", s.Revenue)
	}
	if s.Adjustments != -10000 {
		t.Fatalf("expected adjustments -10000, got %d", s.Adjustments)
	}
	if s.Expense != 50000 {
		t.Fatalf("expected expense 50000, got %d", s.Expense)
	}
	if s.Net != 30000 {
		t.Fatalf("expected net 30000, adjustments excluded from revenue, got %d", s.Net)
	}
	if s.DailyTotals["2026-02-01"] != 50000 || s.DailyTotals["2026-02-28"] != 30000 {
		t.Fatalf("unexpected daily totals: %+v", s.DailyTotals)
	}
}

func TestMonthlyRecords_UsesTrueMonthBounds(t *testing.T) {
	_, svc := newService(t)
	ctx := context.Background()

	for _, day := range []book.Day{"2024-02-29", "2024-03-01"} {
		if _, err := svc.Record(ctx, day, uuid.New(), 1, 1000); err != nil {
			t.Fatalf("record %s: %v", day, err)
		}
	}

	feb, err := svc.MonthlyRecords(ctx, "2024-02")
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if len(feb) != 1 || feb[0].Date != "2024-02-29" {
		t.Fatalf("expected leap day included, got %+v", feb)
	}
}
