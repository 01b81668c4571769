package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/salonbook/salonbook/internal/book"
	"github.com/salonbook/salonbook/internal/errs"
)

func seedService(t *testing.T, s *Store, name string, price int64) book.Service {
	t.Helper()
	v, err := s.CreateService(context.Background(), book.Service{ID: uuid.New(), Name: name, UnitPrice: price, Color: "#D4A5A5"})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return v
}

func TestMergeRecord_Idempotence(t *testing.T) {
	s := New()
	ctx := context.Background()
	svc := seedService(t, s, "Gel Nails", 50000)

	const n = 5
	for i := 0; i < n; i++ {
		_, err := s.MergeRecord(ctx, book.DailyRecord{
			ID: uuid.New(), Date: "2025-11-07", ServiceID: svc.ID, Count: 1, TotalAmount: 50000,
		})
		if err != nil {
			t.Fatalf("merge %d: %v", i, err)
		}
	}
	rows, err := s.RecordsByDay(ctx, "2025-11-07")
	if err != nil {
		t.Fatalf("records by day: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one row for the composite key, got %d", len(rows))
	}
	if rows[0].Count != n || rows[0].TotalAmount != n*50000 {
		t.Fatalf("merged row = count %d total %d, want count %d total %d", rows[0].Count, rows[0].TotalAmount, n, n*50000)
	}
}

func TestMergeRecord_ConcurrentSameKey(t *testing.T) {
	s := New()
	ctx := context.Background()
	svc := seedService(t, s, "Perm", 80000)

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = s.MergeRecord(ctx, book.DailyRecord{
				ID: uuid.New(), Date: "2025-11-07", ServiceID: svc.ID, Count: 1, TotalAmount: 80000,
			})
		}()
	}
	wg.Wait()

	rows, _ := s.RecordsByDay(ctx, "2025-11-07")
	if len(rows) != 1 {
		t.Fatalf("composite key uniqueness violated: %d rows", len(rows))
	}
	if rows[0].Count != workers || rows[0].TotalAmount != int64(workers)*80000 {
		t.Fatalf("lost update: count %d total %d", rows[0].Count, rows[0].TotalAmount)
	}
}

func TestMergeRecord_DistinctKeysStaySeparate(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := seedService(t, s, "Cut", 20000)
	b := seedService(t, s, "Color", 70000)

	_, _ = s.MergeRecord(ctx, book.DailyRecord{ID: uuid.New(), Date: "2025-11-07", ServiceID: a.ID, Count: 1, TotalAmount: 20000})
	_, _ = s.MergeRecord(ctx, book.DailyRecord{ID: uuid.New(), Date: "2025-11-07", ServiceID: b.ID, Count: 1, TotalAmount: 70000})
	_, _ = s.MergeRecord(ctx, book.DailyRecord{ID: uuid.New(), Date: "2025-11-08", ServiceID: a.ID, Count: 1, TotalAmount: 20000})

	day7, _ := s.RecordsByDay(ctx, "2025-11-07")
	if len(day7) != 2 {
		t.Fatalf("expected 2 rows on 2025-11-07, got %d", len(day7))
	}
	all, _ := s.RecordsInRange(ctx, "2025-11-01", "2025-11-30")
	if len(all) != 3 {
		t.Fatalf("expected 3 rows in range, got %d", len(all))
	}
}

func TestDeleteRecord_FreesCompositeKey(t *testing.T) {
	s := New()
	ctx := context.Background()
	svc := seedService(t, s, "Cut", 20000)

	r, _ := s.MergeRecord(ctx, book.DailyRecord{ID: uuid.New(), Date: "2025-11-07", ServiceID: svc.ID, Count: 2, TotalAmount: 40000})
	if err := s.DeleteRecord(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// The key is free: the next merge inserts fresh rather than merging into a ghost.
	r2, _ := s.MergeRecord(ctx, book.DailyRecord{ID: uuid.New(), Date: "2025-11-07", ServiceID: svc.ID, Count: 1, TotalAmount: 20000})
	if r2.Count != 1 || r2.TotalAmount != 20000 {
		t.Fatalf("merge after delete = count %d total %d", r2.Count, r2.TotalAmount)
	}
}

func TestPutExpense_OverwriteAndMemoRules(t *testing.T) {
	s := New()
	ctx := context.Background()
	cat := uuid.New()
	memo := "rent for the new chair"

	first, err := s.PutExpense(ctx, book.MonthlyExpense{ID: uuid.New(), YearMonth: "2025-11", CategoryID: cat, Amount: 300000, Memo: &memo}, true)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	// Overwrite amount without touching the memo.
	second, err := s.PutExpense(ctx, book.MonthlyExpense{ID: uuid.New(), YearMonth: "2025-11", CategoryID: cat, Amount: 350000}, false)
	if err != nil {
		t.Fatalf("put overwrite: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("overwrite created a second row: %s vs %s", second.ID, first.ID)
	}
	if second.Amount != 350000 {
		t.Fatalf("amount = %d, want 350000", second.Amount)
	}
	if second.Memo == nil || *second.Memo != memo {
		t.Fatalf("memo clobbered: %v", second.Memo)
	}
	// Explicit memo replaces.
	newMemo := "rent increase"
	third, _ := s.PutExpense(ctx, book.MonthlyExpense{ID: uuid.New(), YearMonth: "2025-11", CategoryID: cat, Amount: 350000, Memo: &newMemo}, true)
	if third.Memo == nil || *third.Memo != newMemo {
		t.Fatalf("memo not replaced: %v", third.Memo)
	}

	rows, _ := s.ExpensesByMonth(ctx, "2025-11")
	if len(rows) != 1 {
		t.Fatalf("expected exactly one expense row, got %d", len(rows))
	}
}

func TestReorderServices(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := seedService(t, s, "a", 1000)
	b := seedService(t, s, "b", 2000)
	c := seedService(t, s, "c", 3000)

	if err := s.ReorderServices(ctx, []uuid.UUID{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	list, _ := s.ListServices(ctx)
	got := []uuid.UUID{list[0].ID, list[1].ID, list[2].ID}
	want := []uuid.UUID{c.ID, a.ID, b.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, got[i], want[i])
		}
		if list[i].DisplayOrder != i {
			t.Fatalf("display order not dense: %d at %d", list[i].DisplayOrder, i)
		}
	}

	// Partial or padded lists are rejected; order is untouched.
	if err := s.ReorderServices(ctx, []uuid.UUID{a.ID, b.ID}); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("partial reorder: err = %v, want ErrInvalid", err)
	}
	if err := s.ReorderServices(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown id reorder: err = %v, want ErrNotFound", err)
	}
	if err := s.ReorderServices(ctx, []uuid.UUID{a.ID, a.ID, b.ID}); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("duplicate id reorder: err = %v, want ErrInvalid", err)
	}
	after, _ := s.ListServices(ctx)
	if after[0].ID != c.ID {
		t.Fatalf("failed reorder mutated state")
	}
}

func TestCreateService_AppendsAtEnd(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedService(t, s, "a", 1000)
	seedService(t, s, "b", 2000)
	v := seedService(t, s, "c", 3000)
	if v.DisplayOrder != 2 {
		t.Fatalf("new service order = %d, want 2", v.DisplayOrder)
	}
	list, _ := s.ListServices(ctx)
	if list[2].ID != v.ID {
		t.Fatalf("new service not at end of list")
	}
}

func TestCreateService_OrderUniqueAfterDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := seedService(t, s, "a", 1000)
	seedService(t, s, "b", 2000)
	seedService(t, s, "c", 3000)

	// Deleting a non-last entry leaves a gap; the next create must not fall
	// back into it.
	if err := s.DeleteService(ctx, a.ID); err != nil {
		t.Fatalf("delete service: %v", err)
	}
	d := seedService(t, s, "d", 4000)
	if d.DisplayOrder != 3 {
		t.Fatalf("new service order = %d, want 3", d.DisplayOrder)
	}
	list, _ := s.ListServices(ctx)
	seen := make(map[int]string)
	for _, v := range list {
		if prev, ok := seen[v.DisplayOrder]; ok {
			t.Fatalf("display order %d duplicated by %q and %q", v.DisplayOrder, prev, v.Name)
		}
		seen[v.DisplayOrder] = v.Name
	}
}

func TestCreateCategory_OrderUniqueAfterDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, err := s.CreateCategory(ctx, book.ExpenseCategory{ID: uuid.New(), Name: "a"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	for _, name := range []string{"b", "c"} {
		if _, err := s.CreateCategory(ctx, book.ExpenseCategory{ID: uuid.New(), Name: name}); err != nil {
			t.Fatalf("create category %s: %v", name, err)
		}
	}
	if err := s.DeleteCategory(ctx, a.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	d, err := s.CreateCategory(ctx, book.ExpenseCategory{ID: uuid.New(), Name: "d"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if d.DisplayOrder != 3 {
		t.Fatalf("new category order = %d, want 3", d.DisplayOrder)
	}
	list, _ := s.ListCategories(ctx)
	seen := make(map[int]string)
	for _, c := range list {
		if prev, ok := seen[c.DisplayOrder]; ok {
			t.Fatalf("display order %d duplicated by %q and %q", c.DisplayOrder, prev, c.Name)
		}
		seen[c.DisplayOrder] = c.Name
	}
}

func TestDeleteService_LeavesRecords(t *testing.T) {
	s := New()
	ctx := context.Background()
	svc := seedService(t, s, "Cut", 20000)
	_, _ = s.MergeRecord(ctx, book.DailyRecord{ID: uuid.New(), Date: "2025-11-07", ServiceID: svc.ID, Count: 1, TotalAmount: 20000})

	if err := s.DeleteService(ctx, svc.ID); err != nil {
		t.Fatalf("delete service: %v", err)
	}
	rows, _ := s.RecordsByDay(ctx, "2025-11-07")
	if len(rows) != 1 || rows[0].ServiceID != svc.ID {
		t.Fatalf("record dropped or rewritten on catalog delete: %+v", rows)
	}
	if _, err := s.GetService(ctx, svc.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted service, got %v", err)
	}
}

func TestNotFoundPaths(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := uuid.New()
	if _, err := s.UpdateRecord(ctx, id, 1, 1000); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("update record: %v", err)
	}
	if err := s.DeleteAdjustment(ctx, id); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("delete adjustment: %v", err)
	}
	if err := s.DeleteExpense(ctx, id); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("delete expense: %v", err)
	}
	if _, err := s.UpdateService(ctx, book.Service{ID: id}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("update service: %v", err)
	}
}

func TestAdjustmentsByDayOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2025, 11, 7, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.CreateAdjustment(ctx, book.DailyAdjustment{
			ID: uuid.New(), Date: "2025-11-07", Amount: int64(1000 * (i + 1)), CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create adjustment: %v", err)
		}
	}
	rows, _ := s.AdjustmentsByDay(ctx, "2025-11-07")
	if len(rows) != 3 {
		t.Fatalf("expected 3 adjustments, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].CreatedAt.Before(rows[i-1].CreatedAt) {
			t.Fatalf("adjustments not in creation order")
		}
	}
}
