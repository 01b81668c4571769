// Package postgres provides a pgx-backed storage implementation that satisfies
// the catalog and ledger repository interfaces.
//
// The merge-upserts ride on unique constraints plus INSERT ... ON CONFLICT, so
// lookup-and-merge is a single atomic statement: concurrent recordings of the
// same composite key can never produce duplicate rows.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salonbook/salonbook/internal/book"
	"github.com/salonbook/salonbook/internal/errs"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string and
// ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// mapErr folds driver errors into the sentinel taxonomy: missing rows become
// ErrNotFound, unique violations ErrConflict, anything else ErrUnavailable
// (which the service layer may retry once).
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return errs.ErrConflict
	}
	return fmt.Errorf("%w: %v", errs.ErrUnavailable, err)
}

// --- Catalog: services ---

const serviceCols = `id, name, unit_price, icon, color, display_order, created_at, updated_at`

func scanService(row pgx.Row) (book.Service, error) {
	var v book.Service
	err := row.Scan(&v.ID, &v.Name, &v.UnitPrice, &v.Icon, &v.Color, &v.DisplayOrder, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// ListServices returns all services ordered by display order.
func (s *Store) ListServices(ctx context.Context) ([]book.Service, error) {
	rows, err := s.pool.Query(ctx, `
		select `+serviceCols+`
		from services
		order by display_order, created_at
	`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]book.Service, 0)
	for rows.Next() {
		v, err := scanService(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, v)
	}
	return out, mapErr(rows.Err())
}

// GetService fetches a single service by id.
func (s *Store) GetService(ctx context.Context, id uuid.UUID) (book.Service, error) {
	v, err := scanService(s.pool.QueryRow(ctx, `
		select `+serviceCols+` from services where id = $1
	`, id))
	if err != nil {
		return book.Service{}, mapErr(err)
	}
	return v, nil
}

// CreateService inserts a service at the end of the display order. The order
// index is assigned inside the statement so concurrent creates stay dense.
func (s *Store) CreateService(ctx context.Context, v book.Service) (book.Service, error) {
	created, err := scanService(s.pool.QueryRow(ctx, `
		insert into services (id, name, unit_price, icon, color, display_order)
		values ($1, $2, $3, $4, $5, (select coalesce(max(display_order) + 1, 0) from services))
		returning `+serviceCols+`
	`, v.ID, v.Name, v.UnitPrice, v.Icon, v.Color))
	if err != nil {
		return book.Service{}, mapErr(err)
	}
	return created, nil
}

// UpdateService replaces the editable fields of a service row.
func (s *Store) UpdateService(ctx context.Context, v book.Service) (book.Service, error) {
	updated, err := scanService(s.pool.QueryRow(ctx, `
		update services
		set name = $2, unit_price = $3, icon = $4, color = $5, updated_at = now()
		where id = $1
		returning `+serviceCols+`
	`, v.ID, v.Name, v.UnitPrice, v.Icon, v.Color))
	if err != nil {
		return book.Service{}, mapErr(err)
	}
	return updated, nil
}

// DeleteService removes a service row; referencing daily records are kept.
func (s *Store) DeleteService(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `delete from services where id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ReorderServices atomically rewrites display order to the list's index
// order inside one transaction. The list must cover every service.
func (s *Store) ReorderServices(ctx context.Context, ids []uuid.UUID) error {
	return s.reorder(ctx, "services", ids, true)
}

// --- Catalog: expense categories ---

const categoryCols = `id, name, icon, display_order, created_at`

func scanCategory(row pgx.Row) (book.ExpenseCategory, error) {
	var c book.ExpenseCategory
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.DisplayOrder, &c.CreatedAt)
	return c, err
}

// ListCategories returns all expense categories ordered by display order.
func (s *Store) ListCategories(ctx context.Context) ([]book.ExpenseCategory, error) {
	rows, err := s.pool.Query(ctx, `
		select `+categoryCols+`
		from expense_categories
		order by display_order, created_at
	`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]book.ExpenseCategory, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, c)
	}
	return out, mapErr(rows.Err())
}

// GetCategory fetches a single category by id.
func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (book.ExpenseCategory, error) {
	c, err := scanCategory(s.pool.QueryRow(ctx, `
		select `+categoryCols+` from expense_categories where id = $1
	`, id))
	if err != nil {
		return book.ExpenseCategory{}, mapErr(err)
	}
	return c, nil
}

// CreateCategory inserts a category at the end of the display order.
func (s *Store) CreateCategory(ctx context.Context, c book.ExpenseCategory) (book.ExpenseCategory, error) {
	created, err := scanCategory(s.pool.QueryRow(ctx, `
		insert into expense_categories (id, name, icon, display_order)
		values ($1, $2, $3, (select coalesce(max(display_order) + 1, 0) from expense_categories))
		returning `+categoryCols+`
	`, c.ID, c.Name, c.Icon))
	if err != nil {
		return book.ExpenseCategory{}, mapErr(err)
	}
	return created, nil
}

// UpdateCategory replaces the editable fields of a category row.
func (s *Store) UpdateCategory(ctx context.Context, c book.ExpenseCategory) (book.ExpenseCategory, error) {
	updated, err := scanCategory(s.pool.QueryRow(ctx, `
		update expense_categories
		set name = $2, icon = $3
		where id = $1
		returning `+categoryCols+`
	`, c.ID, c.Name, c.Icon))
	if err != nil {
		return book.ExpenseCategory{}, mapErr(err)
	}
	return updated, nil
}

// DeleteCategory removes a category row; referencing expenses are kept.
func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `delete from expense_categories where id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ReorderCategories atomically rewrites category display order.
func (s *Store) ReorderCategories(ctx context.Context, ids []uuid.UUID) error {
	return s.reorder(ctx, "expense_categories", ids, false)
}

// reorder rewrites display_order for the named catalog table. table is one of
// the two fixed catalog names, never user input.
func (s *Store) reorder(ctx context.Context, table string, ids []uuid.UUID, touchUpdatedAt bool) error {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return errs.ErrInvalid
		}
		seen[id] = struct{}{}
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int
	if err := tx.QueryRow(ctx, `select count(*) from `+table).Scan(&total); err != nil {
		return mapErr(err)
	}
	if total != len(ids) {
		return errs.ErrInvalid
	}
	stmt := `update ` + table + ` set display_order = $2 where id = $1`
	if touchUpdatedAt {
		stmt = `update ` + table + ` set display_order = $2, updated_at = now() where id = $1`
	}
	for i, id := range ids {
		tag, err := tx.Exec(ctx, stmt, id, i)
		if err != nil {
			return mapErr(err)
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
	}
	return mapErr(tx.Commit(ctx))
}

// --- Ledger: daily records ---

const recordCols = `id, date, service_id, count, total_amount, created_at`

func scanRecord(row pgx.Row) (book.DailyRecord, error) {
	var r book.DailyRecord
	var date string
	err := row.Scan(&r.ID, &date, &r.ServiceID, &r.Count, &r.TotalAmount, &r.CreatedAt)
	r.Date = book.Day(date)
	return r, err
}

// RecordsByDay returns one day's records in creation order.
func (s *Store) RecordsByDay(ctx context.Context, day book.Day) ([]book.DailyRecord, error) {
	return s.queryRecords(ctx, `
		select `+recordCols+` from daily_records
		where date = $1
		order by created_at, id
	`, string(day))
}

// RecordsInRange returns records with from <= date <= to ordered by date.
// Dates are stored as YYYY-MM-DD text, so the range filter is a plain string
// comparison.
func (s *Store) RecordsInRange(ctx context.Context, from, to book.Day) ([]book.DailyRecord, error) {
	return s.queryRecords(ctx, `
		select `+recordCols+` from daily_records
		where date >= $1 and date <= $2
		order by date, created_at, id
	`, string(from), string(to))
}

func (s *Store) queryRecords(ctx context.Context, sql string, args ...any) ([]book.DailyRecord, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]book.DailyRecord, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, r)
	}
	return out, mapErr(rows.Err())
}

// GetRecord fetches a daily record by id.
func (s *Store) GetRecord(ctx context.Context, id uuid.UUID) (book.DailyRecord, error) {
	r, err := scanRecord(s.pool.QueryRow(ctx, `
		select `+recordCols+` from daily_records where id = $1
	`, id))
	if err != nil {
		return book.DailyRecord{}, mapErr(err)
	}
	return r, nil
}

// MergeRecord is the atomic merge-upsert for (date, service_id): one INSERT
// with ON CONFLICT adds the incoming count and amount to the existing row or
// inserts a new one, closing the check-then-act race entirely in the store.
func (s *Store) MergeRecord(ctx context.Context, in book.DailyRecord) (book.DailyRecord, error) {
	merged, err := scanRecord(s.pool.QueryRow(ctx, `
		insert into daily_records (id, date, service_id, count, total_amount)
		values ($1, $2, $3, $4, $5)
		on conflict (date, service_id) do update
		set count = daily_records.count + excluded.count,
		    total_amount = daily_records.total_amount + excluded.total_amount
		returning `+recordCols+`
	`, in.ID, string(in.Date), in.ServiceID, in.Count, in.TotalAmount))
	if err != nil {
		return book.DailyRecord{}, mapErr(err)
	}
	return merged, nil
}

// UpdateRecord replaces count and total amount on an existing record.
func (s *Store) UpdateRecord(ctx context.Context, id uuid.UUID, count int, totalAmount int64) (book.DailyRecord, error) {
	r, err := scanRecord(s.pool.QueryRow(ctx, `
		update daily_records set count = $2, total_amount = $3
		where id = $1
		returning `+recordCols+`
	`, id, count, totalAmount))
	if err != nil {
		return book.DailyRecord{}, mapErr(err)
	}
	return r, nil
}

// DeleteRecord removes a daily record.
func (s *Store) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `delete from daily_records where id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Ledger: daily adjustments ---

const adjustmentCols = `id, date, amount, reason, created_at`

func scanAdjustment(row pgx.Row) (book.DailyAdjustment, error) {
	var a book.DailyAdjustment
	var date string
	err := row.Scan(&a.ID, &date, &a.Amount, &a.Reason, &a.CreatedAt)
	a.Date = book.Day(date)
	return a, err
}

// AdjustmentsByDay returns one day's adjustments in creation order.
func (s *Store) AdjustmentsByDay(ctx context.Context, day book.Day) ([]book.DailyAdjustment, error) {
	return s.queryAdjustments(ctx, `
		select `+adjustmentCols+` from daily_adjustments
		where date = $1
		order by created_at, id
	`, string(day))
}

// AdjustmentsInRange returns adjustments with from <= date <= to ordered by date.
func (s *Store) AdjustmentsInRange(ctx context.Context, from, to book.Day) ([]book.DailyAdjustment, error) {
	return s.queryAdjustments(ctx, `
		select `+adjustmentCols+` from daily_adjustments
		where date >= $1 and date <= $2
		order by date, created_at, id
	`, string(from), string(to))
}

func (s *Store) queryAdjustments(ctx context.Context, sql string, args ...any) ([]book.DailyAdjustment, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]book.DailyAdjustment, 0)
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, a)
	}
	return out, mapErr(rows.Err())
}

// GetAdjustment fetches an adjustment by id.
func (s *Store) GetAdjustment(ctx context.Context, id uuid.UUID) (book.DailyAdjustment, error) {
	a, err := scanAdjustment(s.pool.QueryRow(ctx, `
		select `+adjustmentCols+` from daily_adjustments where id = $1
	`, id))
	if err != nil {
		return book.DailyAdjustment{}, mapErr(err)
	}
	return a, nil
}

// CreateAdjustment inserts an adjustment row.
func (s *Store) CreateAdjustment(ctx context.Context, a book.DailyAdjustment) (book.DailyAdjustment, error) {
	created, err := scanAdjustment(s.pool.QueryRow(ctx, `
		insert into daily_adjustments (id, date, amount, reason)
		values ($1, $2, $3, $4)
		returning `+adjustmentCols+`
	`, a.ID, string(a.Date), a.Amount, a.Reason))
	if err != nil {
		return book.DailyAdjustment{}, mapErr(err)
	}
	return created, nil
}

// UpdateAdjustment replaces amount and reason on an existing adjustment.
func (s *Store) UpdateAdjustment(ctx context.Context, a book.DailyAdjustment) (book.DailyAdjustment, error) {
	updated, err := scanAdjustment(s.pool.QueryRow(ctx, `
		update daily_adjustments set amount = $2, reason = $3
		where id = $1
		returning `+adjustmentCols+`
	`, a.ID, a.Amount, a.Reason))
	if err != nil {
		return book.DailyAdjustment{}, mapErr(err)
	}
	return updated, nil
}

// DeleteAdjustment removes an adjustment row.
func (s *Store) DeleteAdjustment(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `delete from daily_adjustments where id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Ledger: monthly expenses ---

const expenseCols = `id, year_month, category_id, amount, memo, created_at`

func scanExpense(row pgx.Row) (book.MonthlyExpense, error) {
	var e book.MonthlyExpense
	var ym string
	err := row.Scan(&e.ID, &ym, &e.CategoryID, &e.Amount, &e.Memo, &e.CreatedAt)
	e.YearMonth = book.YearMonth(ym)
	return e, err
}

// ExpensesByMonth returns the month's expense rows in creation order.
func (s *Store) ExpensesByMonth(ctx context.Context, ym book.YearMonth) ([]book.MonthlyExpense, error) {
	rows, err := s.pool.Query(ctx, `
		select `+expenseCols+` from monthly_expenses
		where year_month = $1
		order by created_at, id
	`, string(ym))
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]book.MonthlyExpense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, e)
	}
	return out, mapErr(rows.Err())
}

// GetExpense fetches a monthly expense by id.
func (s *Store) GetExpense(ctx context.Context, id uuid.UUID) (book.MonthlyExpense, error) {
	e, err := scanExpense(s.pool.QueryRow(ctx, `
		select `+expenseCols+` from monthly_expenses where id = $1
	`, id))
	if err != nil {
		return book.MonthlyExpense{}, mapErr(err)
	}
	return e, nil
}

// PutExpense is the atomic overwrite-upsert for (year_month, category_id).
// The amount always replaces the stored value; the memo is replaced only
// when replaceMemo is set.
func (s *Store) PutExpense(ctx context.Context, in book.MonthlyExpense, replaceMemo bool) (book.MonthlyExpense, error) {
	memo := in.Memo
	if !replaceMemo {
		memo = nil
	}
	put, err := scanExpense(s.pool.QueryRow(ctx, `
		insert into monthly_expenses (id, year_month, category_id, amount, memo)
		values ($1, $2, $3, $4, $5)
		on conflict (year_month, category_id) do update
		set amount = excluded.amount,
		    memo = case when $6 then excluded.memo else monthly_expenses.memo end
		returning `+expenseCols+`
	`, in.ID, string(in.YearMonth), in.CategoryID, in.Amount, memo, replaceMemo))
	if err != nil {
		return book.MonthlyExpense{}, mapErr(err)
	}
	return put, nil
}

// DeleteExpense removes a monthly expense row.
func (s *Store) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `delete from monthly_expenses where id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
