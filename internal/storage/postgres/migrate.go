package postgres

import "context"

// schema creates the five tables on first start. Dates and months are stored
// as YYYY-MM-DD / YYYY-MM text so range filters stay plain lexicographic
// comparisons. The unique constraints back the atomic merge-upserts; there is
// no foreign key from ledger rows to the catalog because catalog deletes are
// not allowed to touch ledger history.
var schema = []string{
	`create table if not exists services (
		id uuid primary key,
		name text not null,
		unit_price bigint not null check (unit_price >= 0),
		icon text,
		color text not null,
		display_order integer not null,
		created_at timestamptz not null default now(),
		updated_at timestamptz not null default now()
	)`,
	`create table if not exists expense_categories (
		id uuid primary key,
		name text not null,
		icon text,
		display_order integer not null,
		created_at timestamptz not null default now()
	)`,
	`create table if not exists daily_records (
		id uuid primary key,
		date text not null,
		service_id uuid not null,
		count integer not null check (count >= 1),
		total_amount bigint not null,
		created_at timestamptz not null default now(),
		unique (date, service_id)
	)`,
	`create index if not exists idx_daily_records_date on daily_records (date)`,
	`create table if not exists daily_adjustments (
		id uuid primary key,
		date text not null,
		amount bigint not null check (amount <> 0),
		reason text,
		created_at timestamptz not null default now()
	)`,
	`create index if not exists idx_daily_adjustments_date on daily_adjustments (date)`,
	`create table if not exists monthly_expenses (
		id uuid primary key,
		year_month text not null,
		category_id uuid not null,
		amount bigint not null check (amount >= 0),
		memo text,
		created_at timestamptz not null default now(),
		unique (year_month, category_id)
	)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return mapErr(err)
		}
	}
	return nil
}
