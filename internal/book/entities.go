// Package book holds the domain entities of the shop ledger: the catalog of
// services and expense categories, and the transactional rows recorded against
// them. All monetary values are int64 in the smallest currency unit (whole won);
// aggregation is plain integer arithmetic.
package book

import (
	"time"

	"github.com/google/uuid"
)

// Service is a catalog entry for a paid service the shop performs.
// DisplayOrder is a dense 0..n-1 index within the catalog.
type Service struct {
	ID        uuid.UUID
	Name      string
	UnitPrice int64
	// Icon is an optional glyph shown next to the name.
	Icon         *string
	Color        string
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ExpenseCategory is a catalog entry for a monthly operating expense.
type ExpenseCategory struct {
	ID           uuid.UUID
	Name         string
	Icon         *string
	DisplayOrder int
	CreatedAt    time.Time
}

// DailyRecord counts how many times one service was performed on one day.
// At most one row exists per (Date, ServiceID); concurrent recordings for the
// same pair are merged by the store's atomic upsert.
//
// TotalAmount is the amount actually charged when the row was created or
// merged into. It deliberately freezes the price at recording time and is
// never recomputed when the catalog price changes later.
type DailyRecord struct {
	ID          uuid.UUID
	Date        Day
	ServiceID   uuid.UUID
	Count       int
	TotalAmount int64
	CreatedAt   time.Time
}

// DailyAdjustment is a manual revenue correction for one day.
// Amount > 0 is a surcharge, Amount < 0 a discount; zero is rejected at write time.
type DailyAdjustment struct {
	ID        uuid.UUID
	Date      Day
	Amount    int64
	Reason    *string
	CreatedAt time.Time
}

// MonthlyExpense is one category's operating expense for one month.
// At most one row exists per (YearMonth, CategoryID); upserts overwrite.
type MonthlyExpense struct {
	ID         uuid.UUID
	YearMonth  YearMonth
	CategoryID uuid.UUID
	Amount     int64
	Memo       *string
	CreatedAt  time.Time
}
