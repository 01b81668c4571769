package book

// Aggregation over already-loaded rows. Everything here is pure: no I/O, no
// store access, plain int64 sums. Negative results are legal throughout —
// discounts can exceed service revenue and expenses can exceed income.

// DailyTotal is the day's takings: service totals plus signed adjustments.
func DailyTotal(records []DailyRecord, adjustments []DailyAdjustment) int64 {
	var total int64
	for _, r := range records {
		total += r.TotalAmount
	}
	for _, a := range adjustments {
		total += a.Amount
	}
	return total
}

// MonthlyRevenue sums record totals for dates inside ym. Adjustments are
// excluded from revenue; they only contribute to daily totals.
func MonthlyRevenue(records []DailyRecord, ym YearMonth) int64 {
	var total int64
	for _, r := range records {
		if ym.Contains(r.Date) {
			total += r.TotalAmount
		}
	}
	return total
}

// MonthlyExpenseTotal sums expense amounts recorded for ym.
func MonthlyExpenseTotal(expenses []MonthlyExpense, ym YearMonth) int64 {
	var total int64
	for _, e := range expenses {
		if e.YearMonth == ym {
			total += e.Amount
		}
	}
	return total
}

// NetProfit is revenue minus expense; negative means a deficit and is never
// clamped.
func NetProfit(revenue, expense int64) int64 { return revenue - expense }

// Settlement is the month's derived figures plus per-day totals for the
// calendar view.
type Settlement struct {
	YearMonth   YearMonth
	Revenue     int64
	Adjustments int64
	Expense     int64
	Net         int64
	// DailyTotals maps each day that has at least one record or adjustment
	// to its DailyTotal.
	DailyTotals map[Day]int64
}

// Settle computes the month's settlement from rows already restricted to ym
// by the caller's range query. Rows outside ym are ignored.
func Settle(ym YearMonth, records []DailyRecord, adjustments []DailyAdjustment, expenses []MonthlyExpense) Settlement {
	s := Settlement{YearMonth: ym, DailyTotals: make(map[Day]int64)}
	for _, r := range records {
		if !ym.Contains(r.Date) {
			continue
		}
		s.Revenue += r.TotalAmount
		s.DailyTotals[r.Date] += r.TotalAmount
	}
	for _, a := range adjustments {
		if !ym.Contains(a.Date) {
			continue
		}
		s.Adjustments += a.Amount
		s.DailyTotals[a.Date] += a.Amount
	}
	s.Expense = MonthlyExpenseTotal(expenses, ym)
	s.Net = NetProfit(s.Revenue, s.Expense)
	return s
}
