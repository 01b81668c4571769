package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/salonbook/salonbook/internal/book"
)

// won renders an integer won amount as a display string. All business
// amounts are whole KRW, which has no minor unit split.
func won(v int64) string {
	a, err := money.NewAmountFromMinorUnits("KRW", v)
	if err != nil {
		return ""
	}
	return a.String()
}

// --- Catalog DTOs ---

type postServiceRequest struct {
	Name      string  `json:"name"`
	UnitPrice int64   `json:"unit_price"`
	Icon      *string `json:"icon"`
	Color     string  `json:"color"`
}

type patchServiceRequest struct {
	Name      *string `json:"name"`
	UnitPrice *int64  `json:"unit_price"`
	Icon      *string `json:"icon"`
	Color     *string `json:"color"`
}

type postCategoryRequest struct {
	Name string  `json:"name"`
	Icon *string `json:"icon"`
}

type patchCategoryRequest struct {
	Name *string `json:"name"`
	Icon *string `json:"icon"`
}

type reorderRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type serviceResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	UnitPrice    int64     `json:"unit_price"`
	Icon         *string   `json:"icon,omitempty"`
	Color        string    `json:"color"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toServiceResponse(v book.Service) serviceResponse {
	return serviceResponse{
		ID:           v.ID,
		Name:         v.Name,
		UnitPrice:    v.UnitPrice,
		Icon:         v.Icon,
		Color:        v.Color,
		DisplayOrder: v.DisplayOrder,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

type categoryResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Icon         *string   `json:"icon,omitempty"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

func toCategoryResponse(c book.ExpenseCategory) categoryResponse {
	return categoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Icon:         c.Icon,
		DisplayOrder: c.DisplayOrder,
		CreatedAt:    c.CreatedAt,
	}
}

// --- Ledger DTOs ---

type postRecordRequest struct {
	Date        string    `json:"date"`
	ServiceID   uuid.UUID `json:"service_id"`
	Count       int       `json:"count"`
	TotalAmount int64     `json:"total_amount"`
}

type patchRecordRequest struct {
	Count       int   `json:"count"`
	TotalAmount int64 `json:"total_amount"`
}

type adjustCountRequest struct {
	Delta     int   `json:"delta"`
	UnitPrice int64 `json:"unit_price"`
}

// recordResponse carries the joined service when the catalog still has it;
// a nil service marks a dangling reference the consumer renders with its
// "service unknown" fallback.
type recordResponse struct {
	ID          uuid.UUID        `json:"id"`
	Date        book.Day         `json:"date"`
	ServiceID   uuid.UUID        `json:"service_id"`
	Count       int              `json:"count"`
	TotalAmount int64            `json:"total_amount"`
	CreatedAt   time.Time        `json:"created_at"`
	Service     *serviceResponse `json:"service"`
}

func toRecordResponse(r book.DailyRecord, services map[uuid.UUID]book.Service) recordResponse {
	resp := recordResponse{
		ID:          r.ID,
		Date:        r.Date,
		ServiceID:   r.ServiceID,
		Count:       r.Count,
		TotalAmount: r.TotalAmount,
		CreatedAt:   r.CreatedAt,
	}
	if v, ok := services[r.ServiceID]; ok {
		sr := toServiceResponse(v)
		resp.Service = &sr
	}
	return resp
}

type postAdjustmentRequest struct {
	Date   string  `json:"date"`
	Amount int64   `json:"amount"`
	Reason *string `json:"reason"`
}

type patchAdjustmentRequest struct {
	Amount *int64  `json:"amount"`
	Reason *string `json:"reason"`
}

type adjustmentResponse struct {
	ID        uuid.UUID `json:"id"`
	Date      book.Day  `json:"date"`
	Amount    int64     `json:"amount"`
	Reason    *string   `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toAdjustmentResponse(a book.DailyAdjustment) adjustmentResponse {
	return adjustmentResponse{
		ID:        a.ID,
		Date:      a.Date,
		Amount:    a.Amount,
		Reason:    a.Reason,
		CreatedAt: a.CreatedAt,
	}
}

type putExpenseRequest struct {
	YearMonth  string    `json:"year_month"`
	CategoryID uuid.UUID `json:"category_id"`
	Amount     int64     `json:"amount"`
	Memo       *string   `json:"memo"`
}

type expenseResponse struct {
	ID         uuid.UUID         `json:"id"`
	YearMonth  book.YearMonth    `json:"year_month"`
	CategoryID uuid.UUID         `json:"category_id"`
	Amount     int64             `json:"amount"`
	Memo       *string           `json:"memo,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	Category   *categoryResponse `json:"category"`
}

func toExpenseResponse(e book.MonthlyExpense, categories map[uuid.UUID]book.ExpenseCategory) expenseResponse {
	resp := expenseResponse{
		ID:         e.ID,
		YearMonth:  e.YearMonth,
		CategoryID: e.CategoryID,
		Amount:     e.Amount,
		Memo:       e.Memo,
		CreatedAt:  e.CreatedAt,
	}
	if c, ok := categories[e.CategoryID]; ok {
		cr := toCategoryResponse(c)
		resp.Category = &cr
	}
	return resp
}

// --- Settlement DTOs ---

type settlementResponse struct {
	YearMonth   book.YearMonth     `json:"year_month"`
	Revenue     int64              `json:"revenue"`
	Adjustments int64              `json:"adjustments"`
	Expense     int64              `json:"expense"`
	Net         int64              `json:"net"`
	NetDisplay  string             `json:"net_display"`
	DailyTotals map[book.Day]int64 `json:"daily_totals"`
}

func toSettlementResponse(s book.Settlement) settlementResponse {
	return settlementResponse{
		YearMonth:   s.YearMonth,
		Revenue:     s.Revenue,
		Adjustments: s.Adjustments,
		Expense:     s.Expense,
		Net:         s.Net,
		NetDisplay:  won(s.Net),
		DailyTotals: s.DailyTotals,
	}
}
