package handlers

import (
	"net/http"
	"time"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/finance"
	"go-pos-gst/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ExpenseRequest struct {
	Category    string           `json:"category" binding:"required,max=60"`
	Description string           `json:"description" binding:"max=255"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	ExpenseDate string           `json:"expenseDate" binding:"omitempty,datetime=2006-01-02"`
}

type PurchaseItemRequest struct {
	ProductID   *uint           `json:"productId"`
	Description string          `json:"description" binding:"required,max=120"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	UnitCost    decimal.Decimal `json:"unitCost"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
}

type PurchaseRequest struct {
	SupplierName  string                `json:"supplierName" binding:"required,max=120"`
	SupplierGSTIN string                `json:"supplierGstin" binding:"omitempty,len=15,alphanum"`
	InvoiceNumber string                `json:"invoiceNumber" binding:"max=64"`
	PurchaseDate  string                `json:"purchaseDate" binding:"omitempty,datetime=2006-01-02"`
	TotalAmount   *decimal.Decimal      `json:"totalAmount" binding:"required"`
	TotalTax      decimal.Decimal       `json:"totalTax"`
	Items         []PurchaseItemRequest `json:"items" binding:"dive"`
}

type ClosingRequest struct {
	ClosingDate string          `json:"closingDate" binding:"omitempty,datetime=2006-01-02"`
	OpeningCash decimal.Decimal `json:"openingCash"`
	ClosingCash decimal.Decimal `json:"closingCash"`
	Notes       string          `json:"notes" binding:"max=255"`
}

// bodyDate parses an optional YYYY-MM-DD body field as a UTC midnight.
func bodyDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, v, time.UTC)
	if err != nil {
		return time.Time{}, apperr.New(apperr.InvalidInput, "dates must be YYYY-MM-DD")
	}
	return d, nil
}

func (h *Handler) AddExpense(c *gin.Context) {
	var req ExpenseRequest
	if !bind(c, &req) {
		return
	}
	date, err := bodyDate(req.ExpenseDate)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	expense, err := h.finance.AddExpense(c.Request.Context(), principal(c), finance.ExpenseInput{
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		ExpenseDate: date,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"expense": expense})
}

func (h *Handler) ListExpenses(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	list, err := h.finance.Expenses(c.Request.Context(), principal(c), from, to)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"expenses": list})
}

func (h *Handler) DeleteExpense(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.finance.DeleteExpense(c.Request.Context(), principal(c), id); err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Expense deleted"})
}

func (h *Handler) AddPurchase(c *gin.Context) {
	var req PurchaseRequest
	if !bind(c, &req) {
		return
	}
	date, err := bodyDate(req.PurchaseDate)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	in := finance.PurchaseInput{
		SupplierName:  req.SupplierName,
		SupplierGSTIN: req.SupplierGSTIN,
		InvoiceNumber: req.InvoiceNumber,
		PurchaseDate:  date,
		TotalAmount:   req.TotalAmount,
		TotalTax:      req.TotalTax,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, finance.PurchaseLine{
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost,
			TaxAmount:   item.TaxAmount,
		})
	}

	purchase, err := h.finance.AddPurchase(c.Request.Context(), principal(c), in)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"purchase": purchase})
}

func (h *Handler) ListPurchases(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	list, err := h.finance.Purchases(c.Request.Context(), principal(c), from, to)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"purchases": list})
}

func (h *Handler) GetPurchase(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	purchase, err := h.finance.Purchase(c.Request.Context(), principal(c), id)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"purchase": purchase})
}

// CloseDay records the end-of-day cash count; the day's totals are
// computed from the books.
func (h *Handler) CloseDay(c *gin.Context) {
	var req ClosingRequest
	if !bind(c, &req) {
		return
	}
	date, err := bodyDate(req.ClosingDate)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	closing, err := h.finance.Close(c.Request.Context(), principal(c), finance.ClosingInput{
		Date:        date,
		OpeningCash: req.OpeningCash,
		ClosingCash: req.ClosingCash,
		Notes:       req.Notes,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"closing": closing})
}

func (h *Handler) ListClosings(c *gin.Context) {
	list, err := h.finance.Closings(c.Request.Context(), principal(c))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"closings": list})
}
