package handlers

import (
	"net/http"

	"go-pos-gst/internal/middleware"
	"go-pos-gst/internal/sales"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type SaleItemRequest struct {
	ProductID    uint            `json:"productId" binding:"required"`
	Quantity     int             `json:"quantity" binding:"required,min=1"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	TaxAmount    decimal.Decimal `json:"taxAmount"`
}

// SaleRequest defines what the Frontend sends us
type SaleRequest struct {
	CustomerID      *uint             `json:"customerId"`
	TotalAmount     *decimal.Decimal  `json:"totalAmount" binding:"required"`
	TotalTax        decimal.Decimal   `json:"totalTax"`
	PaymentMethod   string            `json:"paymentMethod" binding:"paymentmethod"`
	InvoiceNumber   string            `json:"invoiceNumber" binding:"max=64"`
	Items           []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	IsGSTApplicable bool              `json:"isGSTRApplicable"`
}

func (h *Handler) ProcessSale(c *gin.Context) {
	var req SaleRequest
	if !bind(c, &req) {
		return
	}

	in := sales.SaleInput{
		CustomerID:      req.CustomerID,
		TotalAmount:     req.TotalAmount,
		TotalTax:        req.TotalTax,
		PaymentMethod:   req.PaymentMethod,
		InvoiceNumber:   req.InvoiceNumber,
		IsGSTApplicable: req.IsGSTApplicable,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, sales.LineItem{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			PricePerUnit: item.PricePerUnit,
			TaxAmount:    item.TaxAmount,
		})
	}

	receipt, err := h.sales.Record(c.Request.Context(), principal(c), in)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Sale recorded", "sale": receipt})
}

func (h *Handler) ListSales(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	list, err := h.sales.List(c.Request.Context(), principal(c), from, to)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"sales": list})
}

func (h *Handler) GetSale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sale, err := h.sales.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"sale": sale})
}
