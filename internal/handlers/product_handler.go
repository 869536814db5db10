package handlers

import (
	"net/http"

	"go-pos-gst/internal/inventory"
	"go-pos-gst/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest is the full product definition for create and update.
type ProductRequest struct {
	Name         string           `json:"name" binding:"required,max=120"`
	Unit         string           `json:"unit" binding:"required,max=20"`
	Quantity     *int             `json:"quantity" binding:"omitempty,min=0"`
	CostPrice    *decimal.Decimal `json:"costPrice" binding:"required"`
	SellingPrice *decimal.Decimal `json:"sellingPrice" binding:"required"`
	TaxRate      *decimal.Decimal `json:"taxRate"`
	Barcode      string           `json:"barcode" binding:"max=64"`
	HSNCode      string           `json:"hsnCode" binding:"max=16"`
}

func (r ProductRequest) input() inventory.ProductInput {
	return inventory.ProductInput{
		Name:         r.Name,
		Unit:         r.Unit,
		Quantity:     r.Quantity,
		CostPrice:    r.CostPrice,
		SellingPrice: r.SellingPrice,
		TaxRate:      r.TaxRate,
		Barcode:      r.Barcode,
		HSNCode:      r.HSNCode,
	}
}

// --- GET: List all products ---
func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.inventory.List(c.Request.Context(), principal(c))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"products": products})
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := h.inventory.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"product": product})
}

// GetProductByBarcode is the scanner lookup.
func (h *Handler) GetProductByBarcode(c *gin.Context) {
	product, err := h.inventory.LookupByBarcode(c.Request.Context(), principal(c), c.Param("code"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"product": product})
}

func (h *Handler) GetLowStock(c *gin.Context) {
	products, err := h.inventory.LowStock(c.Request.Context(), principal(c), h.cfg.LowStockThreshold)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"threshold": h.cfg.LowStockThreshold, "products": products})
}

// --- POST: Add a new product ---
func (h *Handler) AddProduct(c *gin.Context) {
	var req ProductRequest
	if !bind(c, &req) {
		return
	}
	product, err := h.inventory.Create(c.Request.Context(), principal(c), req.input())
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"product": product})
}

// --- PUT: Replace a product's definition ---
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if !bind(c, &req) {
		return
	}
	product, err := h.inventory.Update(c.Request.Context(), principal(c), id, req.input())
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.inventory.Delete(c.Request.Context(), principal(c), id); err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Product deleted"})
}
