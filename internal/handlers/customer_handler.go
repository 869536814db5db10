package handlers

import (
	"net/http"

	"go-pos-gst/internal/customers"
	"go-pos-gst/internal/middleware"

	"github.com/gin-gonic/gin"
)

type CustomerRequest struct {
	Phone   string `json:"phone" binding:"required,max=20"`
	Name    string `json:"name" binding:"max=120"`
	Address string `json:"address" binding:"max=255"`
	GSTIN   string `json:"gstin" binding:"omitempty,len=15,alphanum"`
}

// UpsertCustomer saves a customer keyed by phone; posting a known phone
// overwrites the stored details.
func (h *Handler) UpsertCustomer(c *gin.Context) {
	var req CustomerRequest
	if !bind(c, &req) {
		return
	}
	customer, err := h.customers.Upsert(c.Request.Context(), principal(c), customers.Input{
		Phone:   req.Phone,
		Name:    req.Name,
		Address: req.Address,
		GSTIN:   req.GSTIN,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"customer": customer})
}

func (h *Handler) ListCustomers(c *gin.Context) {
	list, err := h.customers.List(c.Request.Context(), principal(c), c.Query("search"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"customers": list})
}

func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.customers.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"customer": customer})
}
