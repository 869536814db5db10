package handlers

import (
	"net/http"
	"time"

	"go-pos-gst/internal/license"
	"go-pos-gst/internal/middleware"

	"github.com/gin-gonic/gin"
)

// LicenseRequest renews a shop either until a date or for a number of months.
type LicenseRequest struct {
	ShopID     uint   `json:"shopId" binding:"required"`
	ValidUntil string `json:"validUntil" binding:"omitempty,datetime=2006-01-02"`
	Months     int    `json:"months" binding:"omitempty,min=1,max=120"`
}

// IssueLicense is the vendor's endpoint. The returned key is what the shop
// types in at login; the previous key stops working.
func (h *Handler) IssueLicense(c *gin.Context) {
	var req LicenseRequest
	if !bind(c, &req) {
		return
	}

	validUntil, err := license.Expiry(req.ValidUntil, req.Months, time.Now())
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	key, lic, err := h.gate.Issue(c.Request.Context(), req.ShopID, validUntil)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"licenseKey": key,
		"license":    lic,
	})
}

// LicenseStatus feeds the lock screen.
func (h *Handler) LicenseStatus(c *gin.Context) {
	st, err := h.gate.Status(c.Request.Context(), principal(c).ShopID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"license": st})
}
