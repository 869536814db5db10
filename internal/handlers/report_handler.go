package handlers

import (
	"net/http"
	"time"

	"go-pos-gst/internal/middleware"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// --- GET: /api/reports/dashboard ---
func (h *Handler) GetDashboard(c *gin.Context) {
	data, err := h.reports.Dashboard(c.Request.Context(), principal(c))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"report": data})
}

// --- GET: /api/reports/profit?startDate&endDate ---
func (h *Handler) GetProfitReport(c *gin.Context) {
	from, to, ok := reportRange(c)
	if !ok {
		return
	}
	data, err := h.reports.ProductProfit(c.Request.Context(), principal(c), from, to)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"report": data})
}

func (h *Handler) GetGSTR1(c *gin.Context) {
	from, to, ok := reportRange(c)
	if !ok {
		return
	}
	data, err := h.reports.GSTR1(c.Request.Context(), principal(c), from, to)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"report": data})
}

func (h *Handler) GetGSTR2(c *gin.Context) {
	from, to, ok := reportRange(c)
	if !ok {
		return
	}
	data, err := h.reports.GSTR2(c.Request.Context(), principal(c), from, to)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"report": data})
}

func (h *Handler) GetGSTR3(c *gin.Context) {
	from, to, ok := reportRange(c)
	if !ok {
		return
	}
	data, err := h.reports.GSTR3(c.Request.Context(), principal(c), from, to)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"report": data})
}

// --- GET: /api/reports/gstr1/export ---
// Streams the GSTR-1 as a spreadsheet for the accountant.
func (h *Handler) ExportGSTR1(c *gin.Context) {
	from, to, ok := reportRange(c)
	if !ok {
		return
	}
	data, err := h.reports.ExportGSTR1(c.Request.Context(), principal(c), from, to)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", attachment("gstr1", from, to))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// --- GET: /api/reports/balance-sheet?asOf=YYYY-MM-DD ---
// asOf is inclusive and defaults to today.
func (h *Handler) GetBalanceSheet(c *gin.Context) {
	asOf, set, err := parseDate(c, "asOf")
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if !set {
		now := time.Now().UTC()
		asOf = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	data, err := h.reports.BalanceSheet(c.Request.Context(), principal(c), asOf.AddDate(0, 0, 1))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"report": data})
}
