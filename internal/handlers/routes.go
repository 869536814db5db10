package handlers

import (
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Register mounts every route on r. Tenant routes sit behind the bearer
// token and the per-request license check; each one names the capability
// it needs.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.POST("/register", h.RegisterShop)
	r.POST("/login", h.Login)
	r.POST("/api/system/licenses", middleware.IssuerKey(h.cfg.LicenseIssuerKey), h.IssueLicense)

	authed := r.Group("/api", middleware.AuthMiddleware(h.identity))
	// Reachable with a lapsed license so the lock screen can explain why.
	authed.GET("/system/status", h.LicenseStatus)

	api := authed.Group("", middleware.CheckLicense(h.gate))
	member := api.Group("", middleware.RequireRole(auth.AnyMember))
	admin := api.Group("", middleware.RequireRole(auth.AdminOnly))

	member.GET("/products", h.GetProducts)
	admin.GET("/products/low-stock", h.GetLowStock)
	member.GET("/products/barcode/:code", h.GetProductByBarcode)
	member.GET("/products/:id", h.GetProduct)
	admin.POST("/products", h.AddProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)

	member.POST("/sales", h.ProcessSale)
	member.GET("/sales", h.ListSales)
	member.GET("/sales/:id", h.GetSale)

	member.POST("/customers", h.UpsertCustomer)
	member.GET("/customers", h.ListCustomers)
	member.GET("/customers/:id", h.GetCustomer)

	member.GET("/settings", h.GetSettings)
	admin.PUT("/settings", h.UpdateSettings)

	admin.POST("/staff/add", h.AddStaff)
	admin.GET("/staff/list", h.ListStaff)
	admin.PUT("/staff/update/:userId", h.UpdateStaff)
	admin.DELETE("/staff/delete/:userId", h.DeleteStaff)

	admin.POST("/expenses", h.AddExpense)
	admin.GET("/expenses", h.ListExpenses)
	admin.DELETE("/expenses/:id", h.DeleteExpense)
	admin.POST("/purchases", h.AddPurchase)
	admin.GET("/purchases", h.ListPurchases)
	admin.GET("/purchases/:id", h.GetPurchase)
	admin.POST("/closings", h.CloseDay)
	admin.GET("/closings", h.ListClosings)

	admin.GET("/reports/dashboard", h.GetDashboard)
	admin.GET("/reports/profit", h.GetProfitReport)
	admin.GET("/reports/gstr1", h.GetGSTR1)
	admin.GET("/reports/gstr1/export", h.ExportGSTR1)
	admin.GET("/reports/gstr2", h.GetGSTR2)
	admin.GET("/reports/gstr3", h.GetGSTR3)
	admin.GET("/reports/balance-sheet", h.GetBalanceSheet)

	admin.POST("/ask", h.AskAI)
}
