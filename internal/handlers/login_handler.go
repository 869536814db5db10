package handlers

import (
	"net/http"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/middleware"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	ShopName string `json:"shopName" binding:"required,max=120"`
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email" binding:"required,email"`
}

type LoginRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	LicenseKey string `json:"licenseKey" binding:"required"`
}

// RegisterShop creates a shop with its first admin. The shop cannot log in
// until a license is issued for it.
func (h *Handler) RegisterShop(c *gin.Context) {
	if !h.cfg.AllowRegistration {
		middleware.Fail(c, apperr.New(apperr.Forbidden, "registration is disabled"))
		return
	}
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}

	shopID, err := h.identity.Register(c.Request.Context(), req.ShopName, req.Username, req.Password, req.Email)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Shop registered", "shopId": shopID})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}

	session, err := h.identity.Authenticate(c.Request.Context(), req.Username, req.Password, req.LicenseKey)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"token":  session.Token,
		"role":   session.Role,
		"shopId": session.ShopID,
	})
}
