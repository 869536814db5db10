package handlers

import (
	"net/http"

	"go-pos-gst/internal/identity"
	"go-pos-gst/internal/middleware"

	"github.com/gin-gonic/gin"
)

type AddStaffRequest struct {
	Username    string `json:"username" binding:"required,max=50"`
	Password    string `json:"password" binding:"required,min=6"`
	Email       string `json:"email" binding:"required,email"`
	Designation string `json:"designation" binding:"max=60"`
	Phone       string `json:"phone" binding:"max=20"`
}

// UpdateStaffRequest changes only the fields that are sent.
type UpdateStaffRequest struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	Password    *string `json:"password" binding:"omitempty,min=6"`
	Designation *string `json:"designation" binding:"omitempty,max=60"`
	Phone       *string `json:"phone" binding:"omitempty,max=20"`
}

type SettingsRequest struct {
	Name    string `json:"name" binding:"required,max=120"`
	Address string `json:"address" binding:"max=255"`
	Phone   string `json:"phone" binding:"max=20"`
	GSTIN   string `json:"gstin" binding:"omitempty,len=15,alphanum"`
}

func (h *Handler) AddStaff(c *gin.Context) {
	var req AddStaffRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.identity.AddStaff(c.Request.Context(), principal(c), identity.StaffInput{
		Username:    req.Username,
		Password:    req.Password,
		Email:       req.Email,
		Designation: req.Designation,
		Phone:       req.Phone,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Staff added", "staff": user})
}

func (h *Handler) ListStaff(c *gin.Context) {
	list, err := h.identity.ListStaff(c.Request.Context(), principal(c))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"staff": list})
}

func (h *Handler) UpdateStaff(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	var req UpdateStaffRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.identity.UpdateStaff(c.Request.Context(), principal(c), userID, identity.StaffUpdate{
		Email:       req.Email,
		Password:    req.Password,
		Designation: req.Designation,
		Phone:       req.Phone,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Staff updated", "staff": user})
}

func (h *Handler) DeleteStaff(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	if err := h.identity.DeleteStaff(c.Request.Context(), principal(c), userID); err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Staff deleted"})
}

func (h *Handler) GetSettings(c *gin.Context) {
	shop, err := h.identity.GetSettings(c.Request.Context(), principal(c))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"settings": shop})
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if !bind(c, &req) {
		return
	}
	shop, err := h.identity.UpdateSettings(c.Request.Context(), principal(c), identity.SettingsInput{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		GSTIN:   req.GSTIN,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"settings": shop})
}
