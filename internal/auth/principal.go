package auth

import (
	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/models"
)

// Principal is the caller as proven by a token. Its ShopID is the only
// tenant scope any service accepts.
type Principal struct {
	ShopID uint
	UserID uint
	Role   string
}

// Capability is the minimum role an operation needs.
type Capability string

const (
	// AnyMember allows admins and staff of the shop.
	AnyMember Capability = "member"
	// AdminOnly allows shop admins.
	AdminOnly Capability = "admin"
)

// Require fails with Forbidden unless p holds c.
func (p Principal) Require(c Capability) error {
	if p.ShopID == 0 || p.UserID == 0 {
		return apperr.New(apperr.Unauthorized, "authentication required")
	}
	switch c {
	case AnyMember:
		if p.Role == models.RoleAdmin || p.Role == models.RoleStaff {
			return nil
		}
	case AdminOnly:
		if p.Role == models.RoleAdmin {
			return nil
		}
	}
	return apperr.New(apperr.Forbidden, "You do not have permission to access this resource")
}
