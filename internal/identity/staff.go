package identity

import (
	"context"
	"strings"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/models"

	"gorm.io/gorm"
)

type StaffInput struct {
	Username    string
	Password    string
	Email       string
	Designation string
	Phone       string
}

// StaffUpdate carries only the fields to change.
type StaffUpdate struct {
	Email       *string
	Password    *string
	Designation *string
	Phone       *string
}

// AddStaff creates a staff user in the admin's shop.
func (s *Service) AddStaff(ctx context.Context, p auth.Principal, in StaffInput) (*models.User, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || in.Password == "" || email == "" {
		return nil, apperr.New(apperr.InvalidInput, "username, password and email are required")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to hash password")
	}

	user := models.User{
		ShopID:       p.ShopID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleStaff,
		StaffDetail: &models.StaffDetail{
			ShopID:      p.ShopID,
			Designation: strings.TrimSpace(in.Designation),
			Phone:       strings.TrimSpace(in.Phone),
		},
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureIdentityFree(tx, username, email); err != nil {
			return err
		}
		// Creates the StaffDetail through the has-one association.
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, identityError(err, "failed to add staff")
	}
	return &user, nil
}

// ListStaff returns the shop's staff users with their details.
func (s *Service) ListStaff(ctx context.Context, p auth.Principal) ([]models.User, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	var staff []models.User
	err := s.db.WithContext(ctx).Preload("StaffDetail").
		Where("shop_id = ? AND role = ?", p.ShopID, models.RoleStaff).
		Order("username").
		Find(&staff).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to list staff")
	}
	return staff, nil
}

// UpdateStaff changes a staff user of the admin's shop.
func (s *Service) UpdateStaff(ctx context.Context, p auth.Principal, userID uint, in StaffUpdate) (*models.User, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.findStaff(tx, p, userID, &user); err != nil {
			return err
		}

		changes := map[string]any{}
		if in.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*in.Email))
			if email == "" {
				return apperr.New(apperr.InvalidInput, "email cannot be empty")
			}
			if email != user.Email {
				var n int64
				if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
					return err
				}
				if n > 0 {
					return apperr.New(apperr.Conflict, "email %s already exists", email)
				}
			}
			changes["email"] = email
		}
		if in.Password != nil {
			if *in.Password == "" {
				return apperr.New(apperr.InvalidInput, "password cannot be empty")
			}
			hash, err := auth.HashPassword(*in.Password)
			if err != nil {
				return err
			}
			changes["password_hash"] = hash
		}
		if len(changes) > 0 {
			if err := tx.Model(&user).Updates(changes).Error; err != nil {
				return err
			}
		}

		detail := map[string]any{}
		if in.Designation != nil {
			detail["designation"] = strings.TrimSpace(*in.Designation)
		}
		if in.Phone != nil {
			detail["phone"] = strings.TrimSpace(*in.Phone)
		}
		if len(detail) > 0 {
			if user.StaffDetail == nil {
				sd := models.StaffDetail{UserID: user.ID, ShopID: p.ShopID}
				if err := tx.Create(&sd).Error; err != nil {
					return err
				}
			}
			if err := tx.Model(&models.StaffDetail{}).Where("user_id = ?", user.ID).Updates(detail).Error; err != nil {
				return err
			}
		}

		var fresh models.User
		if err := s.findStaff(tx, p, userID, &fresh); err != nil {
			return err
		}
		user = fresh
		return nil
	})
	if err != nil {
		return nil, identityError(err, "failed to update staff")
	}
	return &user, nil
}

// DeleteStaff removes a staff user and their details. Admins cannot be
// deleted this way.
func (s *Service) DeleteStaff(ctx context.Context, p auth.Principal, userID uint) error {
	if err := p.Require(auth.AdminOnly); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := s.findStaff(tx, p, userID, &user); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.StaffDetail{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return identityError(err, "failed to delete staff")
	}
	return nil
}

// findStaff loads a staff user scoped to p's shop. Another shop's user, or
// an admin, is reported as missing.
func (s *Service) findStaff(tx *gorm.DB, p auth.Principal, userID uint, user *models.User) error {
	err := tx.Preload("StaffDetail").
		Where("id = ? AND shop_id = ? AND role = ?", userID, p.ShopID, models.RoleStaff).
		First(user).Error
	if database.IsNotFound(err) {
		return apperr.New(apperr.NotFound, "staff member %d not found", userID)
	}
	return err
}
