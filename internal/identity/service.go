// Package identity owns shops, users and sessions: registration, login and
// staff management. Usernames and emails are unique across all shops even
// though everything else is shop scoped.
package identity

import (
	"context"
	"errors"
	"strings"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/license"
	"go-pos-gst/internal/models"

	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	tokens *auth.Tokens
	gate   *license.Gate
}

func NewService(db *gorm.DB, tokens *auth.Tokens, gate *license.Gate) *Service {
	return &Service{db: db, tokens: tokens, gate: gate}
}

// Session is what a successful login hands back.
type Session struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	ShopID uint   `json:"shopId"`
}

var errInvalidCredentials = apperr.New(apperr.Unauthorized, "invalid credentials")

// Register creates a shop and its first admin in one transaction.
func (s *Service) Register(ctx context.Context, shopName, username, password, email string) (uint, error) {
	shopName = strings.TrimSpace(shopName)
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if shopName == "" || username == "" || password == "" || email == "" {
		return 0, apperr.New(apperr.InvalidInput, "shopName, username, password and email are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, err, "failed to hash password")
	}

	var shopID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureIdentityFree(tx, username, email); err != nil {
			return err
		}

		shop := models.Shop{Name: shopName}
		if err := tx.Create(&shop).Error; err != nil {
			return err
		}
		admin := models.User{
			ShopID:       shop.ID,
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		shopID = shop.ID
		return nil
	})
	if err != nil {
		return 0, identityError(err, "failed to register shop")
	}
	return shopID, nil
}

// Authenticate checks the license key, then the user's password inside the
// licensed shop, and issues a token.
func (s *Service) Authenticate(ctx context.Context, username, password, licenseKey string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || strings.TrimSpace(licenseKey) == "" {
		return nil, apperr.New(apperr.InvalidInput, "username, password and licenseKey are required")
	}

	lic, err := s.gate.Resolve(ctx, licenseKey)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).
		Where("shop_id = ? AND username = ?", lic.ShopID, username).
		First(&user).Error
	if database.IsNotFound(err) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load user")
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, errInvalidCredentials
	}

	p := auth.Principal{ShopID: user.ShopID, UserID: user.ID, Role: user.Role}
	token, err := s.tokens.GenerateToken(p)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to generate token")
	}

	return &Session{Token: token, Role: user.Role, ShopID: user.ShopID}, nil
}

// Principal verifies a bearer token and that its user still exists in the
// token's shop. The stored role wins over the one in the claims, so a
// deleted or demoted user loses access on the next request.
func (s *Service) Principal(ctx context.Context, token string) (auth.Principal, error) {
	p, err := s.tokens.ValidateToken(token)
	if err != nil {
		return auth.Principal{}, apperr.Wrap(apperr.Unauthorized, err, "Invalid or expired token")
	}

	var user models.User
	err = s.db.WithContext(ctx).
		Select("id", "shop_id", "role").
		Where("id = ? AND shop_id = ?", p.UserID, p.ShopID).
		First(&user).Error
	if database.IsNotFound(err) {
		return auth.Principal{}, apperr.New(apperr.Unauthorized, "Invalid or expired token")
	}
	if err != nil {
		return auth.Principal{}, apperr.Wrap(apperr.Internal, err, "failed to load user")
	}

	p.Role = user.Role
	return p, nil
}

// GetSettings returns the caller's shop.
func (s *Service) GetSettings(ctx context.Context, p auth.Principal) (*models.Shop, error) {
	if err := p.Require(auth.AnyMember); err != nil {
		return nil, err
	}
	var shop models.Shop
	if err := s.db.WithContext(ctx).First(&shop, p.ShopID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.New(apperr.NotFound, "shop not found")
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load shop")
	}
	return &shop, nil
}

type SettingsInput struct {
	Name    string
	Address string
	Phone   string
	GSTIN   string
}

// UpdateSettings overwrites the shop's profile fields.
func (s *Service) UpdateSettings(ctx context.Context, p auth.Principal, in SettingsInput) (*models.Shop, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.New(apperr.InvalidInput, "name is required")
	}
	gstin := strings.ToUpper(strings.TrimSpace(in.GSTIN))
	if gstin != "" && len(gstin) != 15 {
		return nil, apperr.New(apperr.InvalidInput, "gstin must be 15 characters")
	}

	err := s.db.WithContext(ctx).Model(&models.Shop{}).Where("id = ?", p.ShopID).
		Updates(map[string]any{
			"name":    in.Name,
			"address": strings.TrimSpace(in.Address),
			"phone":   strings.TrimSpace(in.Phone),
			"gstin":   gstin,
		}).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to update settings")
	}
	return s.GetSettings(ctx, p)
}

func ensureIdentityFree(tx *gorm.DB, username, email string) error {
	var n int64
	if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.New(apperr.Conflict, "username %s already exists", username)
	}
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.New(apperr.Conflict, "email %s already exists", email)
	}
	return nil
}

// identityError passes classified errors through and maps a unique index
// race (two registrations at once) to Conflict.
func identityError(err error, msg string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if database.IsDuplicate(err) {
		return apperr.Wrap(apperr.Conflict, err, "username or email already exists")
	}
	return apperr.Wrap(apperr.Internal, err, "%s", msg)
}
