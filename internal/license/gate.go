// Package license decides whether a shop's subscription allows access and
// issues the keys customers log in with.
package license

import (
	"context"
	"encoding/hex"
	"time"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IsValid is the whole rule: active and not past its expiry.
func IsValid(l models.License, now time.Time) bool {
	return l.IsActive && !l.ValidUntil.Before(now)
}

type Gate struct {
	db    *gorm.DB
	codec *auth.LicenseCodec
	now   func() time.Time
}

func NewGate(db *gorm.DB, codec *auth.LicenseCodec) *Gate {
	return &Gate{db: db, codec: codec, now: time.Now}
}

// Check loads the shop's license fresh and rejects it unless valid. A license
// found expired while still flagged active is switched off before rejecting.
func (g *Gate) Check(ctx context.Context, shopID uint) (*models.License, error) {
	var lic models.License
	err := g.db.WithContext(ctx).Where("shop_id = ?", shopID).First(&lic).Error
	if database.IsNotFound(err) {
		return nil, apperr.New(apperr.Unauthorized, "no license registered for this shop")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load license")
	}

	return &lic, g.enforce(ctx, &lic)
}

func (g *Gate) enforce(ctx context.Context, lic *models.License) error {
	now := g.now()
	if IsValid(*lic, now) {
		return nil
	}

	if lic.IsActive {
		// Expired but never switched off: persist that before saying no.
		err := g.db.WithContext(ctx).Model(&models.License{}).
			Where("id = ? AND is_active = ?", lic.ID, true).
			Update("is_active", false).Error
		if err != nil {
			return apperr.Wrap(apperr.Internal, err, "failed to deactivate expired license")
		}
		lic.IsActive = false
		return apperr.New(apperr.Forbidden, "license expired on %s, please renew your subscription",
			lic.ValidUntil.Format("2006-01-02"))
	}

	return apperr.New(apperr.Forbidden, "license is inactive, please renew your subscription")
}

// Resolve opens a license key and returns the matching license after the
// validity check. Keys that do not decrypt, or whose secret no longer matches
// the shop's row, are Unauthorized.
func (g *Gate) Resolve(ctx context.Context, licenseKey string) (*models.License, error) {
	secret, shopID, err := g.codec.Decode(licenseKey)
	if err != nil {
		return nil, apperr.New(apperr.Unauthorized, "invalid license key")
	}

	var lic models.License
	err = g.db.WithContext(ctx).Where("shop_id = ? AND secret = ?", shopID, secret).First(&lic).Error
	if database.IsNotFound(err) {
		return nil, apperr.New(apperr.Unauthorized, "invalid license key")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load license")
	}

	return &lic, g.enforce(ctx, &lic)
}

// Issue binds a new random secret to shopID valid until validUntil and
// returns the key to hand to the customer. Re-issuing renews and reactivates
// the shop's license; the previous key stops working.
func (g *Gate) Issue(ctx context.Context, shopID uint, validUntil time.Time) (string, *models.License, error) {
	if shopID == 0 {
		return "", nil, apperr.New(apperr.InvalidInput, "shopId is required")
	}
	if !validUntil.After(g.now()) {
		return "", nil, apperr.New(apperr.InvalidInput, "validUntil must be in the future")
	}

	var shop models.Shop
	if err := g.db.WithContext(ctx).First(&shop, shopID).Error; err != nil {
		if database.IsNotFound(err) {
			return "", nil, apperr.New(apperr.NotFound, "shop %d not found", shopID)
		}
		return "", nil, apperr.Wrap(apperr.Internal, err, "failed to load shop")
	}

	id := uuid.New()
	secret := hex.EncodeToString(id[:])
	key, err := g.codec.Encode(secret, shopID)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.Internal, err, "failed to encode license key")
	}

	lic := models.License{ShopID: shopID, Secret: secret, ValidUntil: validUntil, IsActive: true}
	err = g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"secret", "valid_until", "is_active", "updated_at"}),
	}).Create(&lic).Error
	if err != nil {
		return "", nil, apperr.Wrap(apperr.Internal, err, "failed to store license")
	}
	if err := g.db.WithContext(ctx).Where("shop_id = ?", shopID).First(&lic).Error; err != nil {
		return "", nil, apperr.Wrap(apperr.Internal, err, "failed to reload license")
	}

	return key, &lic, nil
}

// Status is what the lock screen shows about a shop's license.
type Status struct {
	ShopID     uint      `json:"shopId"`
	ValidUntil time.Time `json:"validUntil"`
	IsActive   bool      `json:"isActive"`
	DaysLeft   int       `json:"daysLeft"`
	Message    string    `json:"message,omitempty"`
}

// Status reports the shop's license without rejecting a lapsed one.
func (g *Gate) Status(ctx context.Context, shopID uint) (*Status, error) {
	lic, err := g.Check(ctx, shopID)
	if lic == nil {
		return nil, err
	}
	st := Status{ShopID: lic.ShopID, ValidUntil: lic.ValidUntil, IsActive: lic.IsActive}
	if err != nil {
		if !apperr.Is(err, apperr.Forbidden) {
			return nil, err
		}
		st.Message = apperr.Message(err)
		return &st, nil
	}
	st.DaysLeft = int(lic.ValidUntil.Sub(g.now()).Hours() / 24)
	return &st, nil
}
