// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to t.
// A single connection serialises transactions the way row locks would.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// SeedShop creates a shop with one admin and returns the admin principal.
func SeedShop(t *testing.T, db *gorm.DB, name string) auth.Principal {
	t.Helper()

	shop := models.Shop{Name: name}
	require.NoError(t, db.Create(&shop).Error)

	admin := models.User{
		ShopID:       shop.ID,
		Username:     fmt.Sprintf("admin-%d-%s", shop.ID, uuid.NewString()[:8]),
		Email:        fmt.Sprintf("admin-%s@%d.test", uuid.NewString()[:8], shop.ID),
		PasswordHash: "x",
		Role:         models.RoleAdmin,
	}
	require.NoError(t, db.Create(&admin).Error)

	return auth.Principal{ShopID: shop.ID, UserID: admin.ID, Role: models.RoleAdmin}
}

// StaffOf creates a staff user in p's shop and returns its principal.
func StaffOf(t *testing.T, db *gorm.DB, p auth.Principal) auth.Principal {
	t.Helper()

	staff := models.User{
		ShopID:       p.ShopID,
		Username:     "staff-" + uuid.NewString()[:8],
		Email:        uuid.NewString()[:8] + "@staff.test",
		PasswordHash: "x",
		Role:         models.RoleStaff,
	}
	require.NoError(t, db.Create(&staff).Error)

	return auth.Principal{ShopID: p.ShopID, UserID: staff.ID, Role: models.RoleStaff}
}

// SeedProduct inserts a product directly, bypassing service validation.
func SeedProduct(t *testing.T, db *gorm.DB, shopID uint, name string, qty int, cost, price string) models.Product {
	t.Helper()

	p := models.Product{
		ShopID:       shopID,
		Name:         name,
		Unit:         "pcs",
		Quantity:     qty,
		CostPrice:    decimal.RequireFromString(cost),
		SellingPrice: decimal.RequireFromString(price),
		TaxRate:      decimal.Zero,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// SeedLicense inserts a license row for shopID.
func SeedLicense(t *testing.T, db *gorm.DB, shopID uint, secret string, validUntil time.Time, active bool) models.License {
	t.Helper()

	lic := models.License{ShopID: shopID, Secret: secret, ValidUntil: validUntil, IsActive: true}
	require.NoError(t, db.Create(&lic).Error)
	if !active {
		// default:true would swallow a false on Create
		require.NoError(t, db.Model(&lic).Update("is_active", false).Error)
		lic.IsActive = false
	}
	return lic
}
