// Package inventory is the per-shop product ledger. It is the only place
// product rows are created or edited; quantities also move through sales.
package inventory

import (
	"context"
	"errors"
	"strings"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ProductInput is a full product definition. Nil Quantity and TaxRate mean 0.
type ProductInput struct {
	Name         string
	Unit         string
	Quantity     *int
	CostPrice    *decimal.Decimal
	SellingPrice *decimal.Decimal
	TaxRate      *decimal.Decimal
	Barcode      string
	HSNCode      string
}

func (in ProductInput) validate() error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Unit) == "" {
		missing = append(missing, "unit")
	}
	if in.CostPrice == nil {
		missing = append(missing, "costPrice")
	}
	if in.SellingPrice == nil {
		missing = append(missing, "sellingPrice")
	}
	if len(missing) > 0 {
		return apperr.New(apperr.InvalidInput, "missing required fields: %s", strings.Join(missing, ", "))
	}

	switch {
	case in.Quantity != nil && *in.Quantity < 0:
		return apperr.New(apperr.InvalidInput, "quantity cannot be negative")
	case in.CostPrice.IsNegative():
		return apperr.New(apperr.InvalidInput, "costPrice cannot be negative")
	case in.SellingPrice.IsNegative():
		return apperr.New(apperr.InvalidInput, "sellingPrice cannot be negative")
	case in.TaxRate != nil && (in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(decimal.NewFromInt(100))):
		return apperr.New(apperr.InvalidInput, "taxRate must be between 0 and 100")
	}
	return nil
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Unit = strings.TrimSpace(in.Unit)
	p.Quantity = 0
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	p.CostPrice = in.CostPrice.Round(2)
	p.SellingPrice = in.SellingPrice.Round(2)
	p.TaxRate = decimal.Zero
	if in.TaxRate != nil {
		p.TaxRate = in.TaxRate.Round(2)
	}
	p.Barcode = nil
	if code := strings.TrimSpace(in.Barcode); code != "" {
		p.Barcode = &code
	}
	p.HSNCode = strings.TrimSpace(in.HSNCode)
}

// List returns every product of the caller's shop.
func (s *Service) List(ctx context.Context, p auth.Principal) ([]models.Product, error) {
	if err := p.Require(auth.AnyMember); err != nil {
		return nil, err
	}
	var products []models.Product
	if err := s.db.WithContext(ctx).Where("shop_id = ?", p.ShopID).Order("name").Find(&products).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch products")
	}
	return products, nil
}

// Get returns one product of the caller's shop.
func (s *Service) Get(ctx context.Context, p auth.Principal, id uint) (*models.Product, error) {
	if err := p.Require(auth.AnyMember); err != nil {
		return nil, err
	}
	var product models.Product
	if err := s.find(s.db.WithContext(ctx), p.ShopID, id, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// LookupByBarcode is the scanner path.
func (s *Service) LookupByBarcode(ctx context.Context, p auth.Principal, code string) (*models.Product, error) {
	if err := p.Require(auth.AnyMember); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.New(apperr.InvalidInput, "barcode is required")
	}

	var product models.Product
	err := s.db.WithContext(ctx).Where("shop_id = ? AND barcode = ?", p.ShopID, code).First(&product).Error
	if database.IsNotFound(err) {
		return nil, apperr.New(apperr.NotFound, "no product with barcode %s", code)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch product")
	}
	return &product, nil
}

// LowStock lists products at or below threshold units. Restocking is an
// admin decision, so staff cannot see it.
func (s *Service) LowStock(ctx context.Context, p auth.Principal, threshold int) ([]models.Product, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("shop_id = ? AND quantity <= ?", p.ShopID, threshold).
		Order("quantity, name").
		Find(&products).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch products")
	}
	return products, nil
}

// Create adds a product to the admin's shop.
func (s *Service) Create(ctx context.Context, p auth.Principal, in ProductInput) (*models.Product, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	product := models.Product{ShopID: p.ShopID}
	in.apply(&product)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, &product); err != nil {
			return err
		}
		return tx.Create(&product).Error
	})
	if err != nil {
		return nil, s.writeError(ctx, err, &product, "Failed to create product")
	}
	return &product, nil
}

// Update replaces a product's definition. Another shop's id is NotFound.
func (s *Service) Update(ctx context.Context, p auth.Principal, id uint, in ProductInput) (*models.Product, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var product models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.find(tx, p.ShopID, id, &product); err != nil {
			return err
		}
		in.apply(&product)
		if err := ensureUnique(tx, &product); err != nil {
			return err
		}
		return tx.Save(&product).Error
	})
	if err != nil {
		return nil, s.writeError(ctx, err, &product, "Failed to update product")
	}
	return &product, nil
}

// Delete removes a product that no sale references.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id uint) error {
	if err := p.Require(auth.AdminOnly); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := s.find(tx, p.ShopID, id, &product); err != nil {
			return err
		}
		var used int64
		if err := tx.Model(&models.SaleItem{}).Where("product_id = ?", product.ID).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return apperr.New(apperr.Conflict, "Could not delete product. It is linked to past sales.")
		}
		return tx.Where("id = ? AND shop_id = ?", product.ID, p.ShopID).Delete(&models.Product{}).Error
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		if database.IsForeignKey(err) {
			return apperr.Wrap(apperr.Conflict, err, "Could not delete product. It is linked to past sales.")
		}
		return apperr.Wrap(apperr.Internal, err, "Failed to delete product")
	}
	return nil
}

func (s *Service) find(tx *gorm.DB, shopID, id uint, product *models.Product) error {
	err := tx.Where("id = ? AND shop_id = ?", id, shopID).First(product).Error
	if database.IsNotFound(err) {
		return apperr.New(apperr.NotFound, "Product not found")
	}
	return err
}

// ensureUnique reports which unique key a write would collide with. Barcodes
// are unique across all shops, names within one shop.
func ensureUnique(tx *gorm.DB, p *models.Product) error {
	if p.Barcode != nil {
		taken, err := exists(tx.Model(&models.Product{}).Where("barcode = ? AND id <> ?", *p.Barcode, p.ID))
		if err != nil {
			return err
		}
		if taken {
			return apperr.New(apperr.Conflict, "barcode %s already exists", *p.Barcode)
		}
	}
	taken, err := exists(tx.Model(&models.Product{}).Where("shop_id = ? AND name = ? AND id <> ?", p.ShopID, p.Name, p.ID))
	if err != nil {
		return err
	}
	if taken {
		return apperr.New(apperr.Conflict, "product name %s already exists", p.Name)
	}
	return nil
}

func exists(q *gorm.DB) (bool, error) {
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

// writeError classifies a failed create/update. A unique index hit that
// slipped past ensureUnique (a concurrent writer) is re-checked to name the
// colliding key.
func (s *Service) writeError(ctx context.Context, err error, p *models.Product, msg string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if database.IsDuplicate(err) {
		if uerr := ensureUnique(s.db.WithContext(ctx), p); uerr != nil {
			return uerr
		}
		return apperr.Wrap(apperr.Conflict, err, "product already exists")
	}
	return apperr.Wrap(apperr.Internal, err, "%s", msg)
}
