package sales

import (
	"context"
	"time"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/models"
)

// List returns the shop's sales with from <= sale_date < to, newest first.
// Zero bounds are open.
func (e *Engine) List(ctx context.Context, p auth.Principal, from, to time.Time) ([]models.Sale, error) {
	if err := p.Require(auth.AnyMember); err != nil {
		return nil, err
	}

	q := e.db.WithContext(ctx).Preload("Customer").Where("shop_id = ?", p.ShopID)
	if !from.IsZero() {
		q = q.Where("sale_date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("sale_date < ?", to)
	}

	var list []models.Sale
	if err := q.Order("sale_date desc, id desc").Limit(500).Find(&list).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch sales")
	}
	return list, nil
}

// Get returns one sale of the caller's shop with its lines.
func (e *Engine) Get(ctx context.Context, p auth.Principal, saleID uint) (*models.Sale, error) {
	if err := p.Require(auth.AnyMember); err != nil {
		return nil, err
	}

	var sale models.Sale
	err := e.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items.Product").
		Where("id = ? AND shop_id = ?", saleID, p.ShopID).
		First(&sale).Error
	if database.IsNotFound(err) {
		return nil, apperr.New(apperr.NotFound, "sale %d not found", saleID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch sale")
	}
	return &sale, nil
}
