// Package sales books sales. A sale is written all at once or not at all:
// header, every line and every stock decrement share one transaction.
package sales

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentMethods accepted on a sale.
var PaymentMethods = []string{"cash", "card", "upi", "credit"}

// ValidPaymentMethod reports whether m is one of PaymentMethods.
func ValidPaymentMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

type LineItem struct {
	ProductID    uint
	Quantity     int
	PricePerUnit decimal.Decimal
	TaxAmount    decimal.Decimal
}

type SaleInput struct {
	CustomerID      *uint
	TotalAmount     *decimal.Decimal
	TotalTax        decimal.Decimal
	PaymentMethod   string
	InvoiceNumber   string
	Items           []LineItem
	IsGSTApplicable bool
}

// Receipt identifies a booked sale.
type Receipt struct {
	SaleID        uint      `json:"saleId"`
	InvoiceNumber string    `json:"invoiceNumber"`
	SaleDate      time.Time `json:"saleDate"`
}

type Engine struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db, now: time.Now}
}

// Record books a sale for the caller's shop. Every product row is locked
// before its quantity is read, so concurrent sales of the same product
// serialise instead of overselling.
func (e *Engine) Record(ctx context.Context, p auth.Principal, in SaleInput) (*Receipt, error) {
	if err := p.Require(auth.AnyMember); err != nil {
		return nil, err
	}
	if err := validate(&in); err != nil {
		return nil, err
	}

	sale := models.Sale{
		ShopID:          p.ShopID,
		UserID:          p.UserID,
		CustomerID:      in.CustomerID,
		InvoiceNumber:   in.InvoiceNumber,
		TotalAmount:     in.TotalAmount.Round(2),
		TotalTax:        in.TotalTax.Round(2),
		PaymentMethod:   in.PaymentMethod,
		IsGSTApplicable: in.IsGSTApplicable,
		SaleDate:        e.now().UTC(),
	}
	if sale.InvoiceNumber == "" {
		sale.InvoiceNumber = newInvoiceNumber(sale.SaleDate)
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.CustomerID != nil {
			var n int64
			err := tx.Model(&models.Customer{}).
				Where("id = ? AND shop_id = ?", *in.CustomerID, p.ShopID).
				Count(&n).Error
			if err != nil {
				return err
			}
			if n == 0 {
				return apperr.New(apperr.NotFound, "customer %d not found", *in.CustomerID)
			}
		}

		if err := tx.Omit(clause.Associations).Create(&sale).Error; err != nil {
			if database.IsDuplicate(err) {
				return apperr.Wrap(apperr.Conflict, err, "invoice number %s already exists", sale.InvoiceNumber)
			}
			return err
		}

		for _, item := range in.Items {
			if err := bookLine(tx, p.ShopID, sale.ID, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperr.Wrap(apperr.TransactionFailed, err, "Transaction failed, sale was not recorded")
	}

	return &Receipt{SaleID: sale.ID, InvoiceNumber: sale.InvoiceNumber, SaleDate: sale.SaleDate}, nil
}

// bookLine locks the product, checks stock, snapshots its cost and
// decrements it.
func bookLine(tx *gorm.DB, shopID, saleID uint, item LineItem) error {
	var product models.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "name", "quantity", "cost_price").
		Where("id = ? AND shop_id = ?", item.ProductID, shopID).
		First(&product).Error
	if database.IsNotFound(err) {
		return apperr.New(apperr.NotFound, "Product %d not found", item.ProductID)
	}
	if err != nil {
		return err
	}

	newQuantity := product.Quantity - item.Quantity
	if newQuantity < 0 {
		return apperr.New(apperr.InsufficientStock, "Insufficient stock for %s (available %d, requested %d)",
			product.Name, product.Quantity, item.Quantity)
	}

	line := models.SaleItem{
		SaleID:       saleID,
		ProductID:    product.ID,
		Quantity:     item.Quantity,
		PricePerUnit: item.PricePerUnit.Round(2),
		TaxAmount:    item.TaxAmount.Round(2),
		CostPrice:    product.CostPrice,
	}
	if err := tx.Omit(clause.Associations).Create(&line).Error; err != nil {
		return err
	}

	return tx.Model(&models.Product{}).
		Where("id = ? AND shop_id = ?", product.ID, shopID).
		Update("quantity", newQuantity).Error
}

func validate(in *SaleInput) error {
	if in.TotalAmount == nil {
		return apperr.New(apperr.InvalidInput, "totalAmount is required")
	}
	if len(in.Items) == 0 {
		return apperr.New(apperr.InvalidInput, "items cannot be empty")
	}
	if in.TotalAmount.IsNegative() || in.TotalTax.IsNegative() {
		return apperr.New(apperr.InvalidInput, "totals cannot be negative")
	}

	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if in.PaymentMethod == "" {
		in.PaymentMethod = "cash"
	}
	if !ValidPaymentMethod(in.PaymentMethod) {
		return apperr.New(apperr.InvalidInput, "unknown payment method %s", in.PaymentMethod)
	}
	in.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)

	for i, item := range in.Items {
		switch {
		case item.ProductID == 0:
			return apperr.New(apperr.InvalidInput, "items[%d]: productId is required", i)
		case item.Quantity <= 0:
			return apperr.New(apperr.InvalidInput, "items[%d]: quantity must be positive", i)
		case item.PricePerUnit.IsNegative() || item.TaxAmount.IsNegative():
			return apperr.New(apperr.InvalidInput, "items[%d]: amounts cannot be negative", i)
		}
	}
	return nil
}

// newInvoiceNumber is used when the client sends none.
func newInvoiceNumber(at time.Time) string {
	return "INV-" + at.Format("20060102150405") + "-" + strings.ToUpper(uuid.NewString()[:8])
}
