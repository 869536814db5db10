// Package finance keeps the admin's books: expenses, supplier purchases and
// end-of-day closings. None of these touch stock.
package finance

import (
	"context"
	"strings"
	"time"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

type ExpenseInput struct {
	Category    string
	Description string
	Amount      *decimal.Decimal
	ExpenseDate time.Time // zero means now
}

func (s *Service) AddExpense(ctx context.Context, p auth.Principal, in ExpenseInput) (*models.Expense, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	category := strings.TrimSpace(in.Category)
	if category == "" || in.Amount == nil {
		return nil, apperr.New(apperr.InvalidInput, "category and amount are required")
	}
	if !in.Amount.IsPositive() {
		return nil, apperr.New(apperr.InvalidInput, "amount must be positive")
	}

	expense := models.Expense{
		ShopID:      p.ShopID,
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount.Round(2),
		ExpenseDate: s.dateOrNow(in.ExpenseDate),
	}
	if err := s.db.WithContext(ctx).Create(&expense).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to save expense")
	}
	return &expense, nil
}

// Expenses lists the shop's expenses with from <= expense_date < to. Zero bounds are open.
func (s *Service) Expenses(ctx context.Context, p auth.Principal, from, to time.Time) ([]models.Expense, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	var list []models.Expense
	q := inRange(s.db.WithContext(ctx).Where("shop_id = ?", p.ShopID), "expense_date", from, to)
	if err := q.Order("expense_date desc, id desc").Find(&list).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch expenses")
	}
	return list, nil
}

func (s *Service) DeleteExpense(ctx context.Context, p auth.Principal, id uint) error {
	if err := p.Require(auth.AdminOnly); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ? AND shop_id = ?", id, p.ShopID).Delete(&models.Expense{})
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, res.Error, "Failed to delete expense")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "expense %d not found", id)
	}
	return nil
}

type PurchaseLine struct {
	ProductID   *uint
	Description string
	Quantity    int
	UnitCost    decimal.Decimal
	TaxAmount   decimal.Decimal
}

type PurchaseInput struct {
	SupplierName  string
	SupplierGSTIN string
	InvoiceNumber string
	PurchaseDate  time.Time // zero means now
	TotalAmount   *decimal.Decimal
	TotalTax      decimal.Decimal
	Items         []PurchaseLine
}

// AddPurchase stores a supplier bill and its lines in one transaction.
func (s *Service) AddPurchase(ctx context.Context, p auth.Principal, in PurchaseInput) (*models.Purchase, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	purchase, err := s.buildPurchase(p.ShopID, in)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range purchase.Items {
			if item.ProductID == nil {
				continue
			}
			var n int64
			if err := tx.Model(&models.Product{}).Where("id = ? AND shop_id = ?", *item.ProductID, p.ShopID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return apperr.New(apperr.NotFound, "Product %d not found", *item.ProductID)
			}
		}
		return tx.Create(purchase).Error
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.Internal {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to save purchase")
	}
	return purchase, nil
}

func (s *Service) buildPurchase(shopID uint, in PurchaseInput) (*models.Purchase, error) {
	supplier := strings.TrimSpace(in.SupplierName)
	if supplier == "" || in.TotalAmount == nil {
		return nil, apperr.New(apperr.InvalidInput, "supplierName and totalAmount are required")
	}
	if in.TotalAmount.IsNegative() || in.TotalTax.IsNegative() {
		return nil, apperr.New(apperr.InvalidInput, "totals cannot be negative")
	}
	gstin := strings.ToUpper(strings.TrimSpace(in.SupplierGSTIN))
	if gstin != "" && len(gstin) != 15 {
		return nil, apperr.New(apperr.InvalidInput, "gstin must be 15 characters")
	}

	purchase := &models.Purchase{
		ShopID:        shopID,
		SupplierName:  supplier,
		SupplierGSTIN: gstin,
		InvoiceNumber: strings.TrimSpace(in.InvoiceNumber),
		PurchaseDate:  s.dateOrNow(in.PurchaseDate),
		TotalAmount:   in.TotalAmount.Round(2),
		TotalTax:      in.TotalTax.Round(2),
	}
	for i, line := range in.Items {
		desc := strings.TrimSpace(line.Description)
		switch {
		case desc == "":
			return nil, apperr.New(apperr.InvalidInput, "items[%d]: description is required", i)
		case line.Quantity <= 0:
			return nil, apperr.New(apperr.InvalidInput, "items[%d]: quantity must be positive", i)
		case line.UnitCost.IsNegative() || line.TaxAmount.IsNegative():
			return nil, apperr.New(apperr.InvalidInput, "items[%d]: amounts cannot be negative", i)
		}
		purchase.Items = append(purchase.Items, models.PurchaseItem{
			ProductID:   line.ProductID,
			Description: desc,
			Quantity:    line.Quantity,
			UnitCost:    line.UnitCost.Round(2),
			TaxAmount:   line.TaxAmount.Round(2),
		})
	}
	return purchase, nil
}

func (s *Service) Purchases(ctx context.Context, p auth.Principal, from, to time.Time) ([]models.Purchase, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	var list []models.Purchase
	q := inRange(s.db.WithContext(ctx).Where("shop_id = ?", p.ShopID), "purchase_date", from, to)
	if err := q.Order("purchase_date desc, id desc").Find(&list).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch purchases")
	}
	return list, nil
}

func (s *Service) Purchase(ctx context.Context, p auth.Principal, id uint) (*models.Purchase, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	var purchase models.Purchase
	err := s.db.WithContext(ctx).Preload("Items").Where("id = ? AND shop_id = ?", id, p.ShopID).First(&purchase).Error
	if database.IsNotFound(err) {
		return nil, apperr.New(apperr.NotFound, "purchase %d not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch purchase")
	}
	return &purchase, nil
}

type ClosingInput struct {
	Date        time.Time // any instant within the UTC day being closed; zero means today
	OpeningCash decimal.Decimal
	ClosingCash decimal.Decimal
	Notes       string
}

// Close records the day's closing with the day's sales and expense totals.
// A day can be closed once.
func (s *Service) Close(ctx context.Context, p auth.Principal, in ClosingInput) (*models.DailyClosing, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	if in.OpeningCash.IsNegative() || in.ClosingCash.IsNegative() {
		return nil, apperr.New(apperr.InvalidInput, "cash amounts cannot be negative")
	}

	day := StartOfDay(s.dateOrNow(in.Date))
	next := day.AddDate(0, 0, 1)
	db := s.db.WithContext(ctx)

	sales, err := database.GetSalesReport(db, p.ShopID, day, next)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to total sales")
	}
	expenses, err := database.ExpenseTotal(db, p.ShopID, day, next)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to total expenses")
	}

	closing := models.DailyClosing{
		ShopID:       p.ShopID,
		ClosingDate:  day,
		OpeningCash:  in.OpeningCash.Round(2),
		ClosingCash:  in.ClosingCash.Round(2),
		SalesTotal:   sales.TotalRevenue,
		ExpenseTotal: expenses,
		Notes:        strings.TrimSpace(in.Notes),
	}
	if err := db.Create(&closing).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, apperr.Wrap(apperr.Conflict, err, "%s is already closed", day.Format(time.DateOnly))
		}
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to save closing")
	}
	return &closing, nil
}

func (s *Service) Closings(ctx context.Context, p auth.Principal) ([]models.DailyClosing, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	var list []models.DailyClosing
	if err := s.db.WithContext(ctx).Where("shop_id = ?", p.ShopID).Order("closing_date desc").Find(&list).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch closings")
	}
	return list, nil
}

func (s *Service) dateOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t.UTC()
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func inRange(q *gorm.DB, column string, from, to time.Time) *gorm.DB {
	if !from.IsZero() {
		q = q.Where(column+" >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where(column+" < ?", to.UTC())
	}
	return q
}
