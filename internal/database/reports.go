package database

import (
	"time"

	"go-pos-gst/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesReportResult holds revenue and order count for one shop and range.
type SalesReportResult struct {
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalTax     decimal.Decimal `json:"totalTax"`
	TotalCount   int64           `json:"totalCount"`
}

// GetSalesReport totals a shop's sales with start <= sale_date < end.
// Amounts are summed in Go so the result is exact on every driver.
func GetSalesReport(db *gorm.DB, shopID uint, start, end time.Time) (*SalesReportResult, error) {
	var rows []models.Sale
	err := db.Select("total_amount", "total_tax").
		Where("shop_id = ? AND sale_date >= ? AND sale_date < ?", shopID, start, end).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := SalesReportResult{TotalRevenue: decimal.Zero, TotalTax: decimal.Zero}
	for _, s := range rows {
		result.TotalRevenue = result.TotalRevenue.Add(s.TotalAmount)
		result.TotalTax = result.TotalTax.Add(s.TotalTax)
	}
	result.TotalCount = int64(len(rows))

	return &result, nil
}

// ExpenseTotal sums a shop's expenses with start <= expense_date < end.
func ExpenseTotal(db *gorm.DB, shopID uint, start, end time.Time) (decimal.Decimal, error) {
	var rows []models.Expense
	err := db.Select("amount").
		Where("shop_id = ? AND expense_date >= ? AND expense_date < ?", shopID, start, end).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, e := range rows {
		total = total.Add(e.Amount)
	}
	return total, nil
}
