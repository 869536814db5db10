// Package reports holds read-only projections over a shop's books. Every
// figure is summed with decimals in Go; nothing is rounded before the
// response is rendered.
package reports

import (
	"context"
	"sort"
	"time"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	lowStock int
	now      func() time.Time
}

func NewService(db *gorm.DB, lowStockThreshold int) *Service {
	return &Service{db: db, lowStock: lowStockThreshold, now: time.Now}
}

// TopSeller is one row of the dashboard's best sellers.
type TopSeller struct {
	ProductID uint            `json:"productId"`
	Name      string          `json:"name"`
	Sold      int             `json:"sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type Dashboard struct {
	TodaySales    decimal.Decimal `json:"todaySales"`
	TodayCount    int64           `json:"todayCount"`
	TotalSales    decimal.Decimal `json:"totalSales"`
	TotalCount    int64           `json:"totalCount"`
	ProductCount  int64           `json:"productCount"`
	LowStockCount int64           `json:"lowStockCount"`
	MonthExpenses decimal.Decimal `json:"monthExpenses"`
	TopSelling    []TopSeller     `json:"topSelling"`
	RecentSales   []models.Sale   `json:"recentSales"`
}

// Dashboard summarises today, the month so far and all time.
func (s *Service) Dashboard(ctx context.Context, p auth.Principal) (*Dashboard, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	now := s.now().UTC()
	today := startOfDay(now)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	todayReport, err := database.GetSalesReport(db, p.ShopID, today, tomorrow)
	if err != nil {
		return nil, internal(err)
	}
	allTime, err := database.GetSalesReport(db, p.ShopID, time.Unix(0, 0).UTC(), tomorrow)
	if err != nil {
		return nil, internal(err)
	}
	expenses, err := database.ExpenseTotal(db, p.ShopID, month, tomorrow)
	if err != nil {
		return nil, internal(err)
	}

	d := Dashboard{
		TodaySales:    todayReport.TotalRevenue,
		TodayCount:    todayReport.TotalCount,
		TotalSales:    allTime.TotalRevenue,
		TotalCount:    allTime.TotalCount,
		MonthExpenses: expenses,
	}
	if err := db.Model(&models.Product{}).Where("shop_id = ?", p.ShopID).Count(&d.ProductCount).Error; err != nil {
		return nil, internal(err)
	}
	err = db.Model(&models.Product{}).
		Where("shop_id = ? AND quantity <= ?", p.ShopID, s.lowStock).
		Count(&d.LowStockCount).Error
	if err != nil {
		return nil, internal(err)
	}

	lines, err := s.soldLines(db, p.ShopID, time.Time{}, time.Time{})
	if err != nil {
		return nil, internal(err)
	}
	d.TopSelling = topSellers(lines, 5)

	err = db.Preload("Customer").Where("shop_id = ?", p.ShopID).
		Order("sale_date desc, id desc").Limit(10).Find(&d.RecentSales).Error
	if err != nil {
		return nil, internal(err)
	}
	return &d, nil
}

type ProductProfit struct {
	ProductID uint            `json:"productId"`
	Name      string          `json:"name"`
	UnitsSold int             `json:"unitsSold"`
	Revenue   decimal.Decimal `json:"revenue"`
	Cost      decimal.Decimal `json:"cost"`
	Profit    decimal.Decimal `json:"profit"`
}

type ProfitReport struct {
	Products     []ProductProfit `json:"products"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalCost    decimal.Decimal `json:"totalCost"`
	TotalProfit  decimal.Decimal `json:"totalProfit"`
}

// ProductProfit prices each line at its sale price and at the cost captured
// when it was sold, for sales with from <= sale_date < to.
func (s *Service) ProductProfit(ctx context.Context, p auth.Principal, from, to time.Time) (*ProfitReport, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	lines, err := s.soldLines(s.db.WithContext(ctx), p.ShopID, from, to)
	if err != nil {
		return nil, internal(err)
	}

	byProduct := map[uint]*ProductProfit{}
	report := ProfitReport{TotalRevenue: decimal.Zero, TotalCost: decimal.Zero, TotalProfit: decimal.Zero}
	for _, l := range lines {
		row, ok := byProduct[l.ProductID]
		if !ok {
			row = &ProductProfit{ProductID: l.ProductID, Revenue: decimal.Zero, Cost: decimal.Zero}
			if l.Product != nil {
				row.Name = l.Product.Name
			}
			byProduct[l.ProductID] = row
		}
		qty := decimal.NewFromInt(int64(l.Quantity))
		revenue := l.PricePerUnit.Mul(qty)
		cost := l.CostPrice.Mul(qty)

		row.UnitsSold += l.Quantity
		row.Revenue = row.Revenue.Add(revenue)
		row.Cost = row.Cost.Add(cost)
		report.TotalRevenue = report.TotalRevenue.Add(revenue)
		report.TotalCost = report.TotalCost.Add(cost)
	}

	report.Products = make([]ProductProfit, 0, len(byProduct))
	for _, row := range byProduct {
		row.Profit = row.Revenue.Sub(row.Cost)
		report.Products = append(report.Products, *row)
	}
	sort.Slice(report.Products, func(i, j int) bool {
		a, b := report.Products[i], report.Products[j]
		if c := a.Profit.Cmp(b.Profit); c != 0 {
			return c > 0
		}
		return a.Name < b.Name
	})
	report.TotalProfit = report.TotalRevenue.Sub(report.TotalCost)
	return &report, nil
}

// soldLines loads the shop's sale lines with their product, for sales
// with from <= sale_date < to. Zero bounds are open.
func (s *Service) soldLines(db *gorm.DB, shopID uint, from, to time.Time) ([]models.SaleItem, error) {
	q := db.Preload("Product").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.shop_id = ?", shopID)
	if !from.IsZero() {
		q = q.Where("sales.sale_date >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("sales.sale_date < ?", to.UTC())
	}

	var lines []models.SaleItem
	err := q.Order("sale_items.id").Find(&lines).Error
	return lines, err
}

func topSellers(lines []models.SaleItem, n int) []TopSeller {
	byProduct := map[uint]*TopSeller{}
	for _, l := range lines {
		row, ok := byProduct[l.ProductID]
		if !ok {
			row = &TopSeller{ProductID: l.ProductID, Revenue: decimal.Zero}
			if l.Product != nil {
				row.Name = l.Product.Name
			}
			byProduct[l.ProductID] = row
		}
		row.Sold += l.Quantity
		row.Revenue = row.Revenue.Add(l.PricePerUnit.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	out := make([]TopSeller, 0, len(byProduct))
	for _, row := range byProduct {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sold != out[j].Sold {
			return out[i].Sold > out[j].Sold
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func internal(err error) error {
	return apperr.Wrap(apperr.Internal, err, "Failed to build report")
}
