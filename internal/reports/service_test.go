package reports

import (
	"bytes"
	"context"
	"testing"
	"time"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/models"
	"go-pos-gst/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

type line struct {
	product models.Product
	qty     int
	price   string
	tax     string
	cost    string
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedSale(t *testing.T, db *gorm.DB, p auth.Principal, invoice string, at time.Time, gst bool, customerID *uint, lines ...line) {
	t.Helper()
	total, tax := decimal.Zero, decimal.Zero
	for _, l := range lines {
		total = total.Add(dec(l.price).Mul(decimal.NewFromInt(int64(l.qty)))).Add(dec(l.tax))
		tax = tax.Add(dec(l.tax))
	}
	sale := models.Sale{
		ShopID:          p.ShopID,
		UserID:          p.UserID,
		CustomerID:      customerID,
		InvoiceNumber:   invoice,
		TotalAmount:     total,
		TotalTax:        tax,
		PaymentMethod:   "cash",
		IsGSTApplicable: gst,
		SaleDate:        at,
	}
	require.NoError(t, db.Omit("Items").Create(&sale).Error)
	for _, l := range lines {
		item := models.SaleItem{
			SaleID:       sale.ID,
			ProductID:    l.product.ID,
			Quantity:     l.qty,
			PricePerUnit: dec(l.price),
			TaxAmount:    dec(l.tax),
			CostPrice:    dec(l.cost),
		}
		require.NoError(t, db.Create(&item).Error)
	}
}

type books struct {
	db    *gorm.DB
	svc   *Service
	admin auth.Principal
	other auth.Principal
}

// seedBooks builds one shop's day of trading plus noise from another shop
// and from the following day.
func seedBooks(t *testing.T) books {
	db := testutil.NewDB(t)
	admin := testutil.SeedShop(t, db, "Shop1")
	other := testutil.SeedShop(t, db, "Shop2")

	rice := testutil.SeedProduct(t, db, admin.ShopID, "Rice", 10, "40", "50")
	oil := testutil.SeedProduct(t, db, admin.ShopID, "Oil", 2, "100", "130")
	dal := testutil.SeedProduct(t, db, other.ShopID, "Dal", 10, "8", "10")

	buyer := models.Customer{ShopID: admin.ShopID, Phone: "900", Name: "Kumar Stores", GSTIN: "29ABCDE1234F1Z5"}
	require.NoError(t, db.Create(&buyer).Error)

	seedSale(t, db, admin, "A-1", day.Add(9*time.Hour), true, &buyer.ID, line{rice, 2, "50", "5", "40"})
	seedSale(t, db, admin, "A-2", day.Add(11*time.Hour), true, nil, line{oil, 1, "130", "23.41", "100"})
	seedSale(t, db, admin, "A-3", day.Add(12*time.Hour), false, nil, line{rice, 1, "50", "0", "35"})
	seedSale(t, db, admin, "A-4", day.AddDate(0, 0, 1).Add(10*time.Hour), true, nil, line{oil, 3, "130", "0", "100"})
	seedSale(t, db, other, "B-1", day.Add(9*time.Hour), true, nil, line{dal, 1, "10", "1", "8"})

	require.NoError(t, db.Create(&models.Purchase{
		ShopID: admin.ShopID, SupplierName: "Agro", SupplierGSTIN: "29AAAAA0000A1Z5", InvoiceNumber: "P-1",
		PurchaseDate: day.Add(8 * time.Hour), TotalAmount: dec("1180"), TotalTax: dec("180"),
	}).Error)
	require.NoError(t, db.Create(&models.Purchase{
		ShopID: other.ShopID, SupplierName: "Other", PurchaseDate: day.Add(8 * time.Hour),
		TotalAmount: dec("500"), TotalTax: dec("50"),
	}).Error)
	require.NoError(t, db.Create(&models.Expense{
		ShopID: admin.ShopID, Category: "Power", Amount: dec("118"), ExpenseDate: day.Add(14 * time.Hour),
	}).Error)

	svc := NewService(db, 5)
	svc.now = func() time.Time { return day.Add(15 * time.Hour) }
	return books{db: db, svc: svc, admin: admin, other: other}
}

func TestGSTR1SplitsB2BAndB2C(t *testing.T) {
	b := seedBooks(t)

	r, err := b.svc.GSTR1(context.Background(), b.admin, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	require.Len(t, r.B2B, 1)
	assert.Equal(t, "A-1", r.B2B[0].InvoiceNumber)
	assert.Equal(t, "Kumar Stores", r.B2B[0].CustomerName)
	assert.Equal(t, "100.00", r.B2B[0].TaxableValue.StringFixed(2))
	assert.Equal(t, "2.50", r.B2B[0].CGST.StringFixed(2))
	assert.Equal(t, "2.50", r.B2B[0].SGST.StringFixed(2))

	require.Len(t, r.B2C, 1)
	assert.Equal(t, "A-2", r.B2C[0].InvoiceNumber)
	assert.Equal(t, "130.00", r.B2C[0].TaxableValue.StringFixed(2))
	assert.Equal(t, "11.71", r.B2C[0].CGST.StringFixed(2))
	assert.Equal(t, "11.70", r.B2C[0].SGST.StringFixed(2))

	assert.Equal(t, 2, r.Totals.Count)
	assert.Equal(t, "230.00", r.Totals.TaxableValue.StringFixed(2))
	assert.Equal(t, "28.41", r.Totals.TotalTax.StringFixed(2))
	assert.Equal(t, "258.41", r.Totals.InvoiceValue.StringFixed(2))
	assert.True(t, r.Totals.CGST.Add(r.Totals.SGST).Equal(r.Totals.TotalTax))
}

func TestGSTR2AndGSTR3(t *testing.T) {
	b := seedBooks(t)
	ctx := context.Background()
	from, to := day, day.AddDate(0, 0, 1)

	r2, err := b.svc.GSTR2(ctx, b.admin, from, to)
	require.NoError(t, err)
	require.Len(t, r2.Invoices, 1)
	assert.Equal(t, "Agro", r2.Invoices[0].SupplierName)
	assert.Equal(t, "1000.00", r2.TaxableValue.StringFixed(2))
	assert.Equal(t, "180.00", r2.TotalITC.StringFixed(2))

	r3, err := b.svc.GSTR3(ctx, b.admin, from, to)
	require.NoError(t, err)
	assert.Equal(t, "28.41", r3.OutputTax.StringFixed(2))
	assert.Equal(t, "180.00", r3.PurchaseITC.StringFixed(2))
	assert.Equal(t, "118.00", r3.ExpenseTotal.StringFixed(2))
	assert.Equal(t, "18.00", r3.ExpenseITC.StringFixed(2))
	assert.Equal(t, "198.00", r3.TotalITC.StringFixed(2))
	assert.Equal(t, "-169.59", r3.NetPayable.StringFixed(2))
}

func TestInvoiceLineSplitsOddPaisaToCGST(t *testing.T) {
	cases := []struct {
		tax, cgst, sgst string
	}{
		{"0.05", "0.03", "0.02"},
		{"28.41", "14.21", "14.20"},
		{"18.00", "9", "9"},
	}
	for _, tc := range cases {
		inv := invoiceLine(models.Sale{
			TotalAmount: decimal.RequireFromString("100"),
			TotalTax:    decimal.RequireFromString(tc.tax),
		})
		assert.True(t, decimal.RequireFromString(tc.cgst).Equal(inv.CGST), "cgst of %s: %s", tc.tax, inv.CGST)
		assert.True(t, decimal.RequireFromString(tc.sgst).Equal(inv.SGST), "sgst of %s: %s", tc.tax, inv.SGST)
		assert.True(t, inv.TotalTax.Equal(inv.CGST.Add(inv.SGST)))
	}
}

func TestExpenseITC(t *testing.T) {
	assert.Equal(t, "18.00", ExpenseITC(dec("118")).StringFixed(2))
	assert.Equal(t, "15.25", ExpenseITC(dec("100")).StringFixed(2))
	assert.True(t, ExpenseITC(decimal.Zero).IsZero())
}

func TestProductProfitUsesCostSnapshots(t *testing.T) {
	b := seedBooks(t)

	// Later cost changes must not move past profit.
	require.NoError(t, b.db.Model(&models.Product{}).Where("name = ?", "Rice").Update("cost_price", dec("49")).Error)

	r, err := b.svc.ProductProfit(context.Background(), b.admin, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, r.Products, 2)

	rice := r.Products[0]
	assert.Equal(t, "Rice", rice.Name)
	assert.Equal(t, 3, rice.UnitsSold)
	assert.Equal(t, "150.00", rice.Revenue.StringFixed(2))
	assert.Equal(t, "115.00", rice.Cost.StringFixed(2))
	assert.Equal(t, "35.00", rice.Profit.StringFixed(2))

	oil := r.Products[1]
	assert.Equal(t, "Oil", oil.Name)
	assert.Equal(t, 1, oil.UnitsSold)
	assert.Equal(t, "30.00", oil.Profit.StringFixed(2))

	assert.Equal(t, "280.00", r.TotalRevenue.StringFixed(2))
	assert.Equal(t, "215.00", r.TotalCost.StringFixed(2))
	assert.Equal(t, "65.00", r.TotalProfit.StringFixed(2))
}

func TestBalanceSheet(t *testing.T) {
	b := seedBooks(t)

	r, err := b.svc.BalanceSheet(context.Background(), b.admin, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "600.00", r.InventoryValue.StringFixed(2))
	assert.Equal(t, "308.41", r.Sales.StringFixed(2))
	assert.Equal(t, "280.00", r.NetSales.StringFixed(2))
	assert.Equal(t, "215.00", r.CostOfGoods.StringFixed(2))
	assert.Equal(t, "65.00", r.GrossProfit.StringFixed(2))
	assert.Equal(t, "1180.00", r.Purchases.StringFixed(2))
	assert.Equal(t, "118.00", r.Expenses.StringFixed(2))
	assert.Equal(t, "-53.00", r.NetProfit.StringFixed(2))
	assert.Equal(t, "-169.59", r.GSTPayable.StringFixed(2))
}

func TestDashboard(t *testing.T) {
	b := seedBooks(t)

	d, err := b.svc.Dashboard(context.Background(), b.admin)
	require.NoError(t, err)
	assert.Equal(t, "308.41", d.TodaySales.StringFixed(2))
	assert.Equal(t, int64(3), d.TodayCount)
	assert.Equal(t, int64(2), d.ProductCount)
	assert.Equal(t, int64(1), d.LowStockCount)
	assert.Equal(t, "118.00", d.MonthExpenses.StringFixed(2))

	require.Len(t, d.TopSelling, 2)
	assert.Equal(t, "Oil", d.TopSelling[0].Name)
	assert.Equal(t, 4, d.TopSelling[0].Sold)
	assert.Equal(t, "520.00", d.TopSelling[0].Revenue.StringFixed(2))

	require.Len(t, d.RecentSales, 4)
	assert.Equal(t, "A-4", d.RecentSales[0].InvoiceNumber)
	for _, s := range d.RecentSales {
		assert.Equal(t, b.admin.ShopID, s.ShopID)
	}
}

func TestReportsAreAdminOnly(t *testing.T) {
	b := seedBooks(t)
	staff := testutil.StaffOf(t, b.db, b.admin)
	ctx := context.Background()

	_, err := b.svc.Dashboard(ctx, staff)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
	_, err = b.svc.GSTR3(ctx, staff, day, day)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
	_, err = b.svc.ExportGSTR1(ctx, staff, day, day)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
}

func TestOtherShopSeesOnlyItsBooks(t *testing.T) {
	b := seedBooks(t)

	r, err := b.svc.GSTR1(context.Background(), b.other, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, r.B2B)
	require.Len(t, r.B2C, 1)
	assert.Equal(t, "B-1", r.B2C[0].InvoiceNumber)

	p, err := b.svc.ProductProfit(context.Background(), b.other, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, p.Products, 1)
	assert.Equal(t, "Dal", p.Products[0].Name)
}

func TestExportGSTR1(t *testing.T) {
	b := seedBooks(t)

	data, err := b.svc.ExportGSTR1(context.Background(), b.admin, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"B2B", "B2C"}, f.GetSheetList())

	rows, err := f.GetRows("B2B")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Invoice No", rows[0][0])
	assert.Equal(t, "A-1", rows[1][0])
	assert.Equal(t, "29ABCDE1234F1Z5", rows[1][3])
	assert.Equal(t, "1 invoices", rows[2][1])

	rows, err = f.GetRows("B2C")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "A-2", rows[1][0])
}
