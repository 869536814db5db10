package reports

import (
	"context"
	"time"

	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/models"

	"github.com/shopspring/decimal"
)

// Expenses carry no itemised tax, so their input credit is estimated as if
// every amount were inclusive of 18% GST.
var (
	expenseGSTRate     = decimal.NewFromInt(18)
	expenseGSTInclBase = decimal.NewFromInt(118)
)

// ExpenseITC is the input tax assumed to be inside an expense amount,
// rounded to the paisa.
func ExpenseITC(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(expenseGSTRate).DivRound(expenseGSTInclBase, 2)
}

// Period is the [From, To) window a report covers.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type GSTR1Invoice struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	SaleDate      time.Time       `json:"saleDate"`
	CustomerName  string          `json:"customerName"`
	CustomerGSTIN string          `json:"customerGstin"`
	TaxableValue  decimal.Decimal `json:"taxableValue"`
	TotalTax      decimal.Decimal `json:"totalTax"`
	CGST          decimal.Decimal `json:"cgst"`
	SGST          decimal.Decimal `json:"sgst"`
	InvoiceValue  decimal.Decimal `json:"invoiceValue"`
}

// GSTTotals sums a set of invoices.
type GSTTotals struct {
	Count        int             `json:"count"`
	TaxableValue decimal.Decimal `json:"taxableValue"`
	TotalTax     decimal.Decimal `json:"totalTax"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	InvoiceValue decimal.Decimal `json:"invoiceValue"`
}

func newTotals() GSTTotals {
	return GSTTotals{
		TaxableValue: decimal.Zero,
		TotalTax:     decimal.Zero,
		CGST:         decimal.Zero,
		SGST:         decimal.Zero,
		InvoiceValue: decimal.Zero,
	}
}

func (t *GSTTotals) add(inv GSTR1Invoice) {
	t.Count++
	t.TaxableValue = t.TaxableValue.Add(inv.TaxableValue)
	t.TotalTax = t.TotalTax.Add(inv.TotalTax)
	t.CGST = t.CGST.Add(inv.CGST)
	t.SGST = t.SGST.Add(inv.SGST)
	t.InvoiceValue = t.InvoiceValue.Add(inv.InvoiceValue)
}

// GSTR1 is outward supplies: B2B for buyers with a GSTIN, B2C otherwise.
type GSTR1 struct {
	Period Period         `json:"period"`
	B2B    []GSTR1Invoice `json:"b2b"`
	B2C    []GSTR1Invoice `json:"b2c"`
	B2BSum GSTTotals      `json:"b2bTotals"`
	B2CSum GSTTotals      `json:"b2cTotals"`
	Totals GSTTotals      `json:"totals"`
}

// GSTR1 lists GST-applicable sales with from <= sale_date < to.
func (s *Service) GSTR1(ctx context.Context, p auth.Principal, from, to time.Time) (*GSTR1, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	var sales []models.Sale
	err := s.db.WithContext(ctx).Preload("Customer").
		Where("shop_id = ? AND is_gst_applicable = ? AND sale_date >= ? AND sale_date < ?", p.ShopID, true, from.UTC(), to.UTC()).
		Order("sale_date, id").
		Find(&sales).Error
	if err != nil {
		return nil, internal(err)
	}

	r := GSTR1{
		Period: Period{From: from, To: to},
		B2B:    []GSTR1Invoice{},
		B2C:    []GSTR1Invoice{},
		B2BSum: newTotals(),
		B2CSum: newTotals(),
		Totals: newTotals(),
	}
	for _, sale := range sales {
		inv := invoiceLine(sale)
		if inv.CustomerGSTIN != "" {
			r.B2B = append(r.B2B, inv)
			r.B2BSum.add(inv)
		} else {
			r.B2C = append(r.B2C, inv)
			r.B2CSum.add(inv)
		}
		r.Totals.add(inv)
	}
	return &r, nil
}

// invoiceLine splits an intra-state sale's tax into equal central and state
// halves. CGST is rounded half away from zero, so the odd paisa
// goes to CGST.
func invoiceLine(sale models.Sale) GSTR1Invoice {
	cgst := sale.TotalTax.DivRound(decimal.NewFromInt(2), 2)
	inv := GSTR1Invoice{
		InvoiceNumber: sale.InvoiceNumber,
		SaleDate:      sale.SaleDate,
		TaxableValue:  sale.TotalAmount.Sub(sale.TotalTax),
		TotalTax:      sale.TotalTax,
		CGST:          cgst,
		SGST:          sale.TotalTax.Sub(cgst),
		InvoiceValue:  sale.TotalAmount,
	}
	if sale.Customer != nil {
		inv.CustomerName = sale.Customer.Name
		inv.CustomerGSTIN = sale.Customer.GSTIN
	}
	return inv
}

type GSTR2Invoice struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	PurchaseDate  time.Time       `json:"purchaseDate"`
	SupplierName  string          `json:"supplierName"`
	SupplierGSTIN string          `json:"supplierGstin"`
	TaxableValue  decimal.Decimal `json:"taxableValue"`
	TotalTax      decimal.Decimal `json:"totalTax"`
	InvoiceValue  decimal.Decimal `json:"invoiceValue"`
}

// GSTR2 is inward supplies from purchase bills.
type GSTR2 struct {
	Period       Period          `json:"period"`
	Invoices     []GSTR2Invoice  `json:"invoices"`
	TaxableValue decimal.Decimal `json:"taxableValue"`
	TotalITC     decimal.Decimal `json:"totalItc"`
	InvoiceValue decimal.Decimal `json:"invoiceValue"`
}

func (s *Service) GSTR2(ctx context.Context, p auth.Principal, from, to time.Time) (*GSTR2, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	var purchases []models.Purchase
	err := s.db.WithContext(ctx).
		Where("shop_id = ? AND purchase_date >= ? AND purchase_date < ?", p.ShopID, from.UTC(), to.UTC()).
		Order("purchase_date, id").
		Find(&purchases).Error
	if err != nil {
		return nil, internal(err)
	}

	r := GSTR2{
		Period:       Period{From: from, To: to},
		Invoices:     make([]GSTR2Invoice, 0, len(purchases)),
		TaxableValue: decimal.Zero,
		TotalITC:     decimal.Zero,
		InvoiceValue: decimal.Zero,
	}
	for _, pu := range purchases {
		inv := GSTR2Invoice{
			InvoiceNumber: pu.InvoiceNumber,
			PurchaseDate:  pu.PurchaseDate,
			SupplierName:  pu.SupplierName,
			SupplierGSTIN: pu.SupplierGSTIN,
			TaxableValue:  pu.TotalAmount.Sub(pu.TotalTax),
			TotalTax:      pu.TotalTax,
			InvoiceValue:  pu.TotalAmount,
		}
		r.Invoices = append(r.Invoices, inv)
		r.TaxableValue = r.TaxableValue.Add(inv.TaxableValue)
		r.TotalITC = r.TotalITC.Add(inv.TotalTax)
		r.InvoiceValue = r.InvoiceValue.Add(inv.InvoiceValue)
	}
	return &r, nil
}

// GSTR3 nets the period's output tax against its input credit.
type GSTR3 struct {
	Period         Period          `json:"period"`
	OutwardTaxable decimal.Decimal `json:"outwardTaxable"`
	OutputTax      decimal.Decimal `json:"outputTax"`
	OutputCGST     decimal.Decimal `json:"outputCgst"`
	OutputSGST     decimal.Decimal `json:"outputSgst"`
	PurchaseITC    decimal.Decimal `json:"purchaseItc"`
	ExpenseTotal   decimal.Decimal `json:"expenseTotal"`
	ExpenseITC     decimal.Decimal `json:"expenseItc"`
	TotalITC       decimal.Decimal `json:"totalItc"`
	NetPayable     decimal.Decimal `json:"netPayable"`
}

func (s *Service) GSTR3(ctx context.Context, p auth.Principal, from, to time.Time) (*GSTR3, error) {
	outward, err := s.GSTR1(ctx, p, from, to)
	if err != nil {
		return nil, err
	}
	inward, err := s.GSTR2(ctx, p, from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := database.ExpenseTotal(s.db.WithContext(ctx), p.ShopID, from.UTC(), to.UTC())
	if err != nil {
		return nil, internal(err)
	}

	r := GSTR3{
		Period:         Period{From: from, To: to},
		OutwardTaxable: outward.Totals.TaxableValue,
		OutputTax:      outward.Totals.TotalTax,
		OutputCGST:     outward.Totals.CGST,
		OutputSGST:     outward.Totals.SGST,
		PurchaseITC:    inward.TotalITC,
		ExpenseTotal:   expenses,
		ExpenseITC:     ExpenseITC(expenses),
	}
	r.TotalITC = r.PurchaseITC.Add(r.ExpenseITC)
	r.NetPayable = r.OutputTax.Sub(r.TotalITC)
	return &r, nil
}

// BalanceSheet is a simplified position of the shop as of a moment.
type BalanceSheet struct {
	AsOf           time.Time       `json:"asOf"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
	Sales          decimal.Decimal `json:"sales"`
	OutputTax      decimal.Decimal `json:"outputTax"`
	NetSales       decimal.Decimal `json:"netSales"`
	CostOfGoods    decimal.Decimal `json:"costOfGoodsSold"`
	GrossProfit    decimal.Decimal `json:"grossProfit"`
	Purchases      decimal.Decimal `json:"purchases"`
	PurchaseTax    decimal.Decimal `json:"purchaseTax"`
	Expenses       decimal.Decimal `json:"expenses"`
	NetProfit      decimal.Decimal `json:"netProfit"`
	GSTPayable     decimal.Decimal `json:"gstPayable"`
}

// BalanceSheet covers everything booked before asOf. Inventory is valued at
// current cost; cost of goods uses the cost captured on each sale line.
func (s *Service) BalanceSheet(ctx context.Context, p auth.Principal, asOf time.Time) (*BalanceSheet, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	asOf = asOf.UTC()
	epoch := time.Unix(0, 0).UTC()

	var products []models.Product
	if err := db.Select("quantity", "cost_price").Where("shop_id = ?", p.ShopID).Find(&products).Error; err != nil {
		return nil, internal(err)
	}
	b := BalanceSheet{AsOf: asOf, InventoryValue: decimal.Zero, CostOfGoods: decimal.Zero, Purchases: decimal.Zero, PurchaseTax: decimal.Zero}
	for _, pr := range products {
		b.InventoryValue = b.InventoryValue.Add(pr.CostPrice.Mul(decimal.NewFromInt(int64(pr.Quantity))))
	}

	sales, err := database.GetSalesReport(db, p.ShopID, epoch, asOf)
	if err != nil {
		return nil, internal(err)
	}
	b.Sales = sales.TotalRevenue
	b.OutputTax = sales.TotalTax
	b.NetSales = b.Sales.Sub(b.OutputTax)

	lines, err := s.soldLines(db, p.ShopID, time.Time{}, asOf)
	if err != nil {
		return nil, internal(err)
	}
	for _, l := range lines {
		b.CostOfGoods = b.CostOfGoods.Add(l.CostPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	b.GrossProfit = b.NetSales.Sub(b.CostOfGoods)

	var purchases []models.Purchase
	err = db.Select("total_amount", "total_tax").
		Where("shop_id = ? AND purchase_date < ?", p.ShopID, asOf).
		Find(&purchases).Error
	if err != nil {
		return nil, internal(err)
	}
	for _, pu := range purchases {
		b.Purchases = b.Purchases.Add(pu.TotalAmount)
		b.PurchaseTax = b.PurchaseTax.Add(pu.TotalTax)
	}

	b.Expenses, err = database.ExpenseTotal(db, p.ShopID, epoch, asOf)
	if err != nil {
		return nil, internal(err)
	}
	b.NetProfit = b.GrossProfit.Sub(b.Expenses)
	b.GSTPayable = b.OutputTax.Sub(b.PurchaseTax).Sub(ExpenseITC(b.Expenses))
	return &b, nil
}
