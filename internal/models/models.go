package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The dashboard reads amounts as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Shop - the tenant. Every other row hangs off a ShopID.
type Shop struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Address   string    `gorm:"size:255" json:"address"`
	Phone     string    `gorm:"size:20" json:"phone"`
	GSTIN     string    `gorm:"column:gstin;size:15" json:"gstin"`
	CreatedAt time.Time `json:"createdAt"`
}

// User - admin or staff login. Username and email are unique across all shops.
type User struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	ShopID       uint         `gorm:"index;not null" json:"shopId"`
	Username     string       `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string       `gorm:"uniqueIndex;size:120;not null" json:"email"`
	PasswordHash string       `gorm:"not null" json:"-"` // Never return this in JSON
	Role         string       `gorm:"size:10;not null" json:"role"`
	CreatedAt    time.Time    `json:"createdAt"`
	StaffDetail  *StaffDetail `gorm:"constraint:OnDelete:CASCADE" json:"staffDetail,omitempty"`
}

// StaffDetail - extra HR fields for staff users, removed with the user.
type StaffDetail struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"uniqueIndex;not null" json:"userId"`
	ShopID      uint   `gorm:"index;not null" json:"shopId"`
	Designation string `gorm:"size:60" json:"designation"`
	Phone       string `gorm:"size:20" json:"phone"`
}

// License - one subscription per shop.
type License struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ShopID     uint      `gorm:"uniqueIndex;not null" json:"shopId"`
	Secret     string    `gorm:"size:64;not null" json:"-"`
	ValidUntil time.Time `gorm:"not null" json:"validUntil"`
	IsActive   bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Product - the inventory. Quantity never goes below zero.
type Product struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ShopID       uint            `gorm:"uniqueIndex:idx_products_shop_name;not null" json:"shopId"`
	Name         string          `gorm:"uniqueIndex:idx_products_shop_name;size:120;not null" json:"name"`
	Unit         string          `gorm:"size:20;not null" json:"unit"`
	Quantity     int             `gorm:"not null;default:0" json:"quantity"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"costPrice"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sellingPrice"`
	TaxRate      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"taxRate"`
	Barcode      *string         `gorm:"uniqueIndex;size:64" json:"barcode"`
	HSNCode      string          `gorm:"column:hsn_code;size:16" json:"hsnCode"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Customer - keyed by phone within a shop.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ShopID    uint      `gorm:"uniqueIndex:idx_customers_shop_phone;not null" json:"shopId"`
	Phone     string    `gorm:"uniqueIndex:idx_customers_shop_phone;size:20;not null" json:"phone"`
	Name      string    `gorm:"size:120" json:"name"`
	Address   string    `gorm:"size:255" json:"address"`
	GSTIN     string    `gorm:"column:gstin;size:15" json:"gstin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Sale - the invoice header. Written once by the sale engine, never updated.
type Sale struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ShopID          uint            `gorm:"index;not null" json:"shopId"`
	UserID          uint            `gorm:"not null" json:"userId"` // Who processed it
	CustomerID      *uint           `gorm:"index" json:"customerId"`
	Customer        *Customer       `json:"customer,omitempty"`
	InvoiceNumber   string          `gorm:"uniqueIndex;size:64;not null" json:"invoiceNumber"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	TotalTax        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"totalTax"`
	PaymentMethod   string          `gorm:"size:20;not null" json:"paymentMethod"`
	IsGSTApplicable bool            `gorm:"column:is_gst_applicable;not null;default:false" json:"isGSTRApplicable"`
	SaleDate        time.Time       `gorm:"index;not null" json:"saleDate"`
	Items           []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// SaleItem - one cart line. CostPrice is the product's cost when the line was booked.
type SaleItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	SaleID       uint            `gorm:"index;not null" json:"saleId"`
	ProductID    uint            `gorm:"index;not null" json:"productId"`
	Product      *Product        `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	PricePerUnit decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"pricePerUnit"`
	TaxAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"taxAmount"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"costPrice"`
}

// Expense - money spent outside of stock purchases (rent, power, wages).
type Expense struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ShopID      uint            `gorm:"index;not null" json:"shopId"`
	Category    string          `gorm:"size:60;not null" json:"category"`
	Description string          `gorm:"size:255" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	ExpenseDate time.Time       `gorm:"index;not null" json:"expenseDate"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Purchase - a supplier bill.
type Purchase struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ShopID        uint            `gorm:"index;not null" json:"shopId"`
	SupplierName  string          `gorm:"size:120;not null" json:"supplierName"`
	SupplierGSTIN string          `gorm:"column:supplier_gstin;size:15" json:"supplierGstin"`
	InvoiceNumber string          `gorm:"size:64" json:"invoiceNumber"`
	PurchaseDate  time.Time       `gorm:"index;not null" json:"purchaseDate"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	TotalTax      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"totalTax"`
	Items         []PurchaseItem  `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type PurchaseItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	PurchaseID  uint            `gorm:"index;not null" json:"purchaseId"`
	ProductID   *uint           `json:"productId"`
	Description string          `gorm:"size:120;not null" json:"description"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unitCost"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"taxAmount"`
}

// DailyClosing - end-of-day cash count, one per shop per date.
type DailyClosing struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ShopID       uint            `gorm:"uniqueIndex:idx_closings_shop_date;not null" json:"shopId"`
	ClosingDate  time.Time       `gorm:"uniqueIndex:idx_closings_shop_date;type:date;not null" json:"closingDate"`
	OpeningCash  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"openingCash"`
	ClosingCash  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"closingCash"`
	SalesTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"salesTotal"`
	ExpenseTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"expenseTotal"`
	Notes        string          `gorm:"size:255" json:"notes"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// All lists every model for AutoMigrate, parents first.
func All() []any {
	return []any{
		&Shop{},
		&User{},
		&StaffDetail{},
		&License{},
		&Product{},
		&Customer{},
		&Sale{},
		&SaleItem{},
		&Expense{},
		&Purchase{},
		&PurchaseItem{},
		&DailyClosing{},
	}
}
