package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/inventory"
	"go-pos-gst/internal/models"

	"github.com/google/generative-ai-go/genai"
	"gorm.io/gorm"
)

// Toolbox runs the assistant's tool calls against one caller's shop.
type Toolbox struct {
	db        *gorm.DB
	inventory *inventory.Service
	lowStock  int
}

func NewToolbox(db *gorm.DB, inv *inventory.Service, lowStockThreshold int) *Toolbox {
	return &Toolbox{db: db, inventory: inv, lowStock: lowStockThreshold}
}

// Declarations describes the tools to the model.
func (t *Toolbox) Declarations() []*genai.Tool {
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "check_inventory",
				Description: "Get the full inventory list. Use this to find ANY product details like ID, Name, Price, Cost, or Stock.",
			},
			{
				Name:        "get_sales_report",
				Description: "Get total sales revenue, tax and number of sales for a date range (both dates inclusive).",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
						"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
					},
					Required: []string{"start_date", "end_date"},
				},
			},
			{
				Name:        "get_low_stock",
				Description: "List products that are running out of stock.",
			},
		},
	}}
}

type stockRow struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	Stock        int    `json:"stock"`
	SellingPrice string `json:"sellingPrice"`
	CostPrice    string `json:"costPrice"`
}

// Call runs one tool for p and returns the payload handed back to the model.
// Bad arguments come back as an "error" entry so the model can recover.
func (t *Toolbox) Call(ctx context.Context, p auth.Principal, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "check_inventory":
		products, err := t.inventory.List(ctx, p)
		if err != nil {
			return nil, err
		}
		return map[string]any{"inventory": toJSON(products)}, nil

	case "get_low_stock":
		products, err := t.inventory.LowStock(ctx, p, t.lowStock)
		if err != nil {
			return nil, err
		}
		return map[string]any{"threshold": t.lowStock, "products": toJSON(products)}, nil

	case "get_sales_report":
		start, err := dateArg(args, "start_date")
		if err != nil {
			return map[string]any{"error": err.Error()}, nil
		}
		end, err := dateArg(args, "end_date")
		if err != nil {
			return map[string]any{"error": err.Error()}, nil
		}
		if err := p.Require(auth.AnyMember); err != nil {
			return nil, err
		}
		report, err := database.GetSalesReport(t.db.WithContext(ctx), p.ShopID, start, end.AddDate(0, 0, 1))
		if err != nil {
			return nil, fmt.Errorf("sales report: %w", err)
		}
		return map[string]any{
			"revenue":     report.TotalRevenue.StringFixed(2),
			"tax":         report.TotalTax.StringFixed(2),
			"sales_count": report.TotalCount,
		}, nil
	}
	return map[string]any{"error": "unknown tool " + name}, nil
}

// toJSON flattens products for the model. Function responses only carry
// plain values, so the list travels as a JSON string.
func toJSON(products []models.Product) string {
	rows := make([]stockRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, stockRow{
			ID:           p.ID,
			Name:         p.Name,
			Unit:         p.Unit,
			Stock:        p.Quantity,
			SellingPrice: p.SellingPrice.StringFixed(2),
			CostPrice:    p.CostPrice.StringFixed(2),
		})
	}
	b, _ := json.Marshal(rows)
	return string(b)
}

func dateArg(args map[string]any, key string) (time.Time, error) {
	s, ok := args[key].(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be in YYYY-MM-DD format", key)
	}
	return d, nil
}
