package reports

import (
	"context"
	"fmt"
	"time"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"

	"github.com/xuri/excelize/v2"
)

var gstr1Header = []any{
	"Invoice No", "Invoice Date", "Customer", "GSTIN",
	"Taxable Value", "CGST", "SGST", "Total Tax", "Invoice Value",
}

// ExportGSTR1 renders the GSTR-1 for [from, to) as an xlsx workbook with a
// B2B and a B2C sheet.
func (s *Service) ExportGSTR1(ctx context.Context, p auth.Principal, from, to time.Time) ([]byte, error) {
	r, err := s.GSTR1(ctx, p, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "B2B"); err != nil {
		return nil, exportErr(err)
	}
	if _, err := f.NewSheet("B2C"); err != nil {
		return nil, exportErr(err)
	}
	if err := writeInvoiceSheet(f, "B2B", r.B2B, r.B2BSum); err != nil {
		return nil, exportErr(err)
	}
	if err := writeInvoiceSheet(f, "B2C", r.B2C, r.B2CSum); err != nil {
		return nil, exportErr(err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, exportErr(err)
	}
	return buf.Bytes(), nil
}

func writeInvoiceSheet(f *excelize.File, sheet string, rows []GSTR1Invoice, totals GSTTotals) error {
	if err := f.SetSheetRow(sheet, "A1", &gstr1Header); err != nil {
		return err
	}
	for i, inv := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			inv.InvoiceNumber,
			inv.SaleDate.Format(time.DateOnly),
			inv.CustomerName,
			inv.CustomerGSTIN,
			inv.TaxableValue.InexactFloat64(),
			inv.CGST.InexactFloat64(),
			inv.SGST.InexactFloat64(),
			inv.TotalTax.InexactFloat64(),
			inv.InvoiceValue.InexactFloat64(),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+2)
	if err != nil {
		return err
	}
	total := []any{
		"Total", fmt.Sprintf("%d invoices", totals.Count), "", "",
		totals.TaxableValue.InexactFloat64(),
		totals.CGST.InexactFloat64(),
		totals.SGST.InexactFloat64(),
		totals.TotalTax.InexactFloat64(),
		totals.InvoiceValue.InexactFloat64(),
	}
	return f.SetSheetRow(sheet, cell, &total)
}

func exportErr(err error) error {
	return apperr.Wrap(apperr.Internal, err, "Failed to build spreadsheet")
}
