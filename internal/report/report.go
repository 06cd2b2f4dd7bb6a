// Package report exports the invoice log as a spreadsheet.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/bher20/copierbill/internal/billing"
	"github.com/bher20/copierbill/internal/storage"
)

const (
	InvoicesSheet = "Invoices"
	SummarySheet  = "Summary"
)

var lineHeader = []any{
	"Invoice ID", "Date Issued", "Customer", "Month", "Year",
	"Copier ID", "Model", "B&W Reading", "Color Reading", "Spoiled",
	"Net B&W", "Net Color", "Chargeable B&W", "Chargeable Color",
	"Rental Fee", "Usage Charge", "Applied Charge", "Copier Total",
}

var summaryHeader = []any{"Invoice ID", "Date Issued", "Customer", "Month", "Year", "Copiers", "Total Due"}

// WriteInvoices writes an xlsx workbook with one row per invoiced copier on
// the Invoices sheet and one row per invoice on the Summary sheet.
func WriteInvoices(w io.Writer, invoices []storage.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), InvoicesSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := writeHeader(f, InvoicesSheet, lineHeader, bold); err != nil {
		return err
	}
	if err := writeHeader(f, SummarySheet, summaryHeader, bold); err != nil {
		return err
	}

	lineRow, sumRow := 2, 2
	grand := decimal.Zero
	for _, inv := range invoices {
		for _, l := range inv.Lines {
			values := []any{
				inv.ID, inv.DateIssued, inv.CustomerName, inv.Month, inv.Year,
				l.CopierID, l.Model, l.BWReading, l.ColorReading, l.SpoilCopies,
				amount(l.NetBW), amount(l.NetColor), l.ChargeableBW, l.ChargeableColor,
				l.RentalFee, amount(l.UsageCharge), amount(l.TotalCharge), amount(l.TotalDue),
			}
			if err := setRow(f, InvoicesSheet, lineRow, values); err != nil {
				return err
			}
			lineRow++
		}

		total := money(inv.TotalDue)
		grand = grand.Add(total)
		values := []any{inv.ID, inv.DateIssued, inv.CustomerName, inv.Month, inv.Year, len(inv.Lines), total.InexactFloat64()}
		if err := setRow(f, SummarySheet, sumRow, values); err != nil {
			return err
		}
		sumRow++
	}

	if err := setRow(f, SummarySheet, sumRow, []any{"Total", "", "", "", "", "", grand.InexactFloat64()}); err != nil {
		return err
	}
	cell, _ := excelize.CoordinatesToCellName(1, sumRow)
	end, _ := excelize.CoordinatesToCellName(len(summaryHeader), sumRow)
	if err := f.SetCellStyle(SummarySheet, cell, end, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

// Filename names an export for a period, e.g. invoices_2026_March.xlsx.
func Filename(month, year string) string {
	switch {
	case month == "" && year == "":
		return "invoices.xlsx"
	case month == "":
		return fmt.Sprintf("invoices_%s.xlsx", year)
	case year == "":
		return fmt.Sprintf("invoices_%s.xlsx", month)
	}
	return fmt.Sprintf("invoices_%s_%s.xlsx", year, month)
}

// PreviousPeriod returns the month name and year before t.
func PreviousPeriod(t time.Time) (month, year string) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	prev := first.AddDate(0, -1, 0)
	return prev.Month().String(), strconv.Itoa(prev.Year())
}

func writeHeader(f *excelize.File, sheet string, header []any, style int) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", end, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// amount converts a stored two-digit amount to a number cell value.
func amount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// money parses a stored amount for summation; unparseable amounts count as zero.
func money(s string) decimal.Decimal {
	d, err := billing.ParseMoney(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
