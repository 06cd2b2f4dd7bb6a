package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bher20/copierbill/internal/billing"
	"github.com/bher20/copierbill/internal/storage"
)

func invoiceWith(id, month string, readings ...billing.Reading) storage.Invoice {
	p := billing.Profile{ID: "c1", Model: "Ricoh", BWRate: 0.05, ColorRate: 0.15, FreeBW: 1000, FreeColor: 200, RentalFee: 50, MinUsageCharge: 10}
	inv := storage.Invoice{ID: id, CustomerName: "Acme", Month: month, Year: "2026", DateIssued: "2026-04-01"}
	var bs []billing.Breakdown
	for _, r := range readings {
		b := billing.Compute(p, r)
		bs = append(bs, b)
		inv.Lines = append(inv.Lines, storage.NewInvoiceLine(p, r, b))
	}
	inv.TotalDue = billing.InvoiceTotal(bs...).StringFixed(2)
	return inv
}

func TestWriteInvoices(t *testing.T) {
	invoices := []storage.Invoice{
		invoiceWith("1000", "March", billing.Reading{BWReading: 1500, ColorReading: 300}, billing.Reading{}),
		invoiceWith("1001", "March", billing.Reading{BWReading: 2000}),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteInvoices(&buf, invoices))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{InvoicesSheet, SummarySheet}, f.GetSheetList())

	lines, err := f.GetRows(InvoicesSheet)
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.Equal(t, "Invoice ID", lines[0][0])
	assert.Equal(t, "1000", lines[1][0])
	assert.Equal(t, "90", lines[1][17])
	assert.Equal(t, "60", lines[2][17])
	assert.Equal(t, "1001", lines[3][0])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 4)
	assert.Equal(t, "150", summary[1][6])
	assert.Equal(t, "2", summary[1][5])
	assert.Equal(t, "100", summary[2][6])
	assert.Equal(t, "Total", summary[3][0])
	assert.Equal(t, "250", summary[3][6])
}

func TestWriteInvoices_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInvoices(&buf, nil))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Total", rows[1][0])
}

func TestWriteInvoices_GrandTotalIsExact(t *testing.T) {
	invoices := []storage.Invoice{
		{ID: "1", CustomerName: "Acme", Month: "March", Year: "2026", TotalDue: "0.10"},
		{ID: "2", CustomerName: "Bolt", Month: "March", Year: "2026", TotalDue: "0.20"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteInvoices(&buf, invoices))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	label, err := f.GetCellValue(SummarySheet, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Total", label)
	grand, err := f.GetCellValue(SummarySheet, "G4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "0.3", grand)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "invoices.xlsx", Filename("", ""))
	assert.Equal(t, "invoices_2026.xlsx", Filename("", "2026"))
	assert.Equal(t, "invoices_2026_March.xlsx", Filename("March", "2026"))
}

func TestPreviousPeriod(t *testing.T) {
	m, y := PreviousPeriod(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "December", m)
	assert.Equal(t, "2025", y)

	m, y = PreviousPeriod(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "February", m)
	assert.Equal(t, "2026", y)
}
