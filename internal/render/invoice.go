// Package render produces the printable invoice document.
package render

import (
	"fmt"
	"strconv"

	"github.com/bher20/copierbill/internal/billing"
	"github.com/bher20/copierbill/internal/storage"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

const (
	title      = "COPIER RENTAL INVOICE"
	rowHeight  = 6
	labelWidth = 7
	valueWidth = 5
)

var (
	titleStyle   = props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Center}
	sectionStyle = props.Text{Size: 11, Style: fontstyle.Bold, Top: 2}
	labelStyle   = props.Text{Size: 10}
	amountStyle  = props.Text{Size: 10, Align: align.Right}
	totalStyle   = props.Text{Size: 12, Style: fontstyle.Bold}
)

// InvoicePDF renders an issued invoice. Amounts come from the stored
// formatted breakdown so the document always matches the invoice log.
func InvoicePDF(inv storage.Invoice) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build()
	m := maroto.New(cfg)

	m.AddRows(text.NewRow(14, title, titleStyle))
	m.AddRows(
		field("Invoice ID:", inv.ID),
		field("Customer:", inv.CustomerName),
		field("Period:", period(inv)),
	)

	for i, l := range inv.Lines {
		m.AddRows(line.NewRow(4))
		heading := fmt.Sprintf("Copier %d", i+1)
		if l.Model != "" {
			heading += ": " + l.Model
		}
		m.AddRows(text.NewRow(8, heading, sectionStyle))
		m.AddRows(copierRows(l)...)
	}

	m.AddRows(line.NewRow(4))
	m.AddRow(10,
		text.NewCol(labelWidth, "Total Due:", totalStyle),
		text.NewCol(valueWidth, money(inv.TotalDue), props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRows(field("Date Issued:", inv.DateIssued))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate invoice pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func copierRows(l storage.InvoiceLine) []core.Row {
	p := l.Profile()
	b := billing.Compute(p, l.Reading())

	return []core.Row{
		field("Copier Model:", l.Model),
		text.NewRow(rowHeight, "--- Meter Readings ---", sectionStyle),
		field("B&W Reading:", number(l.BWReading)),
		field("Color Reading:", number(l.ColorReading)),
		field("Spoiled Copies:", number(l.SpoilCopies)),
		field("Net B&W:", l.NetBW),
		field("Net Color:", l.NetColor),
		text.NewRow(rowHeight, "--- Charges ---", sectionStyle),
		field("Rental Fee:", "$"+billing.FormatMoney(l.RentalFee)),
		charge(fmt.Sprintf("Chargeable B&W: %s x $%s", number(l.ChargeableBW), number(l.BWRate)), b.BWAmount(p)),
		charge(fmt.Sprintf("Chargeable Color: %s x $%s", number(l.ChargeableColor), number(l.ColorRate)), b.ColorAmount(p)),
		field("Usage Charge:", money(l.UsageCharge)),
		field("Minimum Usage Charge:", "$"+billing.FormatMoney(l.MinUsageCharge)),
		field("Applied Charge:", money(l.TotalCharge)),
		field("Copier Total:", money(l.TotalDue)),
	}
}

func charge(label string, amount float64) core.Row {
	return field(label, "$"+billing.FormatMoney(amount))
}

func field(label, value string) core.Row {
	return row.New(rowHeight).Add(
		text.NewCol(labelWidth, label, labelStyle),
		text.NewCol(valueWidth, value, amountStyle),
	)
}

func money(s string) string {
	if s == "" {
		return "$0.00"
	}
	return "$" + s
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func period(inv storage.Invoice) string {
	switch {
	case inv.Month != "" && inv.Year != "":
		return inv.Month + " " + inv.Year
	case inv.Month != "":
		return inv.Month
	default:
		return inv.Year
	}
}
