package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bher20/copierbill/internal/billing"
	"github.com/bher20/copierbill/internal/invoice"
)

// amount is a numeric form field sent either as a JSON number or as a
// string. The raw text is kept so the configured parsing mode decides.
type amount struct {
	raw string
	set bool
}

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = amount{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amount{raw: s, set: true}
		return nil
	}
	if len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')) {
		*a = amount{raw: string(b), set: true}
		return nil
	}
	return fmt.Errorf("expected a number or string, got %s", b)
}

// parser converts amounts in lenient or strict mode.
type parser struct {
	strict bool
	err    error
}

func (p *parser) value(name string, a amount) float64 {
	if !p.strict {
		return billing.ParseAmount(a.raw)
	}
	v, err := billing.ParseAmountStrict(a.raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", name, err)
	}
	return v
}

type copierInput struct {
	CopierID string `json:"copierId"`
	Model    string `json:"model"`

	BWReading    amount `json:"bwReading"`
	ColorReading amount `json:"colorReading"`
	SpoilCopies  amount `json:"spoilCopies"`

	// Walk-in profile, used only without copierId.
	BWRate         amount `json:"bwRate"`
	ColorRate      amount `json:"colorRate"`
	FreeBW         amount `json:"freeBw"`
	FreeColor      amount `json:"freeColor"`
	RentalFee      amount `json:"rentalFee"`
	MinUsageCharge amount `json:"minUsageCharge"`
}

// invoiceInput accepts the multi-copier shape and the single-copier form
// shape with the copier fields at the top level.
type invoiceInput struct {
	CustomerID   string        `json:"customerId"`
	CustomerName string        `json:"customerName"`
	Month        string        `json:"month"`
	Year         string        `json:"year"`
	Email        string        `json:"email"`
	Copiers      []copierInput `json:"copiers"`

	CopierModel string `json:"copierModel"`
	copierInput
}

func (in copierInput) hasFields() bool {
	return in.CopierID != "" || in.BWReading.set || in.ColorReading.set || in.RentalFee.set || in.BWRate.set
}

func (in invoiceInput) request(strict bool) (invoice.Request, error) {
	req := invoice.Request{
		CustomerID:   in.CustomerID,
		CustomerName: in.CustomerName,
		Month:        in.Month,
		Year:         in.Year,
		Email:        in.Email,
	}

	copiers := in.Copiers
	if len(copiers) == 0 && (in.CopierModel != "" || in.copierInput.hasFields()) {
		single := in.copierInput
		if single.Model == "" {
			single.Model = in.CopierModel
		}
		copiers = []copierInput{single}
	}

	p := &parser{strict: strict}
	for i, c := range copiers {
		cr := invoice.CopierReading{
			CopierID: strings.TrimSpace(c.CopierID),
			Reading: billing.Reading{
				BWReading:    p.value(fmt.Sprintf("copiers[%d].bwReading", i), c.BWReading),
				ColorReading: p.value(fmt.Sprintf("copiers[%d].colorReading", i), c.ColorReading),
				SpoilCopies:  p.value(fmt.Sprintf("copiers[%d].spoilCopies", i), c.SpoilCopies),
			},
		}
		if cr.CopierID == "" {
			cr.Profile = &billing.Profile{
				Model:          c.Model,
				BWRate:         p.value(fmt.Sprintf("copiers[%d].bwRate", i), c.BWRate),
				ColorRate:      p.value(fmt.Sprintf("copiers[%d].colorRate", i), c.ColorRate),
				FreeBW:         p.value(fmt.Sprintf("copiers[%d].freeBw", i), c.FreeBW),
				FreeColor:      p.value(fmt.Sprintf("copiers[%d].freeColor", i), c.FreeColor),
				RentalFee:      p.value(fmt.Sprintf("copiers[%d].rentalFee", i), c.RentalFee),
				MinUsageCharge: p.value(fmt.Sprintf("copiers[%d].minUsageCharge", i), c.MinUsageCharge),
			}
		}
		req.Copiers = append(req.Copiers, cr)
	}
	if p.err != nil {
		return invoice.Request{}, p.err
	}
	return req, nil
}
