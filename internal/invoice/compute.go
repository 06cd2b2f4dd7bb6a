package invoice

import (
	"context"
	"fmt"
	"strings"

	"github.com/bher20/copierbill/internal/billing"
	"github.com/bher20/copierbill/internal/storage"
)

// compute resolves the profiles for req and prices every copier line.
func (s *Service) compute(ctx context.Context, req Request) (Draft, error) {
	if len(req.Copiers) == 0 {
		return Draft{}, ErrNoReadings
	}

	d := Draft{
		CustomerID:   strings.TrimSpace(req.CustomerID),
		CustomerName: strings.TrimSpace(req.CustomerName),
		Month:        strings.TrimSpace(req.Month),
		Year:         strings.TrimSpace(req.Year),
	}

	var customer *storage.Customer
	if d.CustomerID != "" {
		c, err := s.store.GetCustomer(ctx, d.CustomerID)
		if err != nil {
			return Draft{}, fmt.Errorf("load customer: %w", err)
		}
		if c == nil {
			return Draft{}, fmt.Errorf("%w: %s", ErrUnknownCustomer, d.CustomerID)
		}
		customer = c
		d.CustomerName = c.Name
	}
	if d.CustomerName == "" {
		return Draft{}, fmt.Errorf("%w: customer id or name is required", ErrUnknownCustomer)
	}

	breakdowns := make([]billing.Breakdown, 0, len(req.Copiers))
	for i, cr := range req.Copiers {
		p, err := resolveProfile(customer, cr)
		if err != nil {
			return Draft{}, fmt.Errorf("copier %d: %w", i+1, err)
		}
		if err := p.Validate(); err != nil {
			return Draft{}, fmt.Errorf("copier %d: %w", i+1, err)
		}
		if err := cr.Reading.Validate(); err != nil {
			return Draft{}, fmt.Errorf("copier %d: %w", i+1, err)
		}

		b := billing.Compute(p, cr.Reading)
		breakdowns = append(breakdowns, b)
		line := storage.NewInvoiceLine(p, cr.Reading, b)
		line.Position = i
		d.Lines = append(d.Lines, line)
	}
	d.TotalDue = billing.InvoiceTotal(breakdowns...).StringFixed(billing.MoneyPlaces)
	return d, nil
}

func resolveProfile(customer *storage.Customer, cr CopierReading) (billing.Profile, error) {
	id := strings.TrimSpace(cr.CopierID)
	if id == "" {
		if cr.Profile == nil {
			return billing.Profile{}, fmt.Errorf("%w: copier id or inline profile is required", ErrUnknownCopier)
		}
		return *cr.Profile, nil
	}
	if customer == nil {
		return billing.Profile{}, fmt.Errorf("%w: %s has no customer", ErrUnknownCopier, id)
	}
	for _, c := range customer.Copiers {
		if c.ID == id {
			return c.Profile(), nil
		}
	}
	return billing.Profile{}, fmt.Errorf("%w: %s", ErrUnknownCopier, id)
}
