// Package invoice implements the billing workflow: previewing charges,
// issuing invoices into the append-only log, and delivering them.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bher20/copierbill/internal/billing"
	"github.com/bher20/copierbill/internal/metrics"
	"github.com/bher20/copierbill/internal/render"
	"github.com/bher20/copierbill/internal/storage"
)

var (
	ErrUnknownCustomer = errors.New("unknown customer")
	ErrUnknownCopier   = errors.New("unknown copier")
	ErrNoReadings      = errors.New("no copier readings submitted")
	ErrNotFound        = errors.New("invoice not found")
	ErrNoRecipient     = errors.New("no email recipient")
)

// CopierReading is the submission for one copier. Roster copiers are
// referenced by CopierID; walk-in copiers carry an inline Profile instead.
type CopierReading struct {
	CopierID string           `json:"copierId,omitempty"`
	Profile  *billing.Profile `json:"profile,omitempty"`
	billing.Reading
}

// Request is a billing submission for one customer and period.
type Request struct {
	CustomerID   string          `json:"customerId,omitempty"`
	CustomerName string          `json:"customerName,omitempty"`
	Month        string          `json:"month"`
	Year         string          `json:"year"`
	Copiers      []CopierReading `json:"copiers"`
	// Email, when set, receives the issued invoice.
	Email string `json:"email,omitempty"`
}

// Draft is a computed but unissued invoice.
type Draft struct {
	CustomerID   string                `json:"customerId,omitempty"`
	CustomerName string                `json:"customerName"`
	Month        string                `json:"month"`
	Year         string                `json:"year"`
	Lines        []storage.InvoiceLine `json:"copiers"`
	TotalDue     string                `json:"totalDue"`
}

// Result is the outcome of Create.
type Result struct {
	Invoice     storage.Invoice
	PDF         []byte
	RenderError string // set, with PDF nil, when rendering failed
	EmailError  string
}

// Mailer delivers issued invoices.
type Mailer interface {
	SendInvoice(ctx context.Context, to string, inv storage.Invoice, pdf []byte) error
}

type Service struct {
	store  storage.Storage
	mailer Mailer
	log    *zap.Logger
	now    func() time.Time
	render func(storage.Invoice) ([]byte, error)

	mu     sync.Mutex
	lastID int64
}

func NewService(store storage.Storage, mailer Mailer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, mailer: mailer, log: log, now: time.Now, render: render.InvoicePDF}
}

// Preview computes every line of req without persisting anything.
func (s *Service) Preview(ctx context.Context, req Request) (Draft, error) {
	d, err := s.compute(ctx, req)
	if err != nil {
		return Draft{}, err
	}
	metrics.PreviewsTotal.Inc()
	return d, nil
}

// Create issues an invoice: it is computed, appended to the log, rendered
// and optionally emailed. Once appended the invoice stands: render and email
// failures are reported in the Result, not as an error.
func (s *Service) Create(ctx context.Context, req Request) (Result, error) {
	d, err := s.compute(ctx, req)
	if err != nil {
		return Result{}, err
	}

	now := s.now().UTC()
	inv := storage.Invoice{
		CustomerID:   d.CustomerID,
		CustomerName: d.CustomerName,
		Month:        d.Month,
		Year:         d.Year,
		Lines:        d.Lines,
		TotalDue:     d.TotalDue,
		DateIssued:   now.Format("2006-01-02"),
		CreatedAt:    now,
	}

	// Another process may have issued the same millisecond id.
	for attempt := 0; ; attempt++ {
		inv.ID = s.nextID(now)
		err = s.store.AppendInvoice(ctx, inv)
		if !errors.Is(err, storage.ErrDuplicateInvoice) || attempt == 4 {
			break
		}
	}
	if err != nil {
		return Result{}, fmt.Errorf("append invoice: %w", err)
	}

	total, _ := strconv.ParseFloat(inv.TotalDue, 64)
	metrics.ObserveInvoice(total)
	s.log.Info("invoice created",
		zap.String("invoice_id", inv.ID),
		zap.String("customer", inv.CustomerName),
		zap.Int("copiers", len(inv.Lines)),
		zap.String("total_due", inv.TotalDue))

	res := Result{Invoice: inv}
	pdf, err := s.render(inv)
	if err != nil {
		res.RenderError = err.Error()
		s.log.Error("invoice render failed", zap.String("invoice_id", inv.ID), zap.Error(err))
	} else {
		res.PDF = pdf
	}

	to := strings.TrimSpace(req.Email)
	switch {
	case to == "" || s.mailer == nil:
	case res.PDF == nil:
		res.EmailError = "invoice pdf unavailable: " + res.RenderError
	default:
		err := s.mailer.SendInvoice(ctx, to, inv, pdf)
		metrics.ObserveEmail("invoice", err)
		if err != nil {
			res.EmailError = err.Error()
			s.log.Warn("invoice email failed", zap.String("invoice_id", inv.ID), zap.Error(err))
		}
	}
	return res, nil
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	CustomerID string
	Month      string
	Year       string
}

func (f Filter) Match(inv storage.Invoice) bool {
	if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
		return false
	}
	if f.Month != "" && !strings.EqualFold(inv.Month, f.Month) {
		return false
	}
	if f.Year != "" && inv.Year != f.Year {
		return false
	}
	return true
}

// List returns issued invoices in issue order.
func (s *Service) List(ctx context.Context, f Filter) ([]storage.Invoice, error) {
	all, err := s.store.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]storage.Invoice, 0, len(all))
	for _, inv := range all {
		if f.Match(inv) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (storage.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return storage.Invoice{}, err
	}
	if inv == nil {
		return storage.Invoice{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *inv, nil
}

// PDF re-renders a stored invoice.
func (s *Service) PDF(ctx context.Context, id string) ([]byte, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.render(inv)
}

// Email sends a stored invoice. An empty to falls back to the customer's
// address on the roster.
func (s *Service) Email(ctx context.Context, id, to string) error {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if to == "" && inv.CustomerID != "" {
		c, err := s.store.GetCustomer(ctx, inv.CustomerID)
		if err != nil {
			return err
		}
		if c != nil {
			to = c.Email
		}
	}
	if to == "" {
		return ErrNoRecipient
	}
	if s.mailer == nil {
		return fmt.Errorf("email delivery is not configured")
	}

	pdf, err := s.render(inv)
	if err != nil {
		return err
	}
	err = s.mailer.SendInvoice(ctx, to, inv, pdf)
	metrics.ObserveEmail("invoice", err)
	return err
}

// nextID returns a millisecond timestamp id that is strictly greater than
// any id issued before by this process.
func (s *Service) nextID(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}
