package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation, useful for tests and
// simple single-process deployments.
type MemoryStorage struct {
	mu          sync.RWMutex
	customers   map[string]Customer
	invoices    []Invoice
	invoiceIdx  map[string]int
	emailConfig *EmailConfig
}

// NewMemory returns an empty MemoryStorage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		customers:  make(map[string]Customer),
		invoiceIdx: make(map[string]int),
	}
}

// NewMemoryWithCustomers returns a MemoryStorage preloaded with a roster.
func NewMemoryWithCustomers(list []Customer) *MemoryStorage {
	m := NewMemory()
	for _, c := range list {
		m.customers[c.ID] = cloneCustomer(c)
	}
	return m
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (m *MemoryStorage) ListCustomers(ctx context.Context) ([]Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Customer, 0, len(m.customers))
	for _, c := range m.customers {
		out = append(out, cloneCustomer(c))
	}
	sortCustomers(out)
	return out, nil
}

func (m *MemoryStorage) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, nil
	}
	cp := cloneCustomer(c)
	return &cp, nil
}

func (m *MemoryStorage) UpsertCustomer(ctx context.Context, c Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.customers {
		if id != c.ID && sharesCopier(c, other) {
			return fmt.Errorf("%w: %s", ErrCopierConflict, id)
		}
	}
	now := time.Now().UTC()
	if prev, ok := m.customers[c.ID]; ok {
		c.CreatedAt = prev.CreatedAt
	} else if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c = cloneCustomer(c)
	prepareCopiers(&c)
	m.customers[c.ID] = c
	return nil
}

func (m *MemoryStorage) DeleteCustomer(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.customers, id)
	return nil
}

func (m *MemoryStorage) AppendInvoice(ctx context.Context, inv Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoiceIdx[inv.ID]; ok {
		return ErrDuplicateInvoice
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	inv = cloneInvoice(inv)
	prepareLines(&inv)
	m.invoiceIdx[inv.ID] = len(m.invoices)
	m.invoices = append(m.invoices, inv)
	return nil
}

func (m *MemoryStorage) ListInvoices(ctx context.Context) ([]Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		out = append(out, cloneInvoice(inv))
	}
	return out, nil
}

func (m *MemoryStorage) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.invoiceIdx[id]
	if !ok {
		return nil, nil
	}
	cp := cloneInvoice(m.invoices[i])
	return &cp, nil
}

func (m *MemoryStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.emailConfig == nil {
		return nil, nil
	}
	cfg := *m.emailConfig
	return &cfg, nil
}

func (m *MemoryStorage) SaveEmailConfig(ctx context.Context, config EmailConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	config.ID = EmailConfigID
	m.emailConfig = &config
	return nil
}

// AcquireAdvisoryLock always succeeds: a single process owns the data.
func (m *MemoryStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}

func (m *MemoryStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}

func cloneCustomer(c Customer) Customer {
	c.Copiers = append([]Copier(nil), c.Copiers...)
	return c
}

func cloneInvoice(inv Invoice) Invoice {
	inv.Lines = append([]InvoiceLine(nil), inv.Lines...)
	return inv
}

// prepareCopiers stamps ownership and ordering on a customer's copiers.
func prepareCopiers(c *Customer) {
	for i := range c.Copiers {
		c.Copiers[i].CustomerID = c.ID
		c.Copiers[i].Position = i
	}
}

// sharesCopier reports whether a and b list a copier with the same id.
func sharesCopier(a, b Customer) bool {
	for _, x := range a.Copiers {
		for _, y := range b.Copiers {
			if x.ID == y.ID {
				return true
			}
		}
	}
	return false
}

func prepareLines(inv *Invoice) {
	for i := range inv.Lines {
		inv.Lines[i].InvoiceID = inv.ID
		inv.Lines[i].Position = i
	}
}

func sortCustomers(list []Customer) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}
