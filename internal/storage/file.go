package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	customersFile = "customers.json"
	invoicesFile  = "invoices.json"
	settingsFile  = "settings.json"
)

// FileStorage keeps the roster and invoice log in flat JSON files. Every
// operation reads the whole file and every write rewrites it. Writes are
// serialized within the process; running several processes against one
// data directory is not supported.
type FileStorage struct {
	dir string
	mu  sync.Mutex
}

type fileSettings struct {
	Email *EmailConfig `json:"email,omitempty"`
}

// OpenFile prepares dir and seeds an empty invoice log if none exists.
func OpenFile(dir string) (*FileStorage, error) {
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &FileStorage{dir: dir}
	inv := s.path(invoicesFile)
	if _, err := os.Stat(inv); os.IsNotExist(err) {
		if err := writeJSON(inv, []Invoice{}); err != nil {
			return nil, fmt.Errorf("seed invoice log: %w", err)
		}
	}
	return s, nil
}

func (s *FileStorage) path(name string) string { return filepath.Join(s.dir, name) }

func (s *FileStorage) Close() error { return nil }

func (s *FileStorage) Ping(ctx context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

func (s *FileStorage) loadCustomers() ([]Customer, error) {
	var list []Customer
	if err := readJSON(s.path(customersFile), &list); err != nil {
		return nil, fmt.Errorf("read %s: %w", customersFile, err)
	}
	return list, nil
}

func (s *FileStorage) loadInvoices() ([]Invoice, error) {
	var list []Invoice
	if err := readJSON(s.path(invoicesFile), &list); err != nil {
		return nil, fmt.Errorf("read %s: %w", invoicesFile, err)
	}
	return list, nil
}

func (s *FileStorage) ListCustomers(ctx context.Context) ([]Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.loadCustomers()
	if err != nil {
		return nil, err
	}
	sortCustomers(list)
	if list == nil {
		list = []Customer{}
	}
	return list, nil
}

func (s *FileStorage) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.loadCustomers()
	if err != nil {
		return nil, err
	}
	for _, c := range list {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *FileStorage) UpsertCustomer(ctx context.Context, c Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.loadCustomers()
	if err != nil {
		return err
	}
	for _, other := range list {
		if other.ID != c.ID && sharesCopier(c, other) {
			return fmt.Errorf("%w: %s", ErrCopierConflict, other.ID)
		}
	}
	now := time.Now().UTC()
	c = cloneCustomer(c)
	prepareCopiers(&c)
	c.UpdatedAt = now

	replaced := false
	for i := range list {
		if list[i].ID == c.ID {
			c.CreatedAt = list[i].CreatedAt
			list[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		list = append(list, c)
	}
	return writeJSON(s.path(customersFile), list)
}

func (s *FileStorage) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.loadCustomers()
	if err != nil {
		return err
	}
	out := list[:0]
	for _, c := range list {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return writeJSON(s.path(customersFile), out)
}

func (s *FileStorage) AppendInvoice(ctx context.Context, inv Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.loadInvoices()
	if err != nil {
		return err
	}
	for _, existing := range list {
		if existing.ID == inv.ID {
			return ErrDuplicateInvoice
		}
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	inv = cloneInvoice(inv)
	prepareLines(&inv)
	list = append(list, inv)
	return writeJSON(s.path(invoicesFile), list)
}

func (s *FileStorage) ListInvoices(ctx context.Context) ([]Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.loadInvoices()
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Invoice{}
	}
	return list, nil
}

func (s *FileStorage) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.loadInvoices()
	if err != nil {
		return nil, err
	}
	for _, inv := range list {
		if inv.ID == id {
			cp := inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *FileStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st fileSettings
	if err := readJSON(s.path(settingsFile), &st); err != nil {
		return nil, fmt.Errorf("read %s: %w", settingsFile, err)
	}
	return st.Email, nil
}

func (s *FileStorage) SaveEmailConfig(ctx context.Context, cfg EmailConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st fileSettings
	if err := readJSON(s.path(settingsFile), &st); err != nil {
		return fmt.Errorf("read %s: %w", settingsFile, err)
	}
	cfg.ID = EmailConfigID
	st.Email = &cfg
	return writeJSON(s.path(settingsFile), st)
}

// AcquireAdvisoryLock always succeeds: the data directory belongs to one
// process.
func (s *FileStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}

func (s *FileStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}
