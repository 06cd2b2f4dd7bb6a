package storage

import (
	"context"
	"errors"
)

var (
	ErrDuplicateInvoice = errors.New("invoice already exists")
	// ErrCopierConflict is returned when a customer is saved with a copier
	// id that another customer already owns.
	ErrCopierConflict = errors.New("copier id belongs to another customer")
)

// EmailConfigID is the id of the single stored email configuration.
const EmailConfigID = "default"

// Storage abstracts persistence for the customer roster and the invoice log.
// Lookups of missing records return (nil, nil).
type Storage interface {
	// Roster
	ListCustomers(ctx context.Context) ([]Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	UpsertCustomer(ctx context.Context, c Customer) error
	DeleteCustomer(ctx context.Context, id string) error

	// Invoice log, append-only. ListInvoices returns invoices in the order
	// they were appended.
	AppendInvoice(ctx context.Context, inv Invoice) error
	ListInvoices(ctx context.Context) ([]Invoice, error)
	GetInvoice(ctx context.Context, id string) (*Invoice, error)

	// Email settings
	GetEmailConfig(ctx context.Context) (*EmailConfig, error)
	SaveEmailConfig(ctx context.Context, cfg EmailConfig) error

	Ping(ctx context.Context) error
	// Close releases any resources (no-op for in-memory).
	Close() error
}

// Locker is implemented by backends that can coordinate scheduled jobs
// across processes.
type Locker interface {
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
}
