package storage

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bher20/copierbill/internal/billing"
)

func sampleCustomer() Customer {
	return Customer{
		ID:    "cust-1",
		Name:  "Acme Dental",
		Email: "office@acme.example",
		Copiers: []Copier{
			{ID: "cop-1", Model: "Ricoh MP 3055", BWRate: 0.05, ColorRate: 0.15, FreeBW: 1000, FreeColor: 200, RentalFee: 50, MinUsageCharge: 10},
			{ID: "cop-2", Model: "Canon C3530", BWRate: 0.04, ColorRate: 0.12, RentalFee: 35},
		},
	}
}

func sampleInvoice(id string) Invoice {
	c := sampleCustomer()
	p := c.Copiers[0].Profile()
	r := billing.Reading{BWReading: 1500, ColorReading: 300}
	line := NewInvoiceLine(p, r, billing.Compute(p, r))
	return Invoice{
		ID:           id,
		CustomerID:   c.ID,
		CustomerName: c.Name,
		Month:        "March",
		Year:         "2026",
		Lines:        []InvoiceLine{line},
		TotalDue:     line.TotalDue,
		DateIssued:   "2026-04-01",
	}
}

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	ctx := context.Background()

	file, err := OpenFile(t.TempDir())
	require.NoError(t, err)

	gormSt, err := NewGormStorage("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, gormSt.Migrate(ctx))

	out := map[string]Storage{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": gormSt,
	}
	t.Cleanup(func() {
		for _, st := range out {
			st.Close()
		}
	})
	return out
}

func TestStorage_CustomerRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.UpsertCustomer(ctx, sampleCustomer()))

			got, err := st.GetCustomer(ctx, "cust-1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "Acme Dental", got.Name)
			require.Len(t, got.Copiers, 2)
			assert.Equal(t, "cop-1", got.Copiers[0].ID)
			assert.Equal(t, "cop-2", got.Copiers[1].ID)
			assert.Equal(t, "cust-1", got.Copiers[0].CustomerID)
			assert.Equal(t, 0.15, got.Copiers[0].ColorRate)
			assert.False(t, got.CreatedAt.IsZero())

			missing, err := st.GetCustomer(ctx, "nope")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestStorage_UpsertReplacesCopiers(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := sampleCustomer()
			require.NoError(t, st.UpsertCustomer(ctx, c))

			c.Name = "Acme Dental Group"
			c.Copiers = []Copier{{ID: "cop-3", Model: "Kyocera 4054ci", BWRate: 0.03}}
			require.NoError(t, st.UpsertCustomer(ctx, c))

			list, err := st.ListCustomers(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "Acme Dental Group", list[0].Name)
			require.Len(t, list[0].Copiers, 1)
			assert.Equal(t, "cop-3", list[0].Copiers[0].ID)
		})
	}
}

func TestStorage_DeleteCustomer(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.UpsertCustomer(ctx, sampleCustomer()))
			require.NoError(t, st.DeleteCustomer(ctx, "cust-1"))

			got, err := st.GetCustomer(ctx, "cust-1")
			require.NoError(t, err)
			assert.Nil(t, got)

			list, err := st.ListCustomers(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestStorage_InvoiceLogIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.AppendInvoice(ctx, sampleInvoice("1000")))
			require.NoError(t, st.AppendInvoice(ctx, sampleInvoice("1001")))

			err := st.AppendInvoice(ctx, sampleInvoice("1000"))
			assert.ErrorIs(t, err, ErrDuplicateInvoice)

			list, err := st.ListInvoices(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "1000", list[0].ID)
			assert.Equal(t, "1001", list[1].ID)

			got, err := st.GetInvoice(ctx, "1001")
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Len(t, got.Lines, 1)
			line := got.Lines[0]
			assert.Equal(t, "cop-1", line.CopierID)
			assert.Equal(t, "1500.00", line.NetBW)
			assert.Equal(t, 500.0, line.ChargeableBW)
			assert.Equal(t, "40.00", line.UsageCharge)
			assert.Equal(t, "90.00", line.TotalDue)
			assert.Equal(t, "90.00", got.TotalDue)

			missing, err := st.GetInvoice(ctx, "nope")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestStorage_EmailConfig(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			cfg, err := st.GetEmailConfig(ctx)
			require.NoError(t, err)
			assert.Nil(t, cfg)

			require.NoError(t, st.SaveEmailConfig(ctx, EmailConfig{ID: "default", Provider: "sendgrid", FromAddress: "billing@example.com", Enabled: true}))
			require.NoError(t, st.SaveEmailConfig(ctx, EmailConfig{ID: "default", Provider: "smtp", Host: "mail.example.com", Port: 587, Enabled: true}))

			cfg, err = st.GetEmailConfig(ctx)
			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, "smtp", cfg.Provider)
			assert.Equal(t, 587, cfg.Port)
		})
	}
}

func TestStorage_EmailConfigIsSingleRow(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.SaveEmailConfig(ctx, EmailConfig{ID: "first", Provider: "sendgrid", FromAddress: "a@example.com"}))
			require.NoError(t, st.SaveEmailConfig(ctx, EmailConfig{ID: "second", Provider: "smtp", FromAddress: "b@example.com"}))

			cfg, err := st.GetEmailConfig(ctx)
			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, EmailConfigID, cfg.ID)
			assert.Equal(t, "smtp", cfg.Provider)
			assert.Equal(t, "b@example.com", cfg.FromAddress)
		})
	}
}

func TestStorage_CopierIDsAreUniqueAcrossCustomers(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.UpsertCustomer(ctx, sampleCustomer()))

			other := Customer{
				ID:      "cust-2",
				Name:    "Bolt Legal",
				Copiers: []Copier{{ID: "cop-9", Model: "Xerox"}, {ID: "cop-1", Model: "Xerox"}},
			}
			err := st.UpsertCustomer(ctx, other)
			require.ErrorIs(t, err, ErrCopierConflict)

			owner, err := st.GetCustomer(ctx, "cust-1")
			require.NoError(t, err)
			require.NotNil(t, owner)
			require.Len(t, owner.Copiers, 2)
			assert.Equal(t, "cop-1", owner.Copiers[0].ID)
			assert.Equal(t, "Ricoh MP 3055", owner.Copiers[0].Model)

			missing, err := st.GetCustomer(ctx, "cust-2")
			require.NoError(t, err)
			assert.Nil(t, missing)

			// Re-saving the owner with the same ids is fine.
			require.NoError(t, st.UpsertCustomer(ctx, sampleCustomer()))
		})
	}
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryWithCustomers([]Customer{sampleCustomer()})

	got, err := m.GetCustomer(ctx, "cust-1")
	require.NoError(t, err)
	got.Copiers[0].BWRate = 99

	again, err := m.GetCustomer(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 0.05, again.Copiers[0].BWRate)
}

func TestFileStorage_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := OpenFile(dir)
	require.NoError(t, err)
	require.NoError(t, st.UpsertCustomer(ctx, sampleCustomer()))
	require.NoError(t, st.AppendInvoice(ctx, sampleInvoice("42")))

	reopened, err := OpenFile(dir)
	require.NoError(t, err)
	list, err := reopened.ListInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "42", list[0].ID)
	assert.FileExists(t, filepath.Join(dir, invoicesFile))
}

func TestFileStorage_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	st, err := OpenFile(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, st.AppendInvoice(ctx, sampleInvoice(strconv.Itoa(i))))
		}(i)
	}
	wg.Wait()

	list, err := st.ListInvoices(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, nil)
	assert.Error(t, err)
}

func TestLocker_SingleInstanceBackends(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			l, ok := st.(Locker)
			require.True(t, ok)
			got, err := l.AcquireAdvisoryLock(ctx, 42)
			require.NoError(t, err)
			assert.True(t, got)
			_, err = l.ReleaseAdvisoryLock(ctx, 42)
			assert.NoError(t, err)
		})
	}
}

func TestGormStorage_PoolStats(t *testing.T) {
	st, err := NewGormStorage("sqlite", filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Ping(context.Background()))

	driver, stats, err := st.PoolStats()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", driver)
	assert.GreaterOrEqual(t, stats.OpenConnections, 1)
}

func TestOpenPostgresLocker_InvalidDSN(t *testing.T) {
	_, err := OpenPostgresLocker(context.Background(), "postgres://user@localhost:notaport/db")
	assert.Error(t, err)
}
