package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/bher20/copierbill/internal/migrate"
)

type GormStorage struct {
	db     *gorm.DB
	driver string
	locker *PostgresLocker
}

func NewGormStorage(driver, dsn string) (*GormStorage, error) {
	var gormDialector gorm.Dialector
	switch driver {
	case "postgres":
		gormDialector = postgres.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = "copierbill.db"
		}
		gormDialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(gormDialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	st := &GormStorage{db: db, driver: driver}
	if driver == "postgres" {
		if st.locker, err = OpenPostgresLocker(context.Background(), dsn); err != nil {
			return nil, fmt.Errorf("postgres locker: %w", err)
		}
	}
	return st, nil
}

// Migrate applies the embedded goose migrations for the storage dialect.
func (s *GormStorage) Migrate(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return migrate.UpDB(ctx, s.driver, sqlDB)
}

// Customers

func (s *GormStorage) ListCustomers(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	result := s.db.WithContext(ctx).
		Preload("Copiers", orderByPosition).
		Order("name asc, id asc").
		Find(&customers)
	return customers, result.Error
}

func (s *GormStorage) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var c Customer
	result := s.db.WithContext(ctx).Preload("Copiers", orderByPosition).First(&c, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &c, nil
}

func (s *GormStorage) UpsertCustomer(ctx context.Context, c Customer) error {
	c = cloneCustomer(c)
	prepareCopiers(&c)
	copiers := c.Copiers
	c.Copiers = nil
	now := time.Now().UTC()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Customer
		err := tx.Select("id", "created_at").First(&existing, "id = ?", c.ID).Error
		switch {
		case err == nil:
			c.CreatedAt = existing.CreatedAt
		case errors.Is(err, gorm.ErrRecordNotFound):
			if c.CreatedAt.IsZero() {
				c.CreatedAt = now
			}
		default:
			return err
		}
		c.UpdatedAt = now

		if len(copiers) > 0 {
			ids := make([]string, 0, len(copiers))
			for _, cp := range copiers {
				ids = append(ids, cp.ID)
			}
			var owner Copier
			err := tx.Select("id", "customer_id").
				Where("id IN ? AND customer_id <> ?", ids, c.ID).
				Take(&owner).Error
			switch {
			case err == nil:
				return fmt.Errorf("%w: %s", ErrCopierConflict, owner.CustomerID)
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&c).Error; err != nil {
			return err
		}
		if err := tx.Where("customer_id = ?", c.ID).Delete(&Copier{}).Error; err != nil {
			return err
		}
		if len(copiers) == 0 {
			return nil
		}
		return tx.Create(&copiers).Error
	})
}

func (s *GormStorage) DeleteCustomer(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", id).Delete(&Copier{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Customer{}, "id = ?", id).Error
	})
}

// Invoices

func (s *GormStorage) AppendInvoice(ctx context.Context, inv Invoice) error {
	inv = cloneInvoice(inv)
	prepareLines(&inv)
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Invoice{}).Where("id = ?", inv.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateInvoice
		}
		return tx.Create(&inv).Error
	})
}

func (s *GormStorage) ListInvoices(ctx context.Context) ([]Invoice, error) {
	var invoices []Invoice
	result := s.db.WithContext(ctx).
		Preload("Lines", orderByPosition).
		Order("created_at asc, id asc").
		Find(&invoices)
	return invoices, result.Error
}

func (s *GormStorage) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	var inv Invoice
	result := s.db.WithContext(ctx).Preload("Lines", orderByPosition).First(&inv, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &inv, nil
}

func orderByPosition(db *gorm.DB) *gorm.DB { return db.Order("position asc") }

// Email Config

func (s *GormStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	var config EmailConfig
	// Rows saved before the fixed id was introduced may still exist.
	result := s.db.WithContext(ctx).Order("updated_at desc").First(&config)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &config, nil
}

func (s *GormStorage) SaveEmailConfig(ctx context.Context, config EmailConfig) error {
	// There is only ever one row.
	config.ID = EmailConfigID
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&config).Error
}

// Close & Ping

func (s *GormStorage) Close() error {
	if s.locker != nil {
		s.locker.Close()
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// PoolStats reports the database/sql pool of the underlying connection.
func (s *GormStorage) PoolStats() (string, sql.DBStats, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return s.driver, sql.DBStats{}, err
	}
	return s.driver, sqlDB.Stats(), nil
}

// Locking

func (s *GormStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.locker != nil {
		return s.locker.AcquireAdvisoryLock(ctx, key)
	}
	// SQLite has no advisory locks; assume a single instance.
	return true, nil
}

func (s *GormStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.locker != nil {
		return s.locker.ReleaseAdvisoryLock(ctx, key)
	}
	return true, nil
}
