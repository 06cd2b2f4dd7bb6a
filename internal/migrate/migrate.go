package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var embedMigrations embed.FS

func configureGoose(driver string) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetTableName("schema_migrations")

	switch driver {
	case "sqlite", "sqlite3":
		return goose.SetDialect("sqlite3")
	case "postgres", "pgx":
		return goose.SetDialect("postgres")
	}
	return fmt.Errorf("unsupported driver for goose: %s", driver)
}

func getMigrationDir(driver string) string {
	if driver == "postgres" || driver == "pgx" {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}

func openDB(driver, dsn string) (*sql.DB, error) {
	if driver == "" {
		driver = "sqlite"
	}
	if dsn == "" && driver == "sqlite" {
		dsn = "copierbill.db"
	}
	// pgx registers itself as "pgx" in database/sql.
	if driver == "postgres" {
		driver = "pgx"
	}
	return sql.Open(driver, dsn)
}

// UpDB applies all pending migrations to an already open database.
func UpDB(ctx context.Context, driver string, db *sql.DB) error {
	if err := configureGoose(driver); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, getMigrationDir(driver))
}

func Up(ctx context.Context, driver, dsn string) error {
	db, err := openDB(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return UpDB(ctx, driver, db)
}

func Down(ctx context.Context, driver, dsn string) error {
	if err := configureGoose(driver); err != nil {
		return err
	}
	db, err := openDB(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.DownContext(ctx, db, getMigrationDir(driver))
}

func Status(ctx context.Context, driver, dsn string) error {
	if err := configureGoose(driver); err != nil {
		return err
	}
	db, err := openDB(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.StatusContext(ctx, db, getMigrationDir(driver))
}

// Version reports the current schema version.
func Version(ctx context.Context, driver, dsn string) (int64, error) {
	if err := configureGoose(driver); err != nil {
		return 0, err
	}
	db, err := openDB(driver, dsn)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return goose.GetDBVersionContext(ctx, db)
}
