package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/copierbill/internal/migrate"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQL schema (sqlite and postgres storage)",
	}

	run := func(name string, fn func(cmd *cobra.Command, driver, dsn string) error) *cobra.Command {
		return &cobra.Command{
			Use:   name,
			Short: fmt.Sprintf("Run goose %s", name),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := opts.load()
				if err != nil {
					return err
				}
				defer func() { _ = log.Sync() }()
				switch cfg.Storage.Driver {
				case "sqlite", "postgres":
				default:
					return fmt.Errorf("storage driver %q has no SQL schema", cfg.Storage.Driver)
				}
				return fn(cmd, cfg.Storage.Driver, cfg.Storage.DSN)
			},
		}
	}

	cmd.AddCommand(
		run("up", func(cmd *cobra.Command, driver, dsn string) error {
			if err := migrate.Up(cmd.Context(), driver, dsn); err != nil {
				return err
			}
			v, err := migrate.Version(cmd.Context(), driver, dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		}),
		run("down", func(cmd *cobra.Command, driver, dsn string) error {
			return migrate.Down(cmd.Context(), driver, dsn)
		}),
		run("status", func(cmd *cobra.Command, driver, dsn string) error {
			return migrate.Status(cmd.Context(), driver, dsn)
		}),
	)
	return cmd
}
