// Command migrate manages the Postgres schema of the rivalry store.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	"github.com/okian/rivalry/internal/adapters/repository/postgres"
	"github.com/okian/rivalry/internal/adapters/repository/postgres/migrations"
)

var errNoDSN = errors.New("missing postgres DSN: pass --dsn or set RIVALRY_POSTGRES_DSN")

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "migrate",
		Usage:  "rivalry database migrations",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dsn",
				Usage:   "postgres connection string",
				EnvVars: []string{"RIVALRY_POSTGRES_DSN"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					return m.Init(c.Context)
				}),
			},
			{
				Name:  "up",
				Usage: "apply pending migrations",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					if err := m.Lock(c.Context); err != nil {
						return err
					}
					defer func() { _ = m.Unlock(c.Context) }()

					group, err := m.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Fprintln(c.App.Writer, "no new migrations to run")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "migrated to %s\n", group)
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "roll back the last migration group",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					if err := m.Lock(c.Context); err != nil {
						return err
					}
					defer func() { _ = m.Unlock(c.Context) }()

					group, err := m.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Fprintln(c.App.Writer, "no groups to roll back")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "rolled back %s\n", group)
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "print migration status",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					ms, err := m.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "migrations: %s\n", ms)
					fmt.Fprintf(c.App.Writer, "applied: %s\n", ms.Applied())
					fmt.Fprintf(c.App.Writer, "unapplied: %s\n", ms.Unapplied())
					fmt.Fprintf(c.App.Writer, "last group: %s\n", ms.LastGroup())
					return nil
				}),
			},
			{
				Name:      "create",
				Usage:     "create a Go migration file",
				ArgsUsage: "<name words...>",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					if c.NArg() == 0 {
						return errors.New("migration name is required")
					}
					mf, err := m.CreateGoMigration(c.Context, strings.Join(c.Args().Slice(), "_"))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "created migration %s (%s)\n", mf.Name, mf.Path)
					return nil
				}),
			},
		},
	}
}

// withMigrator connects to the database named by --dsn and closes it after fn.
func withMigrator(fn func(c *cli.Context, m *migrate.Migrator) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		dsn := c.String("dsn")
		if dsn == "" {
			return errNoDSN
		}
		db, err := postgres.Connect(c.Context, dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(c, migrate.NewMigrator(db, migrations.Migrations))
	}
}
