package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WorldObservationLog/NeuroTools/db"
)

var errNoDatabase = errors.New("DB_DSN not set")

func (a *App) newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}
	step := func(use, short string, fn func(cmd *cobra.Command) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if a.Config.DBDsn == "" {
					return errNoDatabase
				}
				return fn(cmd)
			},
		}
	}
	cmd.AddCommand(
		step("up", "Apply pending migrations", func(cmd *cobra.Command) error {
			database, err := db.Connect(cmd.Context(), a.Config.DBDsn)
			if err != nil {
				return err
			}
			defer database.Close()
			return db.RunMigrations(database)
		}),
		step("down", "Roll back the latest migration (drops stored exports)", func(cmd *cobra.Command) error {
			database, err := db.Connect(cmd.Context(), a.Config.DBDsn)
			if err != nil {
				return err
			}
			defer database.Close()
			return db.MigrateDown(database)
		}),
		step("version", "Print the schema version", func(cmd *cobra.Command) error {
			database, err := db.Connect(cmd.Context(), a.Config.DBDsn)
			if err != nil {
				return err
			}
			defer database.Close()
			version, dirty, err := db.GetMigrationVersion(database)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
			return err
		}),
	)
	return cmd
}
