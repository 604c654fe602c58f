package migrate

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/cmd/util"
	"github.com/mpapenbr/pitstrategy/pkg/config"
	"github.com/mpapenbr/pitstrategy/pkg/db/migrate"
)

var statusOnly bool

var errNotPostgres = errors.New("migrations are only required for postgres databases")

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		Long: `Applies the embedded migrations to the postgres database given by --db.
The sqlite history creates its schema on its own.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !util.IsPostgres(config.DB) {
				return errNotPostgres
			}
			util.WaitForRequiredServices(cmd.Context())
			if statusOnly {
				return printStatus(cmd)
			}
			return startMigration()
		},
	}
	cmd.Flags().BoolVar(&statusOnly,
		"status",
		false,
		"print the current schema version only")
	return cmd
}

func startMigration() error {
	before, _, err := migrate.Version(config.DB)
	if err != nil {
		return err
	}
	if err := migrate.MigrateDb(config.DB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	after, _, err := migrate.Version(config.DB)
	if err != nil {
		return err
	}
	if before == after {
		log.Info("No Migration required", log.Uint("version", after))
	} else {
		log.Info("Database migrated",
			log.Uint("from", before),
			log.Uint("to", after))
	}
	return nil
}

func printStatus(cmd *cobra.Command) error {
	version, dirty, err := migrate.Version(config.DB)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %t\n", version, dirty)
	return err
}
