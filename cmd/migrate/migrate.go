package migrate

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/suteetoe/bizledger/internal/app"
	"github.com/suteetoe/bizledger/pkg/config"
	"github.com/suteetoe/bizledger/pkg/logger"
)

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the postgres schema of the record store",
		RunE:  migrateCommand,
	}
}

func migrateCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	log := logger.GetLogger()
	if cfg.Store.Driver != config.DriverPostgres {
		log.Info("Nothing to migrate for this store driver")
		return nil
	}

	backend, err := app.OpenBackend(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	return backend.Close(context.Background())
}
