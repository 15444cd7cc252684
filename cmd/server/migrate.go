package main

import (
	"errors"

	"oustaa/internal/config"
	"oustaa/pkg/database"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or roll back MongoDB indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DatabaseDriverMongo {
				return errors.New("migrate requires DATABASE_DRIVER=mongodb")
			}

			infra, err := connectInfrastructure(cfg, log)
			if err != nil {
				return err
			}
			defer infra.close(log)

			migrator := database.NewMigrator(infra.mongo.Database, log)
			if cmd.Flags().Changed("down") {
				err = migrator.Down(cmd.Context(), down)
			} else {
				err = migrator.Up(cmd.Context())
			}
			if err != nil {
				return err
			}

			version, err := migrator.CurrentVersion(cmd.Context())
			if err != nil {
				return err
			}
			log.WithField("version", version).Info("Migrations finished")
			return nil
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "roll back to this version instead of migrating up")
	return cmd
}
