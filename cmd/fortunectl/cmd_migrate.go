package main

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/server"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var skipSeed bool

// migrateCmd creates or updates every table and seeds remote config
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema",
	Long: `Run AutoMigrate for the shared, karma, activity and plugin tables,
then seed remote config defaults that are not set yet.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "Do not seed remote config defaults")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	return withDB(cmd, func(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
		plugins := server.Plugins()
		tables := server.Models(plugins)
		if err := database.Migrate(db.WithContext(ctx), tables...); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables\n", len(tables))

		if skipSeed {
			return nil
		}
		defaults := server.ConfigDefaults(cfg, plugins)
		if err := services.NewRemoteConfigService(db).SeedDefaults(ctx, defaults); err != nil {
			return fmt.Errorf("seed remote config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d config defaults\n", len(defaults))
		return nil
	})
}
