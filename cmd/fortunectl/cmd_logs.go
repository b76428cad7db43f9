package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/logging"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var olderThan time.Duration

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Manage persisted error logs",
}

var logsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete system logs past retention",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd, func(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
			retention := olderThan
			if retention <= 0 {
				retention = cfg.LogRetention
			}
			deleted, err := logging.Prune(ctx, db, time.Now().Add(-retention))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d log entries\n", deleted)
			return nil
		})
	},
}

func init() {
	logsPruneCmd.Flags().DurationVar(&olderThan, "older-than", 0, "Retention window (default LOG_RETENTION)")
}
