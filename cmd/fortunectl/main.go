// Command fortunectl runs operator tasks against the fortune database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	timeout time.Duration

	// openDB is replaced in tests.
	openDB = database.Connect
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "fortunectl",
	Short:         "Operate the fortune backend database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")

	karmaCmd.AddCommand(karmaBalanceCmd)
	karmaCmd.AddCommand(karmaAdjustCmd)
	karmaCmd.AddCommand(karmaHistoryCmd)
	logsCmd.AddCommand(logsPruneCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(karmaCmd)
	rootCmd.AddCommand(logsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withDB opens the configured database for one command.
func withDB(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, db *gorm.DB) error) error {
	cfg := config.Load()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	return fn(ctx, cfg, db)
}
