package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/karma"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	adjustReason string
	historyLimit int
)

// karmaCmd groups karma ledger operations
var karmaCmd = &cobra.Command{
	Use:   "karma",
	Short: "Inspect and adjust karma balances",
}

var karmaBalanceCmd = &cobra.Command{
	Use:   "balance <user-id>",
	Short: "Print a user's karma balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runKarmaBalance,
}

var karmaAdjustCmd = &cobra.Command{
	Use:   "adjust <user-id> <amount>",
	Short: "Credit (positive) or debit (negative) karma",
	Long: `Adjust a balance through the ledger, exactly as the app does. Debits
that would take the balance below zero are refused. Put debits after "--":

  fortunectl karma adjust --reason "duplicate reward" <user-id> -- -10`,
	Args: cobra.ExactArgs(2),
	RunE: runKarmaAdjust,
}

var karmaHistoryCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "List a user's karma history, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runKarmaHistory,
}

func init() {
	karmaAdjustCmd.Flags().StringVarP(&adjustReason, "reason", "r", "", "Reason recorded in the history (required)")
	_ = karmaAdjustCmd.MarkFlagRequired("reason")
	karmaHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries")
}

func runKarmaBalance(cmd *cobra.Command, args []string) error {
	userID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	return withDB(cmd, func(ctx context.Context, _ *config.Config, db *gorm.DB) error {
		bal, err := karma.NewLedger(db, nil).Balance(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), bal)
		return nil
	})
}

func runKarmaAdjust(cmd *cobra.Command, args []string) error {
	userID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	return withDB(cmd, func(ctx context.Context, _ *config.Config, db *gorm.DB) error {
		bal, err := karma.NewLedger(db, nil).Adjust(ctx, userID, amount, "admin: "+adjustReason)
		if errors.Is(err, karma.ErrHistoryNotRecorded) {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
			err = nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "new balance: %d\n", bal)
		return nil
	})
}

func runKarmaHistory(cmd *cobra.Command, args []string) error {
	userID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	return withDB(cmd, func(ctx context.Context, _ *config.Config, db *gorm.DB) error {
		entries, err := karma.NewLedger(db, nil).History(ctx, userID, historyLimit, 0)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tAMOUNT\tREASON")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%+d\t%s\n", e.CreatedAt.UTC().Format("2006-01-02 15:04:05"), e.Amount, e.Reason)
		}
		return w.Flush()
	})
}
