package main

import (
	"fmt"
	"log/slog"

	"github.com/shelfwatch/shelfwatch/internal/cli"
	"github.com/shelfwatch/shelfwatch/internal/engine"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Requeue failed records for another attempt",
		Long: `Move failed and lookup-error records back to pending so the next sync
picks them up again.

Records that have already been retried the maximum number of times stay
failed; raise --max-retries to requeue them anyway.`,
		RunE: runReset,
	}

	// Flags
	cmd.Flags().Int("max-retries", 3, "Skip records already retried this many times")

	// Bind to viper
	_ = viper.BindPFlag("reset.max_retries", cmd.Flags().Lookup("max-retries"))

	return cmd
}

func runReset(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	eng := buildEngine(store, engine.Config{})
	requeued, err := eng.Requeue(ctx, viper.GetInt("reset.max_retries"))
	if err != nil {
		return fmt.Errorf("failed to requeue records: %w", err)
	}

	if requeued == 0 {
		slog.Info(cli.FormatInfo("No failed records eligible for requeue."))
		return nil
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Requeued %d records; run 'shelfwatch sync' to process them", requeued)))

	return nil
}
