package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/shelfwatch/shelfwatch/internal/cli"
	"github.com/shelfwatch/shelfwatch/internal/engine"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile pending raw records against the catalog",
		Long: `Run the reconciliation loop over the pending work queue.

Each record is matched against the master catalog, pricing and price
history are updated, and records that cannot be confidently matched are
parked as suggestions for review. Each record commits independently, so
a failure only skips that record.`,
		RunE: runSync,
	}

	// Flags
	cmd.Flags().Int("batch-size", 0, "Records fetched per batch (0 = default)")
	cmd.Flags().Bool("include-unavailable", false, "Also process records marked unavailable")

	// Bind to viper
	_ = viper.BindPFlag("sync.batch_size", cmd.Flags().Lookup("batch-size"))
	_ = viper.BindPFlag("sync.include_unavailable", cmd.Flags().Lookup("include-unavailable"))

	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	slog.Info(cli.FormatTitle("Reconciling retailer feed"))

	bar := newRecordBar("Reconciling records...")
	eng := buildEngine(store, engine.Config{
		BatchSize:     viper.GetInt("sync.batch_size"),
		AvailableOnly: !viper.GetBool("sync.include_unavailable"),
		Progress:      func() { _ = bar.Add(1) },
	})

	summary, err := eng.Sync(ctx)
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Println(renderSummary("Sync Summary", summary))

	if summary.Failed > 0 {
		slog.Warn(cli.FormatWarning(fmt.Sprintf("%d records failed; run 'shelfwatch reset' to requeue them", summary.Failed)))
	} else {
		slog.Info(cli.FormatSuccess("All records reconciled"))
	}

	return nil
}

func newRecordBar(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(os.Stderr); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
