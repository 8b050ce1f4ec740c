package main

import (
	"fmt"
	"log/slog"

	"github.com/shelfwatch/shelfwatch/internal/cli"
	"github.com/shelfwatch/shelfwatch/internal/engine"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func dumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Bulk-load pending records in a single transaction",
		Long: `Run a bounded bulk-load pass over the pending work queue.

Dump only performs exact matching (barcode and retailer-code lookups) and
never creates suggestions, so it stays fast on large backlogs. The whole
pass runs in one transaction: any mutation error rolls everything back.`,
		RunE: runDump,
	}

	// Flags
	cmd.Flags().Int("limit", 0, "Maximum records per pass (0 = default)")
	cmd.Flags().Bool("include-unavailable", false, "Also process records marked unavailable")

	// Bind to viper
	_ = viper.BindPFlag("dump.limit", cmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("dump.include_unavailable", cmd.Flags().Lookup("include-unavailable"))

	return cmd
}

func runDump(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	slog.Info(cli.FormatTitle("Bulk-loading retailer feed"))

	bar := newRecordBar("Loading records...")
	eng := buildEngine(store, engine.Config{
		DumpLimit:     viper.GetInt("dump.limit"),
		AvailableOnly: !viper.GetBool("dump.include_unavailable"),
		Progress:      func() { _ = bar.Add(1) },
	})

	summary, err := eng.Dump(ctx)
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("dump failed: %w", err)
	}

	fmt.Println(renderSummary("Dump Summary", summary))

	return nil
}
