package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/cli"
	"github.com/shelfwatch/shelfwatch/internal/common"
	"github.com/shelfwatch/shelfwatch/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <feed.jsonl> [feed.jsonl...]",
		Short: "Import scraped feed files into the work queue",
		Long: `Import scraped retailer feed files into the pending work queue.

Each input file is JSON lines: one raw product listing per line. Imported
records enter the queue as pending and are picked up by the next sync or
dump run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	// Flags
	cmd.Flags().Int64("retailer", 0, "Override the retailer id on every imported record")
	cmd.Flags().Bool("dry-run", false, "Parse the feed without saving anything")

	// Bind to viper
	_ = viper.BindPFlag("import.retailer", cmd.Flags().Lookup("retailer"))
	_ = viper.BindPFlag("import.dry_run", cmd.Flags().Lookup("dry-run"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	retailerID := viper.GetInt64("import.retailer")
	dryRun := viper.GetBool("import.dry_run")

	slog.Info(cli.FormatTitle("Importing retailer feed"))

	var records []model.RawRecord
	for _, path := range args {
		fileRecords, err := readFeedFile(path, retailerID)
		if err != nil {
			return err
		}
		slog.Info("Parsed feed file", "path", path, "records", len(fileRecords))
		records = append(records, fileRecords...)
	}

	if dryRun {
		slog.Info(cli.FormatInfo(fmt.Sprintf("Dry run: %d records parsed, nothing saved", len(records))))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveRawRecords(ctx, records); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Imported %d records into the work queue", len(records))))

	return nil
}

// readFeedFile parses one JSON lines feed file. Records default to pending
// and available unless the line says otherwise.
func readFeedFile(path string, retailerID int64) ([]model.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []model.RawRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		record := model.RawRecord{
			Status:     model.StatusPending,
			Available:  true,
			ObservedAt: time.Now().UTC(),
		}
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("%s:%d: invalid feed line: %w", path, lineNo, err)
		}

		// The queue assigns ids and statuses; the feed cannot.
		record.ID = 0
		record.Status = model.StatusPending
		record.RetryCount = 0

		if retailerID != 0 {
			record.RetailerID = retailerID
		}
		if record.RetailerID == 0 {
			return nil, common.NewUserError(
				fmt.Sprintf("%s:%d: record has no retailer id (set one or pass --retailer)", path, lineNo), nil)
		}

		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feed file: %w", err)
	}

	return records, nil
}
