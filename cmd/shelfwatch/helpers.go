package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/alert"
	"github.com/shelfwatch/shelfwatch/internal/cli"
	"github.com/shelfwatch/shelfwatch/internal/config"
	"github.com/shelfwatch/shelfwatch/internal/engine"
	"github.com/shelfwatch/shelfwatch/internal/service"
	"github.com/shelfwatch/shelfwatch/internal/storage"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

const summaryDurationUnit = 10 * time.Millisecond

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initAlerter builds the price-drop dispatcher from config. Without a
// configured sink the dispatcher just logs events, which is the default.
func initAlerter() service.PriceAlerter {
	perSecond := rate.Limit(viper.GetFloat64("alerts.rate_per_second"))
	burst := viper.GetInt("alerts.burst")
	return alert.NewDispatcher(perSecond, burst, nil)
}

// buildEngine wires storage and alerting into a reconciliation engine.
func buildEngine(store service.Storage, cfg engine.Config) *engine.Engine {
	return engine.NewWithConfig(store, initAlerter(), cfg)
}

// renderSummary formats a run summary as a styled box.
func renderSummary(title string, summary service.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Processed: %d\n", summary.Processed)
	fmt.Fprintf(&b, "Failed:    %d\n", summary.Failed)
	fmt.Fprintf(&b, "Duration:  %s", summary.Duration.Round(summaryDurationUnit))
	if len(summary.FailedIDs) > 0 {
		fmt.Fprintf(&b, "\n\nFailed record ids: %v", summary.FailedIDs)
	}
	return cli.RenderBox(title, b.String())
}
