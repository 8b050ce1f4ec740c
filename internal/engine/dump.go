package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/matcher"
	"github.com/shelfwatch/shelfwatch/internal/model"
	"github.com/shelfwatch/shelfwatch/internal/service"
)

// Dump runs the bulk loader: one bounded pass over the pending queue using
// only the exact matching tier, inside a single transaction. Any lookup or
// mutation error rolls the whole pass back. Listings that would need fuzzy
// matching are stamped failed rather than suggested; they belong to Sync.
func (e *Engine) Dump(ctx context.Context) (service.Summary, error) {
	start := time.Now()
	var summary service.Summary

	index, err := e.buildCategoryIndex(ctx)
	if err != nil {
		return summary, err
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to begin dump transaction: %w", err)
	}

	records, err := tx.GetPendingRawRecords(ctx, e.dumpLimit, e.availableOnly)
	if err != nil {
		_ = tx.Rollback()
		return summary, fmt.Errorf("failed to fetch dump batch: %w", err)
	}
	if len(records) == 0 {
		_ = tx.Rollback()
		summary.Duration = time.Since(start)
		return summary, nil
	}

	slog.Info("Dump pass started", "size", len(records))

	var dropIDs []int64
	for _, raw := range records {
		select {
		case <-ctx.Done():
			_ = tx.Rollback()
			return service.Summary{Duration: time.Since(start)}, ctx.Err()
		default:
		}

		decision, err := matcher.DecideExact(ctx, tx, raw)
		if err != nil {
			_ = tx.Rollback()
			return service.Summary{Duration: time.Since(start)},
				fmt.Errorf("dump aborted at record %d: %w", raw.ID, err)
		}

		var status model.RecordStatus
		switch decision.Kind {
		case matcher.KindRejected:
			status = model.StatusMissingBrand
		case matcher.KindUnmatched:
			status = model.StatusFailed
		case matcher.KindNewProduct:
			if err := e.createProduct(ctx, tx, index, raw); err != nil {
				_ = tx.Rollback()
				return service.Summary{Duration: time.Since(start)},
					fmt.Errorf("dump aborted at record %d: %w", raw.ID, err)
			}
			status = model.StatusProcessed
		case matcher.KindReobservation:
			dropID, err := e.reobserve(ctx, tx, raw, decision.Existing)
			if err != nil {
				_ = tx.Rollback()
				return service.Summary{Duration: time.Since(start)},
					fmt.Errorf("dump aborted at record %d: %w", raw.ID, err)
			}
			if dropID != 0 {
				dropIDs = append(dropIDs, dropID)
			}
			status = model.StatusProcessed
		case matcher.KindKnownProduct:
			if err := e.attachPricing(ctx, tx, raw, decision.ProductID); err != nil {
				_ = tx.Rollback()
				return service.Summary{Duration: time.Since(start)},
					fmt.Errorf("dump aborted at record %d: %w", raw.ID, err)
			}
			status = model.StatusProcessed
		default:
			_ = tx.Rollback()
			return service.Summary{Duration: time.Since(start)},
				fmt.Errorf("dump aborted at record %d: unhandled decision %s", raw.ID, decision.Kind)
		}

		if err := tx.SetRawRecordStatus(ctx, raw.ID, status); err != nil {
			_ = tx.Rollback()
			return service.Summary{Duration: time.Since(start)},
				fmt.Errorf("dump aborted at record %d: %w", raw.ID, err)
		}

		if status == model.StatusProcessed {
			summary.Processed++
		} else {
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, raw.ID)
		}
		if e.progress != nil {
			e.progress()
		}
	}

	if err := tx.Commit(); err != nil {
		return service.Summary{Duration: time.Since(start)},
			fmt.Errorf("failed to commit dump pass: %w", err)
	}

	// alerts go out only once the pass is durable
	if len(dropIDs) > 0 {
		e.dispatchPriceDrop(ctx, dropIDs)
	}

	summary.Duration = time.Since(start)
	slog.Info("Dump complete",
		"processed", summary.Processed,
		"failed", summary.Failed,
		"duration", summary.Duration)
	return summary, nil
}

// Requeue transitions failed and lookup-error records back to pending, each
// bounded by its retry counter.
func (e *Engine) Requeue(ctx context.Context, maxRetries int) (int64, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	n, err := e.storage.RequeueFailedRecords(ctx, maxRetries)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue records: %w", err)
	}
	slog.Info("Requeued failed records", "count", n, "max_retries", maxRetries)
	return n, nil
}
