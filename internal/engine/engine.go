// Package engine implements the batch orchestrator that drives raw scraped
// records through category resolution, pack-size normalization, matching and
// the price ledger.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/category"
	"github.com/shelfwatch/shelfwatch/internal/common"
	"github.com/shelfwatch/shelfwatch/internal/matcher"
	"github.com/shelfwatch/shelfwatch/internal/model"
	"github.com/shelfwatch/shelfwatch/internal/packsize"
	"github.com/shelfwatch/shelfwatch/internal/service"
)

// Engine orchestrates reconciliation runs over the raw-record work queue.
// Records are processed sequentially so unique-key upserts and similarity
// lookups observe the catalog as it grows during the run.
type Engine struct {
	storage       service.Storage
	alerter       service.PriceAlerter
	progress      func()
	batchSize     int
	dumpLimit     int
	availableOnly bool
}

// Config holds configuration options for the engine.
type Config struct {
	Progress      func()
	BatchSize     int
	DumpLimit     int
	AvailableOnly bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:     200,
		DumpLimit:     5000,
		AvailableOnly: true,
	}
}

// New creates an engine with the default configuration.
func New(storage service.Storage, alerter service.PriceAlerter) *Engine {
	return NewWithConfig(storage, alerter, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration. The storage
// handle is owned by the caller; the engine never opens or closes it.
func NewWithConfig(storage service.Storage, alerter service.PriceAlerter, config Config) *Engine {
	if config.BatchSize <= 0 {
		config.BatchSize = 200
	}
	if config.DumpLimit <= 0 {
		config.DumpLimit = 5000
	}
	return &Engine{
		storage:       storage,
		alerter:       alerter,
		batchSize:     config.BatchSize,
		dumpLimit:     config.DumpLimit,
		availableOnly: config.AvailableOnly,
		progress:      config.Progress,
	}
}

// Sync runs the full three-tier reconciliation loop until the pending queue
// is empty. Each record runs inside its own storage transaction; a failing
// record is stamped with a failure status and the loop continues. Only
// batch-fetch or connection-level errors abort the run.
func (e *Engine) Sync(ctx context.Context) (service.Summary, error) {
	start := time.Now()
	var summary service.Summary

	index, err := e.buildCategoryIndex(ctx)
	if err != nil {
		return summary, err
	}

	for {
		select {
		case <-ctx.Done():
			summary.Duration = time.Since(start)
			return summary, ctx.Err()
		default:
		}

		records, err := e.storage.GetPendingRawRecords(ctx, e.batchSize, e.availableOnly)
		if err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("failed to fetch pending batch: %w", err)
		}
		if len(records) == 0 {
			break
		}

		slog.Info("Processing batch", "size", len(records))

		for _, raw := range records {
			status, dropID := e.processRecord(ctx, index, raw)

			if err := e.storage.SetRawRecordStatus(ctx, raw.ID, status); err != nil {
				summary.Duration = time.Since(start)
				return summary, fmt.Errorf("failed to stamp record %d: %w", raw.ID, err)
			}

			if status == model.StatusProcessed {
				summary.Processed++
			} else {
				summary.Failed++
				summary.FailedIDs = append(summary.FailedIDs, raw.ID)
			}
			if dropID != 0 {
				e.dispatchPriceDrop(ctx, []int64{dropID})
			}
			if e.progress != nil {
				e.progress()
			}
		}
	}

	summary.Duration = time.Since(start)
	slog.Info("Sync complete",
		"processed", summary.Processed,
		"failed", summary.Failed,
		"duration", summary.Duration)
	return summary, nil
}

// processRecord runs one raw record through the decision procedure and
// applies the resulting mutation inside a single transaction. It returns the
// terminal status and, for a strict price decrease, the affected product id.
func (e *Engine) processRecord(ctx context.Context, index *category.Index, raw model.RawRecord) (model.RecordStatus, int64) {
	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		common.LogError(err, "Failed to begin record transaction", common.Fields{"record_id": raw.ID})
		return model.StatusFailed, 0
	}

	decision, err := matcher.Decide(ctx, tx, raw)
	if err != nil {
		_ = tx.Rollback()
		common.LogError(err, "Match decision failed", common.Fields{"record_id": raw.ID})
		if errors.Is(err, common.ErrLookupFailed) {
			return model.StatusLookupError, 0
		}
		return model.StatusFailed, 0
	}

	status, dropID, err := e.apply(ctx, tx, index, raw, decision)
	if err != nil {
		_ = tx.Rollback()
		common.LogError(err, "Catalog mutation failed", common.Fields{
			"record_id": raw.ID,
			"decision":  decision.Kind.String(),
		})
		return model.StatusFailed, 0
	}

	if err := tx.Commit(); err != nil {
		common.LogError(err, "Failed to commit record", common.Fields{"record_id": raw.ID})
		return model.StatusFailed, 0
	}

	slog.Debug("Record reconciled",
		"record_id", raw.ID,
		"decision", decision.Kind.String(),
		"status", status.String())
	return status, dropID
}

// apply dispatches on the decision variant, one case per kind.
func (e *Engine) apply(ctx context.Context, tx service.Tx, index *category.Index, raw model.RawRecord, decision matcher.Decision) (model.RecordStatus, int64, error) {
	switch decision.Kind {
	case matcher.KindRejected:
		slog.Warn("Record rejected", "record_id", raw.ID, "reason", common.ErrMissingBrand)
		return model.StatusMissingBrand, 0, nil

	case matcher.KindNewProduct:
		err := e.createProduct(ctx, tx, index, raw)
		return model.StatusProcessed, 0, err

	case matcher.KindReobservation:
		dropID, err := e.reobserve(ctx, tx, raw, decision.Existing)
		return model.StatusProcessed, dropID, err

	case matcher.KindKnownProduct, matcher.KindFuzzyMatch:
		err := e.attachPricing(ctx, tx, raw, decision.ProductID)
		return model.StatusProcessed, 0, err

	case matcher.KindSuggest:
		err := e.suggest(ctx, tx, raw, decision.Candidates)
		return model.StatusProcessed, 0, err

	default:
		return model.StatusFailed, 0, fmt.Errorf("unhandled match decision %d", decision.Kind)
	}
}

// createProduct materializes a new master product with its first pricing row
// and opening ledger entry.
func (e *Engine) createProduct(ctx context.Context, tx service.Tx, index *category.Index, raw model.RawRecord) error {
	brand, err := tx.GetOrCreateBrand(ctx, raw.Brand)
	if err != nil {
		return fmt.Errorf("failed to resolve brand: %w", err)
	}

	parsed := packsize.Parse(raw.PackSize)
	product := &model.MasterProduct{
		Barcode:       raw.Barcode,
		Name:          raw.Name,
		BrandID:       brand.ID,
		CategoryID:    index.Resolve(raw.CategoryPath),
		Size:          parsed.Size,
		Unit:          parsed.Unit,
		Configuration: parsed.Configuration,
		A2CSize:       parsed.A2C(),
		RRP:           raw.RRP,
		ImageURL:      raw.ImageURL,
	}
	if err := tx.CreateMasterProduct(ctx, product); err != nil {
		return err
	}

	return e.attachPricing(ctx, tx, raw, product.ID)
}

// attachPricing registers a retailer pricing row against an existing master
// product and appends the opening price point.
func (e *Engine) attachPricing(ctx context.Context, tx service.Tx, raw model.RawRecord, productID int64) error {
	pricing := &model.RetailerPricing{
		ProductID:    productID,
		Barcode:      raw.Barcode,
		RetailerID:   raw.RetailerID,
		RetailerCode: raw.RetailerCode,
		CurrentPrice: raw.Price,
		WasPrice:     raw.WasPrice,
		UnitPrice:    raw.UnitPrice,
		OfferText:    raw.OfferText,
		PromoType:    raw.PromoType,
		ProductURL:   raw.ProductURL,
		Available:    raw.Available,
	}
	if err := tx.CreateRetailerPricing(ctx, pricing); err != nil {
		return err
	}

	return tx.AppendPricePoint(ctx, &model.PricePoint{
		PricingID:  pricing.ID,
		Price:      raw.Price,
		RRP:        raw.RRP,
		ObservedAt: raw.ObservedAt,
	})
}

// reobserve handles a listing already priced by this retailer+code. An
// unchanged price is a no-op; a changed price rolls the current price into
// was_price and appends to the ledger. A strict decrease reports the product
// for alert dispatch.
func (e *Engine) reobserve(ctx context.Context, tx service.Tx, raw model.RawRecord, existing *model.RetailerPricing) (int64, error) {
	if raw.Price == existing.CurrentPrice {
		return 0, nil
	}

	previous := existing.CurrentPrice
	existing.WasPrice = previous
	existing.CurrentPrice = raw.Price
	existing.UnitPrice = raw.UnitPrice
	existing.OfferText = raw.OfferText
	existing.PromoType = raw.PromoType
	existing.ProductURL = raw.ProductURL
	existing.Available = raw.Available

	if err := tx.UpdateRetailerPricing(ctx, existing); err != nil {
		return 0, err
	}

	if err := tx.AppendPricePoint(ctx, &model.PricePoint{
		PricingID:  existing.ID,
		Price:      raw.Price,
		RRP:        raw.RRP,
		ObservedAt: raw.ObservedAt,
	}); err != nil {
		return 0, err
	}

	if raw.Price < previous {
		return existing.ProductID, nil
	}
	return 0, nil
}

// suggest parks the listing for manual review with its candidate ranking.
// Stored confidence is scaled to a [0,1] fraction.
func (e *Engine) suggest(ctx context.Context, tx service.Tx, raw model.RawRecord, scored []matcher.ScoredCandidate) error {
	suggestion := &model.Suggestion{
		RetailerID:   raw.RetailerID,
		RetailerCode: raw.RetailerCode,
		Barcode:      raw.Barcode,
		Name:         raw.Name,
		Brand:        raw.Brand,
		CategoryPath: raw.CategoryPath,
		PackSize:     raw.PackSize,
		Price:        raw.Price,
		RRP:          raw.RRP,
		ImageURL:     raw.ImageURL,
		ProductURL:   raw.ProductURL,
		ObservedAt:   raw.ObservedAt,
	}

	candidates := make([]model.MatchCandidate, 0, len(scored))
	for _, c := range scored {
		candidates = append(candidates, model.MatchCandidate{
			ProductID:  c.Product.ID,
			Confidence: c.Confidence / 100,
		})
	}

	return tx.UpsertSuggestion(ctx, suggestion, candidates)
}

// dispatchPriceDrop hands dropped-price product ids to the alerter. Dispatch
// is fire-and-forget: failures are logged and never fail the record.
func (e *Engine) dispatchPriceDrop(ctx context.Context, productIDs []int64) {
	if e.alerter == nil {
		return
	}
	if err := e.alerter.PriceDrop(ctx, productIDs); err != nil {
		common.LogError(err, "Price-drop dispatch failed", common.Fields{"product_ids": productIDs})
	}
}

func (e *Engine) buildCategoryIndex(ctx context.Context) (*category.Index, error) {
	categories, err := e.storage.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return category.NewIndex(categories), nil
}
