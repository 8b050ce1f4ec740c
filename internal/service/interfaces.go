// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/model"
)

// Storage defines the contract for the catalog/pricing persistence layer.
type Storage interface {
	// Work queue operations
	SaveRawRecords(ctx context.Context, records []model.RawRecord) error
	GetPendingRawRecords(ctx context.Context, limit int, availableOnly bool) ([]model.RawRecord, error)
	SetRawRecordStatus(ctx context.Context, id int64, status model.RecordStatus) error
	RequeueFailedRecords(ctx context.Context, maxRetries int) (int64, error)

	// Reference data
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetOrCreateBrand(ctx context.Context, name string) (*model.Brand, error)

	// Catalog operations
	CreateMasterProduct(ctx context.Context, product *model.MasterProduct) error
	GetMasterProduct(ctx context.Context, id int64) (*model.MasterProduct, error)
	GetMasterProductsByBrand(ctx context.Context, brandName string) ([]model.MasterProduct, error)

	// Retailer pricing operations
	GetPricingByBarcode(ctx context.Context, barcode string) ([]model.RetailerPricing, error)
	GetPricingByRetailerCode(ctx context.Context, retailerID int64, retailerCode string) (*model.RetailerPricing, error)
	GetPricingByProduct(ctx context.Context, productID int64) ([]model.RetailerPricing, error)
	CreateRetailerPricing(ctx context.Context, pricing *model.RetailerPricing) error
	UpdateRetailerPricing(ctx context.Context, pricing *model.RetailerPricing) error

	// Price ledger (append-only)
	AppendPricePoint(ctx context.Context, point *model.PricePoint) error

	// Suggestion operations
	UpsertSuggestion(ctx context.Context, suggestion *model.Suggestion, candidates []model.MatchCandidate) error
	GetSuggestions(ctx context.Context, limit int) ([]model.Suggestion, error)
	GetMatchCandidates(ctx context.Context, suggestionID int64) ([]model.MatchCandidate, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx represents a database transaction. All Storage operations invoked on a
// Tx share the transaction and become visible together on Commit.
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// PriceAlerter dispatches price-drop notifications for the given master
// product ids. Dispatch is fire-and-forget from the pipeline's perspective:
// failures must never fail the record that triggered them.
type PriceAlerter interface {
	PriceDrop(ctx context.Context, productIDs []int64) error
}

// Summary reports the outcome of a reconciliation run.
type Summary struct {
	FailedIDs []int64
	Processed int
	Failed    int
	Duration  time.Duration
}
