package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/model"
	"github.com/shelfwatch/shelfwatch/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decisionHarness is a migrated store pre-loaded with one cataloged,
// priced product: Nutco Crunchy Peanut Butter 500g, barcode 123456789,
// priced by retailer 1 under SKU-1.
type decisionHarness struct {
	store   *storage.SQLiteStorage
	product *model.MasterProduct
	pricing *model.RetailerPricing
}

func newDecisionHarness(t *testing.T) *decisionHarness {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))

	brand, err := store.GetOrCreateBrand(ctx, "Nutco")
	require.NoError(t, err)

	categories, err := store.GetCategories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, categories)

	size := 500.0
	product := &model.MasterProduct{
		Barcode:    "123456789",
		Name:       "Crunchy Peanut Butter",
		BrandID:    brand.ID,
		CategoryID: categories[0].ID,
		Size:       &size,
		Unit:       "g",
		A2CSize:    "500 g",
		RRP:        5.50,
	}
	require.NoError(t, store.CreateMasterProduct(ctx, product))

	pricing := &model.RetailerPricing{
		ProductID:    product.ID,
		Barcode:      product.Barcode,
		RetailerID:   1,
		RetailerCode: "SKU-1",
		CurrentPrice: 5.00,
		Available:    true,
	}
	require.NoError(t, store.CreateRetailerPricing(ctx, pricing))

	return &decisionHarness{store: store, product: product, pricing: pricing}
}

func (h *decisionHarness) record(retailerID int64, code, barcode string) model.RawRecord {
	return model.RawRecord{
		RetailerID:   retailerID,
		RetailerCode: code,
		Barcode:      barcode,
		Name:         "Crunchy Peanut Butter",
		Brand:        "Nutco",
		PackSize:     "500g",
		Price:        4.50,
		RRP:          5.50,
		Available:    true,
		ObservedAt:   time.Now().UTC(),
	}
}

func TestDecideRejectsMissingBrand(t *testing.T) {
	h := newDecisionHarness(t)
	ctx := context.Background()

	raw := h.record(1, "SKU-1", "123456789")
	raw.Brand = "   "

	decision, err := Decide(ctx, h.store, raw)
	require.NoError(t, err)
	assert.Equal(t, KindRejected, decision.Kind)
}

func TestDecideReobservation(t *testing.T) {
	h := newDecisionHarness(t)
	ctx := context.Background()

	decision, err := Decide(ctx, h.store, h.record(1, "SKU-1", "123456789"))
	require.NoError(t, err)
	assert.Equal(t, KindReobservation, decision.Kind)
	require.NotNil(t, decision.Existing)
	assert.Equal(t, h.pricing.ID, decision.Existing.ID)
}

func TestDecideReobservationLeadingZeros(t *testing.T) {
	h := newDecisionHarness(t)
	ctx := context.Background()

	// Same listing, barcode with extra leading zeros
	decision, err := Decide(ctx, h.store, h.record(1, "SKU-1", "000123456789"))
	require.NoError(t, err)
	assert.Equal(t, KindReobservation, decision.Kind)
}

func TestDecideKnownProductNewRetailer(t *testing.T) {
	h := newDecisionHarness(t)
	ctx := context.Background()

	// Retailer 2 lists the same barcode under its own code
	decision, err := Decide(ctx, h.store, h.record(2, "B-77", "123456789"))
	require.NoError(t, err)
	assert.Equal(t, KindKnownProduct, decision.Kind)
	assert.Equal(t, h.product.ID, decision.ProductID)
}

func TestDecideNewProduct(t *testing.T) {
	h := newDecisionHarness(t)
	ctx := context.Background()

	raw := h.record(1, "SKU-9", "987654321")
	raw.Name = "Completely New Thing"

	decision, err := Decide(ctx, h.store, raw)
	require.NoError(t, err)
	assert.Equal(t, KindNewProduct, decision.Kind)
}

func TestDecideFuzzyMatch(t *testing.T) {
	h := newDecisionHarness(t)
	ctx := context.Background()

	// Barcodeless listing identical to the cataloged product
	raw := h.record(2, "B-77", "")

	decision, err := Decide(ctx, h.store, raw)
	require.NoError(t, err)
	assert.Equal(t, KindFuzzyMatch, decision.Kind)
	assert.Equal(t, h.product.ID, decision.ProductID)
}

func TestDecideSuggestOnAmbiguity(t *testing.T) {
	h := newDecisionHarness(t)
	ctx := context.Background()

	// Same brand, but the pack size disagrees; no candidate reaches full
	// confidence
	raw := h.record(2, "B-77", "")
	raw.PackSize = "1kg"

	decision, err := Decide(ctx, h.store, raw)
	require.NoError(t, err)
	assert.Equal(t, KindSuggest, decision.Kind)
	require.NotEmpty(t, decision.Candidates)
	assert.LessOrEqual(t, len(decision.Candidates), 3)
	assert.Equal(t, h.product.ID, decision.Candidates[0].Product.ID)
	assert.Less(t, decision.Candidates[0].Confidence, 100.0)
}

func TestDecideSuggestUnknownBrand(t *testing.T) {
	h := newDecisionHarness(t)
	ctx := context.Background()

	raw := h.record(2, "B-77", "")
	raw.Brand = "Never Seen Brand"

	decision, err := Decide(ctx, h.store, raw)
	require.NoError(t, err)
	assert.Equal(t, KindSuggest, decision.Kind)
	assert.Empty(t, decision.Candidates)
}

func TestDecideExactSkipsFuzzyTier(t *testing.T) {
	h := newDecisionHarness(t)
	ctx := context.Background()

	// Exact-tier decisions still work
	decision, err := DecideExact(ctx, h.store, h.record(1, "SKU-1", "123456789"))
	require.NoError(t, err)
	assert.Equal(t, KindReobservation, decision.Kind)

	// The ambiguous case comes back unmatched instead of scored
	raw := h.record(2, "B-77", "")
	decision, err = DecideExact(ctx, h.store, raw)
	require.NoError(t, err)
	assert.Equal(t, KindUnmatched, decision.Kind)
	assert.Empty(t, decision.Candidates)
}
