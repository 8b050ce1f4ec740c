package matcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shelfwatch/shelfwatch/internal/common"
	"github.com/shelfwatch/shelfwatch/internal/model"
	"github.com/shelfwatch/shelfwatch/internal/service"
)

// Kind tags the match decision variants. The engine dispatches with one case
// per variant.
type Kind int

const (
	// KindRejected marks a record with no brand name; nothing is looked up.
	KindRejected Kind = iota
	// KindNewProduct marks a barcoded listing with no catalog presence.
	KindNewProduct
	// KindReobservation marks a listing already priced by this retailer+code.
	KindReobservation
	// KindKnownProduct marks a product known under another retailer or code.
	KindKnownProduct
	// KindFuzzyMatch marks a barcodeless listing that scored a full-confidence candidate.
	KindFuzzyMatch
	// KindSuggest marks an ambiguous listing held for manual review.
	KindSuggest
	// KindUnmatched marks a listing the exact tier alone cannot place; only
	// DecideExact produces it.
	KindUnmatched
)

// String returns the variant name for logging.
func (k Kind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindNewProduct:
		return "new_product"
	case KindReobservation:
		return "reobservation"
	case KindKnownProduct:
		return "known_product"
	case KindFuzzyMatch:
		return "fuzzy_match"
	case KindSuggest:
		return "suggest"
	case KindUnmatched:
		return "unmatched"
	default:
		return "unknown"
	}
}

// Decision carries the variant plus the data its mutation needs.
type Decision struct {
	Existing   *model.RetailerPricing // reobservation target
	Candidates []ScoredCandidate      // suggest path, ranked
	Kind       Kind
	ProductID  int64 // known-product and fuzzy-match target
}

// Decide runs the three-tier decision procedure for one raw record against
// the store. Reads only; the engine applies the resulting mutation.
func Decide(ctx context.Context, store service.Storage, raw model.RawRecord) (Decision, error) {
	if strings.TrimSpace(raw.Brand) == "" {
		return Decision{Kind: KindRejected}, nil
	}

	rows, err := existingPricing(ctx, store, raw)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", common.ErrLookupFailed, err)
	}

	if len(rows) > 0 {
		for i := range rows {
			if rows[i].RetailerID == raw.RetailerID && rows[i].RetailerCode == raw.RetailerCode {
				return Decision{Kind: KindReobservation, Existing: &rows[i]}, nil
			}
		}
		// same product, previously unseen retailer/code pairing
		return Decision{Kind: KindKnownProduct, ProductID: rows[0].ProductID}, nil
	}

	if strings.TrimSpace(raw.Barcode) != "" {
		return Decision{Kind: KindNewProduct}, nil
	}

	// cold, ambiguous case: no barcode and no catalog presence
	products, err := store.GetMasterProductsByBrand(ctx, raw.Brand)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", common.ErrLookupFailed, err)
	}

	candidates := make([]ScoredCandidate, 0, maxCandidates)
	for _, p := range rankCandidates(products, raw) {
		candidates = append(candidates, ScoredCandidate{Product: p, Confidence: Score(p, raw)})
	}

	for _, c := range candidates {
		if c.Confidence >= 100 {
			return Decision{Kind: KindFuzzyMatch, ProductID: c.Product.ID}, nil
		}
	}

	return Decision{Kind: KindSuggest, Candidates: candidates}, nil
}

// DecideExact runs only the exact tier of the decision procedure: barcode
// and known retailer+code matching, with no fuzzy candidates and no
// suggestions. The bulk loader uses it; listings the exact tier cannot place
// come back as KindUnmatched.
func DecideExact(ctx context.Context, store service.Storage, raw model.RawRecord) (Decision, error) {
	if strings.TrimSpace(raw.Brand) == "" {
		return Decision{Kind: KindRejected}, nil
	}

	rows, err := existingPricing(ctx, store, raw)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", common.ErrLookupFailed, err)
	}

	if len(rows) > 0 {
		for i := range rows {
			if rows[i].RetailerID == raw.RetailerID && rows[i].RetailerCode == raw.RetailerCode {
				return Decision{Kind: KindReobservation, Existing: &rows[i]}, nil
			}
		}
		return Decision{Kind: KindKnownProduct, ProductID: rows[0].ProductID}, nil
	}

	if strings.TrimSpace(raw.Barcode) != "" {
		return Decision{Kind: KindNewProduct}, nil
	}

	return Decision{Kind: KindUnmatched}, nil
}

// existingPricing gathers the pricing rows the raw record could belong to:
// by barcode when present (ignoring leading zeros), otherwise via the row
// already registered for this retailer+code.
func existingPricing(ctx context.Context, store service.Storage, raw model.RawRecord) ([]model.RetailerPricing, error) {
	if strings.TrimSpace(raw.Barcode) != "" {
		return store.GetPricingByBarcode(ctx, raw.Barcode)
	}

	own, err := store.GetPricingByRetailerCode(ctx, raw.RetailerID, raw.RetailerCode)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return store.GetPricingByProduct(ctx, own.ProductID)
}
