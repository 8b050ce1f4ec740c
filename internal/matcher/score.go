package matcher

import (
	"math"
	"sort"

	"github.com/shelfwatch/shelfwatch/internal/model"
	"github.com/shelfwatch/shelfwatch/internal/packsize"
)

// Confidence weights. RRP proximity and pack-size equivalence carry most of
// the signal; name similarity breaks ties.
const (
	rrpWeight      = 0.4
	packSizeWeight = 0.4
	nameWeight     = 0.2

	rrpTolerance = 0.05

	maxCandidates = 3
)

// ScoredCandidate pairs a catalog product with its match confidence on the
// 0-100 scale.
type ScoredCandidate struct {
	Product    model.MasterProduct
	Confidence float64
}

// Score computes the weighted match confidence between a catalog product and
// a raw listing, in [0,100]. The score reaches exactly 100 only when the RRP
// is within tolerance, the pack sizes are equivalent, and the names are
// identical after normalization.
func Score(candidate model.MasterProduct, raw model.RawRecord) float64 {
	var rrpScore, packScore float64

	if math.Abs(candidate.RRP-raw.RRP) <= rrpTolerance*candidate.RRP {
		rrpScore = 100
	}
	if packsize.Equivalent(candidate.A2CSize, raw.PackSize) {
		packScore = 100
	}
	nameScore := Similarity(candidate.Name, raw.Name) * 100

	return rrpWeight*rrpScore + packSizeWeight*packScore + nameWeight*nameScore
}

// rankCandidates orders same-brand products by name similarity with
// pack-size equivalence as the tiebreak, and keeps the top few for scoring.
func rankCandidates(products []model.MasterProduct, raw model.RawRecord) []model.MasterProduct {
	type ranked struct {
		product model.MasterProduct
		nameSim float64
		packEq  bool
	}

	rankings := make([]ranked, 0, len(products))
	for _, p := range products {
		rankings = append(rankings, ranked{
			product: p,
			nameSim: Similarity(p.Name, raw.Name),
			packEq:  packsize.Equivalent(p.A2CSize, raw.PackSize),
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		if rankings[i].nameSim != rankings[j].nameSim {
			return rankings[i].nameSim > rankings[j].nameSim
		}
		return rankings[i].packEq && !rankings[j].packEq
	})

	limit := len(rankings)
	if limit > maxCandidates {
		limit = maxCandidates
	}

	out := make([]model.MasterProduct, 0, limit)
	for _, r := range rankings[:limit] {
		out = append(out, r.product)
	}
	return out
}
