package matcher

import (
	"testing"

	"github.com/shelfwatch/shelfwatch/internal/model"
	"github.com/stretchr/testify/assert"
)

func scoringProduct(name, a2cSize string, rrp float64) model.MasterProduct {
	return model.MasterProduct{Name: name, A2CSize: a2cSize, RRP: rrp}
}

func scoringRecord(name, packSize string, rrp float64) model.RawRecord {
	return model.RawRecord{Name: name, PackSize: packSize, RRP: rrp}
}

func TestScoreFullConfidence(t *testing.T) {
	candidate := scoringProduct("Crunchy Peanut Butter", "500 g", 5.50)
	raw := scoringRecord("Crunchy Peanut Butter", "500g", 5.50)

	assert.InDelta(t, 100.0, Score(candidate, raw), 1e-9)
}

func TestScoreEquivalentPackSpelling(t *testing.T) {
	// 0.5kg and 500g are the same quantity
	candidate := scoringProduct("Crunchy Peanut Butter", "500 g", 5.50)
	raw := scoringRecord("Crunchy Peanut Butter", "0.5kg", 5.50)

	assert.InDelta(t, 100.0, Score(candidate, raw), 1e-9)
}

func TestScorePartialSignals(t *testing.T) {
	candidate := scoringProduct("Crunchy Peanut Butter", "500 g", 5.50)

	// One failed signal caps the score below 100
	tests := []struct {
		name string
		raw  model.RawRecord
	}{
		{"rrp outside tolerance", scoringRecord("Crunchy Peanut Butter", "500g", 9.99)},
		{"different pack size", scoringRecord("Crunchy Peanut Butter", "1kg", 5.50)},
		{"different name", scoringRecord("Smooth Almond Spread", "500g", 5.50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(candidate, tt.raw)
			assert.Less(t, score, 100.0)
			assert.GreaterOrEqual(t, score, 0.0)
		})
	}

	// With RRP and name maxed but the wrong pack, name contributes its full
	// 20 points and the total lands at exactly 60
	wrongPack := scoringRecord("Crunchy Peanut Butter", "1kg", 5.50)
	assert.InDelta(t, 60.0, Score(candidate, wrongPack), 1e-9)
}

func TestScoreRRPTolerance(t *testing.T) {
	candidate := scoringProduct("Crunchy Peanut Butter", "500 g", 10.00)

	// within 5%
	within := scoringRecord("Crunchy Peanut Butter", "500g", 10.49)
	assert.InDelta(t, 100.0, Score(candidate, within), 1e-9)

	// just outside 5%
	outside := scoringRecord("Crunchy Peanut Butter", "500g", 10.51)
	assert.Less(t, Score(candidate, outside), 100.0)
}

func TestRankCandidatesTopThree(t *testing.T) {
	raw := scoringRecord("Crunchy Peanut Butter 500g", "500g", 5.50)
	products := []model.MasterProduct{
		{ID: 1, Name: "Dishwashing Liquid", A2CSize: "1 l"},
		{ID: 2, Name: "Crunchy Peanut Butter 500g", A2CSize: "500 g"},
		{ID: 3, Name: "Smooth Peanut Butter 500g", A2CSize: "500 g"},
		{ID: 4, Name: "Crunchy Peanut Butter 1kg", A2CSize: "1 kg"},
		{ID: 5, Name: "Cat Litter 10kg", A2CSize: "10 kg"},
	}

	ranked := rankCandidates(products, raw)

	assert.Len(t, ranked, maxCandidates)
	assert.Equal(t, int64(2), ranked[0].ID)
	for _, p := range ranked {
		assert.NotEqual(t, int64(1), p.ID, "unrelated product should not rank")
	}
}

func TestRankCandidatesPackSizeTiebreak(t *testing.T) {
	raw := scoringRecord("Corn Chips", "200g", 3.00)
	products := []model.MasterProduct{
		{ID: 1, Name: "Corn Chips", A2CSize: "400 g"},
		{ID: 2, Name: "Corn Chips", A2CSize: "200 g"},
	}

	ranked := rankCandidates(products, raw)

	// equal name similarity, pack-size equivalence decides
	assert.Equal(t, int64(2), ranked[0].ID)
}
