package model

import "time"

// Suggestion is a holding-pen entry for a raw listing that could not be
// confidently matched. Keyed uniquely per (retailer_id, retailer_code) and
// overwritten on repeated sightings of the same unmatched listing.
type Suggestion struct {
	ObservedAt   time.Time
	RetailerCode string
	Barcode      string
	Name         string
	Brand        string
	CategoryPath string
	PackSize     string
	ImageURL     string
	ProductURL   string
	ID           int64
	RetailerID   int64
	Price        float64
	RRP          float64
}

// MatchCandidate links a Suggestion to a ranked MasterProduct candidate for
// human review. Confidence is stored as a fraction in [0,1].
type MatchCandidate struct {
	ID           int64
	SuggestionID int64
	ProductID    int64
	Confidence   float64
}
