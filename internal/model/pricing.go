package model

import "time"

// RetailerPricing is the price a specific retailer currently charges, under
// its own product code, for a master product. Unique on
// (barcode, retailer_id, retailer_code).
type RetailerPricing struct {
	UpdatedAt    time.Time
	Barcode      string
	RetailerCode string
	UnitPrice    string
	OfferText    string
	PromoType    string
	ProductURL   string
	ID           int64
	ProductID    int64
	RetailerID   int64
	CurrentPrice float64
	WasPrice     float64
	Available    bool
}

// PricePoint is one append-only price history row. PricePoint rows are never
// updated or deleted; each observation that creates or changes a
// RetailerPricing row produces exactly one PricePoint.
type PricePoint struct {
	ObservedAt time.Time
	ID         int64
	PricingID  int64
	Price      float64
	RRP        float64
}
