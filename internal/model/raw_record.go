// Package model defines the core data types shared across the reconciliation pipeline.
package model

import "time"

// RecordStatus tracks a raw record through the work queue.
type RecordStatus int

const (
	// StatusPending marks a record awaiting reconciliation.
	StatusPending RecordStatus = 0
	// StatusProcessed marks a record that completed reconciliation.
	StatusProcessed RecordStatus = 1
	// StatusFailed marks a record that hit a mutation error.
	StatusFailed RecordStatus = 2
	// StatusMissingBrand marks a record rejected for lacking a brand name.
	StatusMissingBrand RecordStatus = 3
	// StatusLookupError marks a record whose pricing lookup failed.
	StatusLookupError RecordStatus = 4
)

// String returns a human-readable status name.
func (s RecordStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessed:
		return "processed"
	case StatusFailed:
		return "failed"
	case StatusMissingBrand:
		return "missing_brand"
	case StatusLookupError:
		return "lookup_error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends the record's lifecycle.
func (s RecordStatus) Terminal() bool {
	return s != StatusPending
}

// RawRecord is one scraped retailer product listing awaiting reconciliation.
type RawRecord struct {
	ObservedAt   time.Time    `json:"observed_at"`
	RetailerCode string       `json:"retailer_code"`
	Barcode      string       `json:"barcode"`
	Name         string       `json:"name"`
	Brand        string       `json:"brand"`
	CategoryPath string       `json:"category_path"`
	PackSize     string       `json:"pack_size"`
	UnitPrice    string       `json:"unit_price"`
	OfferText    string       `json:"offer_text"`
	PromoType    string       `json:"promo_type"`
	ProductURL   string       `json:"product_url"`
	ImageURL     string       `json:"image_url"`
	ID           int64        `json:"id"`
	RetailerID   int64        `json:"retailer_id"`
	Price        float64      `json:"price"`
	WasPrice     float64      `json:"was_price"`
	RRP          float64      `json:"rrp"`
	RetryCount   int          `json:"retry_count"`
	Status       RecordStatus `json:"status"`
	Available    bool         `json:"available"`
}
