package model

import "time"

// MasterProduct is the canonical, retailer-independent catalog entry for a
// physical product. Created once per distinct product; never deleted by the
// pipeline.
type MasterProduct struct {
	CreatedAt     time.Time
	Barcode       string
	Name          string
	Unit          string
	Configuration string
	A2CSize       string
	ImageURL      string
	Size          *float64
	ID            int64
	BrandID       int64
	CategoryID    int64
	RRP           float64
}

// Brand is a reference row resolved by normalized name. Rows are created on
// first sighting of an unseen brand name.
type Brand struct {
	Name string
	ID   int64
}

// Category is a node in the self-referential category tree. The root "Home"
// category has a nil parent.
type Category struct {
	Name     string
	ParentID *int64
	ID       int64
}
