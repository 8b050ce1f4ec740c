package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/common"
	"github.com/shelfwatch/shelfwatch/internal/model"
)

const pricingColumns = `id, product_id, barcode, retailer_id, retailer_code,
	current_price, was_price, unit_price, offer_text, promo_type, product_url,
	available, updated_at`

// GetPricingByBarcode returns every pricing row sharing the barcode,
// insensitive to leading zeros on either side.
func (s *SQLiteStorage) GetPricingByBarcode(ctx context.Context, barcode string) ([]model.RetailerPricing, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(barcode, "barcode"); err != nil {
		return nil, err
	}
	return s.getPricingByBarcode(ctx, s.db, barcode)
}

func (s *SQLiteStorage) getPricingByBarcode(ctx context.Context, q queryer, barcode string) ([]model.RetailerPricing, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+pricingColumns+`
		FROM retailer_pricing
		WHERE barcode != '' AND ltrim(barcode, '0') = ltrim(?, '0')
		ORDER BY id`,
		strings.TrimSpace(barcode))
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing by barcode: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectPricing(rows)
}

// GetPricingByRetailerCode returns the single pricing row registered for a
// retailer+code pairing, or ErrNotFound.
func (s *SQLiteStorage) GetPricingByRetailerCode(ctx context.Context, retailerID int64, retailerCode string) (*model.RetailerPricing, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(retailerCode, "retailerCode"); err != nil {
		return nil, err
	}
	return s.getPricingByRetailerCode(ctx, s.db, retailerID, retailerCode)
}

func (s *SQLiteStorage) getPricingByRetailerCode(ctx context.Context, q queryer, retailerID int64, retailerCode string) (*model.RetailerPricing, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+pricingColumns+`
		FROM retailer_pricing
		WHERE retailer_id = ? AND retailer_code = ?`,
		retailerID, retailerCode)

	pricing, err := scanPricing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pricing for retailer %d code %q: %w",
				retailerID, retailerCode, common.ErrNotFound)
		}
		return nil, err
	}
	return pricing, nil
}

// GetPricingByProduct returns every retailer's pricing row for a master
// product.
func (s *SQLiteStorage) GetPricingByProduct(ctx context.Context, productID int64) ([]model.RetailerPricing, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getPricingByProduct(ctx, s.db, productID)
}

func (s *SQLiteStorage) getPricingByProduct(ctx context.Context, q queryer, productID int64) ([]model.RetailerPricing, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+pricingColumns+`
		FROM retailer_pricing
		WHERE product_id = ?
		ORDER BY id`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing by product: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectPricing(rows)
}

// CreateRetailerPricing inserts a new per-retailer price record.
func (s *SQLiteStorage) CreateRetailerPricing(ctx context.Context, pricing *model.RetailerPricing) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePricing(pricing); err != nil {
		return err
	}
	return s.createRetailerPricing(ctx, s.db, pricing)
}

func (s *SQLiteStorage) createRetailerPricing(ctx context.Context, q queryer, pricing *model.RetailerPricing) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO retailer_pricing (
			product_id, barcode, retailer_id, retailer_code, current_price,
			was_price, unit_price, offer_text, promo_type, product_url,
			available, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pricing.ProductID, pricing.Barcode, pricing.RetailerID,
		pricing.RetailerCode, pricing.CurrentPrice, pricing.WasPrice,
		pricing.UnitPrice, pricing.OfferText, pricing.PromoType,
		pricing.ProductURL, pricing.Available, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("pricing for retailer %d code %q: %w",
				pricing.RetailerID, pricing.RetailerCode, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create retailer pricing: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new pricing id: %w", err)
	}
	pricing.ID = id
	return nil
}

// UpdateRetailerPricing rewrites the mutable price fields of an existing
// row. The append-only price history is untouched; callers append a
// PricePoint separately.
func (s *SQLiteStorage) UpdateRetailerPricing(ctx context.Context, pricing *model.RetailerPricing) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePricing(pricing); err != nil {
		return err
	}
	return s.updateRetailerPricing(ctx, s.db, pricing)
}

func (s *SQLiteStorage) updateRetailerPricing(ctx context.Context, q queryer, pricing *model.RetailerPricing) error {
	res, err := q.ExecContext(ctx, `
		UPDATE retailer_pricing
		SET current_price = ?, was_price = ?, unit_price = ?, offer_text = ?,
			promo_type = ?, product_url = ?, available = ?, updated_at = ?
		WHERE id = ?`,
		pricing.CurrentPrice, pricing.WasPrice, pricing.UnitPrice,
		pricing.OfferText, pricing.PromoType, pricing.ProductURL,
		pricing.Available, time.Now().UTC(), pricing.ID)
	if err != nil {
		return fmt.Errorf("failed to update retailer pricing: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("retailer pricing %d: %w", pricing.ID, common.ErrNotFound)
	}
	return nil
}

func collectPricing(rows *sql.Rows) ([]model.RetailerPricing, error) {
	var out []model.RetailerPricing
	for rows.Next() {
		pricing, err := scanPricing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *pricing)
	}
	return out, rows.Err()
}

func scanPricing(row rowScanner) (*model.RetailerPricing, error) {
	var p model.RetailerPricing
	err := row.Scan(
		&p.ID, &p.ProductID, &p.Barcode, &p.RetailerID, &p.RetailerCode,
		&p.CurrentPrice, &p.WasPrice, &p.UnitPrice, &p.OfferText,
		&p.PromoType, &p.ProductURL, &p.Available, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan retailer pricing: %w", err)
	}
	return &p, nil
}
