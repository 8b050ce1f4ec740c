package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shelfwatch/shelfwatch/internal/common"
	"github.com/shelfwatch/shelfwatch/internal/model"
)

const masterProductColumns = `id, barcode, name, brand_id, category_id, size,
	unit, configuration, a2c_size, rrp, image_url, created_at`

// CreateMasterProduct inserts a new canonical catalog entry.
func (s *SQLiteStorage) CreateMasterProduct(ctx context.Context, product *model.MasterProduct) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("%w: product", ErrNilParameter)
	}
	return s.createMasterProduct(ctx, s.db, product)
}

func (s *SQLiteStorage) createMasterProduct(ctx context.Context, q queryer, product *model.MasterProduct) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO master_products (
			barcode, name, brand_id, category_id, size, unit, configuration,
			a2c_size, rrp, image_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.Barcode, product.Name, product.BrandID, product.CategoryID,
		product.Size, product.Unit, product.Configuration, product.A2CSize,
		product.RRP, product.ImageURL)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("master product barcode %q: %w", product.Barcode, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create master product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new product id: %w", err)
	}
	product.ID = id
	return nil
}

// GetMasterProduct fetches a catalog entry by id.
func (s *SQLiteStorage) GetMasterProduct(ctx context.Context, id int64) (*model.MasterProduct, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getMasterProduct(ctx, s.db, id)
}

func (s *SQLiteStorage) getMasterProduct(ctx context.Context, q queryer, id int64) (*model.MasterProduct, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+masterProductColumns+` FROM master_products WHERE id = ?`, id)

	product, err := scanMasterProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("master product %d: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	return product, nil
}

// GetMasterProductsByBrand returns every catalog entry under the named
// brand, matched case-insensitively. The matcher ranks and trims the result.
func (s *SQLiteStorage) GetMasterProductsByBrand(ctx context.Context, brandName string) ([]model.MasterProduct, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(brandName, "brandName"); err != nil {
		return nil, err
	}
	return s.getMasterProductsByBrand(ctx, s.db, brandName)
}

func (s *SQLiteStorage) getMasterProductsByBrand(ctx context.Context, q queryer, brandName string) ([]model.MasterProduct, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+prefixColumns("p", masterProductColumns)+`
		FROM master_products p
		JOIN brands b ON b.id = p.brand_id
		WHERE b.name = ? COLLATE NOCASE
		ORDER BY p.id`,
		strings.TrimSpace(brandName))
	if err != nil {
		return nil, fmt.Errorf("failed to query products by brand: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []model.MasterProduct
	for rows.Next() {
		product, err := scanMasterProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, rows.Err()
}

func scanMasterProduct(row rowScanner) (*model.MasterProduct, error) {
	var p model.MasterProduct
	err := row.Scan(
		&p.ID, &p.Barcode, &p.Name, &p.BrandID, &p.CategoryID, &p.Size,
		&p.Unit, &p.Configuration, &p.A2CSize, &p.RRP, &p.ImageURL,
		&p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan master product: %w", err)
	}
	return &p, nil
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

// isUniqueViolation reports whether the error is a SQLite unique-constraint
// failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
