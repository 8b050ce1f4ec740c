package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shelfwatch/shelfwatch/internal/model"
)

// GetOrCreateBrand resolves a brand name to its row, creating one on first
// sighting. Lookup is case-insensitive and backed by a small in-process
// cache since dumps revisit the same handful of brands constantly.
func (s *SQLiteStorage) GetOrCreateBrand(ctx context.Context, name string) (*model.Brand, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	if cached := s.getCachedBrand(name); cached != nil {
		return cached, nil
	}

	brand, err := s.getOrCreateBrand(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	s.cacheBrand(brand)
	return brand, nil
}

func (s *SQLiteStorage) getOrCreateBrand(ctx context.Context, q queryer, name string) (*model.Brand, error) {
	name = strings.TrimSpace(name)

	var brand model.Brand
	err := q.QueryRowContext(ctx,
		`SELECT id, name FROM brands WHERE name = ? COLLATE NOCASE`, name).
		Scan(&brand.ID, &brand.Name)
	if err == nil {
		return &brand, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up brand: %w", err)
	}

	res, err := q.ExecContext(ctx, `INSERT INTO brands (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create brand: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new brand id: %w", err)
	}

	return &model.Brand{ID: id, Name: name}, nil
}

func (s *SQLiteStorage) getCachedBrand(name string) *model.Brand {
	s.cacheMutex.RLock()
	defer s.cacheMutex.RUnlock()
	return s.brandCache[strings.ToLower(strings.TrimSpace(name))]
}

func (s *SQLiteStorage) cacheBrand(brand *model.Brand) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	s.brandCache[strings.ToLower(brand.Name)] = brand
}
