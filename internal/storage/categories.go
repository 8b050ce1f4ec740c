package storage

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/model"
)

// GetCategories returns the full category table, used to build the
// resolution index once per run.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCategories(ctx, s.db)
}

func (s *SQLiteStorage) getCategories(ctx context.Context, q queryer) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, parent_id FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
