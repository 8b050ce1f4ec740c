package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/model"
)

// AppendPricePoint inserts one immutable price observation. The table is
// append-only: no update or delete statement exists anywhere in this
// package for price_history.
func (s *SQLiteStorage) AppendPricePoint(ctx context.Context, point *model.PricePoint) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if point == nil {
		return fmt.Errorf("%w: point", ErrNilParameter)
	}
	return s.appendPricePoint(ctx, s.db, point)
}

func (s *SQLiteStorage) appendPricePoint(ctx context.Context, q queryer, point *model.PricePoint) error {
	if point.PricingID == 0 {
		return fmt.Errorf("price point requires a pricing id")
	}
	observed := point.ObservedAt
	if observed.IsZero() {
		observed = time.Now().UTC()
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO price_history (pricing_id, price, rrp, observed_at)
		VALUES (?, ?, ?, ?)`,
		point.PricingID, point.Price, point.RRP, observed)
	if err != nil {
		return fmt.Errorf("failed to append price point: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new price point id: %w", err)
	}
	point.ID = id
	point.ObservedAt = observed
	return nil
}

// GetPriceHistory returns the ledger for one pricing row, oldest first.
func (s *SQLiteStorage) GetPriceHistory(ctx context.Context, pricingID int64) ([]model.PricePoint, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pricing_id, price, rrp, observed_at
		FROM price_history
		WHERE pricing_id = ?
		ORDER BY observed_at, id`,
		pricingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []model.PricePoint
	for rows.Next() {
		var p model.PricePoint
		if err := rows.Scan(&p.ID, &p.PricingID, &p.Price, &p.RRP, &p.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
