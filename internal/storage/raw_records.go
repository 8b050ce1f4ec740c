package storage

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/common"
	"github.com/shelfwatch/shelfwatch/internal/model"
)

const rawRecordColumns = `id, retailer_id, retailer_code, barcode, name, brand,
	category_path, pack_size, price, was_price, unit_price, offer_text,
	promo_type, product_url, image_url, rrp, available, observed_at, status,
	retry_count`

// SaveRawRecords inserts a batch of scraped records into the work queue.
func (s *SQLiteStorage) SaveRawRecords(ctx context.Context, records []model.RawRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRawRecords(records); err != nil {
		return err
	}
	return s.saveRawRecords(ctx, s.db, records)
}

func (s *SQLiteStorage) saveRawRecords(ctx context.Context, q queryer, records []model.RawRecord) error {
	const query = `
		INSERT INTO raw_records (
			retailer_id, retailer_code, barcode, name, brand, category_path,
			pack_size, price, was_price, unit_price, offer_text, promo_type,
			product_url, image_url, rrp, available, observed_at, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for i := range records {
		r := &records[i]
		res, err := q.ExecContext(ctx, query,
			r.RetailerID, r.RetailerCode, r.Barcode, r.Name, r.Brand,
			r.CategoryPath, r.PackSize, r.Price, r.WasPrice, r.UnitPrice,
			r.OfferText, r.PromoType, r.ProductURL, r.ImageURL, r.RRP,
			r.Available, r.ObservedAt, r.Status)
		if err != nil {
			return fmt.Errorf("failed to insert raw record: %w", err)
		}
		if id, err := res.LastInsertId(); err == nil {
			r.ID = id
		}
	}
	return nil
}

// GetPendingRawRecords fetches up to limit PENDING records, oldest first.
func (s *SQLiteStorage) GetPendingRawRecords(ctx context.Context, limit int, availableOnly bool) ([]model.RawRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	return s.getPendingRawRecords(ctx, s.db, limit, availableOnly)
}

func (s *SQLiteStorage) getPendingRawRecords(ctx context.Context, q queryer, limit int, availableOnly bool) ([]model.RawRecord, error) {
	query := `SELECT ` + rawRecordColumns + `
		FROM raw_records
		WHERE status = ?`
	args := []any{model.StatusPending}
	if availableOnly {
		query += ` AND available = 1`
	}
	query += ` ORDER BY id LIMIT ?`
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.RawRecord
	for rows.Next() {
		r, err := scanRawRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// SetRawRecordStatus stamps a record with its terminal (or requeued) status.
func (s *SQLiteStorage) SetRawRecordStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.setRawRecordStatus(ctx, s.db, id, status)
}

func (s *SQLiteStorage) setRawRecordStatus(ctx context.Context, q queryer, id int64, status model.RecordStatus) error {
	res, err := q.ExecContext(ctx,
		`UPDATE raw_records SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set record status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("raw record %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// RequeueFailedRecords transitions FAILED and LOOKUP_ERROR records back to
// PENDING, bounded by the per-record retry counter.
func (s *SQLiteStorage) RequeueFailedRecords(ctx context.Context, maxRetries int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.requeueFailedRecords(ctx, s.db, maxRetries)
}

func (s *SQLiteStorage) requeueFailedRecords(ctx context.Context, q queryer, maxRetries int) (int64, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE raw_records
		SET status = ?, retry_count = retry_count + 1
		WHERE status IN (?, ?) AND retry_count < ?`,
		model.StatusPending, model.StatusFailed, model.StatusLookupError, maxRetries)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count requeued records: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRawRecord(row rowScanner) (model.RawRecord, error) {
	var r model.RawRecord
	err := row.Scan(
		&r.ID, &r.RetailerID, &r.RetailerCode, &r.Barcode, &r.Name, &r.Brand,
		&r.CategoryPath, &r.PackSize, &r.Price, &r.WasPrice, &r.UnitPrice,
		&r.OfferText, &r.PromoType, &r.ProductURL, &r.ImageURL, &r.RRP,
		&r.Available, &r.ObservedAt, &r.Status, &r.RetryCount)
	if err != nil {
		return model.RawRecord{}, fmt.Errorf("failed to scan raw record: %w", err)
	}
	return r, nil
}
