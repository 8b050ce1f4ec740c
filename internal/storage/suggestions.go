package storage

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/model"
)

// UpsertSuggestion writes (or overwrites) the holding-pen entry for an
// unmatched listing and replaces its candidate ranking wholesale. The
// (retailer_id, retailer_code) pair keys the suggestion.
func (s *SQLiteStorage) UpsertSuggestion(ctx context.Context, suggestion *model.Suggestion, candidates []model.MatchCandidate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if suggestion == nil {
		return fmt.Errorf("%w: suggestion", ErrNilParameter)
	}
	return s.upsertSuggestion(ctx, s.db, suggestion, candidates)
}

func (s *SQLiteStorage) upsertSuggestion(ctx context.Context, q queryer, suggestion *model.Suggestion, candidates []model.MatchCandidate) error {
	for _, c := range candidates {
		if c.Confidence < 0 || c.Confidence > 1 {
			return fmt.Errorf("candidate confidence %f out of range [0,1]", c.Confidence)
		}
	}

	err := q.QueryRowContext(ctx, `
		INSERT INTO suggestions (
			retailer_id, retailer_code, barcode, name, brand, category_path,
			pack_size, price, rrp, image_url, product_url, observed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(retailer_id, retailer_code) DO UPDATE SET
			barcode = excluded.barcode,
			name = excluded.name,
			brand = excluded.brand,
			category_path = excluded.category_path,
			pack_size = excluded.pack_size,
			price = excluded.price,
			rrp = excluded.rrp,
			image_url = excluded.image_url,
			product_url = excluded.product_url,
			observed_at = excluded.observed_at
		RETURNING id`,
		suggestion.RetailerID, suggestion.RetailerCode, suggestion.Barcode,
		suggestion.Name, suggestion.Brand, suggestion.CategoryPath,
		suggestion.PackSize, suggestion.Price, suggestion.RRP,
		suggestion.ImageURL, suggestion.ProductURL, suggestion.ObservedAt).
		Scan(&suggestion.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert suggestion: %w", err)
	}

	// replace the previous ranking for this suggestion
	if _, err := q.ExecContext(ctx,
		`DELETE FROM match_candidates WHERE suggestion_id = ?`, suggestion.ID); err != nil {
		return fmt.Errorf("failed to clear match candidates: %w", err)
	}

	for i := range candidates {
		c := &candidates[i]
		c.SuggestionID = suggestion.ID
		res, err := q.ExecContext(ctx, `
			INSERT INTO match_candidates (suggestion_id, product_id, confidence)
			VALUES (?, ?, ?)`,
			c.SuggestionID, c.ProductID, c.Confidence)
		if err != nil {
			return fmt.Errorf("failed to insert match candidate: %w", err)
		}
		if id, err := res.LastInsertId(); err == nil {
			c.ID = id
		}
	}
	return nil
}

// GetSuggestions lists held suggestions, most recently observed first.
func (s *SQLiteStorage) GetSuggestions(ctx context.Context, limit int) ([]model.Suggestion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	return s.getSuggestions(ctx, s.db, limit)
}

func (s *SQLiteStorage) getSuggestions(ctx context.Context, q queryer, limit int) ([]model.Suggestion, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, retailer_id, retailer_code, barcode, name, brand,
			category_path, pack_size, price, rrp, image_url, product_url,
			observed_at
		FROM suggestions
		ORDER BY observed_at DESC, id DESC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var suggestions []model.Suggestion
	for rows.Next() {
		var sg model.Suggestion
		err := rows.Scan(
			&sg.ID, &sg.RetailerID, &sg.RetailerCode, &sg.Barcode, &sg.Name,
			&sg.Brand, &sg.CategoryPath, &sg.PackSize, &sg.Price, &sg.RRP,
			&sg.ImageURL, &sg.ProductURL, &sg.ObservedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		suggestions = append(suggestions, sg)
	}
	return suggestions, rows.Err()
}

// GetMatchCandidates returns the ranked candidates for one suggestion,
// highest confidence first.
func (s *SQLiteStorage) GetMatchCandidates(ctx context.Context, suggestionID int64) ([]model.MatchCandidate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getMatchCandidates(ctx, s.db, suggestionID)
}

func (s *SQLiteStorage) getMatchCandidates(ctx context.Context, q queryer, suggestionID int64) ([]model.MatchCandidate, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, suggestion_id, product_id, confidence
		FROM match_candidates
		WHERE suggestion_id = ?
		ORDER BY confidence DESC, id`,
		suggestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []model.MatchCandidate
	for rows.Next() {
		var c model.MatchCandidate
		if err := rows.Scan(&c.ID, &c.SuggestionID, &c.ProductID, &c.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan match candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
