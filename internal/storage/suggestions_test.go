package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/model"
)

func testSuggestion(retailerID int64, code string) *model.Suggestion {
	return &model.Suggestion{
		RetailerID:   retailerID,
		RetailerCode: code,
		Name:         "Mystery Snack 200g",
		Brand:        "Snackco",
		PackSize:     "200g",
		Price:        2.50,
		RRP:          3.00,
		ObservedAt:   time.Now().UTC(),
	}
}

func TestSQLiteStorage_UpsertSuggestionOverwrites(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	p1 := createTestProduct(t, store, "Snackco", "Corn Chips 200g", "111")
	p2 := createTestProduct(t, store, "Snackco", "Potato Chips 200g", "222")

	suggestion := testSuggestion(1, "SKU-9")
	candidates := []model.MatchCandidate{
		{ProductID: p1.ID, Confidence: 0.82},
		{ProductID: p2.ID, Confidence: 0.61},
	}
	if err := store.UpsertSuggestion(ctx, suggestion, candidates); err != nil {
		t.Fatalf("Failed to upsert suggestion: %v", err)
	}
	firstID := suggestion.ID

	// Second sighting of the same listing replaces, never duplicates
	again := testSuggestion(1, "SKU-9")
	again.Price = 2.25
	newCandidates := []model.MatchCandidate{
		{ProductID: p2.ID, Confidence: 0.90},
	}
	if err := store.UpsertSuggestion(ctx, again, newCandidates); err != nil {
		t.Fatalf("Failed to re-upsert suggestion: %v", err)
	}
	if again.ID != firstID {
		t.Errorf("Re-upsert created new row %d, want %d", again.ID, firstID)
	}

	suggestions, err := store.GetSuggestions(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to list suggestions: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("Suggestions = %d rows, want 1", len(suggestions))
	}
	if suggestions[0].Price != 2.25 {
		t.Errorf("Suggestion price = %.2f, want 2.25", suggestions[0].Price)
	}

	// The old ranking is gone wholesale
	got, err := store.GetMatchCandidates(ctx, firstID)
	if err != nil {
		t.Fatalf("Failed to get candidates: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Candidates = %d, want 1", len(got))
	}
	if got[0].ProductID != p2.ID || got[0].Confidence != 0.90 {
		t.Errorf("Candidate = product %d confidence %.2f, want %d/0.90",
			got[0].ProductID, got[0].Confidence, p2.ID)
	}
}

func TestSQLiteStorage_UpsertSuggestionRejectsBadConfidence(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	product := createTestProduct(t, store, "Snackco", "Corn Chips", "111")

	suggestion := testSuggestion(1, "SKU-9")
	err := store.UpsertSuggestion(ctx, suggestion, []model.MatchCandidate{
		{ProductID: product.ID, Confidence: 1.5},
	})
	if err == nil {
		t.Error("Expected error for out-of-range confidence")
	}
}

func TestSQLiteStorage_GetMatchCandidatesOrdered(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	p1 := createTestProduct(t, store, "Snackco", "Corn Chips", "111")
	p2 := createTestProduct(t, store, "Snackco", "Potato Chips", "222")
	p3 := createTestProduct(t, store, "Snackco", "Rice Crackers", "333")

	suggestion := testSuggestion(1, "SKU-9")
	err := store.UpsertSuggestion(ctx, suggestion, []model.MatchCandidate{
		{ProductID: p1.ID, Confidence: 0.40},
		{ProductID: p2.ID, Confidence: 0.95},
		{ProductID: p3.ID, Confidence: 0.70},
	})
	if err != nil {
		t.Fatalf("Failed to upsert suggestion: %v", err)
	}

	candidates, err := store.GetMatchCandidates(ctx, suggestion.ID)
	if err != nil {
		t.Fatalf("Failed to get candidates: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("Candidates = %d, want 3", len(candidates))
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Confidence > candidates[i-1].Confidence {
			t.Errorf("Candidates not sorted by confidence: %.2f after %.2f",
				candidates[i].Confidence, candidates[i-1].Confidence)
		}
	}
}
