package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/shelfwatch/shelfwatch/internal/common"
	"github.com/shelfwatch/shelfwatch/internal/model"
)

// createTestProduct inserts a product under a fresh brand and returns both.
func createTestProduct(t *testing.T, store *SQLiteStorage, brandName, name, barcode string) *model.MasterProduct {
	t.Helper()
	ctx := context.Background()

	brand, err := store.GetOrCreateBrand(ctx, brandName)
	if err != nil {
		t.Fatalf("Failed to create brand: %v", err)
	}

	categories, err := store.GetCategories(ctx)
	if err != nil || len(categories) == 0 {
		t.Fatalf("Failed to get categories: %v", err)
	}

	size := 500.0
	product := &model.MasterProduct{
		Barcode:    barcode,
		Name:       name,
		BrandID:    brand.ID,
		CategoryID: categories[0].ID,
		Size:       &size,
		Unit:       "g",
		A2CSize:    "500 g",
		RRP:        5.50,
	}
	if err := store.CreateMasterProduct(ctx, product); err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	return product
}

func TestSQLiteStorage_BrandCaseInsensitive(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	first, err := store.GetOrCreateBrand(ctx, "Nutco")
	if err != nil {
		t.Fatalf("Failed to create brand: %v", err)
	}

	variants := []string{"nutco", "NUTCO", " Nutco "}
	for _, v := range variants {
		got, err := store.GetOrCreateBrand(ctx, v)
		if err != nil {
			t.Fatalf("Failed to resolve %q: %v", v, err)
		}
		if got.ID != first.ID {
			t.Errorf("Brand %q resolved to id %d, want %d", v, got.ID, first.ID)
		}
	}
}

func TestSQLiteStorage_CreateAndGetMasterProduct(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	product := createTestProduct(t, store, "Nutco", "Crunchy Peanut Butter", "123456789")

	got, err := store.GetMasterProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("Failed to get product: %v", err)
	}
	if got.Name != product.Name || got.Barcode != product.Barcode {
		t.Errorf("Got product %+v, want %+v", got, product)
	}
	if got.Size == nil || *got.Size != 500.0 {
		t.Errorf("Got size %v, want 500", got.Size)
	}

	_, err = store.GetMasterProduct(ctx, 9999)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Missing product lookup: got %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_DuplicateBarcodeRejected(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	first := createTestProduct(t, store, "Nutco", "Crunchy Peanut Butter", "123456789")

	dup := &model.MasterProduct{
		Barcode:    "123456789",
		Name:       "Different Name",
		BrandID:    first.BrandID,
		CategoryID: first.CategoryID,
	}
	err := store.CreateMasterProduct(ctx, dup)
	if !errors.Is(err, common.ErrDuplicateEntry) {
		t.Errorf("Duplicate barcode: got %v, want ErrDuplicateEntry", err)
	}

	// Empty barcodes never collide
	for i := 0; i < 2; i++ {
		p := &model.MasterProduct{
			Name:       "Barcodeless",
			BrandID:    first.BrandID,
			CategoryID: first.CategoryID,
		}
		if err := store.CreateMasterProduct(ctx, p); err != nil {
			t.Errorf("Barcodeless product %d rejected: %v", i, err)
		}
	}
}

func TestSQLiteStorage_GetMasterProductsByBrand(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestProduct(t, store, "Nutco", "Crunchy Peanut Butter", "111")
	createTestProduct(t, store, "Nutco", "Smooth Peanut Butter", "222")
	createTestProduct(t, store, "OtherBrand", "Jam", "333")

	products, err := store.GetMasterProductsByBrand(ctx, "NUTCO")
	if err != nil {
		t.Fatalf("Failed to get products by brand: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("Products for brand = %d, want 2", len(products))
	}

	none, err := store.GetMasterProductsByBrand(ctx, "Unheard Of")
	if err != nil {
		t.Fatalf("Unknown brand lookup failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Unknown brand returned %d products, want 0", len(none))
	}
}
