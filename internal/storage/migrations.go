package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial catalog and work-queue schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS raw_records (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					retailer_id INTEGER NOT NULL,
					retailer_code TEXT NOT NULL,
					barcode TEXT NOT NULL DEFAULT '',
					name TEXT NOT NULL,
					brand TEXT NOT NULL DEFAULT '',
					category_path TEXT NOT NULL DEFAULT '',
					pack_size TEXT NOT NULL DEFAULT '',
					price REAL NOT NULL DEFAULT 0,
					was_price REAL NOT NULL DEFAULT 0,
					unit_price TEXT NOT NULL DEFAULT '',
					offer_text TEXT NOT NULL DEFAULT '',
					promo_type TEXT NOT NULL DEFAULT '',
					product_url TEXT NOT NULL DEFAULT '',
					image_url TEXT NOT NULL DEFAULT '',
					rrp REAL NOT NULL DEFAULT 0,
					available INTEGER NOT NULL DEFAULT 1,
					observed_at DATETIME NOT NULL,
					status INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_raw_records_status ON raw_records(status)`,
				`CREATE INDEX idx_raw_records_retailer ON raw_records(retailer_id, retailer_code)`,

				`CREATE TABLE IF NOT EXISTS brands (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL COLLATE NOCASE UNIQUE
				)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					parent_id INTEGER REFERENCES categories(id)
				)`,
				`CREATE INDEX idx_categories_parent ON categories(parent_id)`,

				`CREATE TABLE IF NOT EXISTS master_products (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					barcode TEXT NOT NULL DEFAULT '',
					name TEXT NOT NULL,
					brand_id INTEGER NOT NULL REFERENCES brands(id),
					category_id INTEGER NOT NULL REFERENCES categories(id),
					size REAL,
					unit TEXT NOT NULL DEFAULT '',
					configuration TEXT NOT NULL DEFAULT '',
					a2c_size TEXT NOT NULL DEFAULT '',
					rrp REAL NOT NULL DEFAULT 0,
					image_url TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE UNIQUE INDEX idx_master_products_barcode
					ON master_products(barcode) WHERE barcode != ''`,
				`CREATE INDEX idx_master_products_brand ON master_products(brand_id)`,

				`CREATE TABLE IF NOT EXISTS retailer_pricing (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					product_id INTEGER NOT NULL REFERENCES master_products(id),
					barcode TEXT NOT NULL DEFAULT '',
					retailer_id INTEGER NOT NULL,
					retailer_code TEXT NOT NULL,
					current_price REAL NOT NULL DEFAULT 0,
					was_price REAL NOT NULL DEFAULT 0,
					unit_price TEXT NOT NULL DEFAULT '',
					offer_text TEXT NOT NULL DEFAULT '',
					promo_type TEXT NOT NULL DEFAULT '',
					product_url TEXT NOT NULL DEFAULT '',
					available INTEGER NOT NULL DEFAULT 1,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(barcode, retailer_id, retailer_code)
				)`,
				`CREATE INDEX idx_retailer_pricing_product ON retailer_pricing(product_id)`,
				`CREATE INDEX idx_retailer_pricing_retailer ON retailer_pricing(retailer_id, retailer_code)`,

				`CREATE TABLE IF NOT EXISTS price_history (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					pricing_id INTEGER NOT NULL REFERENCES retailer_pricing(id),
					price REAL NOT NULL,
					rrp REAL NOT NULL DEFAULT 0,
					observed_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_price_history_pricing ON price_history(pricing_id)`,

				`CREATE TABLE IF NOT EXISTS suggestions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					retailer_id INTEGER NOT NULL,
					retailer_code TEXT NOT NULL,
					barcode TEXT NOT NULL DEFAULT '',
					name TEXT NOT NULL DEFAULT '',
					brand TEXT NOT NULL DEFAULT '',
					category_path TEXT NOT NULL DEFAULT '',
					pack_size TEXT NOT NULL DEFAULT '',
					price REAL NOT NULL DEFAULT 0,
					rrp REAL NOT NULL DEFAULT 0,
					image_url TEXT NOT NULL DEFAULT '',
					product_url TEXT NOT NULL DEFAULT '',
					observed_at DATETIME NOT NULL,
					UNIQUE(retailer_id, retailer_code)
				)`,

				`CREATE TABLE IF NOT EXISTS match_candidates (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					suggestion_id INTEGER NOT NULL REFERENCES suggestions(id) ON DELETE CASCADE,
					product_id INTEGER NOT NULL REFERENCES master_products(id),
					confidence REAL NOT NULL CHECK(confidence >= 0 AND confidence <= 1)
				)`,
				`CREATE INDEX idx_match_candidates_suggestion ON match_candidates(suggestion_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed default Home category",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				INSERT INTO categories (name, parent_id)
				SELECT 'Home', NULL
				WHERE NOT EXISTS (
					SELECT 1 FROM categories WHERE name = 'Home' AND parent_id IS NULL
				)`)
			if err != nil {
				return fmt.Errorf("failed to seed default category: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add bounded retry counter to raw records",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE raw_records ADD COLUMN retry_count INTEGER NOT NULL DEFAULT 0`)
			if err != nil {
				return fmt.Errorf("failed to add retry_count: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
