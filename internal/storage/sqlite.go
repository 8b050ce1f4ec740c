// Package storage provides the data persistence layer for the reconciliation
// pipeline.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shelfwatch/shelfwatch/internal/model"
	"github.com/shelfwatch/shelfwatch/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// queryer is satisfied by both *sql.DB and *sql.Tx so that every operation
// is implemented once and shared between direct and transactional calls.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db         *sql.DB
	brandCache map[string]*model.Brand
	dbPath     string
	cacheMutex sync.RWMutex
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:         db,
		dbPath:     dbPath,
		brandCache: make(map[string]*model.Brand),
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Tx, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTx{tx: tx, storage: s}, nil
}

// sqliteTx wraps sql.Tx to implement service.Tx. Every Storage operation
// delegates to the shared implementation with the transaction as queryer.
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) SaveRawRecords(ctx context.Context, records []model.RawRecord) error {
	return t.storage.saveRawRecords(ctx, t.tx, records)
}

func (t *sqliteTx) GetPendingRawRecords(ctx context.Context, limit int, availableOnly bool) ([]model.RawRecord, error) {
	return t.storage.getPendingRawRecords(ctx, t.tx, limit, availableOnly)
}

func (t *sqliteTx) SetRawRecordStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	return t.storage.setRawRecordStatus(ctx, t.tx, id, status)
}

func (t *sqliteTx) RequeueFailedRecords(ctx context.Context, maxRetries int) (int64, error) {
	return t.storage.requeueFailedRecords(ctx, t.tx, maxRetries)
}

func (t *sqliteTx) GetCategories(ctx context.Context) ([]model.Category, error) {
	return t.storage.getCategories(ctx, t.tx)
}

func (t *sqliteTx) GetOrCreateBrand(ctx context.Context, name string) (*model.Brand, error) {
	return t.storage.getOrCreateBrand(ctx, t.tx, name)
}

func (t *sqliteTx) CreateMasterProduct(ctx context.Context, product *model.MasterProduct) error {
	return t.storage.createMasterProduct(ctx, t.tx, product)
}

func (t *sqliteTx) GetMasterProduct(ctx context.Context, id int64) (*model.MasterProduct, error) {
	return t.storage.getMasterProduct(ctx, t.tx, id)
}

func (t *sqliteTx) GetMasterProductsByBrand(ctx context.Context, brandName string) ([]model.MasterProduct, error) {
	return t.storage.getMasterProductsByBrand(ctx, t.tx, brandName)
}

func (t *sqliteTx) GetPricingByBarcode(ctx context.Context, barcode string) ([]model.RetailerPricing, error) {
	return t.storage.getPricingByBarcode(ctx, t.tx, barcode)
}

func (t *sqliteTx) GetPricingByRetailerCode(ctx context.Context, retailerID int64, retailerCode string) (*model.RetailerPricing, error) {
	return t.storage.getPricingByRetailerCode(ctx, t.tx, retailerID, retailerCode)
}

func (t *sqliteTx) GetPricingByProduct(ctx context.Context, productID int64) ([]model.RetailerPricing, error) {
	return t.storage.getPricingByProduct(ctx, t.tx, productID)
}

func (t *sqliteTx) CreateRetailerPricing(ctx context.Context, pricing *model.RetailerPricing) error {
	return t.storage.createRetailerPricing(ctx, t.tx, pricing)
}

func (t *sqliteTx) UpdateRetailerPricing(ctx context.Context, pricing *model.RetailerPricing) error {
	return t.storage.updateRetailerPricing(ctx, t.tx, pricing)
}

func (t *sqliteTx) AppendPricePoint(ctx context.Context, point *model.PricePoint) error {
	return t.storage.appendPricePoint(ctx, t.tx, point)
}

func (t *sqliteTx) UpsertSuggestion(ctx context.Context, suggestion *model.Suggestion, candidates []model.MatchCandidate) error {
	return t.storage.upsertSuggestion(ctx, t.tx, suggestion, candidates)
}

func (t *sqliteTx) GetSuggestions(ctx context.Context, limit int) ([]model.Suggestion, error) {
	return t.storage.getSuggestions(ctx, t.tx, limit)
}

func (t *sqliteTx) GetMatchCandidates(ctx context.Context, suggestionID int64) ([]model.MatchCandidate, error) {
	return t.storage.getMatchCandidates(ctx, t.tx, suggestionID)
}

// Migrate is not valid inside a transaction; it delegates to the parent
// storage which runs each migration in its own transaction.
func (t *sqliteTx) Migrate(ctx context.Context) error {
	return t.storage.Migrate(ctx)
}

// BeginTx on a transaction returns the transaction itself; SQLite has no
// nested transactions.
func (t *sqliteTx) BeginTx(_ context.Context) (service.Tx, error) {
	return t, nil
}

func (t *sqliteTx) Close() error {
	return nil
}
