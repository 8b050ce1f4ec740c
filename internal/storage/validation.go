package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shelfwatch/shelfwatch/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrEmptySlice   = errors.New("slice cannot be empty")
	ErrInvalidLimit = errors.New("limit must be positive")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateLimit ensures a query limit is positive.
func validateLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	return nil
}

// validateRawRecords validates a slice of raw records before saving.
func validateRawRecords(records []model.RawRecord) error {
	if records == nil {
		return fmt.Errorf("%w: records", ErrNilParameter)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: records", ErrEmptySlice)
	}
	for i, r := range records {
		if r.RetailerID == 0 {
			return fmt.Errorf("record %d: retailer id is required", i)
		}
		if strings.TrimSpace(r.RetailerCode) == "" {
			return fmt.Errorf("record %d: retailer code is required", i)
		}
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("record %d: product name is required", i)
		}
	}
	return nil
}

// validatePricing validates a retailer pricing row before writing.
func validatePricing(pricing *model.RetailerPricing) error {
	if pricing == nil {
		return fmt.Errorf("%w: pricing", ErrNilParameter)
	}
	if pricing.ProductID == 0 {
		return errors.New("pricing requires a product id")
	}
	if pricing.RetailerID == 0 {
		return errors.New("pricing requires a retailer id")
	}
	if strings.TrimSpace(pricing.RetailerCode) == "" {
		return errors.New("pricing requires a retailer code")
	}
	return nil
}
