package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateSvcFacade resolves withholding-tax rates for procurement types.
// Resolution fails closed: a type with no configured rate in either source
// returns apperrors.ErrNotConfigured, never a silent zero.
type RateSvcFacade interface {
	ResolveRate(ctx context.Context, procurementType string) (decimal.Decimal, error)

	// InvalidateCache drops every cached resolution. Wholesale only.
	InvalidateCache()
}
